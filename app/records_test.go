package app

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sweater-ventures/roster/query"
)

func sampleRecords() []Record {
	return []Record{
		{"id": "1", "name": "Zeynep Kaya", "role": "admin", "active": true, "age": float64(31), "createdAt": "2024-03-01T10:00:00Z"},
		{"id": "2", "name": "Ali Demir", "role": "user", "active": false, "age": float64(25), "createdAt": "2024-01-15T10:00:00.5Z"},
		{"id": "3", "name": "İbrahim Çelik", "role": "user", "active": true, "age": float64(44), "createdAt": "2024-02-10T10:00:00Z"},
		{"id": "4", "name": "Şule Aydın", "role": "manager", "active": true, "age": float64(9), "createdAt": "2023-12-31T23:59:59Z", "passwordHash": "kaya"},
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r["id"].(string)
	}
	return out
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"x", "x"},
		{true, "true"},
		{float64(3), "3"},
		{1.5, "1.5"},
		{[]any{"a", float64(1), nil}, "a,1,"},
		{map[string]any{"a": 1}, "[object Object]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stringify(tt.in))
	}
}

func TestSearchRecords(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, []string{"1"}, ids(SearchRecords(records, "zeyNEP", nil)))
	assert.Equal(t, []string{"2", "3"}, ids(SearchRecords(records, "USER", nil)))
	assert.Len(t, SearchRecords(records, "", nil), 4, "empty term keeps everything")
	assert.Empty(t, SearchRecords(records, "nobody", nil))
}

func TestSearchRecords_SkipsHiddenFields(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, []string{"1", "4"}, ids(SearchRecords(records, "kaya", nil)))
	assert.Equal(t, []string{"1"}, ids(SearchRecords(records, "kaya", []string{"passwordHash"})))
}

func TestFilterRecords(t *testing.T) {
	records := sampleRecords()

	q := query.New().WithFilter("role", query.String("user"))
	assert.Equal(t, []string{"2", "3"}, ids(FilterRecords(records, q)))

	q = q.WithFilter("active", query.Bool(true))
	assert.Equal(t, []string{"3"}, ids(FilterRecords(records, q)))

	q = query.New().WithFilter("age", query.Int(9))
	assert.Equal(t, []string{"4"}, ids(FilterRecords(records, q)))

	q = query.New().WithFilter("role", query.All())
	assert.Len(t, FilterRecords(records, q), 4)
}

func TestFilterRecords_ParsedStrings(t *testing.T) {
	q := query.Parse(url.Values{"active": {"false"}})
	assert.Equal(t, []string{"2"}, ids(FilterRecords(sampleRecords(), q)))
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		name  string
		field string
		order query.Order
		want  []string
	}{
		{"strings asc", "name", query.Asc, []string{"2", "1", "3", "4"}},
		{"numbers desc", "age", query.Desc, []string{"3", "1", "2", "4"}},
		{"timestamps asc", "createdAt", query.Asc, []string{"4", "2", "3", "1"}},
		{"bools asc is stable", "active", query.Asc, []string{"2", "1", "3", "4"}},
		{"missing field keeps order", "nope", query.Asc, []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := sampleRecords()
			SortRecords(records, tt.field, tt.order)
			assert.Equal(t, tt.want, ids(records))
		})
	}
}

func TestPaginate(t *testing.T) {
	records := make([]Record, 45)
	for i := range records {
		records[i] = Record{"id": i}
	}

	page, meta := Paginate(records, query.New().WithPage(3, 20))
	assert.Len(t, page, 5)
	assert.Equal(t, 45, meta.Total)
	assert.Equal(t, 3, meta.Page)
	assert.Equal(t, 20, meta.Limit)
	assert.Equal(t, 3, meta.TotalPages)

	page, meta = Paginate(records, query.New())
	assert.Len(t, page, 20, "defaults to page 1 of 20")
	assert.Equal(t, 1, meta.Page)

	page, meta = Paginate(records, query.New().WithPage(9, 20))
	assert.Empty(t, page)
	assert.NotNil(t, page)
	assert.Equal(t, 9, meta.Page)

	page, meta = Paginate(records, query.New().WithAll())
	assert.Len(t, page, 45)
	assert.Equal(t, 1, meta.TotalPages)
	assert.Equal(t, 45, meta.Limit)
}

func TestPaginate_Empty(t *testing.T) {
	page, meta := Paginate(nil, query.New().WithPage(1, 10))
	assert.Empty(t, page)
	assert.Equal(t, 0, meta.TotalPages)

	_, meta = Paginate(nil, query.New().WithAll())
	assert.Equal(t, 1, meta.TotalPages)
	assert.Equal(t, 0, meta.Limit)
}

func TestPaginate_HugePageAndLimit(t *testing.T) {
	records := sampleRecords()

	q := query.Parse(url.Values{"_page": {"4294967296"}, "_limit": {"4294967296"}})
	page, meta := QueryRecords(records, q, nil)
	assert.Empty(t, page)
	assert.Equal(t, query.MaxLimit, meta.Limit)
	assert.Equal(t, 1, meta.TotalPages)

	page, meta = Paginate(records, query.New().WithPage(math.MaxInt, math.MaxInt))
	assert.Empty(t, page)
	assert.Equal(t, 1, meta.TotalPages)

	page, meta = Paginate(records, query.New().WithPage(1, math.MaxInt))
	assert.Len(t, page, len(records))
	assert.Equal(t, 1, meta.TotalPages)

	page, _ = Paginate(records, query.New().WithPage(math.MaxInt/2+2, 2))
	assert.Empty(t, page)
}

func TestQueryRecords_DoesNotReorderInput(t *testing.T) {
	records := sampleRecords()
	q := query.New().WithSort("age", query.Asc).WithPage(1, 2)

	page, meta := QueryRecords(records, q, nil)
	assert.Equal(t, []string{"4", "2"}, ids(page))
	assert.Equal(t, 4, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(records))
}

func TestQueryRecords_SearchThenFilter(t *testing.T) {
	q := query.New().WithSearch("a").WithFilter("role", query.String("user")).WithSort("name", query.Asc)
	page, meta := QueryRecords(sampleRecords(), q, nil)
	assert.Equal(t, []string{"2", "3"}, ids(page))
	assert.Equal(t, 2, meta.Total)
}
