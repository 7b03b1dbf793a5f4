package query

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDescriptor_EqualIgnoresFilterOrder(t *testing.T) {
	a := New().WithFilter("role", String("user")).WithFilter("active", Bool(true))
	b := New().WithFilter("active", Bool(true)).WithFilter("role", String("user"))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
}

func TestDescriptor_PresenceIsSignificant(t *testing.T) {
	base := New().WithFilter("role", String("user"))

	tests := []struct {
		name  string
		other Descriptor
	}{
		{"extra explicit all filter", base.WithFilter("active", All())},
		{"different value kind", New().WithFilter("role", Bool(true))},
		{"search set", base.WithSearch("doe")},
		{"sort set", base.WithSort("name", Asc)},
		{"page set", base.WithPage(1, 20)},
		{"unbounded", base.WithAll()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, base.Equal(tt.other))
		})
	}
}

func TestDescriptor_StringAndBoolKindsDiffer(t *testing.T) {
	a := New().WithFilter("active", String("true"))
	b := New().WithFilter("active", Bool(true))

	assert.False(t, a.Equal(b))
	// both encode the same on the wire
	assert.Equal(t, a.Encode(), b.Encode())
}

func TestDescriptor_IsImmutable(t *testing.T) {
	base := New().WithFilter("role", String("user"))
	derived := base.WithFilter("role", String("admin")).WithoutFilter("role").WithFilter("active", Bool(false))

	v, ok := base.Filter("role")
	assert.True(t, ok)
	assert.Equal(t, "user", v.String())
	_, ok = base.Filter("active")
	assert.False(t, ok)
	_, ok = derived.Filter("role")
	assert.False(t, ok)
}

func TestDescriptor_ZeroValueRemovesFilter(t *testing.T) {
	d := New().WithFilter("role", String("user")).WithFilter("role", Value{})
	assert.Empty(t, d.Fields())
	assert.True(t, d.Equal(New()))
}

func TestDescriptor_ReservedFilterNamesIgnored(t *testing.T) {
	d := New().WithFilter("_search", String("x")).WithFilter("", String("y"))
	assert.True(t, d.Equal(New()))
}

func TestDescriptor_PagingModesAreExclusive(t *testing.T) {
	d := New().WithPage(3, 20).WithAll()
	assert.True(t, d.IsAll())
	assert.Zero(t, d.Page())
	assert.Zero(t, d.Limit())

	d = d.WithPage(2, 10)
	assert.False(t, d.IsAll())
	assert.Equal(t, 2, d.Page())
}

func TestDescriptor_Params(t *testing.T) {
	d := New().
		WithFilter("role", String("user")).
		WithFilter("active", Bool(true)).
		WithFilter("team", All()).
		WithFilter("nickname", String("")).
		WithSearch("doe").
		WithSort("name", Desc).
		WithPage(2, 25)

	expected := []Param{
		{"active", "true"},
		{"role", "user"},
		{ParamSearch, "doe"},
		{ParamSort, "name"},
		{ParamOrder, "desc"},
		{ParamPage, "2"},
		{ParamLimit, "25"},
	}
	if diff := cmp.Diff(expected, d.Params()); diff != "" {
		t.Errorf("Params() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "active=true&role=user&_search=doe&_sort=name&_order=desc&_page=2&_limit=25", d.Encode())
}

func TestDescriptor_EncodeIsDeterministic(t *testing.T) {
	d := New().WithFilter("b", Int(2)).WithFilter("a", Float(1.5)).WithFilter("c", String("x y"))
	first := d.Encode()
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, d.Encode())
	}
	assert.Equal(t, "a=1.5&b=2&c=x+y", first)
}

func TestDescriptor_Merge(t *testing.T) {
	base := New().WithSort("createdAt", Desc).WithFilter("role", String("user"))
	active := New().WithFilter("role", String("admin")).WithSearch("jane").WithAll()

	merged := base.Merge(active)
	v, _ := merged.Filter("role")
	assert.Equal(t, "admin", v.String())
	assert.Equal(t, "jane", merged.Search())
	assert.Equal(t, "createdAt", merged.Sort())
	assert.Equal(t, Desc, merged.Order())
	assert.True(t, merged.IsAll())
}

func TestParse(t *testing.T) {
	values := url.Values{
		"role":      {"user"},
		"_search":   {"doe"},
		"_sort":     {"name"},
		"_order":    {"DESC"},
		"_page":     {"3"},
		"_limit":    {"abc"},
		"_unknown":  {"1"},
		"empty":     {""},
		"duplicate": {"first", "last"},
	}

	d := Parse(values)
	expected := New().
		WithFilter("role", String("user")).
		WithFilter("duplicate", String("last")).
		WithSearch("doe").
		WithSort("name", Desc).
		WithPage(3, 0)

	assert.True(t, expected.Equal(d), "got %s", d.Key())
}

func TestParse_ClampsLimit(t *testing.T) {
	d := Parse(url.Values{"_page": {"2"}, "_limit": {"4294967296"}})
	assert.Equal(t, MaxLimit, d.Limit())
	assert.Equal(t, 2, d.Page())

	d = Parse(url.Values{"_limit": {"50"}})
	assert.Equal(t, 50, d.Limit())
}

func TestParse_AllOverridesPaging(t *testing.T) {
	d := Parse(url.Values{"_all": {"true"}, "_page": {"2"}, "_limit": {"5"}})
	assert.True(t, d.IsAll())
	assert.Zero(t, d.Page())
	assert.Zero(t, d.Limit())
}

func TestParse_RoundTripsEncode(t *testing.T) {
	d := New().WithFilter("role", String("manager")).WithSearch("a&b").WithSort("email", Asc).WithPage(4, 10)
	values, err := url.ParseQuery(d.Encode())
	assert.NoError(t, err)
	assert.True(t, d.Equal(Parse(values)))
}

func TestOrder_Toggle(t *testing.T) {
	assert.Equal(t, Desc, Asc.Toggle())
	assert.Equal(t, Asc, Desc.Toggle())
	assert.Equal(t, Desc, Order("").Toggle())
}
