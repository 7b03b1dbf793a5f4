package app

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sweater-ventures/roster/client"
	"github.com/sweater-ventures/roster/query"
	"golang.org/x/text/cases"
)

// Record is a stored document decoded into its JSON fields.
type Record map[string]any

const (
	defaultPage  = 1
	defaultLimit = 20
)

func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("decoding record: not an object")
	}
	return rec, nil
}

// clone copies the top level of the record. Nested values are shared and
// must not be modified.
func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// without returns a copy of r minus the given fields.
func (r Record) without(fields []string) Record {
	out := r.clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// stringify renders a decoded JSON value the way a browser's String() would.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return strconv.FormatFloat(val, 'g', -1, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if item != nil {
				parts[i] = stringify(item)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	}
	return fmt.Sprint(v)
}

// SearchRecords keeps records where any visible top-level value contains
// term, ignoring case.
func SearchRecords(records []Record, term string, hidden []string) []Record {
	if term == "" {
		return records
	}
	fold := cases.Fold()
	needle := fold.String(term)
	var out []Record
	for _, rec := range records {
		for field, val := range rec {
			if slices.Contains(hidden, field) {
				continue
			}
			if strings.Contains(fold.String(stringify(val)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// FilterRecords keeps records whose stringified field equals every filter
// value exactly. The All sentinel matches everything.
func FilterRecords(records []Record, q query.Descriptor) []Record {
	out := records
	for _, field := range q.Fields() {
		v, _ := q.Filter(field)
		if v.IsAll() {
			continue
		}
		want := v.String()
		var kept []Record
		for _, rec := range out {
			if stringify(rec[field]) == want {
				kept = append(kept, rec)
			}
		}
		out = kept
	}
	return out
}

// compareValues orders two decoded JSON values. Timestamps compare as times,
// numbers numerically, strings lexically and false before true. Mixed or
// missing values compare equal so the stable sort keeps their order.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return cmpOrdered(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return cmpOrdered(boolRank(av), boolRank(bv))
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			break
		}
		at, aErr := time.Parse(time.RFC3339Nano, av)
		bt, bErr := time.Parse(time.RFC3339Nano, bv)
		if aErr == nil && bErr == nil {
			return at.Compare(bt)
		}
		return strings.Compare(av, bv)
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortRecords sorts in place by one top-level field. The sort is stable.
func SortRecords(records []Record, field string, order query.Order) {
	if field == "" {
		return
	}
	slices.SortStableFunc(records, func(a, b Record) int {
		c := compareValues(a[field], b[field])
		if order == query.Desc {
			return -c
		}
		return c
	})
}

// Paginate slices one page out of records. With q.IsAll the whole set is one
// page.
func Paginate(records []Record, q query.Descriptor) ([]Record, client.Meta) {
	total := len(records)
	if q.IsAll() {
		return records, client.Meta{Total: total, Page: 1, Limit: total, TotalPages: 1}
	}

	page, limit := q.Page(), q.Limit()
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	meta := client.Meta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	// compare pages before multiplying so huge page or limit values cannot overflow
	if page-1 >= totalPages {
		return []Record{}, meta
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	return records[start:end], meta
}

// QueryRecords applies search, filters, sort and pagination in that order.
// The input slice is not modified.
func QueryRecords(records []Record, q query.Descriptor, hidden []string) ([]Record, client.Meta) {
	result := SearchRecords(records, q.Search(), hidden)
	result = FilterRecords(result, q)
	result = slices.Clone(result)
	SortRecords(result, q.Sort(), q.Order())
	page, meta := Paginate(result, q)
	if page == nil {
		page = []Record{}
	}
	return page, meta
}
