// Package query defines the canonical description of a list request: filter
// values plus the reserved search, sort and pagination fields. A Descriptor is
// immutable; the With* methods return modified copies. Descriptors are used as
// cache keys by the resource cache, encoded onto the wire by the client and
// parsed back by the API.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Reserved query parameter names.
const (
	ParamSearch = "_search"
	ParamSort   = "_sort"
	ParamOrder  = "_order"
	ParamPage   = "_page"
	ParamLimit  = "_limit"
	ParamAll    = "_all"
)

// MaxLimit caps the page size a parsed request may ask for. Larger values are
// clamped; use _all for the whole set.
const MaxLimit = 1000

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Toggle flips the direction. An unset order toggles to Desc, since unset
// behaves as Asc.
func (o Order) Toggle() Order {
	if o == Desc {
		return Asc
	}
	return Desc
}

type valueKind uint8

const (
	kindNone valueKind = iota
	kindString
	kindBool
	kindNumber
	kindAll
)

// Value is a scalar filter value. The zero Value means "not set". All is an
// explicit "match everything" sentinel: it is part of a descriptor's identity
// but is never sent to the server.
type Value struct {
	kind valueKind
	text string
}

func String(s string) Value { return Value{kind: kindString, text: s} }

func Bool(b bool) Value { return Value{kind: kindBool, text: strconv.FormatBool(b)} }

func Int(n int) Value { return Value{kind: kindNumber, text: strconv.Itoa(n)} }

func Float(f float64) Value {
	return Value{kind: kindNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

func All() Value { return Value{kind: kindAll} }

func (v Value) IsZero() bool { return v.kind == kindNone }

func (v Value) IsAll() bool { return v.kind == kindAll }

// String returns the wire form of the value.
func (v Value) String() string { return v.text }

// sendable reports whether the value goes on the wire. Unset, All and empty
// strings are dropped.
func (v Value) sendable() bool {
	return v.kind != kindNone && v.kind != kindAll && v.text != ""
}

func (v Value) keyForm() string {
	switch v.kind {
	case kindString:
		return "s:" + v.text
	case kindBool:
		return "b:" + v.text
	case kindNumber:
		return "n:" + v.text
	case kindAll:
		return "*"
	}
	return ""
}

// Descriptor is an immutable list query. The zero value is an empty query.
type Descriptor struct {
	filters map[string]Value
	search  string
	sort    string
	order   Order
	page    int
	limit   int
	all     bool
}

func New() Descriptor { return Descriptor{} }

func (d Descriptor) cloneFilters() map[string]Value {
	out := make(map[string]Value, len(d.filters)+1)
	for k, v := range d.filters {
		out[k] = v
	}
	return out
}

// WithFilter sets a filter. A zero value removes it. Names starting with "_"
// are reserved and ignored.
func (d Descriptor) WithFilter(field string, v Value) Descriptor {
	if field == "" || strings.HasPrefix(field, "_") {
		return d
	}
	if v.IsZero() {
		return d.WithoutFilter(field)
	}
	d.filters = d.cloneFilters()
	d.filters[field] = v
	return d
}

func (d Descriptor) WithoutFilter(field string) Descriptor {
	if _, ok := d.filters[field]; !ok {
		return d
	}
	d.filters = d.cloneFilters()
	delete(d.filters, field)
	return d
}

func (d Descriptor) WithSearch(term string) Descriptor {
	d.search = term
	return d
}

// WithSort sets the sort field and direction. An empty field clears both.
func (d Descriptor) WithSort(field string, order Order) Descriptor {
	if field == "" {
		d.sort, d.order = "", ""
		return d
	}
	d.sort, d.order = field, order
	return d
}

// WithPage requests one page. It clears the unbounded flag.
func (d Descriptor) WithPage(page, limit int) Descriptor {
	d.page, d.limit, d.all = page, limit, false
	return d
}

// WithAll requests the whole result set. It clears page and limit.
func (d Descriptor) WithAll() Descriptor {
	d.page, d.limit, d.all = 0, 0, true
	return d
}

// Merge returns d with every field present in o applied on top.
func (d Descriptor) Merge(o Descriptor) Descriptor {
	for _, field := range o.Fields() {
		d = d.WithFilter(field, o.filters[field])
	}
	if o.search != "" {
		d.search = o.search
	}
	if o.sort != "" {
		d.sort, d.order = o.sort, o.order
	}
	if o.all {
		d = d.WithAll()
	} else if o.page != 0 || o.limit != 0 {
		d = d.WithPage(o.page, o.limit)
	}
	return d
}

// Filter returns the value set for field.
func (d Descriptor) Filter(field string) (Value, bool) {
	v, ok := d.filters[field]
	return v, ok
}

// Fields returns the filter names in sorted order.
func (d Descriptor) Fields() []string {
	fields := make([]string, 0, len(d.filters))
	for k := range d.filters {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func (d Descriptor) Search() string { return d.search }
func (d Descriptor) Sort() string   { return d.sort }
func (d Descriptor) Order() Order   { return d.order }
func (d Descriptor) Page() int      { return d.page }
func (d Descriptor) Limit() int     { return d.limit }
func (d Descriptor) IsAll() bool    { return d.all }

// Key is the canonical identity of the descriptor. Two descriptors have the
// same key iff every field, reserved ones included, is equal.
func (d Descriptor) Key() string {
	v := url.Values{}
	for field, val := range d.filters {
		v.Set("f:"+field, val.keyForm())
	}
	if d.search != "" {
		v.Set("r:search", d.search)
	}
	if d.sort != "" {
		v.Set("r:sort", d.sort)
	}
	if d.order != "" {
		v.Set("r:order", string(d.order))
	}
	if d.page != 0 {
		v.Set("r:page", strconv.Itoa(d.page))
	}
	if d.limit != 0 {
		v.Set("r:limit", strconv.Itoa(d.limit))
	}
	if d.all {
		v.Set("r:all", "true")
	}
	return v.Encode()
}

func (d Descriptor) Equal(o Descriptor) bool { return d.Key() == o.Key() }

// Param is one wire query parameter.
type Param struct {
	Name  string
	Value string
}

// Params lists the wire parameters in a deterministic order: filters by name,
// then the reserved fields.
func (d Descriptor) Params() []Param {
	var params []Param
	for _, field := range d.Fields() {
		if val := d.filters[field]; val.sendable() {
			params = append(params, Param{field, val.text})
		}
	}
	if d.search != "" {
		params = append(params, Param{ParamSearch, d.search})
	}
	if d.sort != "" {
		params = append(params, Param{ParamSort, d.sort})
	}
	if d.order != "" {
		params = append(params, Param{ParamOrder, string(d.order)})
	}
	if d.page != 0 {
		params = append(params, Param{ParamPage, strconv.Itoa(d.page)})
	}
	if d.limit != 0 {
		params = append(params, Param{ParamLimit, strconv.Itoa(d.limit)})
	}
	if d.all {
		params = append(params, Param{ParamAll, "true"})
	}
	return params
}

// Encode renders the wire query string without a leading "?".
func (d Descriptor) Encode() string {
	var b strings.Builder
	for i, p := range d.Params() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Parse reads a descriptor from wire parameters. Filter values arrive as
// strings; the server compares them against stringified fields. Malformed
// _page and _limit values are dropped so the server defaults apply, _limit is
// clamped to MaxLimit, and unknown reserved names are ignored.
func Parse(values url.Values) Descriptor {
	d := New()
	for name, vals := range values {
		if len(vals) == 0 {
			continue
		}
		raw := vals[len(vals)-1]
		switch name {
		case ParamSearch:
			d.search = raw
		case ParamSort:
			d.sort = raw
		case ParamOrder:
			switch Order(strings.ToLower(raw)) {
			case Asc:
				d.order = Asc
			case Desc:
				d.order = Desc
			}
		case ParamPage:
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				d.page = n
			}
		case ParamLimit:
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				d.limit = min(n, MaxLimit)
			}
		case ParamAll:
			d.all = raw == "true"
		default:
			if raw != "" {
				d = d.WithFilter(name, String(raw))
			}
		}
	}
	if d.all {
		d.page, d.limit = 0, 0
	}
	return d
}
