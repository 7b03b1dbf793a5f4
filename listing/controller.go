// Package listing turns list UI state (search, filters, sort, paging) into
// query descriptors and loads the matching pages through the resource cache.
package listing

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/query"
	"github.com/sweater-ventures/roster/resource"
)

type PaginationMode string

const (
	Paged     PaginationMode = "paged"
	Unbounded PaginationMode = "all"
)

type ViewMode string

const (
	TableView ViewMode = "table"
	GridView  ViewMode = "grid"
)

// Lister is the slice of resource.Client a controller needs.
type Lister[T any] interface {
	ListRead(ctx context.Context, q query.Descriptor) (resource.List[T], error)
	Peek(q query.Descriptor) (resource.List[T], bool)
}

type Config struct {
	// Base is merged under the active state. Its sort applies until the user
	// picks one.
	Base     query.Descriptor
	PageSize int
	Mode     PaginationMode
	ViewMode ViewMode
}

// State is a snapshot of the controller's inputs.
type State struct {
	Search    string
	Filters   map[string]query.Value
	SortField string
	SortOrder query.Order
	Mode      PaginationMode
	ViewMode  ViewMode
	Page      int
	PageSize  int
}

// View is the result of one Load.
type View[T any] struct {
	Items      []T
	Stats      Stats
	Descriptor query.Descriptor
	// Err is set when the read failed. Items then hold the last cached data
	// for the descriptor, if any.
	Err error
}

type Controller[T any] struct {
	lister Lister[T]
	base   query.Descriptor

	mu      sync.Mutex
	state   State
	version uint64
	current *View[T]
}

func NewController[T any](lister Lister[T], cfg Config) *Controller[T] {
	if cfg.PageSize < 1 {
		cfg.PageSize = 25
	}
	if cfg.Mode == "" {
		cfg.Mode = Paged
	}
	if cfg.ViewMode == "" {
		cfg.ViewMode = TableView
	}
	return &Controller[T]{
		lister: lister,
		base:   cfg.Base,
		state: State{
			Filters:  map[string]query.Value{},
			Mode:     cfg.Mode,
			ViewMode: cfg.ViewMode,
			Page:     1,
			PageSize: cfg.PageSize,
		},
	}
}

// update applies fn under the lock and bumps the version so in-flight loads
// stop publishing.
func (c *Controller[T]) update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.version++
}

func (c *Controller[T]) SetSearch(text string) {
	c.update(func(s *State) {
		s.Search = text
		s.Page = 1
	})
}

// SetFilter sets one filter. A zero value or query.All removes it.
func (c *Controller[T]) SetFilter(field string, v query.Value) {
	c.update(func(s *State) {
		if v.IsZero() || v.IsAll() {
			delete(s.Filters, field)
		} else {
			s.Filters[field] = v
		}
		s.Page = 1
	})
}

func (c *Controller[T]) ClearFilter(field string) {
	c.SetFilter(field, query.Value{})
}

// SetSort sorts by field ascending, or flips the direction when field is
// already the sort field.
func (c *Controller[T]) SetSort(field string) {
	c.update(func(s *State) {
		if s.SortField == field {
			s.SortOrder = s.SortOrder.Toggle()
		} else {
			s.SortField = field
			s.SortOrder = query.Asc
		}
		s.Page = 1
	})
}

func (c *Controller[T]) SetPaginationMode(mode PaginationMode) {
	c.update(func(s *State) {
		s.Mode = mode
		s.Page = 1
	})
}

func (c *Controller[T]) SetPage(page int) {
	c.update(func(s *State) {
		s.Page = max(1, page)
	})
}

func (c *Controller[T]) SetPageSize(size int) {
	c.update(func(s *State) {
		if size > 0 {
			s.PageSize = size
		}
	})
}

// SetViewMode changes presentation only; the descriptor is unaffected.
func (c *Controller[T]) SetViewMode(mode ViewMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ViewMode = mode
}

// ClearAll resets search, filters and sort and returns to page 1. Pagination
// mode and page size are kept.
func (c *Controller[T]) ClearAll() {
	c.update(func(s *State) {
		s.Search = ""
		s.Filters = map[string]query.Value{}
		s.SortField = ""
		s.SortOrder = ""
		s.Page = 1
	})
}

// NextPage advances one page, never past the last page of the last
// published view.
func (c *Controller[T]) NextPage() {
	c.update(func(s *State) {
		s.Page = min(s.Page+1, c.totalPagesLocked())
	})
}

func (c *Controller[T]) PrevPage() {
	c.update(func(s *State) {
		s.Page = max(1, s.Page-1)
	})
}

func (c *Controller[T]) totalPagesLocked() int {
	if c.current == nil {
		return 1
	}
	return max(1, c.current.Stats.TotalPages)
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Filters = make(map[string]query.Value, len(c.state.Filters))
	for k, v := range c.state.Filters {
		s.Filters[k] = v
	}
	return s
}

// HasActiveFilters reports whether a search term or any filter is set.
func (c *Controller[T]) HasActiveFilters() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(c.state.Search) != "" || len(c.state.Filters) > 0
}

func (c *Controller[T]) Descriptor() query.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.descriptorLocked()
}

func (c *Controller[T]) descriptorLocked() query.Descriptor {
	d := c.base
	for field, v := range c.state.Filters {
		d = d.WithFilter(field, v)
	}
	if term := strings.TrimSpace(c.state.Search); term != "" {
		d = d.WithSearch(term)
	}
	if c.state.SortField != "" {
		d = d.WithSort(c.state.SortField, c.state.SortOrder)
	}
	if c.state.Mode == Unbounded {
		return d.WithAll()
	}
	return d.WithPage(c.state.Page, c.state.PageSize)
}

// Load reads the current descriptor through the cache. The returned view is
// published as Current only if the state did not change while loading.
func (c *Controller[T]) Load(ctx context.Context) View[T] {
	c.mu.Lock()
	version := c.version
	q := c.descriptorLocked()
	mode, page, pageSize := c.state.Mode, c.state.Page, c.state.PageSize
	c.mu.Unlock()

	view := View[T]{Descriptor: q}
	list, err := c.lister.ListRead(ctx, q)
	if err != nil {
		log(ctx).Warn("List read failed", slog.String("query", q.Encode()), slog.Any("error", err))
		view.Err = err
		if cached, ok := c.lister.Peek(q); ok {
			list = cached
		} else {
			list = resource.List[T]{Items: []T{}}
		}
	}
	view.Items = list.Items
	view.Stats = statsFor(mode, page, pageSize, list)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version == version {
		published := view
		c.current = &published
	} else {
		log(ctx).Debug("Dropping superseded list view", slog.String("query", q.Encode()))
	}
	return view
}

// Current returns the last published view.
func (c *Controller[T]) Current() (View[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return View[T]{}, false
	}
	return *c.current, true
}

func statsFor[T any](mode PaginationMode, page, pageSize int, list resource.List[T]) Stats {
	if mode == Unbounded {
		n := len(list.Items)
		stats := GetStats(n, max(1, n), 1)
		stats.Showing = n
		return stats
	}
	if list.Meta.Page > 0 {
		page = list.Meta.Page
	}
	stats := GetStats(list.Meta.Total, pageSize, page)
	stats.Showing = len(list.Items)
	return stats
}

func log(ctx context.Context) *slog.Logger {
	log := ctx.Value(config.LoggerContextKey)
	if log == nil {
		return slog.Default()
	} else {
		return log.(*slog.Logger)
	}
}
