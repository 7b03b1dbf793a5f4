// Package resource is the client-side cache in front of the wire client. A
// Store holds list and detail entries for every resource; Client[T] is the
// typed per-resource view used by controllers.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

type Kind uint8

const (
	KindList Kind = iota + 1
	KindDetail
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindDetail:
		return "detail"
	}
	return "unknown"
}

type Status uint8

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	}
	return "unknown"
}

// Key identifies one cache entry. ID is the descriptor key for lists and the
// entity id for details.
type Key struct {
	Resource string
	Kind     Kind
	ID       string
}

// EntryState is a read-only snapshot of an entry.
type EntryState struct {
	Status    Status
	FetchedAt time.Time
	Stale     bool
	Err       error
	HasData   bool
}

type entry struct {
	status    Status
	data      json.RawMessage // last successful body; never modified after store
	fetchedAt time.Time
	stale     bool
	err       error
	loading   int
	// version counts stored bodies. A fetch that finds it moved on since it
	// began knows a newer body is already in place.
	version uint64
}

// Stats counts cache traffic since the store was created.
type Stats struct {
	Hits      int64
	Misses    int64
	Fetches   int64
	Coalesced int64
	Entries   int
}

type Options struct {
	ListStaleTime   time.Duration
	DetailStaleTime time.Duration
	MaxEntries      int
	// FetchTimeout bounds a shared fetch. It runs detached from the callers'
	// contexts so one caller giving up does not fail the others.
	FetchTimeout time.Duration
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ListStaleTime <= 0 {
		o.ListStaleTime = 5 * time.Minute
	}
	if o.DetailStaleTime <= 0 {
		o.DetailStaleTime = 10 * time.Minute
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = 512
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 30 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store is the shared cache. It is safe for concurrent use. Construct one per
// process (or per test) and hand it to every Client.
type Store struct {
	opts Options

	mu      sync.Mutex
	entries *lru.Cache[Key, *entry]
	// gens counts writes per resource. A fetch records the generation it
	// started under and only stores its result if no write happened since.
	gens  map[string]uint64
	stats Stats

	group singleflight.Group
}

func NewStore(opts Options) (*Store, error) {
	opts = opts.withDefaults()
	entries, err := lru.New[Key, *entry](opts.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &Store{
		opts:    opts,
		entries: entries,
		gens:    make(map[string]uint64),
	}, nil
}

func (s *Store) staleTime(kind Kind) time.Duration {
	if kind == KindDetail {
		return s.opts.DetailStaleTime
	}
	return s.opts.ListStaleTime
}

// fresh returns the cached body for key if it is usable without a fetch.
func (s *Store) fresh(key Key) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(key)
	if !ok || e.status != StatusSuccess || e.stale || s.opts.Now().Sub(e.fetchedAt) >= s.staleTime(key.Kind) {
		s.stats.Misses++
		return nil, false
	}
	s.stats.Hits++
	return e.data, true
}

// fetchStart is what a fetch remembers from when it began.
type fetchStart struct {
	gen     uint64
	version uint64
}

// begin marks key as loading and returns the current write generation and
// entry version.
func (s *Store) begin(key Key) fetchStart {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(key)
	if !ok {
		e = &entry{}
		s.entries.Add(key, e)
	}
	e.loading++
	e.status = StatusLoading
	s.stats.Fetches++
	return fetchStart{gen: s.gens[key.Resource], version: e.version}
}

// finish records a fetch outcome. Results from a superseded generation are
// dropped; errors keep the previous data.
func (s *Store) finish(key Key, start fetchStart, data json.RawMessage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Peek(key)
	if !ok {
		return
	}
	if e.loading > 0 {
		e.loading--
	}
	superseded := s.gens[key.Resource] != start.gen
	overtaken := e.version != start.version

	switch {
	case overtaken:
		// a write stored a newer body while we were fetching; keep it
		e.status = statusAfterDrop(e)
	case err != nil:
		e.status = StatusError
		e.err = err
	case superseded:
		// someone wrote to the resource while we were fetching
		e.stale = true
		e.status = statusAfterDrop(e)
	default:
		e.status = StatusSuccess
		e.data = data
		e.err = nil
		e.stale = false
		e.fetchedAt = s.opts.Now()
		e.version++
	}
	if e.loading > 0 {
		e.status = StatusLoading
	}
}

func statusAfterDrop(e *entry) Status {
	switch {
	case e.err != nil:
		return StatusError
	case e.data != nil:
		return StatusSuccess
	}
	return StatusIdle
}

// load returns the body for key, fetching through singleflight on a miss.
// Concurrent loads for the same key and generation share one fetch. The fetch
// runs on a context detached from every caller and bounded by FetchTimeout;
// each caller stops waiting when its own ctx is done.
func (s *Store) load(ctx context.Context, key Key, fetch func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if data, ok := s.fresh(key); ok {
		return data, nil
	}

	s.mu.Lock()
	flightKey := fmt.Sprintf("%s|%s|%d|%s", key.Resource, key.Kind, s.gens[key.Resource], key.ID)
	s.mu.Unlock()

	led := false
	ch := s.group.DoChan(flightKey, func() (any, error) {
		led = true
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FetchTimeout)
		defer cancel()

		start := s.begin(key)
		data, err := fetch(fetchCtx)
		s.finish(key, start, data, err)
		return data, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared && !led {
			s.mu.Lock()
			s.stats.Coalesced++
			s.mu.Unlock()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

// put stores a body fetched by a write, bumping nothing.
func (s *Store) put(key Key, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(key)
	if !ok {
		e = &entry{}
		s.entries.Add(key, e)
	}
	e.status = StatusSuccess
	e.data = data
	e.err = nil
	e.stale = false
	e.fetchedAt = s.opts.Now()
	e.version++
}

func (s *Store) remove(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Remove(key)
}

// peek returns the last successful body for key regardless of freshness.
func (s *Store) peek(key Key) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Peek(key)
	if !ok || e.data == nil {
		return nil, false
	}
	return e.data, true
}

// Invalidate marks every list entry of resource stale and supersedes any list
// or detail fetch in flight for it. Data stays readable through Peek.
func (s *Store) Invalidate(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(resource)
}

func (s *Store) invalidateLocked(resource string) {
	s.gens[resource]++
	for _, key := range s.entries.Keys() {
		if key.Resource != resource || key.Kind != KindList {
			continue
		}
		if e, ok := s.entries.Peek(key); ok {
			e.stale = true
		}
	}
}

// Forget drops one entry and supersedes fetches in flight for its resource.
func (s *Store) Forget(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key.Resource]++
	s.entries.Remove(key)
}

// Purge drops every list and detail entry of resource.
func (s *Store) Purge(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[resource]++
	for _, key := range s.entries.Keys() {
		if key.Resource == resource {
			s.entries.Remove(key)
		}
	}
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.entries.Keys() {
		s.gens[key.Resource]++
	}
	s.entries.Purge()
}

// Entry returns the state of one entry, if present.
func (s *Store) Entry(key Key) (EntryState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Peek(key)
	if !ok {
		return EntryState{}, false
	}
	return EntryState{
		Status:    e.status,
		FetchedAt: e.fetchedAt,
		Stale:     e.stale || s.opts.Now().Sub(e.fetchedAt) >= s.staleTime(key.Kind),
		Err:       e.err,
		HasData:   e.data != nil,
	}, true
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Entries = s.entries.Len()
	return stats
}
