package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweater-ventures/roster/db"
)

// CollectionCache lazily bulk-loads every document of a resource and keeps
// them decoded. List queries run over the cached records in Go. Call Flush
// after any write to the resource; the next access reloads from the database.
type CollectionCache struct {
	mu      sync.RWMutex
	loaded  map[string][]Record
	flushes map[string]uint64
	db      db.Querier
	loading sync.Mutex
}

func NewCollectionCache(querier db.Querier) *CollectionCache {
	return &CollectionCache{
		db:      querier,
		loaded:  make(map[string][]Record),
		flushes: make(map[string]uint64),
	}
}

// Records returns the cached records of resource, oldest first. The slice
// and its records are shared and must not be modified.
func (c *CollectionCache) Records(ctx context.Context, resource string) ([]Record, error) {
	c.mu.RLock()
	records, ok := c.loaded[resource]
	c.mu.RUnlock()
	if ok {
		return records, nil
	}

	c.loading.Lock()
	defer c.loading.Unlock()

	// Double-check after acquiring the load lock
	c.mu.RLock()
	records, ok = c.loaded[resource]
	gen := c.flushes[resource]
	c.mu.RUnlock()
	if ok {
		return records, nil
	}

	docs, err := c.db.ListDocuments(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", resource, err)
	}
	records = make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := decodeRecord(doc.Data)
		if err != nil {
			log(ctx).Warn("Skipping undecodable document", "resource", resource, "id", doc.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}

	c.mu.Lock()
	// not kept if a write landed while reading
	if c.flushes[resource] == gen {
		c.loaded[resource] = records
	}
	c.mu.Unlock()
	return records, nil
}

// Flush drops the cached records of resource.
func (c *CollectionCache) Flush(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.loaded, resource)
	c.flushes[resource]++
}
