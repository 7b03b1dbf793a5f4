package db

import (
	"context"
	"slices"
	"sync"
)

// MemoryQueries keeps documents in process memory. Used for development and
// tests; contents are lost on restart.
type MemoryQueries struct {
	mu   sync.RWMutex
	docs map[string]map[string]Document
}

var _ Querier = (*MemoryQueries)(nil)

func NewMemory() *MemoryQueries {
	return &MemoryQueries{docs: make(map[string]map[string]Document)}
}

func cloneDocument(d Document) Document {
	d.Data = slices.Clone(d.Data)
	return d
}

func (q *MemoryQueries) CountDocuments(ctx context.Context, resource string) (int64, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return int64(len(q.docs[resource])), nil
}

func (q *MemoryQueries) DeleteDocument(ctx context.Context, arg DeleteDocumentParams) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.docs[arg.Resource][arg.ID]; !ok {
		return 0, nil
	}
	delete(q.docs[arg.Resource], arg.ID)
	return 1, nil
}

func (q *MemoryQueries) DeleteDocuments(ctx context.Context, resource string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.docs, resource)
	return nil
}

func (q *MemoryQueries) GetDocument(ctx context.Context, arg GetDocumentParams) (Document, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	doc, ok := q.docs[arg.Resource][arg.ID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (q *MemoryQueries) ListDocuments(ctx context.Context, resource string) ([]Document, error) {
	q.mu.RLock()
	items := make([]Document, 0, len(q.docs[resource]))
	for _, doc := range q.docs[resource] {
		items = append(items, cloneDocument(doc))
	}
	q.mu.RUnlock()

	slices.SortFunc(items, func(a, b Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		} else if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return items, nil
}

func (q *MemoryQueries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) (Document, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.docs[arg.Resource] == nil {
		q.docs[arg.Resource] = make(map[string]Document)
	}
	doc := Document{
		Resource:  arg.Resource,
		ID:        arg.ID,
		Data:      slices.Clone(arg.Data),
		CreatedAt: arg.CreatedAt,
		UpdatedAt: arg.UpdatedAt,
	}
	if existing, ok := q.docs[arg.Resource][arg.ID]; ok {
		doc.CreatedAt = existing.CreatedAt
	}
	q.docs[arg.Resource][arg.ID] = doc
	return cloneDocument(doc), nil
}
