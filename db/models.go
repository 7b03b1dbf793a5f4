// Package db stores resource documents. Postgres, SQLite and in-memory
// implementations share the Querier interface.
package db

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("document not found")

// Document is one stored record. Data is the JSON body, including the hidden
// fields the API never returns.
type Document struct {
	Resource  string
	ID        string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type GetDocumentParams struct {
	Resource string
	ID       string
}

type DeleteDocumentParams struct {
	Resource string
	ID       string
}

type UpsertDocumentParams struct {
	Resource  string
	ID        string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Querier interface {
	CountDocuments(ctx context.Context, resource string) (int64, error)
	// DeleteDocument returns the number of rows removed.
	DeleteDocument(ctx context.Context, arg DeleteDocumentParams) (int64, error)
	DeleteDocuments(ctx context.Context, resource string) error
	GetDocument(ctx context.Context, arg GetDocumentParams) (Document, error)
	// ListDocuments returns every document of a resource, oldest first.
	ListDocuments(ctx context.Context, resource string) ([]Document, error)
	// UpsertDocument inserts or replaces a document. created_at is kept on
	// replace.
	UpsertDocument(ctx context.Context, arg UpsertDocumentParams) (Document, error)
}
