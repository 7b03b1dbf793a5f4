package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Queries is the Postgres Querier. Document ids must be UUIDs; any other id
// is reported as not found.
type Queries struct {
	db DBTX
}

var _ Querier = (*Queries)(nil)

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func parseUUID(id string) (pgtype.UUID, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: u, Valid: true}, true
}

func uuidString(id pgtype.UUID) string {
	return uuid.UUID(id.Bytes).String()
}

const countDocuments = `-- name: CountDocuments :one
SELECT count(*) FROM documents WHERE resource = $1
`

func (q *Queries) CountDocuments(ctx context.Context, resource string) (int64, error) {
	row := q.db.QueryRow(ctx, countDocuments, resource)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteDocument = `-- name: DeleteDocument :execrows
DELETE FROM documents WHERE resource = $1 AND id = $2
`

func (q *Queries) DeleteDocument(ctx context.Context, arg DeleteDocumentParams) (int64, error) {
	id, ok := parseUUID(arg.ID)
	if !ok {
		return 0, nil
	}
	result, err := q.db.Exec(ctx, deleteDocument, arg.Resource, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteDocuments = `-- name: DeleteDocuments :exec
DELETE FROM documents WHERE resource = $1
`

func (q *Queries) DeleteDocuments(ctx context.Context, resource string) error {
	_, err := q.db.Exec(ctx, deleteDocuments, resource)
	return err
}

const getDocument = `-- name: GetDocument :one
SELECT resource, id, data, created_at, updated_at FROM documents
WHERE resource = $1 AND id = $2
`

func (q *Queries) GetDocument(ctx context.Context, arg GetDocumentParams) (Document, error) {
	id, ok := parseUUID(arg.ID)
	if !ok {
		return Document{}, ErrNotFound
	}
	row := q.db.QueryRow(ctx, getDocument, arg.Resource, id)
	return scanDocument(row)
}

const listDocuments = `-- name: ListDocuments :many
SELECT resource, id, data, created_at, updated_at FROM documents
WHERE resource = $1
ORDER BY created_at, id
`

func (q *Queries) ListDocuments(ctx context.Context, resource string) ([]Document, error) {
	rows, err := q.db.Query(ctx, listDocuments, resource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertDocument = `-- name: UpsertDocument :one
INSERT INTO documents (resource, id, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (resource, id) DO UPDATE
SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
RETURNING resource, id, data, created_at, updated_at
`

func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) (Document, error) {
	id, ok := parseUUID(arg.ID)
	if !ok {
		return Document{}, fmt.Errorf("document id %q is not a UUID", arg.ID)
	}
	row := q.db.QueryRow(ctx, upsertDocument,
		arg.Resource,
		id,
		arg.Data,
		pgtype.Timestamptz{Time: arg.CreatedAt, Valid: true},
		pgtype.Timestamptz{Time: arg.UpdatedAt, Valid: true},
	)
	return scanDocument(row)
}

func scanDocument(row pgx.Row) (Document, error) {
	var i Document
	var id pgtype.UUID
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&i.Resource, &id, &i.Data, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	i.ID = uuidString(id)
	i.CreatedAt = createdAt.Time
	i.UpdatedAt = updatedAt.Time
	return i, nil
}
