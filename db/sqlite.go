package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteQueries is the Querier over a database/sql handle opened with the
// "sqlite" driver. Timestamps are stored as RFC 3339 text.
type SQLiteQueries struct {
	db *sql.DB
}

var _ Querier = (*SQLiteQueries)(nil)

func NewSQLite(db *sql.DB) *SQLiteQueries {
	return &SQLiteQueries{db: db}
}

// OpenSQLite opens (creating if needed) the database file at path. Use
// ":memory:" for a throwaway database.
func OpenSQLite(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY on file databases
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// fixed width so text order matches time order
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

const sqliteCountDocuments = `SELECT count(*) FROM documents WHERE resource = ?`

func (q *SQLiteQueries) CountDocuments(ctx context.Context, resource string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, sqliteCountDocuments, resource).Scan(&count)
	return count, err
}

const sqliteDeleteDocument = `DELETE FROM documents WHERE resource = ? AND id = ?`

func (q *SQLiteQueries) DeleteDocument(ctx context.Context, arg DeleteDocumentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, sqliteDeleteDocument, arg.Resource, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const sqliteDeleteDocuments = `DELETE FROM documents WHERE resource = ?`

func (q *SQLiteQueries) DeleteDocuments(ctx context.Context, resource string) error {
	_, err := q.db.ExecContext(ctx, sqliteDeleteDocuments, resource)
	return err
}

const sqliteGetDocument = `SELECT resource, id, data, created_at, updated_at FROM documents
WHERE resource = ? AND id = ?`

func (q *SQLiteQueries) GetDocument(ctx context.Context, arg GetDocumentParams) (Document, error) {
	return scanSQLiteDocument(q.db.QueryRowContext(ctx, sqliteGetDocument, arg.Resource, arg.ID))
}

const sqliteListDocuments = `SELECT resource, id, data, created_at, updated_at FROM documents
WHERE resource = ?
ORDER BY created_at, id`

func (q *SQLiteQueries) ListDocuments(ctx context.Context, resource string) ([]Document, error) {
	rows, err := q.db.QueryContext(ctx, sqliteListDocuments, resource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Document{}
	for rows.Next() {
		doc, err := scanSQLiteDocument(rows)
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

const sqliteUpsertDocument = `INSERT INTO documents (resource, id, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (resource, id) DO UPDATE
SET data = excluded.data, updated_at = excluded.updated_at
RETURNING resource, id, data, created_at, updated_at`

func (q *SQLiteQueries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) (Document, error) {
	row := q.db.QueryRowContext(ctx, sqliteUpsertDocument,
		arg.Resource,
		arg.ID,
		string(arg.Data),
		formatTime(arg.CreatedAt),
		formatTime(arg.UpdatedAt),
	)
	return scanSQLiteDocument(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteDocument(row rowScanner) (Document, error) {
	var i Document
	var data, createdAt, updatedAt string
	err := row.Scan(&i.Resource, &i.ID, &data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	i.Data = []byte(data)
	if i.CreatedAt, err = parseTime(createdAt); err != nil {
		return Document{}, err
	}
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Document{}, err
	}
	return i, nil
}
