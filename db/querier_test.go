package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func querierImplementations(t *testing.T) map[string]Querier {
	t.Helper()
	conn, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, MigrateSQLite(context.Background(), conn))

	return map[string]Querier{
		"memory": NewMemory(),
		"sqlite": NewSQLite(conn),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func TestQuerier_UpsertAndGet(t *testing.T) {
	for name, q := range querierImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := newID()
			created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

			doc, err := q.UpsertDocument(ctx, UpsertDocumentParams{
				Resource: "users", ID: id, Data: []byte(`{"name":"Jane"}`), CreatedAt: created, UpdatedAt: created,
			})
			require.NoError(t, err)
			assert.Equal(t, id, doc.ID)
			assert.True(t, created.Equal(doc.CreatedAt))

			got, err := q.GetDocument(ctx, GetDocumentParams{Resource: "users", ID: id})
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"Jane"}`, string(got.Data))

			later := created.Add(time.Hour)
			doc, err = q.UpsertDocument(ctx, UpsertDocumentParams{
				Resource: "users", ID: id, Data: []byte(`{"name":"Janet"}`), CreatedAt: later, UpdatedAt: later,
			})
			require.NoError(t, err)
			assert.True(t, created.Equal(doc.CreatedAt), "created_at must survive a replace")
			assert.True(t, later.Equal(doc.UpdatedAt))
			assert.JSONEq(t, `{"name":"Janet"}`, string(doc.Data))
		})
	}
}

func TestQuerier_GetMissing(t *testing.T) {
	for name, q := range querierImplementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := q.GetDocument(context.Background(), GetDocumentParams{Resource: "users", ID: newID()})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestQuerier_ListCountDelete(t *testing.T) {
	for name, q := range querierImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			var ids []string
			for i := range 3 {
				id := newID()
				ids = append(ids, id)
				at := base.Add(time.Duration(i) * time.Minute)
				_, err := q.UpsertDocument(ctx, UpsertDocumentParams{Resource: "users", ID: id, Data: []byte(`{}`), CreatedAt: at, UpdatedAt: at})
				require.NoError(t, err)
			}
			_, err := q.UpsertDocument(ctx, UpsertDocumentParams{Resource: "teams", ID: newID(), Data: []byte(`{}`), CreatedAt: base, UpdatedAt: base})
			require.NoError(t, err)

			docs, err := q.ListDocuments(ctx, "users")
			require.NoError(t, err)
			require.Len(t, docs, 3)
			for i, doc := range docs {
				assert.Equal(t, ids[i], doc.ID)
			}

			count, err := q.CountDocuments(ctx, "users")
			require.NoError(t, err)
			assert.EqualValues(t, 3, count)

			n, err := q.DeleteDocument(ctx, DeleteDocumentParams{Resource: "users", ID: ids[1]})
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
			n, err = q.DeleteDocument(ctx, DeleteDocumentParams{Resource: "users", ID: ids[1]})
			require.NoError(t, err)
			assert.Zero(t, n)

			require.NoError(t, q.DeleteDocuments(ctx, "users"))
			count, err = q.CountDocuments(ctx, "users")
			require.NoError(t, err)
			assert.Zero(t, count)
			count, err = q.CountDocuments(ctx, "teams")
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()
	now := time.Now()
	_, err := q.UpsertDocument(ctx, UpsertDocumentParams{Resource: "users", ID: "a", Data: []byte(`{"n":1}`), CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	doc, err := q.GetDocument(ctx, GetDocumentParams{Resource: "users", ID: "a"})
	require.NoError(t, err)
	doc.Data[0] = 'X'

	again, err := q.GetDocument(ctx, GetDocumentParams{Resource: "users", ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, `{"n":1}`, string(again.Data))
}

func TestExtractMigrateUp(t *testing.T) {
	content := "-- comment\n-- +migrate Up\nCREATE TABLE a (id INT);\n\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "CREATE TABLE a (id INT);", ExtractMigrateUp(content))
	assert.Empty(t, ExtractMigrateUp("SELECT 1;"))
}

func TestMigrate_RunsEachDialectFile(t *testing.T) {
	for _, dialect := range []Dialect{Postgres, SQLite} {
		t.Run(string(dialect), func(t *testing.T) {
			var scripts []string
			err := Migrate(context.Background(), dialect, func(ctx context.Context, sql string) error {
				scripts = append(scripts, sql)
				return nil
			})
			require.NoError(t, err)
			require.Len(t, scripts, 1)
			assert.Contains(t, scripts[0], "CREATE TABLE IF NOT EXISTS documents")
			assert.NotContains(t, scripts[0], "DROP TABLE")
		})
	}
}
