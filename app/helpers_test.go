package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sweater-ventures/roster/config"
	"github.com/sweater-ventures/roster/db"
	"golang.org/x/crypto/bcrypt"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) CountDocuments(ctx context.Context, resource string) (int64, error) {
	args := m.Called(ctx, resource)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQuerier) DeleteDocument(ctx context.Context, arg db.DeleteDocumentParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQuerier) DeleteDocuments(ctx context.Context, resource string) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *mockQuerier) GetDocument(ctx context.Context, arg db.GetDocumentParams) (db.Document, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Document), args.Error(1)
}

func (m *mockQuerier) ListDocuments(ctx context.Context, resource string) ([]db.Document, error) {
	args := m.Called(ctx, resource)
	return args.Get(0).([]db.Document), args.Error(1)
}

func (m *mockQuerier) UpsertDocument(ctx context.Context, arg db.UpsertDocumentParams) (db.Document, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Document), args.Error(1)
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Store:           config.StoreMemory,
		BaseURL:         "http://localhost:8005",
		BcryptCost:      bcrypt.MinCost,
		PageSize:        25,
		CacheSize:       64,
		ListStaleTime:   5 * time.Minute,
		DetailStaleTime: 10 * time.Minute,
		RequestTimeout:  time.Second,
		SessionTTL:      time.Hour,
	}
}

func newTestApp(t *testing.T, q db.Querier) *Application {
	t.Helper()
	if q == nil {
		q = db.NewMemory()
	}
	roster, err := NewWithQuerier(testConfig(), q)
	require.NoError(t, err)
	return roster
}

func validUser() Record {
	return Record{
		"name":     "Ayşe Yılmaz",
		"email":    "ayse@example.com",
		"password": "secret1",
		"role":     "admin",
		"active":   true,
		"location": map[string]any{"latitude": 39.9, "longitude": 32.8},
	}
}
