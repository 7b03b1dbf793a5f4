package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/sweater-ventures/roster/db"
)

// MockQuerier is a testify mock implementation of db.Querier.
type MockQuerier struct {
	mock.Mock
}

var _ db.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) CountDocuments(ctx context.Context, resource string) (int64, error) {
	args := m.Called(ctx, resource)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) DeleteDocument(ctx context.Context, arg db.DeleteDocumentParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) DeleteDocuments(ctx context.Context, resource string) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}

func (m *MockQuerier) GetDocument(ctx context.Context, arg db.GetDocumentParams) (db.Document, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Document), args.Error(1)
}

func (m *MockQuerier) ListDocuments(ctx context.Context, resource string) ([]db.Document, error) {
	args := m.Called(ctx, resource)
	return args.Get(0).([]db.Document), args.Error(1)
}

func (m *MockQuerier) UpsertDocument(ctx context.Context, arg db.UpsertDocumentParams) (db.Document, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(db.Document), args.Error(1)
}
