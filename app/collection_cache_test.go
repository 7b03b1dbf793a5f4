package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sweater-ventures/roster/db"
)

func TestCollectionCache_LazyLoading(t *testing.T) {
	mockDB := new(mockQuerier)
	cache := NewCollectionCache(mockDB)

	mockDB.On("ListDocuments", mock.Anything, "users").
		Return([]db.Document{{Resource: "users", ID: "1", Data: []byte(`{"id":"1","name":"Ali"}`)}}, nil).Once()

	ctx := context.Background()

	// First call triggers load
	records, err := cache.Records(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Second call uses cache (no additional DB calls)
	records, err = cache.Records(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "Ali", records[0]["name"])

	mockDB.AssertExpectations(t)
}

func TestCollectionCache_Flush(t *testing.T) {
	mockDB := new(mockQuerier)
	cache := NewCollectionCache(mockDB)

	mockDB.On("ListDocuments", mock.Anything, "users").
		Return([]db.Document{}, nil).Twice()

	ctx := context.Background()
	_, err := cache.Records(ctx, "users")
	require.NoError(t, err)

	cache.Flush("users")

	_, err = cache.Records(ctx, "users")
	require.NoError(t, err)

	mockDB.AssertExpectations(t)
}

func TestCollectionCache_SkipsBadDocuments(t *testing.T) {
	mockDB := new(mockQuerier)
	cache := NewCollectionCache(mockDB)

	mockDB.On("ListDocuments", mock.Anything, "users").
		Return([]db.Document{
			{ID: "1", Data: []byte(`{"id":"1"}`)},
			{ID: "2", Data: []byte(`not json`)},
			{ID: "3", Data: []byte(`[1,2]`)},
		}, nil)

	records, err := cache.Records(context.Background(), "users")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCollectionCache_ErrorNotCached(t *testing.T) {
	mockDB := new(mockQuerier)
	cache := NewCollectionCache(mockDB)
	boom := errors.New("db down")

	mockDB.On("ListDocuments", mock.Anything, "users").Return([]db.Document(nil), boom).Once()
	mockDB.On("ListDocuments", mock.Anything, "users").Return([]db.Document{}, nil).Once()

	_, err := cache.Records(context.Background(), "users")
	assert.ErrorIs(t, err, boom)

	records, err := cache.Records(context.Background(), "users")
	require.NoError(t, err)
	assert.Empty(t, records)
	mockDB.AssertExpectations(t)
}

func TestCollectionCache_FlushDuringLoadDiscardsResult(t *testing.T) {
	mockDB := new(mockQuerier)
	cache := NewCollectionCache(mockDB)

	mockDB.On("ListDocuments", mock.Anything, "users").
		Run(func(mock.Arguments) { cache.Flush("users") }).
		Return([]db.Document{{ID: "old", Data: []byte(`{"id":"old"}`)}}, nil).Once()
	mockDB.On("ListDocuments", mock.Anything, "users").
		Return([]db.Document{}, nil).Once()

	records, err := cache.Records(context.Background(), "users")
	require.NoError(t, err)
	assert.Len(t, records, 1, "caller still gets what it read")

	records, err = cache.Records(context.Background(), "users")
	require.NoError(t, err)
	assert.Empty(t, records)
	mockDB.AssertExpectations(t)
}
