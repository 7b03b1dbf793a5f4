package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sweater-ventures/roster/db"
	"github.com/sweater-ventures/roster/query"
)

func TestCreateRecord(t *testing.T) {
	roster := newTestApp(t, nil)
	ctx := context.Background()
	messages, unsubscribe := roster.EventBus.Subscribe()
	defer unsubscribe()

	rec, err := CreateRecord(WithOrigin(ctx, "console-1"), roster, UsersResource, validUser())
	require.NoError(t, err)

	id, _ := rec["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, rec["createdAt"], rec["updatedAt"])
	assert.NotContains(t, rec, "passwordHash")
	assert.NotContains(t, rec, "password")

	msg := <-messages
	assert.Equal(t, ChangeCreated, msg.Type)
	assert.Equal(t, UsersResource, msg.Resource)
	assert.Equal(t, id, msg.RecordID)
	assert.Equal(t, "console-1", msg.Origin)

	got, err := GetRecord(ctx, roster, UsersResource, id)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestCreateRecord_IgnoresClientIDAndHash(t *testing.T) {
	roster := newTestApp(t, nil)
	body := validUser()
	body["id"] = "chosen"
	body["passwordHash"] = "forged"

	rec, err := CreateRecord(context.Background(), roster, UsersResource, body)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen", rec["id"])

	stored, err := getStoredRecord(context.Background(), roster, UsersResource, rec["id"].(string))
	require.NoError(t, err)
	assert.NotEqual(t, "forged", stored["passwordHash"])
	assert.True(t, CheckUserPassword(stored, "secret1"))
}

func TestCreateRecord_Invalid(t *testing.T) {
	roster := newTestApp(t, nil)
	body := validUser()
	body["name"] = ""

	_, err := CreateRecord(context.Background(), roster, UsersResource, body)
	var invalid *InvalidDataError
	assert.ErrorAs(t, err, &invalid)

	n, err := CountRecords(context.Background(), roster, UsersResource)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnknownResource(t *testing.T) {
	roster := newTestApp(t, nil)
	ctx := context.Background()

	_, _, err := ListRecords(ctx, roster, "widgets", query.New())
	assert.ErrorIs(t, err, ErrUnknownResource)
	_, err = CreateRecord(ctx, roster, "widgets", Record{})
	assert.ErrorIs(t, err, ErrUnknownResource)
	assert.ErrorIs(t, DeleteRecord(ctx, roster, "widgets", "x"), ErrUnknownResource)
}

func TestUpdateRecord_MergesAndKeepsIdentity(t *testing.T) {
	roster := newTestApp(t, nil)
	ctx := context.Background()
	created, err := CreateRecord(ctx, roster, UsersResource, validUser())
	require.NoError(t, err)
	id := created["id"].(string)

	time.Sleep(2 * time.Millisecond)
	updated, err := UpdateRecord(ctx, roster, UsersResource, id, Record{
		"name":      "Ayşe Demir",
		"id":        "other",
		"createdAt": "2000-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, id, updated["id"])
	assert.Equal(t, created["createdAt"], updated["createdAt"])
	assert.NotEqual(t, created["updatedAt"], updated["updatedAt"])
	assert.Equal(t, "Ayşe Demir", updated["name"])
	assert.Equal(t, created["email"], updated["email"])

	stored, err := getStoredRecord(ctx, roster, UsersResource, id)
	require.NoError(t, err)
	assert.True(t, CheckUserPassword(stored, "secret1"), "password kept when not sent")
}

func TestUpdateRecord_NotFound(t *testing.T) {
	roster := newTestApp(t, nil)
	_, err := UpdateRecord(context.Background(), roster, UsersResource, "missing", validUser())
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteRecord(t *testing.T) {
	roster := newTestApp(t, nil)
	ctx := context.Background()
	created, err := CreateRecord(ctx, roster, UsersResource, validUser())
	require.NoError(t, err)
	id := created["id"].(string)

	// warm both caches
	_, err = GetRecord(ctx, roster, UsersResource, id)
	require.NoError(t, err)
	list, _, err := ListRecords(ctx, roster, UsersResource, query.New())
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, DeleteRecord(ctx, roster, UsersResource, id))

	_, err = GetRecord(ctx, roster, UsersResource, id)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	list, meta, err := ListRecords(ctx, roster, UsersResource, query.New())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, meta.Total)

	assert.ErrorIs(t, DeleteRecord(ctx, roster, UsersResource, id), ErrRecordNotFound)
}

func TestListRecords_HidesPasswordHash(t *testing.T) {
	roster := newTestApp(t, nil)
	ctx := context.Background()
	_, err := CreateRecord(ctx, roster, UsersResource, validUser())
	require.NoError(t, err)

	list, meta, err := ListRecords(ctx, roster, UsersResource, query.New().WithSearch("$2a$"))
	require.NoError(t, err)
	assert.Empty(t, list, "hash is not searchable")
	assert.Equal(t, 0, meta.Total)

	list, _, err = ListRecords(ctx, roster, UsersResource, query.New())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "passwordHash")
}

func TestGetRecord_CachesMisses(t *testing.T) {
	mockDB := new(mockQuerier)
	roster := newTestApp(t, mockDB)
	params := db.GetDocumentParams{Resource: UsersResource, ID: "missing"}

	mockDB.On("GetDocument", mock.Anything, params).Return(db.Document{}, db.ErrNotFound).Once()

	_, err := GetRecord(context.Background(), roster, UsersResource, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = GetRecord(context.Background(), roster, UsersResource, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	mockDB.AssertExpectations(t)
}

func TestGetRecord_WriteDuringReadNotCached(t *testing.T) {
	mockDB := new(mockQuerier)
	roster := newTestApp(t, mockDB)
	params := db.GetDocumentParams{Resource: UsersResource, ID: "u1"}

	// A write to u1 lands while the first read is at the database.
	mockDB.On("GetDocument", mock.Anything, params).
		Run(func(mock.Arguments) { flushRecord(roster, UsersResource, "u1") }).
		Return(db.Document{}, db.ErrNotFound).Once()
	mockDB.On("GetDocument", mock.Anything, params).
		Return(db.Document{Resource: UsersResource, ID: "u1", Data: []byte(`{"id":"u1","name":"Written"}`)}, nil).Once()

	_, err := GetRecord(context.Background(), roster, UsersResource, "u1")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	rec, err := GetRecord(context.Background(), roster, UsersResource, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Written", rec["name"])
	mockDB.AssertExpectations(t)
}

func TestGetRecord_DatabaseError(t *testing.T) {
	mockDB := new(mockQuerier)
	roster := newTestApp(t, mockDB)
	boom := errors.New("connection reset")

	mockDB.On("GetDocument", mock.Anything, mock.Anything).Return(db.Document{}, boom)

	_, err := GetRecord(context.Background(), roster, UsersResource, "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrRecordNotFound)
}

func TestClearRecords(t *testing.T) {
	roster := newTestApp(t, nil)
	ctx := context.Background()
	for range 3 {
		_, err := CreateRecord(ctx, roster, UsersResource, validUser())
		require.NoError(t, err)
	}
	messages, unsubscribe := roster.EventBus.Subscribe()
	defer unsubscribe()

	require.NoError(t, ClearRecords(ctx, roster, UsersResource))

	n, err := CountRecords(ctx, roster, UsersResource)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, ChangeCleared, (<-messages).Type)
}

func TestAddRecord_UsesGivenTimestamps(t *testing.T) {
	roster := newTestApp(t, nil)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	rec, err := AddRecord(context.Background(), roster, UserSchema{Cost: 4}, validUser(), created, updated)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00Z", rec["createdAt"])
	assert.Equal(t, "2024-05-01T13:00:00Z", rec["updatedAt"])
}
