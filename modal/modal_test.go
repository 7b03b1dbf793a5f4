package modal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type thing struct {
	ID   string
	Name string
}

type mockWriter struct {
	mock.Mock
	block chan struct{}
}

func (m *mockWriter) Create(ctx context.Context, payload any) (thing, error) {
	if m.block != nil {
		<-m.block
	}
	args := m.Called(ctx, payload)
	return args.Get(0).(thing), args.Error(1)
}

func (m *mockWriter) Update(ctx context.Context, id string, payload any) (thing, error) {
	args := m.Called(ctx, id, payload)
	return args.Get(0).(thing), args.Error(1)
}

func thingID(t thing) string { return t.ID }

func TestOrchestrator_StartsClosed(t *testing.T) {
	o := New[thing](&mockWriter{}, thingID, nil)
	assert.Equal(t, Closed{}, o.State())
	assert.False(t, o.IsOpen())
	assert.Equal(t, Mode(""), o.Mode())
}

func TestOrchestrator_Transitions(t *testing.T) {
	o := New[thing](&mockWriter{}, thingID, nil)

	o.OpenCreate()
	assert.Equal(t, Create{}, o.State())
	assert.Equal(t, ModeCreate, o.Mode())

	o.OpenEdit(thing{ID: "1"})
	assert.Equal(t, Edit[thing]{Entity: thing{ID: "1"}}, o.State())
	assert.Equal(t, ModeEdit, o.Mode())

	o.Close()
	assert.Equal(t, Closed{}, o.State())
}

func TestSubmit_ClosedRejected(t *testing.T) {
	w := &mockWriter{}
	o := New[thing](w, thingID, nil)

	_, err := o.Submit(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, ErrClosed)
	w.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_CreateClosesOnSuccess(t *testing.T) {
	w := &mockWriter{}
	payload := map[string]any{"name": "Jane"}
	w.On("Create", mock.Anything, payload).Return(thing{ID: "9", Name: "Jane"}, nil)
	o := New[thing](w, thingID, nil)
	o.OpenCreate()

	saved, err := o.Submit(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "9", saved.ID)
	assert.Equal(t, Closed{}, o.State())
	last, ok := o.LastSaved()
	assert.True(t, ok)
	assert.Equal(t, saved, last)
	w.AssertExpectations(t)
}

func TestSubmit_EditUpdatesByEntityID(t *testing.T) {
	w := &mockWriter{}
	w.On("Update", mock.Anything, "42", mock.Anything).Return(thing{ID: "42", Name: "new"}, nil)
	o := New[thing](w, thingID, nil)
	o.OpenEdit(thing{ID: "42", Name: "old"})

	_, err := o.Submit(context.Background(), map[string]any{"name": "new"})
	require.NoError(t, err)
	assert.False(t, o.IsOpen())
	w.AssertExpectations(t)
}

func TestSubmit_ValidationBlocksWrite(t *testing.T) {
	w := &mockWriter{}
	invalid := errors.New("name is required")
	var gotMode Mode
	o := New[thing](w, thingID, func(mode Mode, payload any) error {
		gotMode = mode
		return invalid
	})
	o.OpenEdit(thing{ID: "1"})

	_, err := o.Submit(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, invalid)
	assert.Equal(t, ModeEdit, gotMode)
	assert.Equal(t, ModeEdit, o.Mode())
	assert.ErrorIs(t, o.LastError(), invalid)
	w.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_WriteFailureStaysOpen(t *testing.T) {
	w := &mockWriter{}
	boom := errors.New("HTTP 500")
	w.On("Create", mock.Anything, mock.Anything).Return(thing{}, boom).Once()
	o := New[thing](w, thingID, nil)
	o.OpenCreate()

	_, err := o.Submit(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Create{}, o.State())
	assert.ErrorIs(t, o.LastError(), boom)
	w.AssertNumberOfCalls(t, "Create", 1)

	// reopening clears the error
	o.OpenCreate()
	assert.NoError(t, o.LastError())
}

func TestSubmit_OneInFlight(t *testing.T) {
	w := &mockWriter{block: make(chan struct{})}
	w.On("Create", mock.Anything, mock.Anything).Return(thing{ID: "1"}, nil).Once()
	o := New[thing](w, thingID, nil)
	o.OpenCreate()

	done := make(chan error)
	go func() {
		_, err := o.Submit(context.Background(), map[string]any{})
		done <- err
	}()
	require.Eventually(t, o.Submitting, time.Second, time.Millisecond)

	_, err := o.Submit(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(w.block)
	require.NoError(t, <-done)
	assert.False(t, o.Submitting())
	w.AssertNumberOfCalls(t, "Create", 1)
}
