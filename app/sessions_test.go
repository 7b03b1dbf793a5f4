package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateGet(t *testing.T) {
	store := NewSessionStore(time.Hour)
	console := &Console{}

	token, err := store.CreateSession(console)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	session := store.GetSession(token)
	require.NotNil(t, session)
	assert.Same(t, console, session.Console)
	assert.Nil(t, store.GetSession("unknown"))
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)
	token, err := store.CreateSession(&Console{})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, store.GetSession(token))
	assert.Equal(t, 0, store.Len(), "expired session removed on access")
}

func TestSessionStore_Sweep(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)
	_, err := store.CreateSession(&Console{})
	require.NoError(t, err)
	_, err = store.CreateSession(&Console{})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(0)
	token, err := store.CreateSession(&Console{})
	require.NoError(t, err)

	store.DeleteSession(token)
	assert.Nil(t, store.GetSession(token))
}
