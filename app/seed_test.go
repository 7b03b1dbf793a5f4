package app

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweater-ventures/roster/query"
)

func TestAsciiFold(t *testing.T) {
	assert.Equal(t, "ibrahim", asciiFold("İbrahim"))
	assert.Equal(t, "yilmaz", asciiFold("Yılmaz"))
	assert.Equal(t, "sule", asciiFold("Şule"))
	assert.Equal(t, "ozcagri", asciiFold("Özçağrı"))
}

var emailPattern = regexp.MustCompile(`^[a-z._]+\d{1,2}@[a-z.]+$`)

func TestUserGenerator_Deterministic(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b := NewUserGenerator(123, now), NewUserGenerator(123, now)

	for range 20 {
		recA, createdA, updatedA := a.Next()
		recB, createdB, updatedB := b.Next()
		assert.Equal(t, recA, recB)
		assert.Equal(t, createdA, createdB)
		assert.Equal(t, updatedA, updatedB)
	}
}

func TestUserGenerator_Ranges(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	gen := NewUserGenerator(7, now)

	for range 200 {
		rec, created, updated := gen.Next()
		assert.Regexp(t, emailPattern, rec["email"])
		assert.Len(t, rec["password"], seedPasswordLen)
		assert.Contains(t, []string{"admin", "user", "manager"}, rec["role"])

		loc := rec["location"].(map[string]any)
		assert.InDelta(t, 39.9, loc["latitude"], 0.2)
		assert.InDelta(t, 32.75, loc["longitude"], 0.25)

		assert.False(t, updated.Before(created))
		assert.False(t, created.After(now))
		assert.True(t, now.Sub(created) <= 365*24*time.Hour)
	}
}

func TestSeedUsers(t *testing.T) {
	roster := newTestApp(t, nil)
	ctx := context.Background()

	n, err := SeedUsers(ctx, roster, 30, 123)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	list, meta, err := ListRecords(ctx, roster, UsersResource, query.New().WithPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, list, 10)
	assert.Equal(t, 30, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	// second run is a no-op
	n, err = SeedUsers(ctx, roster, 30, 123)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedUsers_Disabled(t *testing.T) {
	roster := newTestApp(t, nil)
	n, err := SeedUsers(context.Background(), roster, 0, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}
