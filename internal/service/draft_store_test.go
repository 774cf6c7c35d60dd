package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStoreSlidingExpiry(t *testing.T) {
	now := time.Date(2026, 7, 13, 8, 0, 0, 0, time.UTC)
	store := newDraftStore(time.Hour)
	store.now = func() time.Time { return now }

	store.Save(&timetableDraft{id: "d-1"})
	store.Save(&timetableDraft{id: "d-2"})

	now = now.Add(50 * time.Minute)
	_, ok := store.Get("d-1")
	require.True(t, ok, "lookup inside the ttl succeeds and extends the expiry")

	now = now.Add(50 * time.Minute)
	_, ok = store.Get("d-1")
	assert.True(t, ok)
	_, ok = store.Get("d-2")
	assert.False(t, ok, "untouched draft expired")
	assert.Equal(t, 1, store.Len())
}

func TestDraftStoreSweepAndDelete(t *testing.T) {
	now := time.Date(2026, 7, 13, 8, 0, 0, 0, time.UTC)
	store := newDraftStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Save(&timetableDraft{id: "old"})
	now = now.Add(2 * time.Minute)
	store.Save(&timetableDraft{id: "fresh"})

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Delete("fresh"))
	assert.False(t, store.Delete("fresh"))
}
