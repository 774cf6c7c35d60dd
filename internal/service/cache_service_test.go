package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

type failingCacheRepo struct{ memoryCacheRepo }

func (f *failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("redis: connection refused")
}

func TestCacheServiceReadThrough(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out models.Timetable
	hit, err := cache.Get(ctx, TimetableCacheKey("tt-1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, TimetableCacheKey("tt-1"), models.Timetable{ID: "tt-1", Version: 2}, 0))
	hit, err = cache.Get(ctx, TimetableCacheKey("tt-1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, out.Version)

	require.NoError(t, cache.Invalidate(ctx, TimetableCacheKey("tt-1")))
	hit, _ = cache.Get(ctx, TimetableCacheKey("tt-1"), &out)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
}

func TestCacheServiceDisabled(t *testing.T) {
	ctx := context.Background()
	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())

	disabled := NewCacheService(newMemoryCacheRepo(), nil, 0, nil, false)
	require.NoError(t, disabled.Set(ctx, "k", "v", 0))
	hit, err := disabled.Get(ctx, "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)

	noRepo := NewCacheService(nil, nil, 0, nil, true)
	assert.False(t, noRepo.Enabled())
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	cache := NewCacheService(&failingCacheRepo{memoryCacheRepo: *newMemoryCacheRepo()}, nil, 0, nil, true)
	hit, err := cache.Get(context.Background(), "k", new(string))
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "timetable:tt-1", TimetableCacheKey("tt-1"))
	assert.Equal(t, "timetables:term:term-1", TermTimetablesCacheKey("term-1"))
}
