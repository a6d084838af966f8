package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/pkg/kv"
	memkv "github.com/pulseboard/pulseboard-backend/pkg/kv/memory"
)

type cachedSummary struct {
	TotalPosts    int     `json:"totalPosts"`
	AvgEngagement float64 `json:"avgEngagement"`
}

func TestCache_DisabledWithZeroTTL(t *testing.T) {
	cache, err := NewCache("127.0.0.1:6379", 0, zap.NewNop().Sugar(), nil)
	require.NoError(t, err)
	defer cache.Close()

	assert.False(t, cache.Enabled())

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", cachedSummary{TotalPosts: 1}))

	var dest cachedSummary
	assert.ErrorIs(t, cache.Get(ctx, KeyDashboard, "k", &dest), ErrCacheMiss)
}

func TestCache_SetGet(t *testing.T) {
	cache := NewInMemoryCache(time.Minute, zap.NewNop().Sugar(), nil)
	defer cache.Close()

	ctx := context.Background()
	key := Key(KeyDashboard, "platforms=\"Instagram\";")

	var dest cachedSummary
	assert.ErrorIs(t, cache.Get(ctx, KeyDashboard, key, &dest), ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, key, cachedSummary{TotalPosts: 3, AvgEngagement: 0.12}))
	require.NoError(t, cache.Get(ctx, KeyDashboard, key, &dest))
	assert.Equal(t, cachedSummary{TotalPosts: 3, AvgEngagement: 0.12}, dest)

	require.NoError(t, cache.Delete(ctx, key))
	assert.ErrorIs(t, cache.Get(ctx, KeyDashboard, key, &dest), ErrCacheMiss)
}

func TestCache_EntriesExpire(t *testing.T) {
	store := memkv.New(0)
	cache := NewCacheWithStore(store, time.Minute, zap.NewNop().Sugar(), nil)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", cachedSummary{TotalPosts: 1}))

	ttl, err := store.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestKey(t *testing.T) {
	a := Key(KeyDashboard, "limit=1000;offset=0")
	b := Key(KeyDashboard, "limit=1000;offset=10")
	c := Key(KeyAnalytics, "limit=1000;offset=0")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, Key(KeyDashboard, "limit=1000;offset=0"))
	assert.Len(t, a, len(KeyDashboard)+1+64)
}

func TestFetch(t *testing.T) {
	cache := NewInMemoryCache(time.Minute, zap.NewNop().Sugar(), nil)
	defer cache.Close()

	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (cachedSummary, error) {
		calls++
		return cachedSummary{TotalPosts: 6}, nil
	}

	first, err := Fetch(ctx, cache, KeyDashboard, "k", compute)
	require.NoError(t, err)
	second, err := Fetch(ctx, cache, KeyDashboard, "k", compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	cache := NewInMemoryCache(time.Minute, zap.NewNop().Sugar(), nil)
	defer cache.Close()

	ctx := context.Background()
	boom := errors.New("boom")
	_, err := Fetch(ctx, cache, KeyDashboard, "k", func(context.Context) (cachedSummary, error) {
		return cachedSummary{}, boom
	})
	assert.ErrorIs(t, err, boom)

	var dest cachedSummary
	assert.ErrorIs(t, cache.Get(ctx, KeyDashboard, "k", &dest), ErrCacheMiss)
}

func TestFetch_DisabledAlwaysComputes(t *testing.T) {
	cache := NewCacheWithStore(memkv.New(0), 0, nil, nil)

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Fetch(context.Background(), cache, KeyAnalytics, "k", func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestCache_UnavailableStoreIsAMiss(t *testing.T) {
	cache := NewCacheWithStore(brokenStore{}, time.Minute, zap.NewNop().Sugar(), nil)

	var dest cachedSummary
	assert.ErrorIs(t, cache.Get(context.Background(), KeyDashboard, "k", &dest), ErrCacheMiss)
	assert.Error(t, cache.Set(context.Background(), "k", cachedSummary{}))
}

type brokenStore struct{}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return kv.ErrBackendUnavailable
}
func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, kv.ErrBackendUnavailable }
func (brokenStore) Del(context.Context, ...string) (int64, error) {
	return 0, kv.ErrBackendUnavailable
}
func (brokenStore) Exists(context.Context, ...string) (int64, error) {
	return 0, kv.ErrBackendUnavailable
}
func (brokenStore) TTL(context.Context, string) (time.Duration, error) {
	return 0, kv.ErrBackendUnavailable
}
func (brokenStore) Ping(context.Context) error { return kv.ErrBackendUnavailable }
func (brokenStore) Close() error               { return nil }
