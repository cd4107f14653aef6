package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type cachedThing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	mr, client := newTestRedis(t)
	helper := NewCacheHelper(client, "thing:")
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "id:1", cachedThing{ID: "1", Name: "first"}, time.Minute))
	assert.True(t, mr.Exists("thing:id:1"))

	var got cachedThing
	require.NoError(t, helper.Get(ctx, "id:1", &got))
	assert.Equal(t, "first", got.Name)

	err := helper.Get(ctx, "id:2", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, helper.Get(ctx, "id:1", &got), ErrCacheNotFound)
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	helper := NewCacheHelper(nil, "thing:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, helper.Delete(ctx, "k"))
	assert.NoError(t, helper.InvalidatePattern(ctx, "*"))

	var out string
	assert.ErrorIs(t, helper.Get(ctx, "k", &out), ErrCacheNotAvailable)

	calls := 0
	err := helper.CacheOrExecute(ctx, "k", &out, time.Minute, func() (any, error) {
		calls++
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", out)
	assert.Equal(t, 1, calls)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	_, client := newTestRedis(t)
	helper := NewCacheHelper(client, "thing:")
	ctx := context.Background()

	calls := 0
	fetch := func() (any, error) {
		calls++
		return cachedThing{ID: "9", Name: "nine"}, nil
	}

	var first, second cachedThing
	require.NoError(t, helper.CacheOrExecute(ctx, "id:9", &first, time.Minute, fetch))
	require.NoError(t, helper.CacheOrExecute(ctx, "id:9", &second, time.Minute, fetch))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	fetchErr := errors.New("boom")
	var third cachedThing
	err := helper.CacheOrExecute(ctx, "id:10", &third, time.Minute, func() (any, error) {
		return nil, fetchErr
	})
	assert.ErrorIs(t, err, fetchErr)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	mr, client := newTestRedis(t)
	helper := NewCacheHelper(client, "response:")
	other := NewCacheHelper(client, "assessment:")
	ctx := context.Background()

	for _, k := range []string{"id:a", "id:b", "id:c"} {
		require.NoError(t, helper.Set(ctx, k, k, time.Minute))
	}
	require.NoError(t, other.Set(ctx, "id:1", "x", time.Minute))

	require.NoError(t, helper.InvalidatePattern(ctx, "*"))

	assert.False(t, mr.Exists("response:id:a"))
	assert.False(t, mr.Exists("response:id:c"))
	assert.True(t, mr.Exists("assessment:id:1"))
}

func TestInvalidateAssessmentCache_DropsResponses(t *testing.T) {
	mr, client := newTestRedis(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	require.NoError(t, cm.Assessment.Set(ctx, AssessmentKey(3), "a", time.Minute))
	require.NoError(t, cm.Response.Set(ctx, ResponseKey("r1"), "r", time.Minute))

	InvalidateAssessmentCache(ctx, cm, 3)

	assert.False(t, mr.Exists("assessment:id:3"))
	assert.False(t, mr.Exists("response:id:r1"))
	assert.NoError(t, cm.HealthCheck(ctx))
}

func TestTokenBlacklist_Redis(t *testing.T) {
	mr, client := newTestRedis(t)
	bl := NewTokenBlacklist(client)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(61 * time.Second)
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_Memory(t *testing.T) {
	bl := NewMemoryTokenBlacklist()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	bl.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	revoked, _ := bl.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = bl.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewRateLimiter(client, "login", time.Minute, 2).(*redisRateLimiter)
	now := time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "Doctor@Example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "doctor@example.com")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 51*time.Second, res.RetryAfter)

	now = now.Add(time.Minute)
	res, err = limiter.Allow(ctx, "doctor@example.com")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalRateLimiter(t *testing.T) {
	limiter := NewLocalRateLimiter(time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	res, _ = limiter.Allow(ctx, "b@example.com")
	assert.True(t, res.Allowed)

	disabled := NewLocalRateLimiter(time.Minute, 0)
	for i := 0; i < 10; i++ {
		res, _ := disabled.Allow(ctx, "a@example.com")
		assert.True(t, res.Allowed)
	}
}

func TestLocalRateLimiter_EvictsIdleKeys(t *testing.T) {
	limiter := NewLocalRateLimiter(time.Minute, 3)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = limiter.Allow(ctx, "a@example.com")
	}
	res, err := limiter.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, float64(20*time.Second), float64(res.RetryAfter), float64(time.Millisecond))

	now = start.Add(30 * time.Second)
	_, _ = limiter.Allow(ctx, "b@example.com")
	assert.Len(t, limiter.buckets, 2)

	now = start.Add(70 * time.Second)
	_, _ = limiter.Allow(ctx, "c@example.com")
	assert.Len(t, limiter.buckets, 2)
	assert.NotContains(t, limiter.buckets, "a@example.com")
	assert.Contains(t, limiter.buckets, "b@example.com")

	res, err = limiter.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
