package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client, mr
}

func TestLockerIsExclusive(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "offer:accept:project:1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = locker.TryLock(ctx, "offer:accept:project:1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// A foreign token must not release the lease.
	require.NoError(t, locker.Release(ctx, "offer:accept:project:1", "not-the-owner"))
	assert.True(t, mr.Exists("offer:accept:project:1"))

	require.NoError(t, locker.Release(ctx, "offer:accept:project:1", token))
	assert.False(t, mr.Exists("offer:accept:project:1"))

	_, ok, err = locker.TryLock(ctx, "offer:accept:project:1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	_, ok, err := locker.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerValidation(t *testing.T) {
	var nilLocker *Locker
	_, _, err := nilLocker.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.NoError(t, nilLocker.Release(context.Background(), "k", "t"))
	assert.Nil(t, NewLocker(nil))

	client, _ := setupTestRedis(t)
	locker := NewLocker(client)
	_, _, err = locker.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrLockKeyEmpty)
	_, _, err = locker.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrLockTTLInvalid)
}

func TestTokenBucketDeniesAfterBurst(t *testing.T) {
	client, _ := setupTestRedis(t)
	bucket := NewTokenBucket(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, "ratelimit:login:1.2.3.4", 0.01, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := bucket.Allow(ctx, "ratelimit:login:1.2.3.4", 0.01, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	other, err := bucket.Allow(ctx, "ratelimit:login:5.6.7.8", 0.01, 3)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestTokenBucketValidation(t *testing.T) {
	var nilBucket *TokenBucket
	_, err := nilBucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrLimiterNotConfigured)

	client, _ := setupTestRedis(t)
	bucket := NewTokenBucket(client)
	_, err = bucket.Allow(context.Background(), "", 1, 1)
	assert.ErrorIs(t, err, ErrLimiterKeyEmpty)
	_, err = bucket.Allow(context.Background(), "k", 0, 1)
	assert.ErrorIs(t, err, ErrLimiterInvalidRate)
}

func TestLocalLimiterRefills(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	local := NewLocalLimiter()
	local.now = func() time.Time { return now }

	assert.True(t, local.Allow("a", 1, 2).Allowed)
	assert.True(t, local.Allow("a", 1, 2).Allowed)

	denied := local.Allow("a", 1, 2)
	assert.False(t, denied.Allowed)
	assert.Equal(t, time.Second, denied.RetryAfter)

	assert.True(t, local.Allow("b", 1, 2).Allowed)

	now = now.Add(time.Second)
	assert.True(t, local.Allow("a", 1, 2).Allowed)
}

func TestLocalLimiterEvictsIdleKeys(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	local := NewLocalLimiter()
	local.now = func() time.Time { return now }

	local.Allow("idle", 1, 1)
	now = now.Add(localIdleTTL + time.Minute)
	local.Allow("fresh", 1, 1)

	local.mu.Lock()
	defer local.mu.Unlock()
	assert.NotContains(t, local.entries, "idle")
	assert.Contains(t, local.entries, "fresh")
}

func TestLimiterFallsBackToLocal(t *testing.T) {
	limiter := NewLimiter(Params{
		Cfg: config.Config{RateLimit: config.RateLimitConfig{Rate: 0.001, Burst: 1}},
		Log: zaptest.NewLogger(t),
	})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "login", "1.2.3.4").Allowed)
	assert.False(t, limiter.Allow(ctx, "login", "1.2.3.4").Allowed)
	assert.True(t, limiter.Allow(ctx, "signup", "1.2.3.4").Allowed)
}

func TestLimiterUsesRedisAndFailsOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	limiter := NewLimiter(Params{
		Cfg:    config.Config{RateLimit: config.RateLimitConfig{Rate: 0.001, Burst: 1}},
		Log:    zaptest.NewLogger(t),
		Client: client,
	})
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "functions", "k").Allowed)
	assert.False(t, limiter.Allow(ctx, "functions", "k").Allowed)
	assert.True(t, mr.Exists("ratelimit:functions:k"))

	mr.Close()
	assert.True(t, limiter.Allow(ctx, "functions", "k").Allowed)
}

func TestLimiterDisabled(t *testing.T) {
	limiter := NewLimiter(Params{Cfg: config.Config{}, Log: zaptest.NewLogger(t)})
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(context.Background(), "login", "k").Allowed)
	}
}

func TestLeaseReleasesAfterCallerCancelled(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewLocker(client)

	ctx, cancel := context.WithCancel(context.Background())
	lease, ok, err := locker.Acquire(ctx, "scheduler:invitation_sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "scheduler:invitation_sweep", lease.Key())

	_, ok, err = locker.Acquire(context.Background(), "scheduler:invitation_sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	cancel()
	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("scheduler:invitation_sweep"))

	var nilLease *Lease
	assert.NoError(t, nilLease.Release(context.Background()))
}
