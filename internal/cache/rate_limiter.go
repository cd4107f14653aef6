package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitResult reports whether a request may proceed and, if not, how long
// the caller should wait.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter limits attempts per key, for example login attempts per email.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// NewRateLimiter returns a redis fixed window limiter, or a per-process token
// bucket limiter when client is nil. A non-positive maxQuota disables limiting.
func NewRateLimiter(client *redis.Client, group string, window time.Duration, maxQuota int) RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if client == nil {
		return NewLocalRateLimiter(window, maxQuota)
	}
	return &redisRateLimiter{
		client: client,
		group:  strings.ToUpper(strings.TrimSpace(group)),
		window: window,
		quota:  maxQuota,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// redisRateLimiter counts attempts in fixed windows. The counter key embeds
// the window number and expires one second after the window closes.
type redisRateLimiter struct {
	client *redis.Client
	group  string
	window time.Duration
	quota  int
	now    func() time.Time
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	if l.quota <= 0 {
		return RateLimitResult{Allowed: true}, nil
	}
	resource := strings.ToLower(strings.TrimSpace(key))
	if resource == "" {
		return RateLimitResult{Allowed: false, RetryAfter: l.window}, nil
	}

	windowSecs := int64(l.window / time.Second)
	if windowSecs <= 0 {
		windowSecs = 1
	}
	now := l.now()
	windowID := now.Unix() / windowSecs
	redisKey := fmt.Sprintf("ratelimit:%s:%s:%d", l.group, resource, windowID)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, time.Duration(windowSecs)*time.Second+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitResult{}, fmt.Errorf("rate limiter increment: %w", err)
	}

	if incr.Val() > int64(l.quota) {
		nextWindow := (windowID + 1) * windowSecs
		retry := time.Duration(nextWindow-now.Unix()+1) * time.Second
		return RateLimitResult{Allowed: false, RetryAfter: retry}, nil
	}
	return RateLimitResult{Allowed: true}, nil
}

// LocalRateLimiter keeps one token bucket per key. The bucket refills quota
// tokens per window, so a bucket idle for a whole window is full again and is
// dropped on the next sweep.
type LocalRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*localBucket
	limit     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	disabled  bool
	now       func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalRateLimiter(window time.Duration, maxQuota int) *LocalRateLimiter {
	l := &LocalRateLimiter{
		buckets: make(map[string]*localBucket),
		window:  window,
		now:     time.Now,
	}
	if maxQuota <= 0 {
		l.disabled = true
		return l
	}
	l.limit = rate.Every(window / time.Duration(maxQuota))
	l.burst = maxQuota
	return l
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (RateLimitResult, error) {
	if l.disabled {
		return RateLimitResult{Allowed: true}, nil
	}
	resource := strings.ToLower(strings.TrimSpace(key))
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}
	b, ok := l.buckets[resource]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[resource] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return RateLimitResult{Allowed: false, RetryAfter: delay}, nil
	}
	return RateLimitResult{Allowed: true}, nil
}

// sweep drops buckets untouched for a full window. Callers hold l.mu.
func (l *LocalRateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.window {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
