package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheHelper wraps a redis client with a key prefix. A nil client turns every
// write into a no-op and every read into ErrCacheNotAvailable.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig pairs a key namespace with its TTL.
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Responses change status often; keep them short lived.
	ResponseCacheConfig = CacheConfig{
		TTL:    1 * time.Minute,
		Prefix: "response:",
	}

	AssessmentCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "assessment:",
	}

	ExamineeCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "examinee:",
	}

	UserCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "user:",
	}
)

func (c *CacheHelper) Key(key string) string {
	return c.prefix + key
}

// Available reports whether a redis client is configured.
func (c *CacheHelper) Available() bool {
	return c != nil && c.client != nil
}

// Get reads key and unmarshals the JSON value into dest.
func (c *CacheHelper) Get(ctx context.Context, key string, dest any) error {
	if !c.Available() {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set stores value as JSON under key.
func (c *CacheHelper) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Available() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.client.Set(ctx, c.Key(key), data, ttl).Err()
}

// Delete removes keys in a single round trip.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if !c.Available() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.Key(key)
	}
	return c.client.Del(ctx, full...).Err()
}

// InvalidatePattern removes every key under the prefix matching pattern. It
// walks the keyspace with SCAN and deletes in batches through a pipeline.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if !c.Available() {
		return nil
	}

	fullPattern := c.Key(pattern)
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	const batchSize = 100
	pipe := c.client.Pipeline()
	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))
		pipe.Del(ctx, keys[i:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}
	return nil
}

// CacheOrExecute is a cache-aside read: it serves key from redis when present,
// otherwise runs fetch, stores its result and copies it into dest.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() (any, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache read failed, falling back to source", "error", err, "key", c.Key(key))
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}

	if c.Available() {
		if err := c.client.Set(ctx, c.Key(key), data, ttl).Err(); err != nil {
			slog.WarnContext(ctx, "Cache set failed", "error", err, "key", c.Key(key))
		}
	}

	return json.Unmarshal(data, dest)
}

// CacheManager groups one helper per cached entity.
type CacheManager struct {
	client *redis.Client

	Response   *CacheHelper
	Assessment *CacheHelper
	Examinee   *CacheHelper
	User       *CacheHelper
}

// NewCacheManager builds the helpers. client may be nil, in which case all
// caching is skipped.
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		client:     client,
		Response:   NewCacheHelper(client, ResponseCacheConfig.Prefix),
		Assessment: NewCacheHelper(client, AssessmentCacheConfig.Prefix),
		Examinee:   NewCacheHelper(client, ExamineeCacheConfig.Prefix),
		User:       NewCacheHelper(client, UserCacheConfig.Prefix),
	}
}

// Client returns the underlying redis client, possibly nil.
func (cm *CacheManager) Client() *redis.Client {
	return cm.client
}

func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
