package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	entitlementKeyPrefix = "gw:entitlements:"
	generationKeyPrefix  = "gw:entitlements:gen:"
)

// setIfGeneration writes the entry only while the plan's generation is
// unchanged. KEYS[1] entry, KEYS[2] generation. ARGV: generation, payload, ttl ms.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisEntitlementCache stores plan endpoints in Redis as JSON with a TTL
type RedisEntitlementCache struct {
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisEntitlementCacheOption configures a RedisEntitlementCache
type RedisEntitlementCacheOption func(*RedisEntitlementCache)

// WithRedisTTL sets how long a plan's endpoints stay cached
func WithRedisTTL(ttl time.Duration) RedisEntitlementCacheOption {
	return func(c *RedisEntitlementCache) {
		c.ttl = ttl
	}
}

// WithRedisLogger sets the logger for the cache
func WithRedisLogger(logger *zap.Logger) RedisEntitlementCacheOption {
	return func(c *RedisEntitlementCache) {
		c.logger = logger
	}
}

// NewRedisEntitlementCache connects to Redis and fails if it cannot be pinged
func NewRedisEntitlementCache(cfg RedisConfig, opts ...RedisEntitlementCacheOption) (*RedisEntitlementCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisEntitlementCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisEntitlementCacheWithClient wraps an existing client.
// The caller keeps ownership of the client.
func NewRedisEntitlementCacheWithClient(client *redis.Client, opts ...RedisEntitlementCacheOption) *RedisEntitlementCache {
	c := &RedisEntitlementCache{
		client: client,
		ttl:    DefaultEntitlementTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		c.ttl = DefaultEntitlementTTL
	}
	return c
}

func entitlementKey(planID int64) string {
	return entitlementKeyPrefix + strconv.FormatInt(planID, 10)
}

func generationKey(planID int64) string {
	return generationKeyPrefix + strconv.FormatInt(planID, 10)
}

// Get returns the cached endpoints of a plan
func (c *RedisEntitlementCache) Get(ctx context.Context, planID int64) ([]access.EndpointRef, bool, error) {
	key := entitlementKey(planID)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Entitlement cache miss", zap.Int64("plan_id", planID))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get entitlements from cache: %w", err)
	}

	var refs []access.EndpointRef
	if err := json.Unmarshal(data, &refs); err != nil {
		// Drop the corrupted entry so the next read reloads it
		_ = c.client.Del(ctx, key)
		return nil, false, fmt.Errorf("failed to unmarshal entitlements: %w", err)
	}
	return refs, true, nil
}

// Generation returns the plan's invalidation counter; a missing key is 0
func (c *RedisEntitlementCache) Generation(ctx context.Context, planID int64) (uint64, error) {
	gen, err := c.client.Get(ctx, generationKey(planID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get entitlement generation: %w", err)
	}
	return gen, nil
}

// Set caches the endpoints of a plan if it has not been invalidated since
// generation was read
func (c *RedisEntitlementCache) Set(ctx context.Context, planID int64, generation uint64, refs []access.EndpointRef) (bool, error) {
	if refs == nil {
		refs = []access.EndpointRef{}
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return false, fmt.Errorf("failed to marshal entitlements: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{entitlementKey(planID), generationKey(planID)},
		strconv.FormatUint(generation, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to set entitlements in cache: %w", err)
	}
	if stored == 0 {
		c.logger.Debug("Skipped caching entitlements of invalidated plan",
			zap.Int64("plan_id", planID),
			zap.Uint64("generation", generation))
		return false, nil
	}
	c.logger.Debug("Cached entitlements",
		zap.Int64("plan_id", planID),
		zap.Int("endpoints", len(refs)),
		zap.Duration("ttl", c.ttl))
	return true, nil
}

// Invalidate advances the generation of the given plans and deletes their
// cached endpoints in one MULTI block
func (c *RedisEntitlementCache) Invalidate(ctx context.Context, planIDs ...int64) error {
	if len(planIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range planIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Del(ctx, entitlementKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate entitlements: %w", err)
	}
	return nil
}

// Close closes the client when the cache created it
func (c *RedisEntitlementCache) Close() error {
	if !c.ownsClient {
		return nil
	}
	return c.client.Close()
}
