package cache

import (
	"io"
	"time"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DefaultEntitlementTTL is used when no TTL is configured
const DefaultEntitlementTTL = 5 * time.Minute

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EntitlementCache is an access.EntitlementCache that owns resources
type EntitlementCache interface {
	access.EntitlementCache
	io.Closer
}

// NewEntitlementCache picks the cache backend from configuration.
// Redis is used when enabled and reachable. Otherwise the cache falls back to
// process memory, which is correct for a single instance only.
func NewEntitlementCache(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) EntitlementCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultEntitlementTTL
	}

	if cfg.Enabled {
		redisCache, err := NewRedisEntitlementCache(RedisConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		}, WithRedisTTL(ttl), WithRedisLogger(logger))
		if err == nil {
			logger.Info("Using Redis entitlement cache", zap.String("addr", cfg.Addr()))
			return redisCache
		}
		logger.Warn("Redis unavailable, falling back to in-memory entitlement cache. "+
			"Plan changes on other instances are only seen after the TTL expires.",
			zap.Error(err))
	}

	logger.Info("Using in-memory entitlement cache", zap.Duration("ttl", ttl))
	return NewMemoryEntitlementCache(ttl)
}
