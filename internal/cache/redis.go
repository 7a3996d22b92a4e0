package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/constants"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/metrics"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type RentCacheConfig struct {
	TTL time.Duration
	// Namespace separates clusters sharing one Redis (e.g. "mainnet").
	Namespace string
	Logger    *logrus.Logger
}

// RentCache memoizes the rent-exemption minimum in Redis. Redis failures
// fall through to the source; source errors are returned unchanged.
type RentCache struct {
	client redis.Cmdable
	source tokenaccount.FundingAmountProvider
	key    string
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRentCache wraps source with a Redis-backed memo.
func NewRentCache(client redis.Cmdable, source tokenaccount.FundingAmountProvider, cfg RentCacheConfig) (*RentCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if source == nil {
		return nil, fmt.Errorf("rent source is nil")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = constants.DefaultRentTTL
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &RentCache{
		client: client,
		source: source,
		key:    fmt.Sprintf("%s%s:%d", constants.RedisKeyRentPrefix, cfg.Namespace, tokenaccount.TokenAccountSize),
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}, nil
}

// RentExemption has the tokenaccount.FundingAmountProvider signature.
func (c *RentCache) RentExemption(ctx context.Context) (uint64, error) {
	v, err := c.client.Get(ctx, c.key).Uint64()
	switch {
	case err == nil:
		metrics.RentCacheHits.WithLabelValues("hit").Inc()
		return v, nil
	case errors.Is(err, redis.Nil):
		metrics.RentCacheHits.WithLabelValues("miss").Inc()
	default:
		metrics.RentCacheHits.WithLabelValues("error").Inc()
		c.logger.WithError(err).Warn("rent cache read failed")
	}

	v, err = c.source(ctx)
	if err != nil {
		return 0, err
	}

	if err := c.client.Set(ctx, c.key, v, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("rent cache write failed")
	}
	return v, nil
}

// Invalidate drops the cached value.
func (c *RentCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
