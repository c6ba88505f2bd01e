package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/result"
)

// Redis is a shared Result Cache backed by Redis. Capacity is bounded by the
// server's eviction policy; the TTL is the staleness bound. Entries are
// immutable once written, so concurrent write-through on the same key is an
// idempotent overwrite.
type Redis struct {
	client    rueidis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds connection parameters for the shared cache.
type RedisConfig struct {
	Addrs     []string
	Username  string
	Password  string
	KeyPrefix string
	TTL       time.Duration
}

// NewRedis creates a Redis-backed result cache.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}

	return &Redis{client: client, keyPrefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

// Get fetches and decodes a cached page. A missing key is domain.ErrCacheMiss;
// any backend failure is domain.ErrCacheUnavailable, which callers treat as a
// miss.
func (r *Redis) Get(ctx context.Context, key string) (*result.Page, error) {
	cmd := r.client.B().Get().Key(r.keyPrefix + key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: get: %s", domain.ErrCacheUnavailable, err.Error())
	}

	var page result.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("%w: decode: %s", domain.ErrCacheUnavailable, err.Error())
	}
	return &page, nil
}

// Set writes the page through with the staleness-bound TTL.
func (r *Redis) Set(ctx context.Context, key string, page *result.Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("%w: encode: %s", domain.ErrCacheUnavailable, err.Error())
	}

	cmd := r.client.B().Set().Key(r.keyPrefix + key).Value(string(data)).Ex(r.ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: set: %s", domain.ErrCacheUnavailable, err.Error())
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	cmd := r.client.B().Ping().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (r *Redis) Close() { r.client.Close() }
