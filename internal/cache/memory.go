package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/result"
)

// Memory is an in-process Result Cache: ristretto LRU with a per-entry TTL
// as the staleness bound.
type Memory struct {
	cache *ristretto.Cache[string, *result.Page]
	ttl   time.Duration
}

// MemoryConfig bounds the in-process cache.
type MemoryConfig struct {
	MaxEntries int64
	TTL        time.Duration
}

// NewMemory creates an in-process result cache.
func NewMemory(cfg MemoryConfig) (*Memory, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1024
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, *result.Page]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	return &Memory{cache: c, ttl: cfg.TTL}, nil
}

// Get returns a clone of the cached page, or domain.ErrCacheMiss.
func (m *Memory) Get(_ context.Context, key string) (*result.Page, error) {
	page, ok := m.cache.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return page.Clone(), nil
}

// Set stores a clone of the page under the key. Admission is approximate:
// ristretto may decline an entry under pressure, which is fine for a memo.
func (m *Memory) Set(_ context.Context, key string, page *result.Page) error {
	m.cache.SetWithTTL(key, page.Clone(), 1, m.ttl)
	return nil
}

// Ping always succeeds for the in-process cache.
func (m *Memory) Ping(_ context.Context) error { return nil }

// Wait flushes pending writes. Tests call this before asserting on hits.
func (m *Memory) Wait() { m.cache.Wait() }

// Close releases the cache's resources.
func (m *Memory) Close() { m.cache.Close() }
