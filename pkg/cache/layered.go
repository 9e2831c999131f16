package cache

import "time"

// LayeredCache implements a two-level Store (L1: memory, L2: Redis).
// A missing or unreachable L2 degrades to memory-only operation.
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache *RedisCache
}

// NewLayeredCache creates a layered cache with memory and Redis.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redisCache: redisCache,
	}
}

func (lc *LayeredCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	if err := lc.memCache.SetBytes(key, value, ttl); err != nil {
		return err
	}
	if lc.redisCache != nil {
		// Redis write failures are tolerated; memory already holds the value.
		_ = lc.redisCache.SetBytes(key, value, ttl)
	}
	return nil
}

func (lc *LayeredCache) GetBytes(key string) ([]byte, bool, error) {
	if b, ok, err := lc.memCache.GetBytes(key); err == nil && ok {
		return b, true, nil
	}

	if lc.redisCache == nil {
		return nil, false, nil
	}

	b, ok, err := lc.redisCache.GetBytes(key)
	if err != nil || !ok {
		return nil, false, err
	}

	// Promote to L1. The original TTL is unknown here; a short horizon
	// keeps stale promotion bounded.
	_ = lc.memCache.SetBytes(key, b, 5*time.Minute)
	return b, true, nil
}

func (lc *LayeredCache) Delete(key string) error {
	_ = lc.memCache.Delete(key)
	if lc.redisCache != nil {
		return lc.redisCache.Delete(key)
	}
	return nil
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	if lc.redisCache != nil {
		return lc.redisCache.Close()
	}
	return nil
}
