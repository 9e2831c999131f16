package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgcache "github.com/seankirtman/buy-the-dip-tracker/pkg/cache"
)

// Service is the typed cache layer over the raw byte store. Namespaces
// keep key spaces disjoint; values travel as JSON.
type Service struct {
	store pkgcache.Store
}

// New creates a typed cache service over store.
func New(store pkgcache.Store) *Service {
	return &Service{store: store}
}

func nsKey(namespace, key string) string {
	return pkgcache.GenerateKey(namespace, key)
}

// GetCached returns the cached value for (namespace, key) if present and
// fresh, or (zero, false).
func GetCached[T any](s *Service, namespace, key string) (T, bool) {
	var zero T
	b, ok, err := s.store.GetBytes(nsKey(namespace, key))
	if err != nil || !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, false
	}
	return v, true
}

// Set stores value under (namespace, key) with ttl.
func Set[T any](s *Service, namespace, key string, value T, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return s.store.SetBytes(nsKey(namespace, key), b, ttl)
}

// GetOrFetch returns the fresh cached value for (namespace, key) or invokes
// producer, stores its result under ttl, and returns it. Producer errors are
// returned unstored.
func GetOrFetch[T any](ctx context.Context, s *Service, namespace, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := GetCached[T](s, namespace, key); ok {
		return v, nil
	}

	v, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := Set(s, namespace, key, v, ttl); err != nil {
		// A failed write degrades to recompute-next-time.
		return v, nil
	}
	return v, nil
}
