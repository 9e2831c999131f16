package cache

import "time"

// Store is the minimal key-value contract the pipeline depends on:
// raw bytes in, raw bytes out, TTL-bounded freshness.
type Store interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}
