package cache

import (
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
)

const eventsNamespace = "events"

// eventsEnvelope wraps a computed event set with the fingerprint of the
// upstream data it was derived from. Reuse is gated on fingerprint
// equality rather than TTL alone.
type eventsEnvelope struct {
	Fingerprint string              `json:"fingerprint"`
	FetchedAt   time.Time           `json:"fetched_at"`
	Events      []models.StockEvent `json:"events"`
}

// EventsCache is the fingerprint-gated variant of the cache for the
// terminal pipeline output.
type EventsCache struct {
	svc *Service
	ttl time.Duration
}

// NewEventsCache creates an events cache with the given retention.
func NewEventsCache(svc *Service, ttl time.Duration) *EventsCache {
	return &EventsCache{svc: svc, ttl: ttl}
}

// Get returns the cached event set for symbol only when its fingerprint
// matches exactly.
func (c *EventsCache) Get(symbol, fingerprint string) ([]models.StockEvent, bool) {
	env, ok := GetCached[eventsEnvelope](c.svc, eventsNamespace, symbol)
	if !ok || env.Fingerprint != fingerprint {
		return nil, false
	}
	return env.Events, true
}

// GetStale returns whatever event set is cached for symbol regardless of
// fingerprint, for degraded serving when upstream is unavailable.
func (c *EventsCache) GetStale(symbol string) ([]models.StockEvent, bool) {
	env, ok := GetCached[eventsEnvelope](c.svc, eventsNamespace, symbol)
	if !ok {
		return nil, false
	}
	return env.Events, true
}

// Set replaces the cached event set for symbol wholesale.
func (c *EventsCache) Set(symbol string, events []models.StockEvent, fingerprint string) error {
	env := eventsEnvelope{
		Fingerprint: fingerprint,
		FetchedAt:   time.Now().UTC(),
		Events:      events,
	}
	return Set(c.svc, eventsNamespace, symbol, env, c.ttl)
}
