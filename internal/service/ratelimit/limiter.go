package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Quota bounds one provider's call budget.
type Quota struct {
	PerMinute int
	PerDay    int
}

type providerState struct {
	minute *rate.Limiter
	quota  Quota
	day    string // YYYY-MM-DD the counter belongs to
	calls  int
}

// Limiter enforces a rolling per-minute rate and a per-day quota for each
// provider. Checks are fail-fast: a rejected call consumes no budget and
// no network round-trip.
type Limiter struct {
	mu  sync.Mutex
	m   map[string]*providerState
	now func() time.Time
}

// New creates a limiter using the wall clock.
func New() *Limiter {
	return NewWithClock(time.Now)
}

// NewWithClock creates a limiter with an injectable clock for tests.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{m: make(map[string]*providerState), now: now}
}

// Register sets the quota for a provider. Re-registering resets its state.
func (l *Limiter) Register(provider string, q Quota) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[provider] = &providerState{
		minute: rate.NewLimiter(rate.Limit(float64(q.PerMinute)/60.0), q.PerMinute),
		quota:  q,
	}
}

// Allow returns true and consumes one call if provider is under both its
// per-minute rate and daily quota. Unregistered providers are unlimited.
func (l *Limiter) Allow(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.m[provider]
	if !ok {
		return true
	}

	now := l.now()
	day := now.UTC().Format("2006-01-02")
	if st.day != day {
		st.day = day
		st.calls = 0
	}
	if st.quota.PerDay > 0 && st.calls >= st.quota.PerDay {
		return false
	}
	if !st.minute.AllowN(now, 1) {
		return false
	}

	st.calls++
	return true
}

// Remaining returns the calls left in today's quota (or -1 if unbounded).
func (l *Limiter) Remaining(provider string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.m[provider]
	if !ok || st.quota.PerDay <= 0 {
		return -1
	}
	if st.day != l.now().UTC().Format("2006-01-02") {
		return st.quota.PerDay
	}
	left := st.quota.PerDay - st.calls
	if left < 0 {
		return 0
	}
	return left
}
