package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowPerMinuteBurst(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewWithClock(func() time.Time { return now })
	l.Register("alphavantage", Quota{PerMinute: 5, PerDay: 500})

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("alphavantage"), "call %d", i)
	}
	assert.False(t, l.Allow("alphavantage"))

	// A minute later the bucket has refilled.
	now = now.Add(time.Minute)
	assert.True(t, l.Allow("alphavantage"))
}

func TestAllowDailyQuota(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewWithClock(func() time.Time { return now })
	l.Register("finnhub", Quota{PerMinute: 1000, PerDay: 3})

	assert.True(t, l.Allow("finnhub"))
	assert.True(t, l.Allow("finnhub"))
	assert.True(t, l.Allow("finnhub"))
	assert.False(t, l.Allow("finnhub"))
	assert.Equal(t, 0, l.Remaining("finnhub"))

	// Quota resets at the UTC day boundary.
	now = now.Add(24 * time.Hour)
	assert.True(t, l.Allow("finnhub"))
	assert.Equal(t, 2, l.Remaining("finnhub"))
}

func TestUnregisteredProviderUnlimited(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("unknown"))
	}
	assert.Equal(t, -1, l.Remaining("unknown"))
}
