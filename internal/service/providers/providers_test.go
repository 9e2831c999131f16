package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	"github.com/seankirtman/buy-the-dip-tracker/internal/service/ratelimit"
)

func TestAlphaVantageDaily(t *testing.T) {
	payload := map[string]interface{}{
		"Time Series (Daily)": map[string]interface{}{
			"2024-01-03": map[string]string{
				"1. open": "101.0", "2. high": "103.0", "3. low": "100.0", "4. close": "102.5", "5. volume": "1200000",
			},
			"2024-01-02": map[string]string{
				"1. open": "100.0", "2. high": "101.0", "3. low": "99.0", "4. close": "100.5", "5. volume": "1000000",
			},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	p := NewAlphaVantage("test-key", srv.URL, time.Second)
	bars, err := p.GetDaily(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// Sorted ascending regardless of map order.
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.InDelta(t, 100.5, bars[0].Close, 1e-9)
	assert.InDelta(t, 1.2e6, bars[1].Volume, 1e-9)
}

func TestAlphaVantageThrottleNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute.",
		})
	}))
	defer srv.Close()

	p := NewAlphaVantage("test-key", srv.URL, time.Second)
	_, err := p.GetDaily(context.Background(), "AAPL")
	assert.True(t, errors.Is(err, repository.ErrRateLimited))
}

func TestAlphaVantageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewAlphaVantage("test-key", srv.URL, time.Second)
	_, err := p.GetDaily(context.Background(), "AAPL")
	assert.True(t, errors.Is(err, repository.ErrProvider))
}

func TestStooqCSV(t *testing.T) {
	body := "Date,Open,High,Low,Close,Volume\n" +
		"2024-01-02,100,101,99,100.5,1000000\n" +
		"2024-01-03,101,103,100,102.5,1200000\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aapl.us", r.URL.Query().Get("s"))
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewStooq(srv.URL, time.Second)
	bars, err := p.GetDaily(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.InDelta(t, 102.5, bars[1].Close, 1e-9)
}

func TestStooqGarbagePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("No data"))
	}))
	defer srv.Close()

	p := NewStooq(srv.URL, time.Second)
	_, err := p.GetDaily(context.Background(), "AAPL")
	assert.True(t, errors.Is(err, repository.ErrProvider))
}

func TestFinnhubCompanyNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company-news", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Finnhub-Token"))
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 7, "headline": "Apple beats earnings", "summary": "Strong quarter", "source": "Reuters", "url": "https://example.com/a", "datetime": 1704240000},
			{"id": 8, "headline": "", "summary": "dropped", "datetime": 1704240000},
		})
	}))
	defer srv.Close()

	p := NewFinnhub("test-key", srv.URL, time.Second)
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	articles, err := p.GetCompanyNews(context.Background(), "AAPL", from, from.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Apple beats earnings", articles[0].Headline)
	assert.Equal(t, "7", articles[0].ID)
}

func TestFinnhubRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewFinnhub("test-key", srv.URL, time.Second)
	_, err := p.GetQuote(context.Background(), "AAPL")
	assert.True(t, errors.Is(err, repository.ErrRateLimited))
}

func TestFinnhubProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Apple Inc", "finnhubIndustry": "Technology"})
	}))
	defer srv.Close()

	p := NewFinnhub("test-key", srv.URL, time.Second)
	profile, err := p.GetProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", profile.Name)
}

type stubBars struct {
	name  string
	bars  []models.Bar
	err   error
	calls int
}

func (s *stubBars) Name() string { return s.name }
func (s *stubBars) GetDaily(ctx context.Context, symbol string) ([]models.Bar, error) {
	s.calls++
	return s.bars, s.err
}
func (s *stubBars) GetWeekly(ctx context.Context, symbol string) ([]models.Bar, error) {
	s.calls++
	return s.bars, s.err
}

func TestLimitedBarProviderFailsFast(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := ratelimit.NewWithClock(func() time.Time { return now })
	rl.Register("primary", ratelimit.Quota{PerMinute: 1, PerDay: 10})

	stub := &stubBars{name: "primary", bars: []models.Bar{{Close: 1}}}
	p := NewLimitedBarProvider(stub, rl)

	_, err := p.GetDaily(context.Background(), "AAPL")
	require.NoError(t, err)

	_, err = p.GetDaily(context.Background(), "AAPL")
	assert.True(t, errors.Is(err, repository.ErrRateLimited))
	// The rejected call never reached the inner provider.
	assert.Equal(t, 1, stub.calls)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubBars{name: "primary", err: errors.New("boom")}
	p := NewBreakerBarProvider(stub)

	for i := 0; i < 3; i++ {
		_, err := p.GetDaily(context.Background(), "AAPL")
		require.Error(t, err)
	}
	inner := stub.calls

	_, err := p.GetDaily(context.Background(), "AAPL")
	assert.True(t, errors.Is(err, repository.ErrProvider))
	assert.Equal(t, inner, stub.calls) // breaker short-circuited
}
