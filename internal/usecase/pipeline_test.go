package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	icache "github.com/seankirtman/buy-the-dip-tracker/internal/service/cache"
	"github.com/seankirtman/buy-the-dip-tracker/internal/services/newscorr"
	pkgcache "github.com/seankirtman/buy-the-dip-tracker/pkg/cache"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// flatBars builds a constant-price series with constant volume.
func flatBars(n int, price, volume float64) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = models.Bar{Date: day(i), Open: price, High: price, Low: price, Close: price, Volume: volume}
	}
	return out
}

// dropBars is flatBars with an 8% one-day drop and tripled volume at idx.
func dropBars(n, idx int) []models.Bar {
	out := flatBars(n, 100, 1e6)
	for i := idx; i < n; i++ {
		out[i].Open, out[i].High, out[i].Low, out[i].Close = 92, 92, 92, 92
	}
	out[idx].Volume = 3e6
	return out
}

type stubBarProvider struct {
	mu       sync.Mutex
	provName string
	daily    map[string][]models.Bar
	weekly   map[string][]models.Bar
	err      error
	calls    int
}

func (s *stubBarProvider) Name() string { return s.provName }

func (s *stubBarProvider) GetDaily(ctx context.Context, symbol string) ([]models.Bar, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.daily[symbol], nil
}

func (s *stubBarProvider) GetWeekly(ctx context.Context, symbol string) ([]models.Bar, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.weekly[symbol], nil
}

type stubNewsProvider struct {
	articles []models.Article
	err      error
	calls    int
}

func (s *stubNewsProvider) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.Article, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

type stubQuoteProvider struct{ price float64 }

func (s *stubQuoteProvider) GetQuote(ctx context.Context, symbol string) (float64, error) {
	return s.price, nil
}

type recordingMetrics struct {
	runs      []string
	cacheHits []bool
	errsKinds []string
}

func (m *recordingMetrics) RecordPipelineRun(symbol, tier string) {
	m.runs = append(m.runs, tier)
}

func (m *recordingMetrics) RecordProviderError(provider, kind string) {
	m.errsKinds = append(m.errsKinds, kind)
}

func (m *recordingMetrics) RecordCacheHit(namespace string, hit bool) {
	m.cacheHits = append(m.cacheHits, hit)
}

func (m *recordingMetrics) RecordPipelineLatency(symbol string, s float64) {}

type pipelineFixture struct {
	pipeline *Pipeline
	metrics  *recordingMetrics
	news     *stubNewsProvider
}

func newFixture(t *testing.T, primary repository.BarProvider, opts ...Option) *pipelineFixture {
	t.Helper()
	mem := pkgcache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	svc := icache.New(mem)

	news := &stubNewsProvider{}
	metrics := &recordingMetrics{}
	correlator := newscorr.New(news, svc, logger.Nop())

	base := []Option{
		WithNewsProvider(news),
		WithMetrics(metrics),
	}
	p := New(primary, correlator, icache.NewEventsCache(svc, 24*time.Hour), logger.Nop(), append(base, opts...)...)
	return &pipelineFixture{pipeline: p, metrics: metrics, news: news}
}

func goodPrimary() *stubBarProvider {
	return &stubBarProvider{
		provName: "alphavantage",
		daily: map[string][]models.Bar{
			"ACME": dropBars(90, 60),
			"SPY":  flatBars(90, 400, 5e6),
		},
		weekly: map[string][]models.Bar{
			"ACME": flatBars(10, 100, 1e6),
			"SPY":  flatBars(10, 400, 5e6),
		},
	}
}

func TestComputeEventsPrimaryProducesEvents(t *testing.T) {
	fx := newFixture(t, goodPrimary())

	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.Empty(t, res.Error)
	require.False(t, res.Stale)
	require.NotEmpty(t, res.Events)
	require.Equal(t, []string{tierPrimary}, fx.metrics.runs)

	ev := res.Events[0]
	require.Equal(t, "ACME", ev.Symbol)
	require.Equal(t, models.DirectionNegative, ev.Impact.Direction)
	require.NotEqual(t, models.MagnitudeModerate, ev.Impact.Magnitude)
	require.InDelta(t, 3.0, ev.Impact.VolumeSpike, 0.15)
}

func TestComputeEventsFingerprintCacheHit(t *testing.T) {
	primary := goodPrimary()
	fx := newFixture(t, primary)

	first := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	second := fx.pipeline.ComputeEvents(context.Background(), "ACME")

	require.Equal(t, first.Events, second.Events)
	require.Equal(t, []bool{false, true}, fx.metrics.cacheHits,
		"identical upstream data must be served from the events cache")
	require.Equal(t, []string{tierPrimary, tierPrimary}, fx.metrics.runs)
}

func TestComputeEventsFingerprintChangeRecomputes(t *testing.T) {
	primary := goodPrimary()
	fx := newFixture(t, primary)

	fx.pipeline.ComputeEvents(context.Background(), "ACME")
	primary.daily["ACME"] = dropBars(91, 60)
	fx.pipeline.ComputeEvents(context.Background(), "ACME")

	require.Equal(t, []bool{false, false}, fx.metrics.cacheHits)
}

func TestComputeEventsRateLimitedServesStaleCache(t *testing.T) {
	primary := goodPrimary()
	fx := newFixture(t, primary)

	warm := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.NotEmpty(t, warm.Events)

	primary.err = repository.RateLimitedError("alphavantage")
	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")

	require.True(t, res.Stale)
	require.NotEmpty(t, res.Error)
	require.Equal(t, warm.Events, res.Events)
	require.Equal(t, tierStaleCache, fx.metrics.runs[len(fx.metrics.runs)-1])
	require.Contains(t, fx.metrics.errsKinds, "rate_limited")
}

func TestComputeEventsSecondaryFallback(t *testing.T) {
	primary := &stubBarProvider{provName: "alphavantage", err: repository.RateLimitedError("alphavantage")}
	secondary := &stubBarProvider{
		provName: "stooq",
		daily: map[string][]models.Bar{
			"ACME": dropBars(90, 60),
			"SPY":  flatBars(90, 400, 5e6),
		},
		weekly: map[string][]models.Bar{},
	}
	fx := newFixture(t, primary, WithSecondaryProvider(secondary))

	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.True(t, res.Stale)
	require.NotEmpty(t, res.Events)
	require.NotEmpty(t, res.Error)
	require.Equal(t, []string{tierSecondary}, fx.metrics.runs)
}

func TestComputeEventsSecondaryTooFewBars(t *testing.T) {
	primary := &stubBarProvider{provName: "alphavantage", err: repository.RateLimitedError("alphavantage")}
	secondary := &stubBarProvider{
		provName: "stooq",
		daily: map[string][]models.Bar{
			"ACME": dropBars(30, 20),
			"SPY":  flatBars(30, 400, 5e6),
		},
		weekly: map[string][]models.Bar{},
	}
	fx := newFixture(t, primary, WithSecondaryProvider(secondary))

	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.Empty(t, res.Events)
	require.NotEmpty(t, res.Error)
	require.Contains(t, fx.metrics.errsKinds, "insufficient_data")
}

func TestComputeEventsHeuristicAnchorsWhenNothingQualifies(t *testing.T) {
	primary := &stubBarProvider{provName: "alphavantage", err: repository.ProviderFailure("alphavantage", errors.New("bad gateway"))}
	secondary := &stubBarProvider{
		provName: "stooq",
		daily: map[string][]models.Bar{
			"ACME": flatBars(60, 100, 1e6),
			"SPY":  flatBars(60, 400, 5e6),
		},
		weekly: map[string][]models.Bar{},
	}
	fx := newFixture(t, primary, WithSecondaryProvider(secondary))

	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.True(t, res.Stale)
	require.Len(t, res.Events, DefaultConfig().HeuristicAnchors,
		"a usable fallback series must still anchor events on its largest relative moves")
}

func TestComputeEventsNewsOnlyTier(t *testing.T) {
	primary := &stubBarProvider{provName: "alphavantage", err: repository.RateLimitedError("alphavantage")}
	fx := newFixture(t, primary, WithQuoteProvider(&stubQuoteProvider{price: 123.45}))

	fx.news.articles = []models.Article{
		{ID: "1", Headline: "ACME announces new product launch and release", Source: "Reuters", PublishedAt: day(0)},
		{ID: "2", Headline: "ACME earnings preview", Source: "CNBC", PublishedAt: day(2)},
		{ID: "3", Headline: "ACME CEO steps down, board appoints successor", Source: "Bloomberg", PublishedAt: day(1)},
		{ID: "4", Headline: "ACME analyst upgrade with higher price target", Source: "MarketWatch", PublishedAt: day(3)},
	}

	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.True(t, res.Stale)
	require.NotEmpty(t, res.Error)
	require.Len(t, res.Events, 3)

	for i := 1; i < len(res.Events); i++ {
		require.False(t, res.Events[i].Date.After(res.Events[i-1].Date), "news-only events are most recent first")
	}
	for _, ev := range res.Events {
		require.InDelta(t, 123.45, ev.PriceNow, 1e-9)
		require.Zero(t, ev.PriceAtEvent)
	}
	require.Equal(t, []string{tierNewsOnly}, fx.metrics.runs)
}

func TestComputeEventsExhaustedChain(t *testing.T) {
	primary := &stubBarProvider{provName: "alphavantage", err: repository.RateLimitedError("alphavantage")}
	fx := newFixture(t, primary)
	fx.news.err = errors.New("news api down")

	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.NotNil(t, res.Events)
	require.Empty(t, res.Events)
	require.NotEmpty(t, res.Error)
	require.Equal(t, []string{tierExhausted}, fx.metrics.runs)
}

func TestComputeEventsShortSeriesSucceedsEmpty(t *testing.T) {
	primary := &stubBarProvider{
		provName: "alphavantage",
		daily: map[string][]models.Bar{
			"ACME": flatBars(30, 100, 1e6),
			"SPY":  flatBars(30, 400, 5e6),
		},
		weekly: map[string][]models.Bar{},
	}
	fx := newFixture(t, primary)

	res := fx.pipeline.ComputeEvents(context.Background(), "ACME")
	require.Empty(t, res.Error, "too few bars is an empty result, not a failure")
	require.False(t, res.Stale)
	require.Empty(t, res.Events)
}

func TestDetectAnomaliesFallsBackToSecondary(t *testing.T) {
	primary := &stubBarProvider{provName: "alphavantage", err: repository.RateLimitedError("alphavantage")}
	secondary := &stubBarProvider{
		provName: "stooq",
		daily: map[string][]models.Bar{
			"ACME": dropBars(90, 60),
			"SPY":  flatBars(90, 400, 5e6),
		},
		weekly: map[string][]models.Bar{},
	}
	fx := newFixture(t, primary, WithSecondaryProvider(secondary))

	got, err := fx.pipeline.DetectAnomalies(context.Background(), "ACME", repository.TFDaily)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Negative(t, got[0].ZScore)
}

func TestDetectAnomaliesSkipsSecondaryOnNonRetriableError(t *testing.T) {
	primary := &stubBarProvider{provName: "alphavantage", err: errors.New("bad symbol")}
	secondary := &stubBarProvider{
		provName: "stooq",
		daily: map[string][]models.Bar{
			"ACME": dropBars(90, 60),
			"SPY":  flatBars(90, 400, 5e6),
		},
		weekly: map[string][]models.Bar{},
	}
	fx := newFixture(t, primary, WithSecondaryProvider(secondary))

	_, err := fx.pipeline.DetectAnomalies(context.Background(), "ACME", repository.TFDaily)
	require.Error(t, err)
	require.False(t, repository.IsRetriable(err))
	require.Zero(t, secondary.calls)
}

func TestFingerprintSensitivity(t *testing.T) {
	set := seriesSet{
		securityDaily:  flatBars(90, 100, 1e6),
		securityWeekly: flatBars(10, 100, 1e6),
		benchmarkDaily: flatBars(90, 400, 5e6),
	}
	base := fingerprint(set)
	require.Len(t, base, 16)
	require.Equal(t, base, fingerprint(set))

	grown := set
	grown.securityDaily = flatBars(91, 100, 1e6)
	require.NotEqual(t, base, fingerprint(grown))
}
