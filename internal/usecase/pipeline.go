package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	icache "github.com/seankirtman/buy-the-dip-tracker/internal/service/cache"
	"github.com/seankirtman/buy-the-dip-tracker/internal/services/anomaly"
	"github.com/seankirtman/buy-the-dip-tracker/internal/services/events"
	"github.com/seankirtman/buy-the-dip-tracker/internal/services/newscorr"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
)

// Config tunes a pipeline. Zero fields take defaults.
type Config struct {
	Benchmark          string
	DailyWindow        int
	DailyZ             float64
	DailyClusterDays   int
	WeeklyWindow       int
	WeeklyZ            float64
	WeeklyClusterDays  int
	TopDaily           int
	TopWeekly          int
	MinFallbackBars    int
	HeuristicAnchors   int
	NewsOnlyMaxEvents  int
	NewsOnlyWindowDays int
}

// DefaultConfig returns the production pipeline tuning. The daily pass
// runs a tighter window and threshold than the detector defaults; the
// weekly pass uses a wider cluster radius since weekly bars are 7 days
// apart.
func DefaultConfig() Config {
	return Config{
		Benchmark:          "SPY",
		DailyWindow:        40,
		DailyZ:             1.9,
		DailyClusterDays:   2,
		WeeklyWindow:       20,
		WeeklyZ:            1.7,
		WeeklyClusterDays:  14,
		TopDaily:           8,
		TopWeekly:          5,
		MinFallbackBars:    50,
		HeuristicAnchors:   5,
		NewsOnlyMaxEvents:  3,
		NewsOnlyWindowDays: 7,
	}
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Benchmark == "" {
		c.Benchmark = def.Benchmark
	}
	if c.DailyWindow <= 0 {
		c.DailyWindow = def.DailyWindow
	}
	if c.DailyZ <= 0 {
		c.DailyZ = def.DailyZ
	}
	if c.DailyClusterDays <= 0 {
		c.DailyClusterDays = def.DailyClusterDays
	}
	if c.WeeklyWindow <= 0 {
		c.WeeklyWindow = def.WeeklyWindow
	}
	if c.WeeklyZ <= 0 {
		c.WeeklyZ = def.WeeklyZ
	}
	if c.WeeklyClusterDays <= 0 {
		c.WeeklyClusterDays = def.WeeklyClusterDays
	}
	if c.TopDaily <= 0 {
		c.TopDaily = def.TopDaily
	}
	if c.TopWeekly <= 0 {
		c.TopWeekly = def.TopWeekly
	}
	if c.MinFallbackBars <= 0 {
		c.MinFallbackBars = def.MinFallbackBars
	}
	if c.HeuristicAnchors <= 0 {
		c.HeuristicAnchors = def.HeuristicAnchors
	}
	if c.NewsOnlyMaxEvents <= 0 {
		c.NewsOnlyMaxEvents = def.NewsOnlyMaxEvents
	}
	if c.NewsOnlyWindowDays <= 0 {
		c.NewsOnlyWindowDays = def.NewsOnlyWindowDays
	}
}

// Pipeline computes benchmark-relative stock events for a symbol,
// degrading through a fixed fallback chain when providers fail. Results
// are always well-formed, even when every tier is exhausted.
type Pipeline struct {
	primary    repository.BarProvider
	secondary  repository.BarProvider
	news       repository.NewsProvider
	profile    repository.ProfileProvider
	quote      repository.QuoteProvider
	correlator *newscorr.Correlator
	events     *icache.EventsCache
	metrics    repository.Metrics
	log        *logger.Logger
	cfg        Config
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSecondaryProvider sets the fallback bar source.
func WithSecondaryProvider(p repository.BarProvider) Option {
	return func(pl *Pipeline) { pl.secondary = p }
}

// WithNewsProvider enables the news-only degraded tier.
func WithNewsProvider(p repository.NewsProvider) Option {
	return func(pl *Pipeline) { pl.news = p }
}

// WithProfileProvider enables company-name enrichment for correlation.
func WithProfileProvider(p repository.ProfileProvider) Option {
	return func(pl *Pipeline) { pl.profile = p }
}

// WithQuoteProvider supplies current prices for news-only events.
func WithQuoteProvider(p repository.QuoteProvider) Option {
	return func(pl *Pipeline) { pl.quote = p }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

// WithConfig overrides the pipeline tuning.
func WithConfig(cfg Config) Option {
	return func(pl *Pipeline) { pl.cfg = cfg }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

// New creates a pipeline over the primary bar provider, correlator and
// events cache. Secondary provider, news, profile and quote sources are
// optional; missing ones disable their fallback tiers.
func New(primary repository.BarProvider, correlator *newscorr.Correlator, eventsCache *icache.EventsCache, log *logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		primary:    primary,
		correlator: correlator,
		events:     eventsCache,
		metrics:    noopMetrics{},
		log:        log,
		cfg:        DefaultConfig(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cfg.normalize()
	return p
}

// ComputeEvents runs the fallback chain for symbol until a tier yields a
// result. The returned value is always usable: an exhausted chain gives
// an empty event list plus a descriptive error string.
func (p *Pipeline) ComputeEvents(ctx context.Context, symbol string) models.EventsResult {
	start := p.now()
	defer func() {
		p.metrics.RecordPipelineLatency(symbol, time.Since(start).Seconds())
	}()

	r := &run{p: p, symbol: symbol}
	for _, s := range r.chain() {
		res, ok := s.attempt(ctx)
		if !ok {
			continue
		}
		p.metrics.RecordPipelineRun(symbol, s.name())
		return *res
	}

	p.metrics.RecordPipelineRun(symbol, tierExhausted)
	return models.EventsResult{Events: []models.StockEvent{}, Error: r.exhaustedMessage()}
}

// DetectAnomalies exposes the raw detector output for one timeframe,
// for diagnostics. It uses the primary provider and falls back to the
// secondary on failure.
func (p *Pipeline) DetectAnomalies(ctx context.Context, symbol string, tf repository.Timeframe) ([]models.PriceAnomaly, error) {
	security, benchmark, err := p.fetchTimeframe(ctx, p.primary, symbol, tf)
	if err != nil && p.secondary != nil && repository.IsRetriable(err) {
		security, benchmark, err = p.fetchTimeframe(ctx, p.secondary, symbol, tf)
	}
	if err != nil {
		return nil, err
	}
	return anomaly.Detect(security, benchmark, p.detectorOptions(tf)), nil
}

func (p *Pipeline) detectorOptions(tf repository.Timeframe) anomaly.Options {
	if tf == repository.TFWeekly {
		return anomaly.Options{
			RollingWindow:     p.cfg.WeeklyWindow,
			ZThreshold:        p.cfg.WeeklyZ,
			ClusterRadiusDays: p.cfg.WeeklyClusterDays,
			Timeframe:         string(repository.TFWeekly),
		}
	}
	return anomaly.Options{
		RollingWindow:     p.cfg.DailyWindow,
		ZThreshold:        p.cfg.DailyZ,
		ClusterRadiusDays: p.cfg.DailyClusterDays,
		Timeframe:         string(repository.TFDaily),
	}
}

func (p *Pipeline) fetchTimeframe(ctx context.Context, provider repository.BarProvider, symbol string, tf repository.Timeframe) ([]models.Bar, []models.Bar, error) {
	fetch := provider.GetDaily
	if tf == repository.TFWeekly {
		fetch = provider.GetWeekly
	}
	security, err := fetch(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	benchmark, err := fetch(ctx, p.cfg.Benchmark)
	if err != nil {
		return nil, nil, err
	}
	return security, benchmark, nil
}

// fetchSeries pulls all four series concurrently. The security and
// benchmark fetches have no ordering dependency on each other.
func fetchSeries(ctx context.Context, provider repository.BarProvider, symbol, benchmark string) (seriesSet, error) {
	var set seriesSet
	jobs := []struct {
		dst   *[]models.Bar
		fetch func() ([]models.Bar, error)
	}{
		{&set.securityDaily, func() ([]models.Bar, error) { return provider.GetDaily(ctx, symbol) }},
		{&set.securityWeekly, func() ([]models.Bar, error) { return provider.GetWeekly(ctx, symbol) }},
		{&set.benchmarkDaily, func() ([]models.Bar, error) { return provider.GetDaily(ctx, benchmark) }},
		{&set.benchmarkWeekly, func() ([]models.Bar, error) { return provider.GetWeekly(ctx, benchmark) }},
	}

	errs := make(chan error, len(jobs))
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(dst *[]models.Bar, fetch func() ([]models.Bar, error)) {
			defer wg.Done()
			bars, err := fetch()
			if err != nil {
				errs <- err
				return
			}
			*dst = bars
		}(job.dst, job.fetch)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return seriesSet{}, err
	}
	return set, nil
}

// computeEvents runs detect, correlate and score against a series set.
// An empty anomaly list yields an empty, valid event list.
func (p *Pipeline) computeEvents(ctx context.Context, symbol, companyName string, set seriesSet) []models.StockEvent {
	daily := anomaly.Detect(set.securityDaily, set.benchmarkDaily, p.detectorOptions(repository.TFDaily))
	weekly := anomaly.Detect(set.securityWeekly, set.benchmarkWeekly, p.detectorOptions(repository.TFWeekly))

	merged := append(topByAbsZ(daily, p.cfg.TopDaily), topByAbsZ(weekly, p.cfg.TopWeekly)...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	correlated := p.correlator.Correlate(ctx, symbol, companyName, merged)
	return events.Score(symbol, correlated, map[string][]models.Bar{
		string(repository.TFDaily):  set.securityDaily,
		string(repository.TFWeekly): set.securityWeekly,
	})
}

// topByAbsZ keeps the n most significant anomalies.
func topByAbsZ(anomalies []models.PriceAnomaly, n int) []models.PriceAnomaly {
	out := make([]models.PriceAnomaly, len(anomalies))
	copy(out, anomalies)
	sort.SliceStable(out, func(i, j int) bool {
		return absFloat(out[i].ZScore) > absFloat(out[j].ZScore)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// noopMetrics is the default recorder when none is wired.
type noopMetrics struct{}

func (noopMetrics) RecordPipelineRun(string, string) {}

func (noopMetrics) RecordProviderError(string, string) {}

func (noopMetrics) RecordCacheHit(string, bool) {}

func (noopMetrics) RecordPipelineLatency(string, float64) {}
