package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	"github.com/seankirtman/buy-the-dip-tracker/internal/services/events"
	"github.com/seankirtman/buy-the-dip-tracker/internal/services/newscorr"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

// Fallback tier labels, in escalation order.
const (
	tierPrimary    = "primary"
	tierStaleCache = "stale_cache"
	tierSecondary  = "secondary"
	tierNewsOnly   = "news_only"
	tierExhausted  = "exhausted"
)

// strategy is one tier of the fallback chain. attempt returns
// (result, true) on success; false hands off to the next tier.
type strategy interface {
	name() string
	attempt(ctx context.Context) (*models.EventsResult, bool)
}

// run carries per-invocation state across the chain: the first upstream
// failure (surfaced in stale responses) and a memoized profile lookup.
type run struct {
	p      *Pipeline
	symbol string

	upstreamErr error
	lastErr     error

	profileDone bool
	companyName string
}

func (r *run) chain() []strategy {
	return []strategy{
		&primaryStrategy{r},
		&staleCacheStrategy{r},
		&secondaryStrategy{r},
		&newsOnlyStrategy{r},
	}
}

func (r *run) fail(provider string, err error) {
	if r.upstreamErr == nil {
		r.upstreamErr = err
	}
	r.lastErr = err
	r.p.metrics.RecordProviderError(provider, errorKind(err))
	r.p.log.Warn("pipeline tier failed",
		logger.String("symbol", r.symbol),
		logger.String("provider", provider),
		logger.Error(err),
	)
}

func (r *run) exhaustedMessage() string {
	if r.lastErr != nil {
		return fmt.Sprintf("no data available for %s: %v", r.symbol, r.lastErr)
	}
	return fmt.Sprintf("no data available for %s", r.symbol)
}

func (r *run) staleMessage() string {
	if r.upstreamErr != nil {
		return fmt.Sprintf("serving degraded data: %v", r.upstreamErr)
	}
	return "serving degraded data"
}

// resolveCompanyName looks the profile up once per run. Failure is
// silent: correlation just matches on the ticker alone.
func (r *run) resolveCompanyName(ctx context.Context) string {
	if r.profileDone {
		return r.companyName
	}
	r.profileDone = true
	if r.p.profile == nil {
		return ""
	}
	prof, err := r.p.profile.GetProfile(ctx, r.symbol)
	if err != nil || prof == nil {
		return ""
	}
	r.companyName = prof.Name
	return r.companyName
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, repository.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, repository.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, repository.ErrProvider):
		return "provider"
	default:
		return "other"
	}
}

// primaryStrategy fetches from the primary provider and recomputes,
// short-circuiting through the events cache when the fingerprint of the
// observed data matches a prior run.
type primaryStrategy struct{ *run }

func (s *primaryStrategy) name() string { return tierPrimary }

func (s *primaryStrategy) attempt(ctx context.Context) (*models.EventsResult, bool) {
	p := s.p
	set, err := fetchSeries(ctx, p.primary, s.symbol, p.cfg.Benchmark)
	if err != nil {
		s.fail(p.primary.Name(), err)
		return nil, false
	}

	fp := fingerprint(set)
	if cached, ok := p.events.Get(s.symbol, fp); ok {
		p.metrics.RecordCacheHit("events", true)
		return &models.EventsResult{Events: cached}, true
	}
	p.metrics.RecordCacheHit("events", false)

	evts := p.computeEvents(ctx, s.symbol, s.resolveCompanyName(ctx), set)
	if err := p.events.Set(s.symbol, evts, fp); err != nil {
		p.log.Warn("events cache write failed",
			logger.String("symbol", s.symbol), logger.Error(err))
	}
	return &models.EventsResult{Events: evts}, true
}

// staleCacheStrategy serves the last cached event set regardless of
// fingerprint once the primary tier has failed.
type staleCacheStrategy struct{ *run }

func (s *staleCacheStrategy) name() string { return tierStaleCache }

func (s *staleCacheStrategy) attempt(ctx context.Context) (*models.EventsResult, bool) {
	cached, ok := s.p.events.GetStale(s.symbol)
	if !ok {
		return nil, false
	}
	return &models.EventsResult{Events: cached, Stale: true, Error: s.staleMessage()}, true
}

// secondaryStrategy recomputes from the fallback bar provider. When
// strict detection finds nothing it degrades to date-anchored heuristic
// anomalies so the output is never empty for a usable series.
type secondaryStrategy struct{ *run }

func (s *secondaryStrategy) name() string { return tierSecondary }

func (s *secondaryStrategy) attempt(ctx context.Context) (*models.EventsResult, bool) {
	p := s.p
	if p.secondary == nil {
		return nil, false
	}

	set, err := fetchSeries(ctx, p.secondary, s.symbol, p.cfg.Benchmark)
	if err != nil {
		s.fail(p.secondary.Name(), err)
		return nil, false
	}
	if len(set.securityDaily) < p.cfg.MinFallbackBars {
		s.fail(p.secondary.Name(), fmt.Errorf("%w: %d daily bars, need %d",
			repository.ErrInsufficientData, len(set.securityDaily), p.cfg.MinFallbackBars))
		return nil, false
	}

	evts := p.computeEvents(ctx, s.symbol, s.resolveCompanyName(ctx), set)
	if len(evts) == 0 {
		anchors := heuristicAnchors(set, p.cfg.HeuristicAnchors)
		correlated := p.correlator.Correlate(ctx, s.symbol, s.resolveCompanyName(ctx), anchors)
		evts = events.Score(s.symbol, correlated, map[string][]models.Bar{
			string(repository.TFDaily): set.securityDaily,
		})
	}
	return &models.EventsResult{Events: evts, Stale: true, Error: s.staleMessage()}, true
}

// heuristicAnchors ranks aligned dates by raw benchmark-relative move,
// ignoring statistical significance. Used only when strict detection
// yields nothing from fallback data.
func heuristicAnchors(set seriesSet, n int) []models.PriceAnomaly {
	aligned := models.AlignByDate(set.securityDaily, set.benchmarkDaily)
	if len(aligned) < 2 {
		return nil
	}

	anchors := make([]models.PriceAnomaly, 0, len(aligned)-1)
	for i := 1; i < len(aligned); i++ {
		secRet := periodReturn(aligned[i-1].Security.Close, aligned[i].Security.Close)
		benchRet := periodReturn(aligned[i-1].Benchmark.Close, aligned[i].Benchmark.Close)
		anchors = append(anchors, models.PriceAnomaly{
			Date:            aligned[i].Date,
			Timeframe:       string(repository.TFDaily),
			SecurityReturn:  secRet,
			BenchmarkReturn: benchRet,
			RelativeReturn:  secRet - benchRet,
			Close:           aligned[i].Security.Close,
			Volume:          aligned[i].Security.Volume,
		})
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		return absFloat(anchors[i].RelativeReturn) > absFloat(anchors[j].RelativeReturn)
	})
	if len(anchors) > n {
		anchors = anchors[:n]
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].Date.Before(anchors[j].Date)
	})
	return anchors
}

func periodReturn(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev
}

// newsOnlyStrategy synthesizes degraded events straight from recent
// coverage when no price series is usable at all. Only the current
// price is populated beyond the article-derived fields.
type newsOnlyStrategy struct{ *run }

func (s *newsOnlyStrategy) name() string { return tierNewsOnly }

func (s *newsOnlyStrategy) attempt(ctx context.Context) (*models.EventsResult, bool) {
	p := s.p
	if p.news == nil {
		return nil, false
	}

	to := p.now().UTC()
	from := to.AddDate(0, 0, -p.cfg.NewsOnlyWindowDays)
	articles, err := p.news.GetCompanyNews(ctx, s.symbol, from, to)
	if err != nil {
		s.fail("news", err)
		return nil, false
	}
	if len(articles) == 0 {
		s.fail("news", fmt.Errorf("%w: no recent coverage for %s", repository.ErrInsufficientData, s.symbol))
		return nil, false
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if len(articles) > p.cfg.NewsOnlyMaxEvents {
		articles = articles[:p.cfg.NewsOnlyMaxEvents]
	}

	priceNow := 0.0
	if p.quote != nil {
		if q, err := p.quote.GetQuote(ctx, s.symbol); err == nil {
			priceNow = q
		}
	}

	correlated := make([]models.CorrelatedAnomaly, 0, len(articles))
	for _, a := range articles {
		eventType, relevance := newscorr.Classify([]string{a.Headline + " " + a.Summary})
		correlated = append(correlated, models.CorrelatedAnomaly{
			Anomaly: models.PriceAnomaly{
				Date:      util.Day(a.PublishedAt),
				Timeframe: string(repository.TFDaily),
			},
			EventType:   eventType,
			Title:       util.Truncate(a.Headline, 80),
			Description: fmt.Sprintf("Recent coverage for %s: %q (%s). No usable price series was available.", s.symbol, util.Truncate(a.Headline, 100), a.Source),
			Articles:    []models.Article{a},
			Relevance:   relevance,
		})
	}

	evts := events.Score(s.symbol, correlated, nil)
	for i := range evts {
		evts[i].PriceNow = priceNow
	}
	sort.SliceStable(evts, func(i, j int) bool {
		return evts[i].Date.After(evts[j].Date)
	})
	return &models.EventsResult{Events: evts, Stale: true, Error: s.staleMessage()}, true
}
