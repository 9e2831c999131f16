package newscorr

import (
	"context"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	icache "github.com/seankirtman/buy-the-dip-tracker/internal/service/cache"
	pkgcache "github.com/seankirtman/buy-the-dip-tracker/pkg/cache"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

const (
	newsNamespace  = "news"
	maxArticles    = 5
	minRelevance   = 0.2
	relevanceScale = 5.0
	defaultNewsTTL = 6 * time.Hour
)

// Correlator attaches news context to detected price anomalies. News
// windows are fetched per anomaly date and cached, so clustered
// anomalies on nearby dates do not refetch the same coverage.
type Correlator struct {
	news  repository.NewsProvider
	cache *icache.Service
	ttl   time.Duration
	log   *logger.Logger
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithNewsTTL overrides the cache lifetime for fetched news windows.
func WithNewsTTL(ttl time.Duration) Option {
	return func(c *Correlator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New creates a Correlator over the given news provider and cache.
func New(news repository.NewsProvider, cache *icache.Service, log *logger.Logger, opts ...Option) *Correlator {
	c := &Correlator{
		news:  news,
		cache: cache,
		ttl:   defaultNewsTTL,
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correlate resolves news context for each anomaly in order. A failed
// news fetch degrades that anomaly to a synthetic narrative rather than
// failing the batch.
func (c *Correlator) Correlate(ctx context.Context, symbol, companyName string, anomalies []models.PriceAnomaly) []models.CorrelatedAnomaly {
	out := make([]models.CorrelatedAnomaly, 0, len(anomalies))
	for _, anomaly := range anomalies {
		out = append(out, c.correlateOne(ctx, symbol, companyName, anomaly))
	}
	return out
}

func (c *Correlator) correlateOne(ctx context.Context, symbol, companyName string, anomaly models.PriceAnomaly) models.CorrelatedAnomaly {
	from := util.Day(anomaly.Date).AddDate(0, 0, -1)
	to := util.Day(anomaly.Date).AddDate(0, 0, 1)

	articles, err := c.fetchWindow(ctx, symbol, from, to)
	if err != nil {
		c.log.Warn("news window fetch failed",
			logger.String("symbol", symbol),
			logger.String("date", util.DayKey(anomaly.Date)),
			logger.Error(err),
		)
		articles = nil
	}

	ranked := rankMentions(articles, symbol, companyName, anomaly.Date)
	if len(ranked) > maxArticles {
		ranked = ranked[:maxArticles]
	}

	texts := make([]string, 0, len(ranked))
	for _, a := range ranked {
		texts = append(texts, a.Headline+" "+a.Summary)
	}
	eventType, relevance := Classify(texts)

	title, description := narrative(symbol, anomaly, ranked)

	return models.CorrelatedAnomaly{
		Anomaly:     anomaly,
		EventType:   eventType,
		Title:       title,
		Description: description,
		Articles:    ranked,
		Relevance:   relevance,
	}
}

// fetchWindow returns the cached news window for [from, to], fetching
// and storing it on a miss.
func (c *Correlator) fetchWindow(ctx context.Context, symbol string, from, to time.Time) ([]models.Article, error) {
	key := pkgcache.GenerateKeyWithParams(symbol, util.DayKey(from), util.DayKey(to))
	return icache.GetOrFetch(ctx, c.cache, newsNamespace, key, c.ttl, func(ctx context.Context) ([]models.Article, error) {
		return c.news.GetCompanyNews(ctx, symbol, from, to)
	})
}
