package di

import (
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	"github.com/seankirtman/buy-the-dip-tracker/internal/handler/api"
	icache "github.com/seankirtman/buy-the-dip-tracker/internal/service/cache"
	"github.com/seankirtman/buy-the-dip-tracker/internal/service/providers"
	"github.com/seankirtman/buy-the-dip-tracker/internal/service/ratelimit"
	"github.com/seankirtman/buy-the-dip-tracker/internal/services/newscorr"
	"github.com/seankirtman/buy-the-dip-tracker/internal/usecase"
	pkgcache "github.com/seankirtman/buy-the-dip-tracker/pkg/cache"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/config"
	applogger "github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/metrics"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideCacheStore creates the shared cache store: layered over Redis
// when configured, in-process memory otherwise.
func ProvideCacheStore(cfg *config.Config) pkgcache.Store {
	if cfg.Redis.Enabled {
		redis := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(cfg.Redis.Addr),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
			pkgcache.WithRedisPrefix("diptracker"),
		)
		return pkgcache.NewLayeredCache(redis)
	}
	return pkgcache.NewMemoryCache()
}

// ProvideCacheService wraps the store with the typed cache layer.
func ProvideCacheService(store pkgcache.Store) *icache.Service {
	return icache.New(store)
}

// ProvideEventsCache creates the fingerprint-gated events cache.
func ProvideEventsCache(svc *icache.Service, cfg *config.Config) *icache.EventsCache {
	return icache.NewEventsCache(svc, cfg.Pipeline.EventsTTL)
}

// ProvideRateLimiter registers per-provider quotas.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	l := ratelimit.New()
	l.Register("alphavantage", ratelimit.Quota{
		PerMinute: cfg.Providers.AlphaVantage.PerMinute,
		PerDay:    cfg.Providers.AlphaVantage.PerDay,
	})
	l.Register("stooq", ratelimit.Quota{
		PerMinute: cfg.Providers.Stooq.PerMinute,
		PerDay:    cfg.Providers.Stooq.PerDay,
	})
	l.Register("finnhub", ratelimit.Quota{
		PerMinute: cfg.Providers.Finnhub.PerMinute,
		PerDay:    cfg.Providers.Finnhub.PerDay,
	})
	return l
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePipeline assembles the event pipeline: rate-limited providers
// with a circuit breaker on the primary, the news correlator, and the
// fallback chain configuration.
func ProvidePipeline(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	svc *icache.Service,
	eventsCache *icache.EventsCache,
	rec repository.Metrics,
	log *applogger.Logger,
) *usecase.Pipeline {
	av := providers.NewAlphaVantage(
		cfg.Providers.AlphaVantage.APIKey,
		cfg.Providers.AlphaVantage.BaseURL,
		cfg.Providers.AlphaVantage.Timeout,
	)
	primary := providers.NewLimitedBarProvider(providers.NewBreakerBarProvider(av), limiter)

	stooq := providers.NewStooq(cfg.Providers.Stooq.BaseURL, cfg.Providers.Stooq.Timeout)
	secondary := providers.NewLimitedBarProvider(stooq, limiter)

	finnhub := providers.NewFinnhub(
		cfg.Providers.Finnhub.APIKey,
		cfg.Providers.Finnhub.BaseURL,
		cfg.Providers.Finnhub.Timeout,
	)
	news := providers.NewLimitedNewsProvider("finnhub", finnhub, limiter)

	correlator := newscorr.New(news, svc, log, newscorr.WithNewsTTL(cfg.Pipeline.NewsTTL))

	return usecase.New(primary, correlator, eventsCache, log,
		usecase.WithSecondaryProvider(secondary),
		usecase.WithNewsProvider(news),
		usecase.WithProfileProvider(finnhub),
		usecase.WithQuoteProvider(finnhub),
		usecase.WithMetrics(rec),
		usecase.WithConfig(usecase.Config{
			Benchmark:       cfg.Pipeline.Benchmark,
			DailyWindow:     cfg.Pipeline.DailyWindow,
			DailyZ:          cfg.Pipeline.DailyZ,
			WeeklyWindow:    cfg.Pipeline.WeeklyWindow,
			WeeklyZ:         cfg.Pipeline.WeeklyZ,
			TopDaily:        cfg.Pipeline.TopDaily,
			TopWeekly:       cfg.Pipeline.TopWeekly,
			MinFallbackBars: cfg.Pipeline.MinFallbackBars,
		}),
	)
}

// ProvideEventsHandler creates the HTTP handler.
func ProvideEventsHandler(log *applogger.Logger, pipeline *usecase.Pipeline) *api.EventsHandler {
	return api.NewEventsHandler(log, pipeline)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, log *applogger.Logger, handler *api.EventsHandler, store pkgcache.Store) *server.App {
	return server.New(cfg, log, handler, store)
}
