package repository

import (
	"context"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
)

// BarProvider serves closed historical OHLC bars for a symbol.
type BarProvider interface {
	Name() string
	GetDaily(ctx context.Context, symbol string) ([]models.Bar, error)
	GetWeekly(ctx context.Context, symbol string) ([]models.Bar, error)
}

// NewsProvider serves company news for a closed date interval.
type NewsProvider interface {
	GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.Article, error)
}

// ProfileProvider resolves a symbol to company metadata. Lookup failure
// is non-fatal for callers.
type ProfileProvider interface {
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
}

// QuoteProvider returns the latest trade price for a symbol.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (float64, error)
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordPipelineRun(symbol, tier string)
	RecordProviderError(provider, kind string)
	RecordCacheHit(namespace string, hit bool)
	RecordPipelineLatency(symbol string, seconds float64)
}
