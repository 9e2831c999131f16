package providers

import (
	"context"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	"github.com/seankirtman/buy-the-dip-tracker/internal/service/ratelimit"
)

// LimitedBarProvider rejects calls that would exceed the provider's
// per-minute rate or daily quota before any network round-trip happens.
type LimitedBarProvider struct {
	inner   repository.BarProvider
	limiter *ratelimit.Limiter
}

// NewLimitedBarProvider wraps inner with the fail-fast limiter check.
func NewLimitedBarProvider(inner repository.BarProvider, limiter *ratelimit.Limiter) *LimitedBarProvider {
	return &LimitedBarProvider{inner: inner, limiter: limiter}
}

func (p *LimitedBarProvider) Name() string { return p.inner.Name() }

func (p *LimitedBarProvider) GetDaily(ctx context.Context, symbol string) ([]models.Bar, error) {
	if !p.limiter.Allow(p.Name()) {
		return nil, repository.RateLimitedError(p.Name())
	}
	return p.inner.GetDaily(ctx, symbol)
}

func (p *LimitedBarProvider) GetWeekly(ctx context.Context, symbol string) ([]models.Bar, error) {
	if !p.limiter.Allow(p.Name()) {
		return nil, repository.RateLimitedError(p.Name())
	}
	return p.inner.GetWeekly(ctx, symbol)
}

// LimitedNewsProvider applies the same fail-fast gate to news lookups.
type LimitedNewsProvider struct {
	name    string
	inner   repository.NewsProvider
	limiter *ratelimit.Limiter
}

// NewLimitedNewsProvider wraps inner with the limiter gate under name.
func NewLimitedNewsProvider(name string, inner repository.NewsProvider, limiter *ratelimit.Limiter) *LimitedNewsProvider {
	return &LimitedNewsProvider{name: name, inner: inner, limiter: limiter}
}

func (p *LimitedNewsProvider) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.Article, error) {
	if !p.limiter.Allow(p.name) {
		return nil, repository.RateLimitedError(p.name)
	}
	return p.inner.GetCompanyNews(ctx, symbol, from, to)
}

var (
	_ repository.BarProvider  = (*LimitedBarProvider)(nil)
	_ repository.NewsProvider = (*LimitedNewsProvider)(nil)
)
