package providers

import (
	"context"
	"errors"
	"time"

	cb "github.com/sony/gobreaker"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	xhttp "github.com/seankirtman/buy-the-dip-tracker/pkg/http"
)

// asStatus unwraps err into an upstream status error.
func asStatus(err error, dest **xhttp.StatusError) bool {
	return errors.As(err, dest)
}

// BreakerBarProvider wraps a bar provider with a circuit breaker so a
// flapping upstream is skipped without burning its quota. An open
// breaker surfaces as a provider failure, which pushes the orchestrator
// to the next fallback tier.
type BreakerBarProvider struct {
	inner repository.BarProvider
	cb    *cb.CircuitBreaker
}

// NewBreakerBarProvider wraps inner with a named circuit breaker.
func NewBreakerBarProvider(inner repository.BarProvider) *BreakerBarProvider {
	st := cb.Settings{Name: inner.Name()}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	return &BreakerBarProvider{inner: inner, cb: cb.NewCircuitBreaker(st)}
}

func (p *BreakerBarProvider) Name() string { return p.inner.Name() }

func (p *BreakerBarProvider) GetDaily(ctx context.Context, symbol string) ([]models.Bar, error) {
	return p.execute(func() ([]models.Bar, error) { return p.inner.GetDaily(ctx, symbol) })
}

func (p *BreakerBarProvider) GetWeekly(ctx context.Context, symbol string) ([]models.Bar, error) {
	return p.execute(func() ([]models.Bar, error) { return p.inner.GetWeekly(ctx, symbol) })
}

func (p *BreakerBarProvider) execute(fn func() ([]models.Bar, error)) ([]models.Bar, error) {
	out, err := p.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
			return nil, repository.ProviderFailure(p.Name(), err)
		}
		return nil, err
	}
	return out.([]models.Bar), nil
}

var _ repository.BarProvider = (*BreakerBarProvider)(nil)
