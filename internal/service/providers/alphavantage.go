package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	xhttp "github.com/seankirtman/buy-the-dip-tracker/pkg/http"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

// AlphaVantage is the primary candle provider. The free tier is heavily
// quota-constrained, so callers must gate requests through the rate
// limiter before reaching this client.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
}

// NewAlphaVantage creates the AlphaVantage bar provider.
func NewAlphaVantage(apiKey, baseURL string, timeout time.Duration) *AlphaVantage {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (p *AlphaVantage) Name() string { return "alphavantage" }

// avSeriesResponse covers both the daily and weekly payload shapes; only
// one series map is populated per call. Note/Information fields carry the
// vendor's throttling notices.
type avSeriesResponse struct {
	Note        string                       `json:"Note"`
	Information string                       `json:"Information"`
	ErrMessage  string                       `json:"Error Message"`
	Daily       map[string]map[string]string `json:"Time Series (Daily)"`
	Weekly      map[string]map[string]string `json:"Weekly Time Series"`
}

func (p *AlphaVantage) GetDaily(ctx context.Context, symbol string) ([]models.Bar, error) {
	return p.fetch(ctx, symbol, "TIME_SERIES_DAILY", func(r *avSeriesResponse) map[string]map[string]string {
		return r.Daily
	})
}

func (p *AlphaVantage) GetWeekly(ctx context.Context, symbol string) ([]models.Bar, error) {
	return p.fetch(ctx, symbol, "TIME_SERIES_WEEKLY", func(r *avSeriesResponse) map[string]map[string]string {
		return r.Weekly
	})
}

func (p *AlphaVantage) fetch(ctx context.Context, symbol, function string, series func(*avSeriesResponse) map[string]map[string]string) ([]models.Bar, error) {
	var resp avSeriesResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/query",
		QueryParams: map[string][]string{
			"function":   {function},
			"symbol":     {symbol},
			"outputsize": {"full"},
			"apikey":     {p.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, repository.ProviderFailure(p.Name(), err)
	}

	// The vendor reports throttling inside a 200 response.
	if resp.Note != "" || resp.Information != "" {
		return nil, repository.RateLimitedError(p.Name())
	}
	if resp.ErrMessage != "" {
		return nil, repository.ProviderFailure(p.Name(), fmt.Errorf("%s", resp.ErrMessage))
	}

	raw := series(&resp)
	if len(raw) == 0 {
		return nil, repository.ProviderFailure(p.Name(), fmt.Errorf("empty series for %s", symbol))
	}

	bars := make([]models.Bar, 0, len(raw))
	for date, fields := range raw {
		t, ok := util.ParseTime(date)
		if !ok {
			continue
		}
		bars = append(bars, models.Bar{
			Date:   util.Day(t),
			Open:   parseFloat(fields["1. open"]),
			High:   parseFloat(fields["2. high"]),
			Low:    parseFloat(fields["3. low"]),
			Close:  parseFloat(fields["4. close"]),
			Volume: parseFloat(fields["5. volume"]),
		})
	}
	return models.SortBars(bars), nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

var _ repository.BarProvider = (*AlphaVantage)(nil)
