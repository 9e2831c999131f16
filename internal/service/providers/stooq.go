package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	xhttp "github.com/seankirtman/buy-the-dip-tracker/pkg/http"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

// Stooq is the secondary candle provider used when the primary is
// rate-limited or failing. It serves CSV download endpoints without an
// API key.
type Stooq struct {
	baseURL string
	client  *xhttp.Client
}

// NewStooq creates the Stooq bar provider.
func NewStooq(baseURL string, timeout time.Duration) *Stooq {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Stooq{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (p *Stooq) Name() string { return "stooq" }

func (p *Stooq) GetDaily(ctx context.Context, symbol string) ([]models.Bar, error) {
	return p.fetch(ctx, symbol, "d")
}

func (p *Stooq) GetWeekly(ctx context.Context, symbol string) ([]models.Bar, error) {
	return p.fetch(ctx, symbol, "w")
}

func (p *Stooq) fetch(ctx context.Context, symbol, interval string) ([]models.Bar, error) {
	var raw []byte
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/q/d/l/",
		QueryParams: map[string][]string{
			"s": {strings.ToLower(symbol) + ".us"},
			"i": {interval},
		},
	}, &raw)
	if err != nil {
		return nil, repository.ProviderFailure(p.Name(), err)
	}

	bars, err := parseCSVBars(string(raw))
	if err != nil {
		return nil, repository.ProviderFailure(p.Name(), err)
	}
	return bars, nil
}

// parseCSVBars parses Date,Open,High,Low,Close,Volume rows. Malformed
// rows are skipped; an unusable payload is an error.
func parseCSVBars(body string) ([]models.Bar, error) {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) < 2 || !strings.HasPrefix(strings.ToLower(lines[0]), "date,") {
		return nil, fmt.Errorf("unexpected csv payload")
	}

	bars := make([]models.Bar, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cols := strings.Split(strings.TrimSpace(line), ",")
		if len(cols) < 5 {
			continue
		}
		t, ok := util.ParseTime(cols[0])
		if !ok {
			continue
		}
		bar := models.Bar{
			Date:  util.Day(t),
			Open:  parseFloat(cols[1]),
			High:  parseFloat(cols[2]),
			Low:   parseFloat(cols[3]),
			Close: parseFloat(cols[4]),
		}
		if len(cols) > 5 {
			bar.Volume = parseFloat(cols[5])
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no parseable rows")
	}
	return models.SortBars(bars), nil
}

var _ repository.BarProvider = (*Stooq)(nil)
