package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	xhttp "github.com/seankirtman/buy-the-dip-tracker/pkg/http"
)

// Finnhub serves company news, profiles, and quotes over the vendor's
// REST API.
type Finnhub struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
}

// NewFinnhub creates the Finnhub client.
func NewFinnhub(apiKey, baseURL string, timeout time.Duration) *Finnhub {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Finnhub{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (p *Finnhub) Name() string { return "finnhub" }

type fhArticle struct {
	ID       int64  `json:"id"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"` // unix seconds
}

func (p *Finnhub) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.Article, error) {
	var raw []fhArticle
	err := p.send(ctx, "/company-news", map[string][]string{
		"symbol": {symbol},
		"from":   {from.UTC().Format("2006-01-02")},
		"to":     {to.UTC().Format("2006-01-02")},
	}, &raw)
	if err != nil {
		return nil, err
	}

	articles := make([]models.Article, 0, len(raw))
	for _, a := range raw {
		if a.Headline == "" {
			continue
		}
		articles = append(articles, models.Article{
			ID:          strconv.FormatInt(a.ID, 10),
			Headline:    a.Headline,
			Summary:     a.Summary,
			Source:      a.Source,
			URL:         a.URL,
			PublishedAt: time.Unix(a.Datetime, 0).UTC(),
		})
	}
	return articles, nil
}

type fhProfile struct {
	Name     string `json:"name"`
	Industry string `json:"finnhubIndustry"`
	Ticker   string `json:"ticker"`
}

func (p *Finnhub) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	var raw fhProfile
	if err := p.send(ctx, "/stock/profile2", map[string][]string{"symbol": {symbol}}, &raw); err != nil {
		return nil, err
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("no profile for %s", symbol)
	}
	return &models.CompanyProfile{Symbol: symbol, Name: raw.Name, Industry: raw.Industry}, nil
}

type fhQuote struct {
	Current float64 `json:"c"`
}

func (p *Finnhub) GetQuote(ctx context.Context, symbol string) (float64, error) {
	var raw fhQuote
	if err := p.send(ctx, "/quote", map[string][]string{"symbol": {symbol}}, &raw); err != nil {
		return 0, err
	}
	return raw.Current, nil
}

func (p *Finnhub) send(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         p.baseURL + path,
		Headers:     map[string]string{"X-Finnhub-Token": p.apiKey},
		QueryParams: params,
	}, dest)
	if err != nil {
		var se *xhttp.StatusError
		if asStatus(err, &se) && se.StatusCode == 429 {
			return repository.RateLimitedError(p.Name())
		}
		return repository.ProviderFailure(p.Name(), err)
	}
	return nil
}

var (
	_ repository.NewsProvider    = (*Finnhub)(nil)
	_ repository.ProfileProvider = (*Finnhub)(nil)
	_ repository.QuoteProvider   = (*Finnhub)(nil)
)
