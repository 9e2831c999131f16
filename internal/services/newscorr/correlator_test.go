package newscorr

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	icache "github.com/seankirtman/buy-the-dip-tracker/internal/service/cache"
	pkgcache "github.com/seankirtman/buy-the-dip-tracker/pkg/cache"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
)

type stubNews struct {
	articles []models.Article
	err      error
	calls    int
}

func (s *stubNews) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.Article, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

func newTestCorrelator(t *testing.T, news *stubNews) *Correlator {
	t.Helper()
	mem := pkgcache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	return New(news, icache.New(mem), logger.Nop())
}

func anomalyOn(date time.Time) models.PriceAnomaly {
	return models.PriceAnomaly{
		Date:           date,
		Timeframe:      "daily",
		RelativeReturn: -0.06,
		ZScore:         -2.8,
		VolumeSpike:    2.4,
		Close:          98.5,
	}
}

func TestCorrelateClassifiesEarnings(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	news := &stubNews{articles: []models.Article{
		{
			Headline:    "Acme posts weak quarterly results, revenue misses",
			Summary:     "Earnings fell short as revenue declined year over year.",
			Source:      "Reuters",
			PublishedAt: date,
		},
	}}
	c := newTestCorrelator(t, news)

	got := c.Correlate(context.Background(), "ACME", "Acme Corp", []models.PriceAnomaly{anomalyOn(date)})
	require.Len(t, got, 1)
	require.Equal(t, TypeEarnings, got[0].EventType)
	require.Greater(t, got[0].Relevance, 0.2)
	require.Len(t, got[0].Articles, 1)
	require.Equal(t, "Acme posts weak quarterly results, revenue misses", got[0].Title)
	require.Contains(t, got[0].Description, "underperformed")
}

func TestCorrelateDropsNonMentioningArticles(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	news := &stubNews{articles: []models.Article{
		{Headline: "Broad selloff hits equities", Source: "CNBC", PublishedAt: date},
		{Headline: "ACME shares slide after earnings report on earnings miss", Source: "Reuters", PublishedAt: date},
	}}
	c := newTestCorrelator(t, news)

	got := c.Correlate(context.Background(), "ACME", "Acme Corp", []models.PriceAnomaly{anomalyOn(date)})
	require.Len(t, got[0].Articles, 1)
	require.Equal(t, "ACME shares slide after earnings report on earnings miss", got[0].Articles[0].Headline)
}

func TestCorrelatePrefersSameDayAndSourceWeight(t *testing.T) {
	date := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)
	news := &stubNews{articles: []models.Article{
		{Headline: "ACME outlook cut by analysts", Source: "someblog", PublishedAt: date.AddDate(0, 0, -1)},
		{Headline: "ACME guidance lowered sharply, outlook cut, forecast trimmed", Source: "someblog", PublishedAt: date},
		{Headline: "ACME cuts full-year guidance and outlook after weak forecast", Source: "Bloomberg", PublishedAt: date},
	}}
	c := newTestCorrelator(t, news)

	got := c.Correlate(context.Background(), "ACME", "Acme Corp", []models.PriceAnomaly{anomalyOn(date)})
	require.Len(t, got[0].Articles, 2, "day-before article loses to same-day coverage")
	require.Equal(t, "Bloomberg", got[0].Articles[0].Source)
	require.Equal(t, TypeGuidance, got[0].EventType)
}

func TestCorrelateWeakSignalIsUnknown(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	news := &stubNews{articles: []models.Article{
		{Headline: "ACME shares move on earnings", Source: "Reuters", PublishedAt: date},
	}}
	c := newTestCorrelator(t, news)

	got := c.Correlate(context.Background(), "ACME", "Acme Corp", []models.PriceAnomaly{anomalyOn(date)})
	require.Equal(t, TypeUnknown, got[0].EventType, "a single keyword hit is too weak to classify")
	require.InDelta(t, 0.2, got[0].Relevance, 1e-9)
}

func TestCorrelateFetchErrorFallsBackToSynthetic(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	news := &stubNews{err: errors.New("provider down")}
	c := newTestCorrelator(t, news)

	got := c.Correlate(context.Background(), "ACME", "Acme Corp", []models.PriceAnomaly{anomalyOn(date)})
	require.Len(t, got, 1)
	require.Empty(t, got[0].Articles)
	require.Equal(t, TypeUnknown, got[0].EventType)
	require.Zero(t, got[0].Relevance)
	require.Contains(t, got[0].Title, "ACME")
	require.Contains(t, got[0].Description, "No clearly related news coverage")
}

func TestCorrelateCachesNewsWindow(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	news := &stubNews{articles: []models.Article{
		{Headline: "ACME earnings beat, revenue up, profit up", Source: "Reuters", PublishedAt: date},
	}}
	c := newTestCorrelator(t, news)

	anomalies := []models.PriceAnomaly{anomalyOn(date)}
	c.Correlate(context.Background(), "ACME", "Acme Corp", anomalies)
	c.Correlate(context.Background(), "ACME", "Acme Corp", anomalies)
	require.Equal(t, 1, news.calls, "second pass over the same window must hit the cache")
}

func TestCorrelateCapsArticlesAndTruncatesTitle(t *testing.T) {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	long := "ACME " + strings.Repeat("very long earnings headline ", 6)
	var articles []models.Article
	for i := 0; i < 8; i++ {
		articles = append(articles, models.Article{
			Headline:    long,
			Source:      "Reuters",
			PublishedAt: date,
		})
	}
	news := &stubNews{articles: articles}
	c := newTestCorrelator(t, news)

	got := c.Correlate(context.Background(), "ACME", "Acme Corp", []models.PriceAnomaly{anomalyOn(date)})
	require.Len(t, got[0].Articles, 5)
	require.LessOrEqual(t, len([]rune(got[0].Title)), 80)
}

func TestClassifyTieBreaksByDeclarationOrder(t *testing.T) {
	// One earnings hit and one guidance hit tie; earnings is declared first.
	typ, hits := classify([]string{"revenue outlook"})
	require.Equal(t, TypeEarnings, typ)
	require.Equal(t, 1, hits)
}

func TestMentionsMatchesNameToken(t *testing.T) {
	a := models.Article{Headline: "Consolidated results lift General shares"}
	require.True(t, mentions(a, "GM", "General Motors"))
	require.False(t, mentions(a, "TSLA", "Tesla"))
}
