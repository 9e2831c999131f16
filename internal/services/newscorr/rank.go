package newscorr

import (
	"sort"
	"strings"
	"time"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

// sourceWeights biases article ranking toward wire services and major
// financial outlets. Unlisted sources get defaultSourceWeight.
var sourceWeights = map[string]float64{
	"reuters":             1.0,
	"bloomberg":           1.0,
	"wall street journal": 0.95,
	"wsj":                 0.95,
	"financial times":     0.9,
	"cnbc":                0.85,
	"marketwatch":         0.8,
	"barrons":             0.8,
	"yahoo":               0.6,
	"seekingalpha":        0.55,
	"benzinga":            0.5,
	"motley fool":         0.45,
}

const defaultSourceWeight = 0.4

const recencyHorizon = 48 * time.Hour

func sourceWeight(source string) float64 {
	if w, ok := sourceWeights[strings.ToLower(strings.TrimSpace(source))]; ok {
		return w
	}
	return defaultSourceWeight
}

// popularity combines source reputation with closeness to the anomaly
// date. Recency decays linearly to zero over 48 hours of distance.
func popularity(article models.Article, anchor time.Time) float64 {
	dist := article.PublishedAt.Sub(anchor)
	if dist < 0 {
		dist = -dist
	}
	recency := 1 - float64(dist)/float64(recencyHorizon)
	if recency < 0 {
		recency = 0
	}
	return sourceWeight(article.Source)*0.7 + recency*0.3
}

// mentions reports whether the article text names the security, by
// ticker, full company name, or any company-name token of at least
// four characters.
func mentions(article models.Article, symbol, companyName string) bool {
	text := strings.ToLower(article.Headline + " " + article.Summary)
	if symbol != "" && strings.Contains(text, strings.ToLower(symbol)) {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(companyName))
	if name != "" && strings.Contains(text, name) {
		return true
	}
	for _, tok := range util.Tokens(companyName, 4) {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// rankMentions filters to mentioning articles and orders them by
// popularity, preferring same-day coverage when any exists.
func rankMentions(articles []models.Article, symbol, companyName string, anchor time.Time) []models.Article {
	var sameDay, window []models.Article
	for _, a := range articles {
		if !mentions(a, symbol, companyName) {
			continue
		}
		if util.SameDay(a.PublishedAt, anchor) {
			sameDay = append(sameDay, a)
		}
		window = append(window, a)
	}
	selected := window
	if len(sameDay) > 0 {
		selected = sameDay
	}
	out := make([]models.Article, len(selected))
	copy(out, selected)
	sort.SliceStable(out, func(i, j int) bool {
		return popularity(out[i], anchor) > popularity(out[j], anchor)
	})
	return out
}
