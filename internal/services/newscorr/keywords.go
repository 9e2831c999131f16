package newscorr

import "strings"

// Event type labels attached to correlated anomalies.
const (
	TypeEarnings      = "earnings"
	TypeGuidance      = "guidance"
	TypeAnalystRating = "analyst_rating"
	TypeProductLaunch = "product_launch"
	TypeRegulatory    = "regulatory"
	TypeMacro         = "macro"
	TypeManagement    = "management"
	TypeSectorMove    = "sector_move"
	TypeUnknown       = "unknown"
)

// categoryKeywords maps each event type to its trigger terms. Order
// matters: on tied hit counts the earlier category wins.
var categoryKeywords = []struct {
	category string
	terms    []string
}{
	{TypeEarnings, []string{
		"earnings", "quarterly results", "revenue", "profit", "eps",
		"beat estimates", "missed estimates", "q1", "q2", "q3", "q4",
	}},
	{TypeGuidance, []string{
		"guidance", "outlook", "forecast", "raises full-year", "cuts full-year",
		"lowered expectations", "raised expectations",
	}},
	{TypeAnalystRating, []string{
		"upgrade", "downgrade", "price target", "analyst", "overweight",
		"underweight", "buy rating", "sell rating", "initiates coverage",
	}},
	{TypeProductLaunch, []string{
		"launch", "unveil", "announce", "new product", "release", "introduces",
	}},
	{TypeRegulatory, []string{
		"sec", "lawsuit", "regulator", "investigation", "fine", "antitrust",
		"settlement", "probe", "subpoena", "recall",
	}},
	{TypeMacro, []string{
		"fed", "inflation", "interest rate", "tariff", "gdp", "jobs report",
		"recession", "federal reserve", "treasury",
	}},
	{TypeManagement, []string{
		"ceo", "cfo", "resign", "appoint", "executive", "steps down",
		"succession", "board of directors",
	}},
	{TypeSectorMove, []string{
		"sector", "industry", "peers", "competitors", "rival", "market-wide",
	}},
}

// Classify labels the combined article text with an event type and a
// relevance score in [0,1]. Relevance saturates at five keyword hits;
// a weak signal downgrades the type to unknown.
func Classify(texts []string) (string, float64) {
	eventType, hits := classify(texts)
	relevance := float64(hits) / relevanceScale
	if relevance > 1 {
		relevance = 1
	}
	if relevance <= minRelevance {
		eventType = TypeUnknown
	}
	return eventType, relevance
}

// classify scores each category by keyword hits across the articles'
// combined text and returns the winner with its raw hit count.
func classify(texts []string) (string, int) {
	joined := strings.ToLower(strings.Join(texts, " "))
	best := TypeUnknown
	bestHits := 0
	for _, ck := range categoryKeywords {
		hits := 0
		for _, term := range ck.terms {
			hits += strings.Count(joined, term)
		}
		if hits > bestHits {
			best = ck.category
			bestHits = hits
		}
	}
	return best, bestHits
}
