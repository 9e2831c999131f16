package newscorr

import (
	"fmt"
	"strings"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

const titleMaxLen = 80

func moveWord(relReturn float64) string {
	if relReturn >= 0 {
		return "outperformed"
	}
	return "underperformed"
}

func volumeQualifier(spike float64) string {
	switch {
	case spike >= 3.0:
		return "on exceptionally heavy volume"
	case spike >= 2.0:
		return "on elevated volume"
	default:
		return "on typical volume"
	}
}

// narrative builds the event title and description. When coverage
// exists the lead headline becomes the title and up to two headlines
// are quoted in the description; otherwise both are synthesized from
// the price move alone.
func narrative(symbol string, anomaly models.PriceAnomaly, articles []models.Article) (string, string) {
	movePct := anomaly.RelativeReturn * 100
	if len(articles) == 0 {
		title := fmt.Sprintf("%s %s the benchmark by %.1f%%", symbol, moveWord(anomaly.RelativeReturn), absFloat(movePct))
		desc := fmt.Sprintf(
			"%s moved %.1f%% relative to the benchmark on %s %s. No clearly related news coverage was found for this window.",
			symbol, movePct, anomaly.Date.Format("2006-01-02"), volumeQualifier(anomaly.VolumeSpike),
		)
		return util.Truncate(title, titleMaxLen), desc
	}

	title := util.Truncate(articles[0].Headline, titleMaxLen)

	var snippets []string
	for _, a := range articles {
		if len(snippets) == 2 {
			break
		}
		snippets = append(snippets, fmt.Sprintf("%q (%s)", util.Truncate(a.Headline, 100), a.Source))
	}
	desc := fmt.Sprintf(
		"%s %s the benchmark by %.1f%% on %s %s. Related coverage: %s.",
		symbol, moveWord(anomaly.RelativeReturn), absFloat(movePct),
		anomaly.Date.Format("2006-01-02"), volumeQualifier(anomaly.VolumeSpike),
		strings.Join(snippets, "; "),
	)
	return title, desc
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
