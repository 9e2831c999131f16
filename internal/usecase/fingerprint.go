package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

// pipelineVersion is folded into the fingerprint so a semantic change to
// the pipeline invalidates every cached event set at once.
const pipelineVersion = 1

const fingerprintLen = 16

// seriesSet holds the four bar series one pipeline run operates on.
type seriesSet struct {
	securityDaily   []models.Bar
	securityWeekly  []models.Bar
	benchmarkDaily  []models.Bar
	benchmarkWeekly []models.Bar
}

// fingerprint summarizes the upstream data a run observed. Two runs that
// see identical bar counts and latest dates across all four series get
// the same fingerprint, which is what gates event-cache reuse.
func fingerprint(set seriesSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "v%d", pipelineVersion)
	segment(&b, "sd", set.securityDaily)
	segment(&b, "sw", set.securityWeekly)
	segment(&b, "bd", set.benchmarkDaily)
	segment(&b, "bw", set.benchmarkWeekly)

	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])[:fingerprintLen]
}

func segment(b *strings.Builder, label string, bars []models.Bar) {
	latest := ""
	if len(bars) > 0 {
		latest = util.DayKey(bars[len(bars)-1].Date)
	}
	fmt.Fprintf(b, "|%s:%d:%s", label, len(bars), latest)
}
