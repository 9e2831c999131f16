package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

// Magnitude thresholds on |z|.
const (
	extremeZ = 3.0
	highZ    = 2.5
)

// Impact score weights. Statistical significance dominates, with volume
// and news corroboration as secondary signals.
const (
	zWeight         = 0.5
	volumeWeight    = 0.3
	relevanceWeight = 0.2
	spikeScale      = 5.0
)

const idLen = 12

// Score converts correlated anomalies into fully populated events.
// barsByTimeframe supplies the security's own bar history per timeframe
// for recovery and change-since-event computation; a timeframe missing
// from the map degrades those fields, it does not fail. The result is
// sorted by impact score descending with collision-free ids.
func Score(symbol string, correlated []models.CorrelatedAnomaly, barsByTimeframe map[string][]models.Bar) []models.StockEvent {
	out := make([]models.StockEvent, 0, len(correlated))
	for _, ca := range correlated {
		out = append(out, buildEvent(symbol, ca, barsByTimeframe[ca.Anomaly.Timeframe]))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImpactScore > out[j].ImpactScore
	})
	dedupeIDs(out)
	return out
}

func buildEvent(symbol string, ca models.CorrelatedAnomaly, bars []models.Bar) models.StockEvent {
	a := ca.Anomaly
	idx := barIndex(bars, a)

	priceAtEvent := a.Close
	priceNow := priceAtEvent
	if len(bars) > 0 {
		priceNow = bars[len(bars)-1].Close
	}
	change := priceNow - priceAtEvent
	changePct := 0.0
	if priceAtEvent != 0 {
		changePct = change / priceAtEvent * 100
	}

	absMove := 0.0
	if idx >= 1 {
		absMove = bars[idx].Close - bars[idx-1].Close
	}

	ev := models.StockEvent{
		ID:          eventID(symbol, a.Timeframe, util.DayKey(a.Date), ca.EventType, ca.Title),
		Symbol:      symbol,
		Date:        a.Date,
		Type:        ca.EventType,
		Title:       ca.Title,
		Description: ca.Description,
		Impact: models.EventImpact{
			Magnitude:    magnitude(a.ZScore),
			Direction:    direction(a.RelativeReturn),
			AbsoluteMove: absMove,
			PercentMove:  a.SecurityReturn * 100,
			VolumeSpike:  a.VolumeSpike,
		},
		PriceAtEvent:        priceAtEvent,
		PriceNow:            priceNow,
		ChangeSinceEvent:    change,
		ChangePctSinceEvent: changePct,
		DailyReturn:         a.SecurityReturn,
		BenchmarkReturn:     a.BenchmarkReturn,
		RelativeReturn:      a.RelativeReturn,
		ZScore:              a.ZScore,
		News:                ca.Articles,
		RecoveryDays:        recoveryDays(bars, idx, a),
		ImpactScore:         impactScore(a.ZScore, a.VolumeSpike, ca.Relevance),
	}
	return ev
}

func magnitude(z float64) string {
	switch abs := math.Abs(z); {
	case abs >= extremeZ:
		return models.MagnitudeExtreme
	case abs >= highZ:
		return models.MagnitudeHigh
	default:
		return models.MagnitudeModerate
	}
}

func direction(relReturn float64) string {
	if relReturn >= 0 {
		return models.DirectionPositive
	}
	return models.DirectionNegative
}

func impactScore(z, volumeSpike, relevance float64) float64 {
	volScore := volumeSpike / spikeScale
	if volScore > 1 {
		volScore = 1
	}
	if volScore < 0 {
		volScore = 0
	}
	return zWeight*math.Abs(z) + volumeWeight*volScore + relevanceWeight*relevance
}

// barIndex finds the anomaly's bar by calendar day, or -1.
func barIndex(bars []models.Bar, a models.PriceAnomaly) int {
	for i, b := range bars {
		if util.SameDay(b.Date, a.Date) {
			return i
		}
	}
	return -1
}

// recoveryDays counts bars until a negative event's close first regains
// the pre-event close, nil if it never does within available history.
// For positive events recovery does not cleanly apply: 0 when the close
// never subsequently dips below the event close, nil otherwise.
func recoveryDays(bars []models.Bar, idx int, a models.PriceAnomaly) *int {
	if idx < 0 {
		return nil
	}
	if a.RelativeReturn >= 0 {
		for j := idx + 1; j < len(bars); j++ {
			if bars[j].Close < bars[idx].Close {
				return nil
			}
		}
		zero := 0
		return &zero
	}
	if idx == 0 {
		return nil
	}
	preClose := bars[idx-1].Close
	for j := idx + 1; j < len(bars); j++ {
		if bars[j].Close >= preClose {
			days := j - idx
			return &days
		}
	}
	return nil
}

func eventID(symbol, timeframe, date, eventType, title string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%s", symbol, timeframe, date, eventType, title)))
	return hex.EncodeToString(h[:])[:idLen]
}

// dedupeIDs appends a numeric suffix to later duplicates so ids stay
// unique even when stale cached payloads mix with fresh ones.
func dedupeIDs(events []models.StockEvent) {
	seen := make(map[string]int, len(events))
	for i := range events {
		id := events[i].ID
		n := seen[id]
		seen[id] = n + 1
		if n > 0 {
			events[i].ID = fmt.Sprintf("%s-%d", id, n+1)
		}
	}
}
