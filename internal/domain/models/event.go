package models

import "time"

// Event magnitude buckets.
const (
	MagnitudeModerate = "moderate"
	MagnitudeHigh     = "high"
	MagnitudeExtreme  = "extreme"
)

// Event direction values.
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
)

// EventImpact summarizes the size and direction of the move behind an event.
type EventImpact struct {
	Magnitude    string  `json:"magnitude"` // moderate | high | extreme
	Direction    string  `json:"direction"` // positive | negative
	AbsoluteMove float64 `json:"absolute_move"`
	PercentMove  float64 `json:"percent_move"`
	VolumeSpike  float64 `json:"volume_spike"`
}

// StockEvent is the terminal, externally visible entity produced by the
// pipeline. Events are rebuilt wholesale per run; ids stay stable across
// recomputation for identical inputs.
type StockEvent struct {
	ID                  string      `json:"id"`
	Symbol              string      `json:"symbol"`
	Date                time.Time   `json:"date"`
	Type                string      `json:"type"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Impact              EventImpact `json:"impact"`
	PriceAtEvent        float64     `json:"price_at_event"`
	PriceNow            float64     `json:"price_now"`
	ChangeSinceEvent    float64     `json:"change_since_event"`
	ChangePctSinceEvent float64     `json:"change_pct_since_event"`
	DailyReturn         float64     `json:"daily_return"`
	BenchmarkReturn     float64     `json:"benchmark_return"`
	RelativeReturn      float64     `json:"relative_return"`
	ZScore              float64     `json:"z_score"`
	News                []Article   `json:"news"` // at most 5
	RecoveryDays        *int        `json:"recovery_days"`
	ImpactScore         float64     `json:"impact_score"`
}

// EventsResult is the pipeline output contract consumed by the UI layer.
// It is always well-formed: an exhausted fallback chain yields an empty
// Events slice plus Error, never a panic past the boundary.
type EventsResult struct {
	Events []StockEvent `json:"events"`
	Stale  bool         `json:"stale"`
	Error  string       `json:"error,omitempty"`
}
