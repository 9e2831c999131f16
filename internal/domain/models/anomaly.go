package models

import "time"

// PriceAnomaly marks a date where the security's return deviated
// abnormally from the benchmark. Recomputed on every pipeline run,
// never persisted standalone.
type PriceAnomaly struct {
	Date            time.Time `json:"date"`
	Timeframe       string    `json:"timeframe"` // "daily" or "weekly"
	SecurityReturn  float64   `json:"security_return"`
	BenchmarkReturn float64   `json:"benchmark_return"`
	RelativeReturn  float64   `json:"relative_return"`
	ZScore          float64   `json:"z_score"`
	VolumeSpike     float64   `json:"volume_spike"`
	Close           float64   `json:"close"`
	Volume          float64   `json:"volume"`
}

// CorrelatedAnomaly is a PriceAnomaly enriched with classified event type,
// generated narrative, and the articles that plausibly explain it.
type CorrelatedAnomaly struct {
	Anomaly     PriceAnomaly
	EventType   string
	Title       string
	Description string
	Articles    []Article // at most 5
	Relevance   float64   // [0,1]
}
