package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	pipelineRuns   *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		pipelineRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diptracker_pipeline_runs_total",
				Help: "Pipeline runs by outcome tier",
			},
			[]string{"symbol", "tier"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diptracker_provider_errors_total",
				Help: "Upstream provider failures by kind",
			},
			[]string{"provider", "kind"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diptracker_cache_lookups_total",
				Help: "Cache lookups by namespace and outcome",
			},
			[]string{"namespace", "outcome"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diptracker_pipeline_duration_seconds",
				Help:    "End-to-end pipeline duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
	}
}

// RecordPipelineRun counts a completed run for the tier that served it.
func (r *Recorder) RecordPipelineRun(symbol, tier string) {
	r.pipelineRuns.WithLabelValues(symbol, tier).Inc()
}

// RecordProviderError records an upstream failure.
func (r *Recorder) RecordProviderError(provider, kind string) {
	r.providerErrors.WithLabelValues(provider, kind).Inc()
}

// RecordCacheHit records a cache lookup outcome.
func (r *Recorder) RecordCacheHit(namespace string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(namespace, outcome).Inc()
}

// RecordPipelineLatency records end-to-end pipeline latency in seconds.
func (r *Recorder) RecordPipelineLatency(symbol string, seconds float64) {
	r.latency.WithLabelValues(symbol).Observe(seconds)
}
