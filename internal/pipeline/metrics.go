// Prometheus metrics for the coordination pipeline.
package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled messages by classified intent.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coordd",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Total number of handled messages by intent",
		},
		[]string{"intent"},
	)

	// HandleDuration tracks end-to-end pipeline latency.
	HandleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coordd",
			Subsystem: "pipeline",
			Name:      "handle_duration_seconds",
			Help:      "End-to-end duration of Handle in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// EnrichmentResults counts enrichment outcomes.
	// Labels: result (hit, empty, skipped)
	EnrichmentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coordd",
			Subsystem: "pipeline",
			Name:      "enrichment_results_total",
			Help:      "Enrichment outcomes per request",
		},
		[]string{"result"},
	)

	// PolishResults counts polish outcomes.
	// Labels: result (applied, fallback, skipped)
	PolishResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coordd",
			Subsystem: "pipeline",
			Name:      "polish_results_total",
			Help:      "Polish outcomes per request",
		},
		[]string{"result"},
	)
)

func recordEnrichment(skipped, empty bool) {
	switch {
	case skipped:
		EnrichmentResults.WithLabelValues("skipped").Inc()
	case empty:
		EnrichmentResults.WithLabelValues("empty").Inc()
	default:
		EnrichmentResults.WithLabelValues("hit").Inc()
	}
}

func recordPolish(attempted, applied bool) {
	switch {
	case !attempted:
		PolishResults.WithLabelValues("skipped").Inc()
	case applied:
		PolishResults.WithLabelValues("applied").Inc()
	default:
		PolishResults.WithLabelValues("fallback").Inc()
	}
}
