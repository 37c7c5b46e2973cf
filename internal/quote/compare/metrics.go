package compare

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	comparisonDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comparison_time_seconds",
		Help:    "Time spent producing one full fare comparison.",
		Buckets: prometheus.DefBuckets,
	})

	providerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_outcomes_total",
		Help: "Per-provider comparison outcomes grouped by terminal state.",
	}, []string{"provider", "outcome"})
)
