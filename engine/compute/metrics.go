package compute

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PassDuration tracks the time spent encoding or running one variable's pass.
	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compute_pass_duration_seconds",
			Help:    "Time spent in one simulation variable pass",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		},
		[]string{"variable", "backend"},
	)

	// TicksTotal counts completed ticks by outcome.
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compute_ticks_total",
			Help: "Total number of scheduler ticks by status",
		},
		[]string{"status"},
	)
)
