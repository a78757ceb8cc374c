package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "descent",
		Subsystem: "server",
		Name:      "runs_started_total",
		Help:      "Number of optimization runs started.",
	})

	runsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "descent",
		Subsystem: "server",
		Name:      "runs_finished_total",
		Help:      "Number of optimization runs finished, by terminal status.",
	}, []string{"status"})

	runIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "descent",
		Subsystem: "server",
		Name:      "run_iterations",
		Help:      "Iterations consumed by completed optimization runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)
