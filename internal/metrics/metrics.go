package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_analysis_runs_total",
			Help: "Total number of analysis runs by assessment source",
		},
		[]string{"source"},
	)

	PlannerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_planner_failures_total",
			Help: "Total number of delegated planner calls that fell back to local rules",
		},
		[]string{"reason"},
	)

	PlannerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copilot_planner_request_duration_seconds",
			Help:    "Duration of delegated planner calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_alerts_generated_total",
			Help: "Total number of alerts synthesized by severity",
		},
		[]string{"severity"},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_persistence_failures_total",
			Help: "Total number of analysis or memory writes that failed",
		},
		[]string{"store"},
	)

	DigestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_digests_sent_total",
			Help: "Total number of alert digests delivered by channel",
		},
		[]string{"channel", "status"},
	)
)
