// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "build_requests_total",
			Help: "Total number of build requests by outcome status",
		},
		[]string{"status"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "build_duration_seconds",
			Help: "Duration of the build pipeline in seconds",
		},
		[]string{"status"},
	)

	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_failures_total",
			Help: "Total number of publish failures by stage",
		},
		[]string{"stage"},
	)

	NotifyAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_attempts_total",
			Help: "Total number of callback delivery attempts",
		},
	)

	NotifyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_outcomes_total",
			Help: "Callback delivery outcomes (delivered or exhausted)",
		},
		[]string{"outcome"},
	)

	EvaluationChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluation_checks_total",
			Help: "Evaluation check results by check name and outcome",
		},
		[]string{"check", "result"},
	)
)
