// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiagnosesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_completed_total",
			Help: "Total number of completed diagnoses",
		},
		[]string{"task_type", "cache"},
	)

	DiagnosesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_failed_total",
			Help: "Total number of failed diagnoses",
		},
		[]string{"task_type", "error_code"},
	)

	DiagnosisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "diagnosis_duration_seconds",
			Help: "Duration of diagnosis processing in seconds",
		},
		[]string{"task_type"},
	)

	EligiblePathways = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diagnosis_eligible_pathways",
			Help:    "Number of structurally eligible pathways per diagnosis",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"task_type"},
	)
)
