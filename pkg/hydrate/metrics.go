package hydrate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for hydration runs.
var (
	pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_pipeline_runs_total",
		Help: "Total number of hydration runs by outcome",
	}, []string{"outcome"})

	pipelineRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hydrator_pipeline_records_total",
		Help: "Total number of output records by status",
	}, []string{"status"})

	pipelineBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hydrator_pipeline_batches_total",
		Help: "Total number of batches dispatched to the fetch executor",
	})

	pipelineDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hydrator_pipeline_duration_seconds",
		Help:    "Wall time of hydration runs",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	})
)
