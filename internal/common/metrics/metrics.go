// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	DealTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_transitions_total",
			Help: "Status transitions applied, by record kind and target status",
		},
		[]string{"kind", "to"},
	)

	DealConversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_conversions_total",
			Help: "Set to Project conversions by outcome",
		},
		[]string{"outcome"},
	)

	StorageWriteRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_storage_write_retries_total",
			Help: "Writes retried after a cleanup pass, by collection and final result",
		},
		[]string{"collection", "result"},
	)

	SummaryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_summary_cache_lookups_total",
			Help: "Summary cache lookups by report and result",
		},
		[]string{"report", "result"},
	)
)
