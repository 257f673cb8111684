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

	PairsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_pairs_computed_total",
			Help: "Founder/advisor pairs scored, by request mode",
		},
		[]string{"mode"},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_records_skipped_total",
			Help: "Founders or advisors skipped because their profile is missing",
		},
		[]string{"kind"},
	)

	ScoringFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_scoring_fallbacks_total",
			Help: "Pairs that degraded to the default match result",
		},
	)

	UpsertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_upsert_failures_total",
			Help: "Failed match result upserts",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_batch_duration_seconds",
			Help:    "Wall time of full batch runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_http_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)
)
