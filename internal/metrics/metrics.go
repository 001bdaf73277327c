// Package metrics holds the Prometheus collectors shared by the API and the
// queue worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_cache_requests_total",
		Help: "Cache lookups grouped by resource and result (hit, miss, error).",
	}, []string{"resource", "result"})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_cache_invalidations_total",
		Help: "Cache invalidations grouped by mode (key, tag, fallback).",
	}, []string{"mode"})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_orders_created_total",
		Help: "Total number of orders committed.",
	})

	JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_jobs_enqueued_total",
		Help: "Jobs pushed to the queue grouped by type and result.",
	}, []string{"type", "result"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_jobs_processed_total",
		Help: "Job executions grouped by type and result (succeeded, retried, failed).",
	}, []string{"type", "result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_job_duration_seconds",
		Help:    "Duration of job executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	QueuePending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backoffice_queue_pending_jobs",
		Help: "Number of jobs waiting in the queue.",
	})
)
