// Package metrics defines Prometheus metrics for b24-dealsync.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "b24sync"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 when the last liveness probe succeeded.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 when the last readiness probe succeeded.",
	})
)

// Bitrix REST metrics.
var (
	BitrixCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bitrix_calls_total",
		Help:      "Total Bitrix REST calls by method.",
	}, []string{"method"})

	BitrixCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bitrix_call_duration_seconds",
		Help:      "Duration of Bitrix REST calls in seconds, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	BitrixRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bitrix_retries_total",
		Help:      "Total retried Bitrix REST attempts.",
	})

	BitrixErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bitrix_errors_total",
		Help:      "Total failed Bitrix REST calls by error kind (timeout, remote, api).",
	}, []string{"kind"})
)

// Deal synchronization metrics.
var (
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Total deal synchronization runs by outcome status.",
	}, []string{"status"})

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of one deal synchronization in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	DealUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deal_updates_total",
		Help:      "Total deal field writes performed.",
	})
)

// Month-end maintenance job metrics.
var (
	RollRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "roll_runs_total",
		Help:      "Total month-end roll job runs.",
	})

	RollElementsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "roll_elements_updated_total",
		Help:      "Total list elements updated by the month-end job.",
	})

	RollElementsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "roll_elements_failed_total",
		Help:      "Total list elements the month-end job failed to update.",
	})
)

// NotificationDuration tracks roll report delivery latency.
var NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "notification_duration_seconds",
	Help:      "Duration of roll report notification delivery in seconds.",
	Buckets:   prometheus.DefBuckets,
})
