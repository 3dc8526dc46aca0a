package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache load outcomes
const (
	OutcomeFetched = "fetched"
	OutcomeJoined  = "joined"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Latency of backend REST calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	BackendRequestsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_failed_total",
		Help: "Total number of backend calls that returned an error",
	}, []string{"route", "status"})

	CacheLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_loads_total",
		Help: "Cache load requests by outcome",
	}, []string{"cache", "outcome"})

	CacheMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_mutations_total",
		Help: "Cache mutations by operation and result",
	}, []string{"cache", "operation", "result"})

	StaleWritesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_stale_writes_discarded_total",
		Help: "Responses dropped because a newer request was already written",
	}, []string{"cache"})

	EnrichmentJoinFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_join_failures_total",
		Help: "Relation joins that resolved to null",
	}, []string{"relation"})

	EnrichmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "enrichment_latency_seconds",
		Help:    "Latency of enriching a listing page",
		Buckets: prometheus.DefBuckets,
	})

	PropagationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_propagations_total",
		Help: "Cross-cache propagations by event type and outcome",
	}, []string{"event_type", "outcome"})

	CheckoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of successful checkouts",
	})

	CheckoutsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkouts",
	})

	StockProjectionsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_projections_applied_total",
		Help: "Listing stock projections decremented after checkout",
	})

	RelayedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayed_events_total",
		Help: "Events mirrored to or received from the relay topic",
	}, []string{"direction", "event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
