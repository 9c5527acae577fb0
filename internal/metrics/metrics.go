// Package metrics holds the prometheus collectors shared by the cache backends and the index client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
	ResultOK    = "ok"
)

var (
	// CacheRequests counts cache reads per backend and result.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_cache_requests_total",
		Help: "Cache reads by backend and result (hit, miss, error).",
	}, []string{"backend", "result"})

	// IndexRequests counts backlink index calls per operation and result.
	IndexRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_index_requests_total",
		Help: "Backlink index requests by operation and result (ok, error).",
	}, []string{"op", "result"})

	// IndexLatency observes backlink index round trips.
	IndexLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "likes_index_request_duration_seconds",
		Help:    "Backlink index request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// RecordWrites counts record store writes per action and result.
	RecordWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_record_writes_total",
		Help: "Record store create/delete calls by action and result.",
	}, []string{"action", "result"})
)
