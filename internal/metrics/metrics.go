// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Catalog sync
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_sync_runs_total",
			Help: "Catalog synchronization passes by outcome.",
		},
		[]string{"result"}, // success|failure
	)
	SyncMovies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_sync_movies_total",
			Help: "Catalog records processed during synchronization.",
		},
		[]string{"outcome"}, // inserted|skipped
	)

	// Auth
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Sign-in and sign-up attempts by outcome.",
		},
		[]string{"action", "result"},
	)

	registerOnce sync.Once
)

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, SyncRuns, SyncMovies, AuthAttempts)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
