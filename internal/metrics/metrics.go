// Package metrics holds the client's Prometheus instrumentation: REST call
// latency, circuit breaker state, cache loads and dashboard refreshes.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// REST client
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sfdash_api_request_duration_seconds",
			Help:    "Duration of SmartFactory API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfdash_api_requests_total",
			Help: "Total number of SmartFactory API requests",
		},
		[]string{"endpoint", "status"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sfdash_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfdash_circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfdash_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Data cache
	StoreLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfdash_store_loads_total",
			Help: "Cache loads by the source that served them",
		},
		[]string{"source"}, // source: "remote", "mirror", "bundled"
	)

	StoreWriteThroughs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfdash_store_write_throughs_total",
			Help: "Dashboard tree write-throughs to the backend",
		},
		[]string{"result"},
	)

	// Queries
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sfdash_query_duration_seconds",
			Help:    "Duration of chart data fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"}, // route: "historical", "calculation", "mock"
	)

	RowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfdash_query_rows_dropped_total",
			Help: "Rows or values dropped while reshaping because a field was missing or not finite",
		},
	)

	// Refresh engine
	PollerRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfdash_poller_refreshes_total",
			Help: "Dashboard view refreshes by result",
		},
		[]string{"result"}, // result: "ok", "error", "stale"
	)
)

// Serve exposes the default registry on addr under /metrics until ctx is
// done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
