// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillswap_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	swapTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_swap_transitions_total",
			Help: "Swap requests moved out of pending, by target status.",
		},
		[]string{"to"},
	)
	transactionsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skillswap_transactions_completed_total",
			Help: "Transactions completed after both confirmations.",
		},
	)
	reviewsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skillswap_reviews_created_total",
			Help: "Reviews written.",
		},
	)
	expirySweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skillswap_expiry_sweeps_total",
			Help: "Expiry sweeps run.",
		},
	)
	requestsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skillswap_requests_expired_total",
			Help: "Swap requests moved to expired.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		swapTransitionsTotal,
		transactionsCompletedTotal,
		reviewsCreatedTotal,
		expirySweepsTotal,
		requestsExpiredTotal,
	)
}

// HTTPMiddleware counts and times requests by chi route pattern.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func SwapTransition(to string) {
	swapTransitionsTotal.WithLabelValues(to).Inc()
}

func TransactionCompleted() {
	transactionsCompletedTotal.Inc()
}

func ReviewCreated() {
	reviewsCreatedTotal.Inc()
}

func ExpirySweep() {
	expirySweepsTotal.Inc()
}

func RequestsExpired(n int) {
	requestsExpiredTotal.Add(float64(n))
}
