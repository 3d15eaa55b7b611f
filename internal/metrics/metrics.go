// Package metrics provides Prometheus instrumentation for the market engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts settled trades, partitioned by side and strategy.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_trades_total",
		Help: "Total number of trades settled",
	}, []string{"side", "strategy"})

	// TradeLatency tracks settlement latency by side.
	TradeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_trade_latency_seconds",
		Help:    "Trade settlement latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"side"})

	// TradeRejections counts rejected settlements by reason.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_trade_rejections_total",
		Help: "Settlements rejected before commit, by reason",
	}, []string{"reason"})

	// PriceSumDeviation observes |sum(prices) - 1| after each settlement.
	PriceSumDeviation = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_price_sum_deviation",
		Help:    "Absolute deviation of the post-trade price sum from 1",
		Buckets: []float64{1e-12, 1e-9, 1e-7, 1e-6, 1e-4, 1e-3, 1e-2},
	})

	// InvariantViolations counts post-settlement price-sum check failures.
	// Any increment here signals a pricing-model bug, not a bad request.
	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_invariant_violations_total",
		Help: "Settlements aborted by the price-sum invariant check",
	})

	// MarketsResolved counts market resolutions.
	MarketsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_markets_resolved_total",
		Help: "Markets resolved",
	})

	// PayoutsTotal accumulates currency paid out to winning positions.
	PayoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_payouts_total",
		Help: "Cumulative currency credited to winning positions",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
