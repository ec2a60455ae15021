package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the bridge process.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bridgeOps       *prometheus.CounterVec
	bridgeDuration  *prometheus.HistogramVec
	stockMovements  *prometheus.CounterVec
	stockUnits      *prometheus.CounterVec
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tillpoint_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tillpoint_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tillpoint_bridge_operations_total",
		Help: "Bridge operations by name and result code.",
	}, []string{"operation", "code"})
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tillpoint_bridge_operation_duration_seconds",
		Help:    "Bridge operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tillpoint_stock_movements_total",
		Help: "Stock movements written to the ledger by reference type.",
	}, []string{"ref_type"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tillpoint_stock_units_total",
		Help: "Absolute units moved by reference type and direction.",
	}, []string{"ref_type", "direction"})
	registry.MustRegister(requests, duration, ops, opDuration, movements, units)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		bridgeOps:       ops,
		bridgeDuration:  opDuration,
		stockMovements:  movements,
		stockUnits:      units,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveOperation records one bridge call. code is empty on success.
func (m *Metrics) ObserveOperation(operation, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	m.bridgeOps.WithLabelValues(operation, code).Inc()
	m.bridgeDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveStockMovement records a committed stock movement.
func (m *Metrics) ObserveStockMovement(refType string, delta int) {
	if m == nil || delta == 0 {
		return
	}
	direction := "in"
	if delta < 0 {
		direction = "out"
		delta = -delta
	}
	m.stockMovements.WithLabelValues(refType).Inc()
	m.stockUnits.WithLabelValues(refType, direction).Add(float64(delta))
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
