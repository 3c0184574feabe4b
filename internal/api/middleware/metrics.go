package middleware

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// MetricsCollector counts requests and errors for /metrics and exports the
// same traffic as Prometheus series on its own registry.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64

	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewMetricsCollector(namespace string, requestCount, errorCount *atomic.Int64) *MetricsCollector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
		registry:     registry,
		httpRequests: httpRequests,
		httpDuration: httpDuration,
	}
}

// Registry exposes the collector's registry so callers can add domain
// gauges and serve it.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Middleware returns middleware that counts requests and errors.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mc.requestCount.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		// Count errors (4xx and 5xx)
		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}

		route := routePattern(r)
		mc.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		mc.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
