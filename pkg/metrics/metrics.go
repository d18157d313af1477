package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hr_portal_upstream_request_duration_seconds",
		Help:    "Duration of calls to the HR backend in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	upstreamTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_portal_upstream_requests_total",
		Help: "Total number of calls to the HR backend",
	}, []string{"operation", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hr_portal_http_request_duration_seconds",
		Help:    "Duration of portal HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	screenStates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_portal_screen_mounts_total",
		Help: "Screen mounts by screen and resulting view state",
	}, []string{"screen", "state"})

	eventHandlers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hr_portal_event_handlers_total",
		Help: "Lifecycle event deliveries by event type and outcome",
	}, []string{"event_type", "outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		upstreamDuration,
		upstreamTotal,
		requestDuration,
		screenStates,
		eventHandlers,
	)
}

// Handler exposes the portal registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one call to the HR backend. status is the HTTP status code,
// or "error" when no response was received.
func ObserveUpstream(operation, status string, elapsed time.Duration) {
	upstreamDuration.WithLabelValues(operation, status).Observe(elapsed.Seconds())
	upstreamTotal.WithLabelValues(operation, status).Inc()
}

// ObserveScreen counts a screen mount and the state it rendered.
func ObserveScreen(screen, state string) {
	screenStates.WithLabelValues(screen, state).Inc()
}

// ObserveEventHandler counts one handler run. outcome is ok, error or panic.
func ObserveEventHandler(eventType, outcome string) {
	eventHandlers.WithLabelValues(eventType, outcome).Inc()
}

// Middleware records request durations labelled by the matched chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
