package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "isstrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	datasetRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_dataset_refreshes_total",
			Help: "Upstream OEM refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	datasetSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_dataset_state_vectors",
			Help: "Number of state vectors in the cached dataset.",
		},
	)

	datasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_dataset_age_seconds",
			Help: "Age of the cached dataset in seconds.",
		},
	)

	geocodeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstrack_geocode_failures_total",
			Help: "Reverse geocoding lookups that degraded to an empty label.",
		},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstrack_streams_active",
			Help: "Currently connected SSE position streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstrack_stream_errors_total",
			Help: "SSE stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(datasetRefreshesTotal)
	prometheus.MustRegister(datasetSize)
	prometheus.MustRegister(datasetAgeSeconds)
	prometheus.MustRegister(geocodeFailuresTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamErrorsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncDatasetRefresh records one refresh attempt with outcome "success"
// or "failure".
func IncDatasetRefresh(outcome string) {
	datasetRefreshesTotal.WithLabelValues(outcome).Inc()
}

// SetDatasetSize sets the cached state vector count gauge.
func SetDatasetSize(n int) {
	datasetSize.Set(float64(n))
}

// SetDatasetAge sets the cached dataset age gauge in seconds.
func SetDatasetAge(seconds float64) {
	datasetAgeSeconds.Set(seconds)
}

// IncGeocodeFailures records one degraded reverse-geocoding lookup.
func IncGeocodeFailures() {
	geocodeFailuresTotal.Inc()
}

// IncStreamsActive increments the active SSE stream gauge.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive decrements the active SSE stream gauge.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamErrors records one SSE stream error for the given reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// knownRoutes are the exact paths exported as-is in metric labels.
var knownRoutes = map[string]bool{
	"/":                  true,
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/epochs":            true,
	"/header":            true,
	"/metadata":          true,
	"/comment":           true,
	"/now":               true,
	"/api/v1/stream/now": true,
}

// normalizeRoute collapses parameterized and unknown paths so path
// label cardinality stays bounded regardless of client behavior.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/epochs/"); ok {
		if strings.HasSuffix(rest, "/speed") {
			return "/epochs/{epoch}/speed"
		}
		if strings.HasSuffix(rest, "/location") {
			return "/epochs/{epoch}/location"
		}
		if !strings.Contains(rest, "/") {
			return "/epochs/{epoch}"
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE handlers can still flush.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
