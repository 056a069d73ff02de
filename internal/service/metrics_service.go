package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "aquago"

// MetricsService owns a private Prometheus registry. Every method is safe on
// a nil receiver so collaborators can run without metrics.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.HistogramVec
	cacheWrites     prometheus.Histogram
	recomputes      *prometheus.CounterVec
	imageUploads    *prometheus.CounterVec
}

// NewMetricsService registers the application collectors next to the Go
// runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template and status.",
		}, []string{"method", "path", "status"}),
		cacheLookups: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookup_seconds",
			Help:      "Cache lookup latency split by hit or miss.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"result"}),
		cacheWrites: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "write_seconds",
			Help:      "Cache write latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "water_point_rating_recomputes_total",
			Help:      "Water point rating recomputations by mode, including ones that left the stored value unchanged.",
		}, []string{"mode"}),
		imageUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "feedback_image_uploads_total",
			Help:      "Stored feedback images by detected MIME type.",
		}, []string{"mime"}),
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records latency and count for one request. path is the
// route template, never the raw URL.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	m.requestDuration.With(labels).Observe(duration.Seconds())
	m.requestTotal.With(labels).Inc()
}

// RecordCacheOperation records one lookup. Hit ratio is left to PromQL.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveCacheWrite records the latency of one cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

// IncRatingRecompute counts one rating recomputation, written or not.
func (m *MetricsService) IncRatingRecompute(mode string) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(mode).Inc()
}

// IncImageUpload counts one stored feedback image by detected MIME type.
func (m *MetricsService) IncImageUpload(mime string) {
	if m == nil {
		return
	}
	m.imageUploads.WithLabelValues(mime).Inc()
}
