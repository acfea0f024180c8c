package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the batch and status-server flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rowsTotal           *prometheus.CounterVec
	sendDuration        prometheus.Histogram
	workerInflight      prometheus.Gauge
	mediaUploadsTotal   *prometheus.CounterVec
	batchesTotal        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wabatch",
				Name:      "http_requests_total",
				Help:      "Total number of status-server requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wabatch",
				Name:      "http_request_duration_seconds",
				Help:      "Status-server request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wabatch",
				Name:      "rows_total",
				Help:      "Total number of rows by terminal disposition.",
			},
			[]string{"status"},
		),
		sendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "wabatch",
				Name:      "send_duration_seconds",
				Help:      "Cloud API send duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		workerInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wabatch",
				Name:      "worker_inflight",
				Help:      "Current number of in-flight worker operations.",
			},
		),
		mediaUploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wabatch",
				Name:      "media_uploads_total",
				Help:      "Total number of media upload attempts by result.",
			},
			[]string{"result"},
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wabatch",
				Name:      "batches_total",
				Help:      "Total number of batch runs by outcome.",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.rowsTotal,
		m.sendDuration,
		m.workerInflight,
		m.mediaUploadsTotal,
		m.batchesTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncRowOutcome(status string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(status))
	if normalized == "" {
		normalized = "unknown"
	}
	m.rowsTotal.WithLabelValues(normalized).Inc()
}

func (m *Metrics) ObserveSendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.Observe(seconds)
}

func (m *Metrics) IncWorkerInFlight() {
	if m == nil {
		return
	}
	m.workerInflight.Inc()
}

func (m *Metrics) DecWorkerInFlight() {
	if m == nil {
		return
	}
	m.workerInflight.Dec()
}

// IncMediaUpload records an upload attempt. Result is one of uploaded,
// cached, failed.
func (m *Metrics) IncMediaUpload(result string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(result))
	if normalized == "" {
		normalized = "unknown"
	}
	m.mediaUploadsTotal.WithLabelValues(normalized).Inc()
}

// IncBatchOutcome records a finished batch run. Outcome is one of completed,
// aborted, failed.
func (m *Metrics) IncBatchOutcome(outcome string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(outcome))
	if normalized == "" {
		normalized = "unknown"
	}
	m.batchesTotal.WithLabelValues(normalized).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
