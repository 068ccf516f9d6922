// Package metrics provides Prometheus metrics collection for jsonview.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jsonview"

// Collector holds all Prometheus metrics for jsonview.
type Collector struct {
	// Document metrics
	DocumentsBuilt *prometheus.CounterVec
	BuildErrors    *prometheus.CounterVec
	BuildDuration  *prometheus.HistogramVec

	// Response metrics
	ResponsesTotal *prometheus.CounterVec

	// HTTP client metrics
	ClientRequests *prometheus.CounterVec
	ClientDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newCollector(promauto.With(reg))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		DocumentsBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_built_total",
				Help:      "Total number of documents built, by document kind",
			},
			[]string{"kind"},
		),
		BuildErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "build_errors_total",
				Help:      "Total number of failed document builds, by reason",
			},
			[]string{"reason"},
		),
		BuildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Document build duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"view"},
		),
		ResponsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_total",
				Help:      "Total number of JSON:API responses written, by status class",
			},
			[]string{"status"},
		),
		ClientRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "client_requests_total",
				Help:      "Total number of outgoing JSON:API client requests",
			},
			[]string{"client", "method", "status"},
		),
		ClientDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "client_request_duration_seconds",
				Help:      "Outgoing client request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"client", "method"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveBuild records one build of a view. kind is the document kind on
// success; reason classifies the error otherwise.
func (c *Collector) ObserveBuild(viewKind, kind, reason string, d time.Duration) {
	c.BuildDuration.WithLabelValues(viewKind).Observe(d.Seconds())
	if reason != "" {
		c.BuildErrors.WithLabelValues(reason).Inc()
		return
	}
	c.DocumentsBuilt.WithLabelValues(kind).Inc()
}

// ObserveResponse records a written response.
func (c *Collector) ObserveResponse(status int) {
	c.ResponsesTotal.WithLabelValues(StatusClass(status)).Inc()
}

// ObserveClientRequest records an outgoing client request. status is 0 for
// transport failures.
func (c *Collector) ObserveClientRequest(client, method string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.ClientRequests.WithLabelValues(client, method, label).Inc()
	c.ClientDuration.WithLabelValues(client, method).Observe(d.Seconds())
}

// RecordReload records a config reload attempt.
func (c *Collector) RecordReload(err error, at time.Time) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// StatusClass reduces a status code to its class, e.g. 404 -> "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
