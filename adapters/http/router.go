package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	MetricsHandler http.Handler // Optional metrics exporter handler
	MetricsPath    string       // Path for MetricsHandler (default: /metrics)
	Version        string
	RequestTimeout time.Duration // default: 60s
}

// Routes mounts application routes on the router.
type Routes func(r chi.Router)

// NewRouter creates the main HTTP router with the standard middleware stack,
// health and version endpoints, and the application routes.
func NewRouter(logger zerolog.Logger, cfg RouterConfig, routes ...Routes) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, metricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", Liveness)
	r.Get("/version", VersionHandler(cfg.Version))

	if cfg.MetricsHandler != nil {
		r.Handle(metricsPath, cfg.MetricsHandler)
	}

	for _, mount := range routes {
		mount(r)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		_ = jsonapi.WriteNotFound(w, "route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		e := jsonapi.NewError(http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed").
			Detailf("Method %s is not allowed for %s", req.Method, req.URL.Path).
			Build()
		_ = jsonapi.WriteError(w, e)
	})

	return r
}

// MetricsHandler returns a Prometheus exporter for g, or the default
// registry's exporter when g is nil.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Liveness returns a meta document reporting the service is up.
func Liveness(w http.ResponseWriter, r *http.Request) {
	_ = jsonapi.WriteDocument(w, http.StatusOK, jsonapi.NewMetaDocument(jsonapi.Meta{"status": "ok"}))
}

// VersionHandler returns the service version as a meta document.
func VersionHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_ = jsonapi.WriteDocument(w, http.StatusOK, jsonapi.NewMetaDocument(jsonapi.Meta{
			"version": version,
			"service": "jsonview",
		}))
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == metricsPath {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
