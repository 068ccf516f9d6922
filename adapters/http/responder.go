// Package http turns controller results into JSON:API responses and request
// bodies into JSON:API documents.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/artpar/jsonview/adapters/metrics"
	"github.com/artpar/jsonview/core/handler"
	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/core/view"
	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DocumentBuilder builds documents from views.
type DocumentBuilder interface {
	Build(v view.View) (jsonapi.Document, error)
}

// ErrorClassifierFunc maps an error to the error object to respond with.
// handled=false falls back to the default mapping.
type ErrorClassifierFunc func(err error) (e jsonapi.Error, handled bool)

// ControllerFunc is a request handler returning a value for the responder.
type ControllerFunc func(r *http.Request) (any, error)

// Option configures a Responder.
type Option func(*Responder)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Responder) { r.logger = logger }
}

// WithMetrics records build and response metrics.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Responder) { r.metrics = m }
}

// WithErrorClassifier installs a classifier consulted before the default mapping.
func WithErrorClassifier(fn ErrorClassifierFunc) Option {
	return func(r *Responder) { r.classify = fn }
}

// WithTraceIDs replaces the error ID generator.
func WithTraceIDs(fn func() string) Option {
	return func(r *Responder) { r.traceID = fn }
}

// Responder writes controller results as JSON:API responses.
type Responder struct {
	builder  DocumentBuilder
	logger   zerolog.Logger
	metrics  *metrics.Collector
	classify ErrorClassifierFunc
	traceID  func() string
}

// NewResponder creates a responder building views with b.
func NewResponder(b DocumentBuilder, opts ...Option) *Responder {
	r := &Responder{
		builder: b,
		logger:  zerolog.Nop(),
		traceID: newTraceID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Respond writes result and reports whether it recognized it.
//
// Documents are written as is with status 200. Views are built and written
// with their status and headers. Resources are wrapped into a single resource
// document and error objects into an error document.
func (rs *Responder) Respond(w http.ResponseWriter, r *http.Request, result any) bool {
	switch v := result.(type) {
	case jsonapi.Document:
		rs.write(w, r, http.StatusOK, nil, v)
	case view.View:
		rs.respondView(w, r, v)
	case *jsonapi.Resource:
		doc := jsonapi.NewSingleResourceDocument(v)
		doc.SetJSONAPI(jsonapi.NewJSONAPI())
		rs.write(w, r, http.StatusOK, nil, doc)
	case jsonapi.Resource:
		doc := jsonapi.NewSingleResourceDocument(&v)
		doc.SetJSONAPI(jsonapi.NewJSONAPI())
		rs.write(w, r, http.StatusOK, nil, doc)
	case jsonapi.Error:
		rs.writeErrors(w, r, v)
	case *jsonapi.Error:
		rs.writeErrors(w, r, *v)
	default:
		rs.logger.Warn().
			Str("type", fmt.Sprintf("%T", result)).
			Str("path", r.URL.Path).
			Msg("controller result is not a JSON:API value")
		return false
	}
	return true
}

// Handle adapts a controller to an http.HandlerFunc.
// A nil result with a nil error responds 204.
func (rs *Responder) Handle(fn ControllerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := fn(r)
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		if result == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if !rs.Respond(w, r, result) {
			rs.Error(w, r, fmt.Errorf("unsupported controller result %T", result))
		}
	}
}

// Error writes err as an error document.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := jsonapi.Error{}, false
	if rs.classify != nil {
		e, ok = rs.classify(err)
	}
	if !ok {
		e = defaultError(err)
	}
	if e.ID == "" {
		e.ID = rs.traceID()
	}

	event := rs.logger.Warn()
	if e.StatusCode() >= http.StatusInternalServerError {
		event = rs.logger.Error()
	}
	event.Err(err).
		Str("trace_id", e.ID).
		Int("status", e.StatusCode()).
		Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("request failed")

	rs.writeErrors(w, r, e)
}

func defaultError(err error) jsonapi.Error {
	if IsDecodeError(err) {
		return jsonapi.ErrBadRequest(err.Error())
	}
	return jsonapi.ErrFromError(err)
}

func (rs *Responder) respondView(w http.ResponseWriter, r *http.Request, v view.View) {
	start := time.Now()
	doc, err := rs.builder.Build(v)
	if rs.metrics != nil {
		reason := ""
		if err != nil {
			reason = buildErrorReason(err)
		}
		rs.metrics.ObserveBuild(viewKind(v), jsonapi.Kind(doc), reason, time.Since(start))
	}
	if err != nil {
		rs.Error(w, r, err)
		return
	}

	attrs := view.AttributesOf(v)
	rs.write(w, r, attrs.Status(), attrs.Headers(), doc)
}

func (rs *Responder) writeErrors(w http.ResponseWriter, r *http.Request, errs ...jsonapi.Error) {
	status := http.StatusInternalServerError
	if len(errs) > 0 && errs[0].StatusCode() != 0 {
		status = errs[0].StatusCode()
	}
	rs.write(w, r, status, nil, jsonapi.NewErrorDocument(errs...))
}

func (rs *Responder) write(w http.ResponseWriter, r *http.Request, status int, headers http.Header, doc jsonapi.Document) {
	for name, values := range headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	if err := jsonapi.WriteDocument(w, status, doc); err != nil {
		rs.logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write document")
		// Nothing was written if encoding failed.
		e := jsonapi.ErrInternal("failed to encode document")
		e.ID = rs.traceID()
		_ = jsonapi.WriteDocument(w, http.StatusInternalServerError, jsonapi.NewErrorDocument(e))
		status = http.StatusInternalServerError
	}
	if rs.metrics != nil {
		rs.metrics.ObserveResponse(status)
	}
}

func viewKind(v view.View) string {
	switch view.Variant(v).(type) {
	case *view.ObjectView:
		return "object"
	case *view.IteratorView:
		return "iterator"
	case *view.DocumentView:
		return "document"
	default:
		return "unknown"
	}
}

func buildErrorReason(err error) string {
	var (
		unsupported *handler.UnsupportedTypeError
		unknownRepo *link.UnknownRepositoryError
		unknownLink *link.UnknownLinkError
		missing     *link.MissingParameterError
	)
	switch {
	case errors.As(err, &unsupported):
		return "unsupported_type"
	case errors.As(err, &unknownRepo):
		return "unknown_repository"
	case errors.As(err, &unknownLink), errors.As(err, &missing):
		return "link"
	case errors.Is(err, view.ErrIteratorConsumed):
		return "iterator_consumed"
	default:
		return "other"
	}
}
