package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/artpar/jsonview/adapters/metrics"
	"github.com/rs/zerolog"
)

// Decorator names.
const (
	DecoratorLogging = "logging"
	DecoratorMetrics = "metrics"
)

// Decorator wraps a Doer.
type Decorator func(next Doer) Doer

// UnknownDecoratorError is returned when a configured decorator does not exist.
type UnknownDecoratorError struct {
	Name string
}

func (e *UnknownDecoratorError) Error() string {
	return fmt.Sprintf("unknown http client decorator %q", e.Name)
}

// Dependencies are the services decorators may need.
type Dependencies struct {
	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// DecoratorByName returns the named decorator for the client called client.
func DecoratorByName(name, client string, deps Dependencies) (Decorator, error) {
	switch name {
	case DecoratorLogging:
		return Logging(deps.Logger.With().Str("client", client).Logger()), nil
	case DecoratorMetrics:
		if deps.Metrics == nil {
			return nil, fmt.Errorf("decorator %q: metrics are disabled", name)
		}
		return Metrics(client, deps.Metrics), nil
	default:
		return nil, &UnknownDecoratorError{Name: name}
	}
}

// Decorate wraps doer with the named decorators. The first name is outermost.
func Decorate(doer Doer, client string, names []string, deps Dependencies) (Doer, error) {
	decorators := make([]Decorator, 0, len(names))
	for _, name := range names {
		d, err := DecoratorByName(name, client, deps)
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
	}
	for i := len(decorators) - 1; i >= 0; i-- {
		doer = decorators[i](doer)
	}
	return doer, nil
}

// Logging logs each request at debug level and failures at error level.
func Logging(logger zerolog.Logger) Decorator {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)
			if err != nil {
				logger.Error().
					Err(err).
					Str("method", req.Method).
					Str("url", req.URL.String()).
					Dur("duration", time.Since(start)).
					Msg("http client request failed")
				return nil, err
			}
			logger.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status", resp.StatusCode).
				Dur("duration", time.Since(start)).
				Msg("http client request")
			return resp, nil
		})
	}
}

// Metrics records request counts and durations per client.
func Metrics(client string, m *metrics.Collector) Decorator {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)
			status := 0
			if err == nil {
				status = resp.StatusCode
			}
			m.ObserveClientRequest(client, req.Method, status, time.Since(start))
			return resp, err
		})
	}
}
