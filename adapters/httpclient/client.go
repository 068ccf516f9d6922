// Package httpclient provides an HTTP client addressing named resources
// instead of URLs.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/pkg/jsonapi"
)

// MaxResponseBytes limits decoded response bodies.
const MaxResponseBytes = 50 << 20

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Client sends requests to resources resolved through a route repository.
type Client struct {
	name   string
	doer   Doer
	routes *link.RouteRepository
}

// New creates a client. A nil doer uses http.DefaultClient.
func New(name string, routes *link.RouteRepository, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{name: name, doer: doer, routes: routes}
}

// Name returns the client name.
func (c *Client) Name() string { return c.name }

// Routes returns the repository resolving resource names.
func (c *Client) Routes() *link.RouteRepository { return c.routes }

// Request sends method to the URI generated for resource with params.
//
// body may be a jsonapi.Document (encoded and sent as application/vnd.api+json),
// []byte, string, io.Reader or nil.
func (c *Client) Request(ctx context.Context, method, resource string, params map[string]any, headers http.Header, body any) (*http.Response, error) {
	uri, err := c.routes.Generate(resource, params)
	if err != nil {
		return nil, fmt.Errorf("resolve resource %q: %w", resource, err)
	}

	reader, isDocument, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), uri, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if isDocument {
		req.Header.Set("Content-Type", jsonapi.ContentType)
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", jsonapi.ContentType)
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, resource string, params map[string]any, headers http.Header) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, resource, params, headers, nil)
}

// Head sends a HEAD request.
func (c *Client) Head(ctx context.Context, resource string, params map[string]any, headers http.Header) (*http.Response, error) {
	return c.Request(ctx, http.MethodHead, resource, params, headers, nil)
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, resource string, params map[string]any, headers http.Header, body any) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, resource, params, headers, body)
}

// Patch sends a PATCH request.
func (c *Client) Patch(ctx context.Context, resource string, params map[string]any, headers http.Header, body any) (*http.Response, error) {
	return c.Request(ctx, http.MethodPatch, resource, params, headers, body)
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, resource string, params map[string]any, headers http.Header, body any) (*http.Response, error) {
	return c.Request(ctx, http.MethodPut, resource, params, headers, body)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, resource string, params map[string]any, headers http.Header) (*http.Response, error) {
	return c.Request(ctx, http.MethodDelete, resource, params, headers, nil)
}

// Options sends an OPTIONS request.
func (c *Client) Options(ctx context.Context, resource string, params map[string]any, headers http.Header) (*http.Response, error) {
	return c.Request(ctx, http.MethodOptions, resource, params, headers, nil)
}

func encodeBody(body any) (io.Reader, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case jsonapi.Document:
		data, err := jsonapi.Marshal(b.ToMap())
		if err != nil {
			return nil, false, err
		}
		return bytes.NewReader(data), true, nil
	case []byte:
		return bytes.NewReader(b), false, nil
	case string:
		return strings.NewReader(b), false, nil
	case io.Reader:
		return b, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported body type %T", body)
	}
}

// DecodeDocument reads and closes the response body and hydrates it.
// An empty body yields (nil, nil).
func DecodeDocument(resp *http.Response) (jsonapi.Document, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	doc, err := jsonapi.Hydrate(body)
	if err != nil {
		return nil, fmt.Errorf("hydrate response document: %w", err)
	}
	return doc, nil
}

// TransportConfig configures the underlying *http.Client.
type TransportConfig struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// NewHTTPClient creates an *http.Client with pooled connections.
func NewHTTPClient(cfg TransportConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}

	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConns,
			IdleConnTimeout:     idleConnTimeout,
		},
		Timeout: timeout,
	}
}
