package link

import (
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/artpar/jsonview/pkg/jsonapi"
)

// UnknownLinkError is returned when a repository has no link by that name.
type UnknownLinkError struct {
	Link string
}

func (e *UnknownLinkError) Error() string {
	return fmt.Sprintf("unknown link %q", e.Link)
}

// MissingParameterError is returned when a path placeholder has no value.
type MissingParameterError struct {
	Link      string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("link %q requires parameter %q", e.Link, e.Parameter)
}

// Route is a named URL template such as "/people/{id}".
type Route struct {
	Path    string
	Methods []string
	Meta    jsonapi.Meta
}

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// Placeholders returns the parameter names in the route path, in order.
func (r Route) Placeholders() []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(r.Path, -1) {
		names = append(names, m[1])
	}
	return names
}

// RouteRepository generates URLs from named routes under a base URL.
type RouteRepository struct {
	baseURL string
	routes  map[string]Route
}

// NewRouteRepository creates a repository. baseURL may be empty for relative links.
func NewRouteRepository(baseURL string, routes map[string]Route) *RouteRepository {
	return &RouteRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		routes:  maps.Clone(routes),
	}
}

// BaseURL returns the base URL without a trailing slash.
func (r *RouteRepository) BaseURL() string { return r.baseURL }

// Route returns the named route.
func (r *RouteRepository) Route(name string) (Route, bool) {
	route, ok := r.routes[name]
	return route, ok
}

// Names returns the route names, sorted.
func (r *RouteRepository) Names() []string {
	return slices.Sorted(maps.Keys(r.routes))
}

// Template returns the named route's URL with its placeholders unfilled.
func (r *RouteRepository) Template(name string) (string, bool) {
	route, ok := r.routes[name]
	if !ok {
		return "", false
	}
	return r.baseURL + route.Path, true
}

// Generate builds the URL for the named route.
// Placeholders are filled from params (path-escaped). Remaining params are
// appended as a query string sorted by key.
func (r *RouteRepository) Generate(name string, params map[string]any) (string, error) {
	route, ok := r.routes[name]
	if !ok {
		return "", &UnknownLinkError{Link: name}
	}

	used := make(map[string]bool)
	var missing string
	path := placeholderRe.ReplaceAllStringFunc(route.Path, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := params[key]
		if !ok || v == nil {
			if missing == "" {
				missing = key
			}
			return m
		}
		used[key] = true
		return url.PathEscape(fmt.Sprint(v))
	})
	if missing != "" {
		return "", &MissingParameterError{Link: name, Parameter: missing}
	}

	query := url.Values{}
	for k, v := range params {
		if used[k] || v == nil {
			continue
		}
		query.Set(k, fmt.Sprint(v))
	}

	u := r.baseURL + path
	if len(query) > 0 {
		// Encode sorts by key.
		u += "?" + query.Encode()
	}
	return u, nil
}

// GetLink implements Repository. Metadata is a copy of the route's meta.
func (r *RouteRepository) GetLink(name string, params map[string]any) (Data, error) {
	ref, err := r.Generate(name, params)
	if err != nil {
		return Data{}, err
	}
	return Data{Reference: ref, Metadata: maps.Clone(r.routes[name].Meta)}, nil
}
