// Package link resolves named links through alias-keyed link repositories.
package link

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/artpar/jsonview/pkg/jsonapi"
)

// Data is what a repository produces for a link name.
type Data struct {
	Reference string
	Metadata  jsonapi.Meta
}

// Repository generates link data from a logical link name and parameters.
type Repository interface {
	GetLink(name string, params map[string]any) (Data, error)
}

// RepositoryFunc adapts a function to a Repository.
type RepositoryFunc func(name string, params map[string]any) (Data, error)

// GetLink calls f.
func (f RepositoryFunc) GetLink(name string, params map[string]any) (Data, error) {
	return f(name, params)
}

// UnknownRepositoryError is returned when an alias was never registered.
type UnknownRepositoryError struct {
	Alias string
}

func (e *UnknownRepositoryError) Error() string {
	return fmt.Sprintf("link repository %q is not registered", e.Alias)
}

// DuplicateRepositoryError is returned when an alias is registered twice.
type DuplicateRepositoryError struct {
	Alias string
}

func (e *DuplicateRepositoryError) Error() string {
	return fmt.Sprintf("link repository %q already registered", e.Alias)
}

// Provider maps aliases to repositories.
// It is populated at startup and read per request.
type Provider struct {
	mu    sync.RWMutex
	repos map[string]Repository
}

// NewProvider creates an empty provider.
func NewProvider() *Provider {
	return &Provider{repos: make(map[string]Repository)}
}

// Register adds a repository under alias.
func (p *Provider) Register(alias string, repo Repository) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.repos[alias]; exists {
		return &DuplicateRepositoryError{Alias: alias}
	}
	p.repos[alias] = repo
	return nil
}

// Replace swaps the whole alias table, used on configuration reload.
func (p *Provider) Replace(repos map[string]Repository) {
	next := maps.Clone(repos)
	if next == nil {
		next = make(map[string]Repository)
	}

	p.mu.Lock()
	p.repos = next
	p.mu.Unlock()
}

// Repository returns the repository registered under alias.
func (p *Provider) Repository(alias string) (Repository, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	repo, ok := p.repos[alias]
	if !ok {
		return nil, &UnknownRepositoryError{Alias: alias}
	}
	return repo, nil
}

// Aliases returns the registered aliases, sorted.
func (p *Provider) Aliases() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.repos))
}

// Request asks for a document link.
type Request struct {
	// Name is the link's key in the document.
	Name string

	// Repository is the alias to resolve through.
	Repository string

	// Link is the logical link name within the repository.
	Link string

	Parameters map[string]any

	// Metadata is merged over the repository's metadata.
	Metadata jsonapi.Meta
}

// Resolver turns link requests into links. Results are never cached.
type Resolver struct {
	provider *Provider
}

// NewResolver creates a resolver over provider.
func NewResolver(provider *Provider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve produces the link for linkName in the repository named by alias.
// Keys in overrides replace keys in the repository's metadata.
func (r *Resolver) Resolve(alias, linkName string, params map[string]any, overrides jsonapi.Meta) (jsonapi.Link, error) {
	repo, err := r.provider.Repository(alias)
	if err != nil {
		return jsonapi.Link{}, err
	}

	data, err := repo.GetLink(linkName, params)
	if err != nil {
		return jsonapi.Link{}, err
	}

	return jsonapi.Link{
		Href: data.Reference,
		Meta: mergeMeta(data.Metadata, overrides),
	}, nil
}

// ResolveRequest resolves req.
func (r *Resolver) ResolveRequest(req Request) (jsonapi.Link, error) {
	return r.Resolve(req.Repository, req.Link, req.Parameters, req.Metadata)
}

func mergeMeta(base, overrides jsonapi.Meta) jsonapi.Meta {
	if len(base) == 0 && len(overrides) == 0 {
		return nil
	}
	merged := make(jsonapi.Meta, len(base)+len(overrides))
	maps.Copy(merged, base)
	maps.Copy(merged, overrides)
	return merged
}
