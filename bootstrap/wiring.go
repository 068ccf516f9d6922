package bootstrap

import (
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/artpar/jsonview/adapters/httpclient"
	"github.com/artpar/jsonview/adapters/metrics"
	"github.com/artpar/jsonview/config"
	"github.com/artpar/jsonview/core/handler"
	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/core/mapper"
	"github.com/artpar/jsonview/domain/person"
	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/rs/zerolog"
)

// Repositories builds the route repositories described by cfg, keyed by
// alias. Every HTTP client gets a repository under "client.<name>". The "api"
// repository serving the demo endpoints is added under server.base_url
// unless link_repositories defines one.
func Repositories(cfg *config.Config) map[string]*link.RouteRepository {
	repos := make(map[string]*link.RouteRepository, len(cfg.LinkRepositories)+len(cfg.HTTPClients)+1)

	for alias, rc := range cfg.LinkRepositories {
		repos[alias] = link.NewRouteRepository(rc.BaseURL, routes(rc.Routes))
	}
	if _, ok := repos[person.APIRepository]; !ok {
		repos[person.APIRepository] = link.NewRouteRepository(cfg.Server.BaseURL, DemoRoutes())
	}
	for name, cc := range cfg.HTTPClients {
		repos[config.ClientRepositoryPrefix+name] = link.NewRouteRepository(cc.BaseURL, routes(cc.Resources))
	}

	return repos
}

// DemoRoutes are the routes of the people and team endpoints.
func DemoRoutes() map[string]link.Route {
	return map[string]link.Route{
		person.LinkPeopleList: {Path: "/people", Methods: []string{http.MethodGet, http.MethodPost}},
		person.LinkPeopleShow: {Path: "/people/{id}", Methods: []string{http.MethodGet}},
		person.LinkTeamsShow:  {Path: "/teams/{id}", Methods: []string{http.MethodGet}},
	}
}

func routes(rc map[string]config.RouteConfig) map[string]link.Route {
	out := make(map[string]link.Route, len(rc))
	for name, r := range rc {
		route := link.Route{Path: r.Path, Methods: r.Methods}
		if len(r.Meta) > 0 {
			route.Meta = jsonapi.Meta(maps.Clone(r.Meta))
		}
		out[name] = route
	}
	return out
}

func asRepositories(repos map[string]*link.RouteRepository) map[string]link.Repository {
	out := make(map[string]link.Repository, len(repos))
	for alias, repo := range repos {
		out[alias] = repo
	}
	return out
}

// DemoTypes are the domain types mappers can be configured to convert,
// keyed by resource type.
func DemoTypes() map[string]any {
	return map[string]any{
		person.TypePeople: person.Person{},
		person.TypeTeams:  person.Team{},
	}
}

// buildMappers creates the configured mappers in registration order. Each
// mapper registers the types listed under mappers.<name>.types. The default
// mapper also takes every demo type left unclaimed.
func buildMappers(cfg *config.Config, links mapper.LinkResolver) ([]*mapper.Mapper, error) {
	deps := mapper.Dependencies{Links: links}
	types := DemoTypes()

	claimed := make(map[string]bool)
	for _, mc := range cfg.Mappers {
		for _, typ := range mc.Types {
			claimed[typ] = true
		}
	}

	mappers := make([]*mapper.Mapper, 0, len(cfg.Mappers))
	for _, name := range cfg.MapperNames() {
		m, err := mapper.NewFromNames(name, cfg.Mappers[name].Handlers, deps)
		if err != nil {
			return nil, fmt.Errorf("mapper %q: %w", name, err)
		}

		names := slices.Clone(cfg.Mappers[name].Types)
		if name == config.DefaultMapper {
			for _, typ := range slices.Sorted(maps.Keys(types)) {
				if !claimed[typ] {
					names = append(names, typ)
				}
			}
		}
		for _, typ := range names {
			sample, ok := types[typ]
			if !ok {
				return nil, fmt.Errorf("mapper %q: unknown resource type %q", name, typ)
			}
			if err := m.Register(sample); err != nil {
				return nil, fmt.Errorf("mapper %q: %w", name, err)
			}
		}
		mappers = append(mappers, m)
	}
	return mappers, nil
}

func newRegistry(mappers []*mapper.Mapper) *handler.Registry {
	registry := handler.NewRegistry()
	for _, m := range mappers {
		registry.Register(mapper.NewHandler(m))
	}
	return registry
}

// buildClients creates one outbound client per http_clients entry, sharing
// the route repositories built for them.
func buildClients(cfg *config.Config, repos map[string]*link.RouteRepository, logger zerolog.Logger, m *metrics.Collector) (map[string]*httpclient.Client, error) {
	deps := httpclient.Dependencies{
		Logger:  logger.With().Str("component", "httpclient").Logger(),
		Metrics: m,
	}

	clients := make(map[string]*httpclient.Client, len(cfg.HTTPClients))
	for _, name := range slices.Sorted(maps.Keys(cfg.HTTPClients)) {
		cc := cfg.HTTPClients[name]
		transport := httpclient.NewHTTPClient(httpclient.TransportConfig{Timeout: cc.Timeout})
		doer, err := httpclient.Decorate(transport, name, cc.Decorators, deps)
		if err != nil {
			return nil, fmt.Errorf("http client %q: %w", name, err)
		}
		clients[name] = httpclient.New(name, repos[config.ClientRepositoryPrefix+name], doer)
	}
	return clients, nil
}

// Check builds the mappers and HTTP clients cfg describes without opening a
// database or serving requests.
func Check(cfg *config.Config) error {
	repos := Repositories(cfg)
	provider := link.NewProvider()
	provider.Replace(asRepositories(repos))

	if _, err := buildMappers(cfg, link.NewResolver(provider)); err != nil {
		return err
	}

	var m *metrics.Collector
	if cfg.Metrics.Enabled {
		m = metrics.NewWithRegistry(nil)
	}
	if _, err := buildClients(cfg, repos, zerolog.Nop(), m); err != nil {
		return err
	}
	return nil
}

// RouteEntry describes one route for listing.
type RouteEntry struct {
	Repository string   `yaml:"repository"`
	Name       string   `yaml:"name"`
	Methods    []string `yaml:"methods,omitempty"`
	Template   string   `yaml:"template"`
}

// RouteTable lists every route of every repository cfg describes, sorted by
// repository alias and route name.
func RouteTable(cfg *config.Config) []RouteEntry {
	repos := Repositories(cfg)

	var entries []RouteEntry
	for _, alias := range slices.Sorted(maps.Keys(repos)) {
		repo := repos[alias]
		for _, name := range repo.Names() {
			route, _ := repo.Route(name)
			tmpl, _ := repo.Template(name)
			entries = append(entries, RouteEntry{
				Repository: alias,
				Name:       name,
				Methods:    route.Methods,
				Template:   tmpl,
			})
		}
	}
	return entries
}
