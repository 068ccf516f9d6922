package bootstrap_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artpar/jsonview/adapters/httpclient"
	"github.com/artpar/jsonview/bootstrap"
	"github.com/artpar/jsonview/config"
	"github.com/artpar/jsonview/core/handler"
	"github.com/artpar/jsonview/core/mapper"
	"github.com/artpar/jsonview/domain/person"
	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/prometheus/client_golang/prometheus"
)

const baseConfig = `
server:
  base_url: "https://people.example.com"
database:
  seed: true
http_clients:
  directory:
    base_url: "https://directory.example.com"
    decorators: [logging, metrics]
    resources:
      users.show:
        path: "/users/{id}"
        methods: [GET]
`

func TestBootstrap_Integration(t *testing.T) {
	a := newApp(t, loadConfig(t, baseConfig))

	if a.HTTPServer == nil || a.Metrics == nil || a.People == nil {
		t.Fatal("application not fully wired")
	}
	if a.HTTPServer.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %s, want 0.0.0.0:8080", a.HTTPServer.Addr)
	}

	w, doc := get(t, a, "/people")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /people status = %d, body: %s", w.Code, w.Body.String())
	}
	coll, ok := doc.(*jsonapi.ResourceCollectionDocument)
	if !ok {
		t.Fatalf("document = %T, want collection", doc)
	}
	if len(coll.Resources()) != 3 {
		t.Errorf("len(data) = %d, want 3 seeded people", len(coll.Resources()))
	}
	if len(coll.Included()) != 2 {
		t.Errorf("len(included) = %d, want 2 teams", len(coll.Included()))
	}

	id := coll.Resources()[0].ID
	w, doc = get(t, a, "/people/"+id)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /people/%s status = %d", id, w.Code)
	}
	single := doc.(*jsonapi.SingleResourceDocument)
	if got := single.Links()["self"].Href; got != "https://people.example.com/people/"+id {
		t.Errorf("self link = %s", got)
	}

	w, _ = get(t, a, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "jsonview_documents_built_total") {
		t.Error("metrics output missing jsonview_documents_built_total")
	}
}

func TestBootstrap_Repositories(t *testing.T) {
	a := newApp(t, loadConfig(t, baseConfig))

	want := []string{"api", "client.directory"}
	got := a.Links.Aliases()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("aliases = %v, want %v", got, want)
	}

	l, err := a.Resolver.Resolve("client.directory", "users.show", map[string]any{"id": 7}, nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if l.Href != "https://directory.example.com/users/7" {
		t.Errorf("href = %s", l.Href)
	}

	c, ok := a.Client("directory")
	if !ok {
		t.Fatal("client directory not wired")
	}
	if c.Name() != "directory" {
		t.Errorf("client name = %s", c.Name())
	}
	if _, ok := a.Client("missing"); ok {
		t.Error("unexpected client")
	}
}

func TestBootstrap_ConfiguredAPIRepository(t *testing.T) {
	cfg := loadConfig(t, `
link_repositories:
  api:
    base_url: "https://gateway.example.com/v1"
    routes:
      people.list:
        path: "/people"
      people.show:
        path: "/people/{id}"
      teams.show:
        path: "/teams/{id}"
`)
	repos := bootstrap.Repositories(cfg)
	url, err := repos[person.APIRepository].Generate(person.LinkPeopleShow, map[string]any{"id": "p1"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if url != "https://gateway.example.com/v1/people/p1" {
		t.Errorf("url = %s", url)
	}
}

func TestBootstrap_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "jsonview.db")
	cfg := loadConfig(t, "database:\n  driver: sqlite\n  dsn: "+dsn+"\n  seed: true\n")

	a := newApp(t, cfg)
	if a.DB == nil {
		t.Fatal("DB should not be nil")
	}

	w, doc := get(t, a, "/people?page[size]=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	coll := doc.(*jsonapi.ResourceCollectionDocument)
	if len(coll.Resources()) != 2 {
		t.Errorf("len(data) = %d, want 2", len(coll.Resources()))
	}
	if coll.Links()["next"].Href == "" {
		t.Error("missing next link")
	}
}

func TestBootstrap_Shutdown(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shutdown.db")
	cfg := loadConfig(t, "database:\n  driver: sqlite\n  dsn: "+dsn+"\n")

	a, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: io.Discard, Registry: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	if err := a.Shutdown(); err != nil {
		t.Errorf("shutdown error: %v", err)
	}
	if _, err := a.DB.DB.Query("SELECT 1"); err == nil {
		t.Error("expected error querying closed database")
	}
}

func TestBootstrap_HotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jsonview.yaml")
	if err := os.WriteFile(path, []byte(baseConfig), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := bootstrap.NewWithHotReload(path, bootstrap.Options{LogOutput: io.Discard, Registry: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	t.Cleanup(func() { a.Shutdown() })

	updated := `
server:
  base_url: "https://people.example.com"
link_repositories:
  docs:
    base_url: "https://docs.example.com"
    routes:
      guide:
        path: "/guide/{topic}"
`
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.Config.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	l, err := a.Resolver.Resolve("docs", "guide", map[string]any{"topic": "links"}, nil)
	if err != nil {
		t.Fatalf("Resolve after reload: %v", err)
	}
	if l.Href != "https://docs.example.com/guide/links" {
		t.Errorf("href = %s", l.Href)
	}
	if _, ok := a.Client("directory"); ok {
		t.Error("removed client still wired after reload")
	}
	if _, err := a.Resolver.Resolve("client.directory", "users.show", map[string]any{"id": 1}, nil); err == nil {
		t.Error("removed client repository still resolves")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "valid",
			content: baseConfig,
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Errorf("Check error: %v", err)
				}
			},
		},
		{
			name:    "unknown mapper handler",
			content: "mappers:\n  custom:\n    handlers: [attribute, sparkle]\n",
			check: func(t *testing.T, err error) {
				var target *mapper.UnknownHandlerError
				if !errors.As(err, &target) {
					t.Fatalf("error = %v, want UnknownHandlerError", err)
				}
				if target.Name != "sparkle" {
					t.Errorf("Name = %s, want sparkle", target.Name)
				}
				if !strings.Contains(err.Error(), `mapper "custom"`) {
					t.Errorf("error %q does not name the mapper", err)
				}
			},
		},
		{
			name:    "unknown mapper type",
			content: "mappers:\n  audit:\n    handlers: [attribute]\n    types: [robots]\n",
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), `unknown resource type "robots"`) {
					t.Errorf("error = %v, want unknown resource type", err)
				}
			},
		},
		{
			name: "unknown decorator",
			content: `
http_clients:
  directory:
    base_url: "https://directory.example.com"
    decorators: [retry]
`,
			check: func(t *testing.T, err error) {
				var target *httpclient.UnknownDecoratorError
				if !errors.As(err, &target) {
					t.Fatalf("error = %v, want UnknownDecoratorError", err)
				}
			},
		},
		{
			name: "metrics decorator without metrics",
			content: `
metrics:
  enabled: false
http_clients:
  directory:
    base_url: "https://directory.example.com"
    decorators: [metrics]
`,
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "metrics are disabled") {
					t.Errorf("error = %v, want metrics disabled error", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, bootstrap.Check(loadConfig(t, tt.content)))
		})
	}
}

func TestBootstrap_MapperTypes(t *testing.T) {
	a := newApp(t, loadConfig(t, `
mappers:
  audit:
    handlers: [attribute, meta]
    types: [teams]
`))

	if len(a.Mappers) != 2 || a.Mappers[0].Name() != "default" || a.Mappers[1].Name() != "audit" {
		t.Fatalf("mappers = %v, want default then audit", a.Mappers)
	}

	tests := []struct {
		typeName string
		mapper   string
	}{
		{handler.TypeNameOf[person.Person](), "default"},
		{handler.TypeNameOf[person.Team](), "audit"},
	}
	for _, tt := range tests {
		h, err := a.Handlers.Resolve(tt.typeName)
		if err != nil {
			t.Fatalf("Resolve(%s) error: %v", tt.typeName, err)
		}
		mh, ok := h.(*mapper.MapperHandler)
		if !ok {
			t.Fatalf("handler = %T, want *mapper.MapperHandler", h)
		}
		if mh.Mapper.Name() != tt.mapper {
			t.Errorf("%s mapped by %s, want %s", tt.typeName, mh.Mapper.Name(), tt.mapper)
		}
	}
}

func TestNew_WiringError(t *testing.T) {
	cfg := loadConfig(t, "mappers:\n  default:\n    handlers: [nope]\n")
	_, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: io.Discard, Registry: prometheus.NewRegistry()})

	var target *mapper.UnknownHandlerError
	if !errors.As(err, &target) {
		t.Errorf("error = %v, want UnknownHandlerError", err)
	}
}

// Helpers

func loadConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *bootstrap.App {
	t.Helper()
	a, err := bootstrap.New(cfg, bootstrap.Options{
		Version:   "test",
		LogOutput: io.Discard,
		Registry:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	t.Cleanup(func() { a.Shutdown() })
	return a
}

func get(t *testing.T, a *bootstrap.App, path string) (*httptest.ResponseRecorder, jsonapi.Document) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	if !strings.HasPrefix(w.Header().Get("Content-Type"), jsonapi.ContentType) {
		return w, nil
	}
	doc, err := jsonapi.Hydrate(w.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a JSON:API document: %v\n%s", err, w.Body.String())
	}
	return w, doc
}

func TestRouteTable(t *testing.T) {
	entries := bootstrap.RouteTable(loadConfig(t, baseConfig))

	want := []bootstrap.RouteEntry{
		{Repository: "api", Name: "people.list", Methods: []string{"GET", "POST"}, Template: "https://people.example.com/people"},
		{Repository: "api", Name: "people.show", Methods: []string{"GET"}, Template: "https://people.example.com/people/{id}"},
		{Repository: "api", Name: "teams.show", Methods: []string{"GET"}, Template: "https://people.example.com/teams/{id}"},
		{Repository: "client.directory", Name: "users.show", Methods: []string{"GET"}, Template: "https://directory.example.com/users/{id}"},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v, want %d", entries, len(want))
	}
	for i, e := range entries {
		w := want[i]
		if e.Repository != w.Repository || e.Name != w.Name || e.Template != w.Template ||
			strings.Join(e.Methods, ",") != strings.Join(w.Methods, ",") {
			t.Errorf("entries[%d] = %+v, want %+v", i, e, w)
		}
	}
}
