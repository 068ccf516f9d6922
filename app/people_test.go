package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artpar/jsonview/adapters/clock"
	apihttp "github.com/artpar/jsonview/adapters/http"
	"github.com/artpar/jsonview/adapters/idgen"
	"github.com/artpar/jsonview/adapters/memory"
	"github.com/artpar/jsonview/adapters/sqlite"
	"github.com/artpar/jsonview/app"
	"github.com/artpar/jsonview/core/builder"
	"github.com/artpar/jsonview/core/handler"
	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/core/mapper"
	"github.com/artpar/jsonview/domain/person"
	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/artpar/jsonview/ports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const baseURL = "http://example.test"

type fixture struct {
	router  http.Handler
	service *app.PeopleService
	people  ports.PersonStore
	teams   ports.TeamStore
}

func setup(t *testing.T, people ports.PersonStore, teams ports.TeamStore) *fixture {
	t.Helper()

	provider := link.NewProvider()
	err := provider.Register(person.APIRepository, link.NewRouteRepository(baseURL, map[string]link.Route{
		person.LinkPeopleList: {Path: "/people"},
		person.LinkPeopleShow: {Path: "/people/{id}"},
		person.LinkTeamsShow:  {Path: "/teams/{id}"},
	}))
	if err != nil {
		t.Fatalf("register repository: %v", err)
	}
	resolver := link.NewResolver(provider)

	m, err := mapper.NewFromNames("default", mapper.DefaultHandlers, mapper.Dependencies{Links: resolver})
	if err != nil {
		t.Fatalf("create mapper: %v", err)
	}
	if err := m.Register(person.Person{}, person.Team{}); err != nil {
		t.Fatalf("register types: %v", err)
	}

	rs := apihttp.NewResponder(
		builder.New(handler.NewRegistry(mapper.NewHandler(m)), resolver),
		apihttp.WithErrorClassifier(app.ClassifyError),
	)
	svc := app.NewPeopleService(people, teams,
		idgen.NewSequential("id"),
		clock.NewTicking(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second),
		resolver, zerolog.Nop())

	r := chi.NewRouter()
	svc.Routes(rs)(r)
	return &fixture{router: r, service: svc, people: people, teams: teams}
}

func setupMemory(t *testing.T) *fixture {
	return setup(t, memory.NewPersonStore(), memory.NewTeamStore())
}

func setupSQLite(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return setup(t, sqlite.NewPersonStore(db), sqlite.NewTeamStore(db))
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, jsonapi.Document) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", jsonapi.ContentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Body.Len() == 0 {
		return w, nil
	}
	doc, err := jsonapi.Hydrate(w.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a JSON:API document: %v\n%s", err, w.Body.String())
	}
	return w, doc
}

func TestListPeople(t *testing.T) {
	backends := map[string]func(*testing.T) *fixture{
		"memory": setupMemory,
		"sqlite": setupSQLite,
	}
	for name, newFixture := range backends {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.service.Seed(context.Background()); err != nil {
				t.Fatalf("seed: %v", err)
			}

			w, doc := f.do(t, http.MethodGet, "/people?page[size]=2", "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}

			coll, ok := doc.(*jsonapi.ResourceCollectionDocument)
			if !ok {
				t.Fatalf("doc = %T, want collection", doc)
			}
			if len(coll.Resources()) != 2 {
				t.Fatalf("resources = %d, want 2", len(coll.Resources()))
			}
			first := coll.Resources()[0]
			if first.Type != person.TypePeople || first.Attributes["name"] != "Ada Lovelace" {
				t.Errorf("first = %+v", first)
			}
			if first.Links["self"].Href != baseURL+"/people/"+first.ID {
				t.Errorf("resource self link = %v", first.Links)
			}

			// Ada and Grace belong to different teams.
			if len(coll.Included()) != 2 {
				t.Errorf("included = %d, want 2", len(coll.Included()))
			}
			for _, inc := range coll.Included() {
				if inc.Type != person.TypeTeams {
					t.Errorf("included type = %q", inc.Type)
				}
			}

			if coll.Meta()["total"] != float64(3) || coll.Meta()["pages"] != float64(2) {
				t.Errorf("meta = %v", coll.Meta())
			}
			if _, ok := coll.Links()["next"]; !ok {
				t.Errorf("links = %v, want next", coll.Links())
			}
			if coll.JSONAPI() == nil {
				t.Error("jsonapi member missing")
			}
		})
	}
}

func TestListPeople_Empty(t *testing.T) {
	f := setupMemory(t)

	w, doc := f.do(t, http.MethodGet, "/people", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("body = %s, want empty data array", w.Body.String())
	}
	if len(doc.Included()) != 0 {
		t.Errorf("included = %v", doc.Included())
	}
}

func TestGetPerson(t *testing.T) {
	f := setupMemory(t)
	ctx := context.Background()
	_ = f.teams.Create(ctx, person.Team{ID: "t1", Name: "Core"})
	_ = f.people.Create(ctx, person.Person{ID: "p1", Name: "Ada", TeamID: "t1"})
	_ = f.people.Create(ctx, person.Person{ID: "p2", Name: "Bob", TeamID: "gone"})

	t.Run("with team", func(t *testing.T) {
		w, doc := f.do(t, http.MethodGet, "/people/p1", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		single := doc.(*jsonapi.SingleResourceDocument)
		r := single.Resource()
		if r.ID != "p1" || r.Attributes["name"] != "Ada" {
			t.Errorf("resource = %+v", r)
		}
		team, ok := r.Relationships["team"].Data.(*jsonapi.ResourceIdentifier)
		if !ok || team.ID != "t1" || team.Type != person.TypeTeams {
			t.Errorf("team relationship = %#v", r.Relationships["team"].Data)
		}
		if _, ok := r.Attributes["email"]; ok {
			t.Error("empty email should be omitted")
		}
		if doc.Links()["self"].Href != baseURL+"/people/p1" {
			t.Errorf("links = %v", doc.Links())
		}
		if len(doc.Included()) != 1 || doc.Included()[0].Attributes["name"] != "Core" {
			t.Errorf("included = %+v", doc.Included())
		}
	})

	t.Run("missing team is not included", func(t *testing.T) {
		w, doc := f.do(t, http.MethodGet, "/people/p2", "")
		if w.Code != http.StatusOK || len(doc.Included()) != 0 {
			t.Errorf("status = %d, included = %v", w.Code, doc.Included())
		}
	})

	t.Run("not found", func(t *testing.T) {
		w, doc := f.do(t, http.MethodGet, "/people/nope", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		errs := doc.Errors()
		if len(errs) != 1 || !strings.Contains(errs[0].Detail, "nope") || errs[0].ID == "" {
			t.Errorf("errors = %+v", errs)
		}
	})
}

func TestCreatePerson(t *testing.T) {
	f := setupMemory(t)
	_ = f.teams.Create(context.Background(), person.Team{ID: "t1", Name: "Core"})

	t.Run("created", func(t *testing.T) {
		body := `{"data":{"type":"people","attributes":{"name":"Ada","email":"ada@example.com"},
			"relationships":{"team":{"data":{"type":"teams","id":"t1"}}}}}`
		w, doc := f.do(t, http.MethodPost, "/people", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		if loc := w.Header().Get("Location"); loc != baseURL+"/people/id1" {
			t.Errorf("Location = %q", loc)
		}
		r := doc.(*jsonapi.SingleResourceDocument).Resource()
		if r.ID != "id1" || r.Attributes["email"] != "ada@example.com" {
			t.Errorf("resource = %+v", r)
		}

		stored, err := f.people.Get(context.Background(), "id1")
		if err != nil || stored.TeamID != "t1" || stored.CreatedAt.IsZero() {
			t.Errorf("stored = %+v, %v", stored, err)
		}
	})

	invalid := []struct {
		name       string
		body       string
		wantStatus int
		pointers   []string
	}{
		{
			name:       "validation errors",
			body:       `{"data":{"type":"people","attributes":{"name":"","email":"nope"}}}`,
			wantStatus: http.StatusUnprocessableEntity,
			pointers:   []string{"/data/attributes/name", "/data/attributes/email"},
		},
		{
			name:       "unknown team",
			body:       `{"data":{"type":"people","attributes":{"name":"Bob"},"relationships":{"team":{"data":{"type":"teams","id":"t9"}}}}}`,
			wantStatus: http.StatusUnprocessableEntity,
			pointers:   []string{"/data/relationships/team"},
		},
		{
			name:       "wrong resource type",
			body:       `{"data":{"type":"teams","attributes":{"name":"Bob"}}}`,
			wantStatus: http.StatusUnprocessableEntity,
			pointers:   []string{"/data"},
		},
		{
			name:       "collection document",
			body:       `{"data":[]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed",
			body:       `{"data":`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			w, doc := f.do(t, http.MethodPost, "/people", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
			errs := doc.Errors()
			if tt.pointers == nil {
				if len(errs) != 1 {
					t.Errorf("errors = %+v", errs)
				}
				return
			}
			if len(errs) != len(tt.pointers) {
				t.Fatalf("errors = %+v, want %d", errs, len(tt.pointers))
			}
			for i, p := range tt.pointers {
				if errs[i].Source == nil || errs[i].Source.Pointer != p {
					t.Errorf("errors[%d].source = %+v, want pointer %s", i, errs[i].Source, p)
				}
			}
		})
	}

	t.Run("wrong media type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(`{"data":{"type":"people"}}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestGetTeam(t *testing.T) {
	f := setupMemory(t)
	_ = f.teams.Create(context.Background(), person.Team{ID: "t1", Name: "Core"})

	w, doc := f.do(t, http.MethodGet, "/teams/t1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	r := doc.(*jsonapi.SingleResourceDocument).Resource()
	if r.Type != person.TypeTeams || r.Attributes["name"] != "Core" {
		t.Errorf("resource = %+v", r)
	}
	if r.Links["self"].Href != baseURL+"/teams/t1" {
		t.Errorf("links = %v", r.Links)
	}

	if w, _ := f.do(t, http.MethodGet, "/teams/t9", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	f := setupMemory(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.service.Seed(ctx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if n, _ := f.people.Count(ctx); n != 3 {
		t.Errorf("people = %d, want 3", n)
	}
}
