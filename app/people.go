// Package app contains the demo controllers. Controllers return views; the
// HTTP responder turns them into JSON:API documents.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apihttp "github.com/artpar/jsonview/adapters/http"
	"github.com/artpar/jsonview/core/view"
	"github.com/artpar/jsonview/domain/person"
	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/artpar/jsonview/ports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DefaultPerPage is the page size used when the request sets none.
const DefaultPerPage = 20

// LinkResolver generates URLs for named routes.
type LinkResolver interface {
	Resolve(alias, linkName string, params map[string]any, overrides jsonapi.Meta) (jsonapi.Link, error)
}

// NotFoundError is returned when a requested resource does not exist.
type NotFoundError struct {
	Type string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Type, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ports.ErrNotFound }

// PeopleService serves people and teams.
type PeopleService struct {
	people  ports.PersonStore
	teams   ports.TeamStore
	idGen   ports.IDGenerator
	clock   ports.Clock
	links   LinkResolver
	logger  zerolog.Logger
	perPage int
}

// NewPeopleService creates a new people service.
func NewPeopleService(
	people ports.PersonStore,
	teams ports.TeamStore,
	idGen ports.IDGenerator,
	clock ports.Clock,
	links LinkResolver,
	logger zerolog.Logger,
) *PeopleService {
	return &PeopleService{
		people:  people,
		teams:   teams,
		idGen:   idGen,
		clock:   clock,
		links:   links,
		logger:  logger,
		perPage: DefaultPerPage,
	}
}

// Routes mounts the people and team endpoints.
func (s *PeopleService) Routes(rs *apihttp.Responder) apihttp.Routes {
	return func(r chi.Router) {
		r.Get("/people", rs.Handle(s.ListPeople))
		r.Post("/people", rs.Handle(s.CreatePerson))
		r.Get("/people/{id}", rs.Handle(s.GetPerson))
		r.Get("/teams/{id}", rs.Handle(s.GetTeam))
	}
}

// ListPeople returns a page of people with their teams included.
// People are streamed from the store while the document is built.
func (s *PeopleService) ListPeople(r *http.Request) (any, error) {
	ctx := r.Context()
	page, perPage := jsonapi.ParsePaginationParams(r.URL.Query(), s.perPage)

	total, err := s.people.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count people: %w", err)
	}
	self, err := s.links.Resolve(person.APIRepository, person.LinkPeopleList, nil, nil)
	if err != nil {
		return nil, err
	}
	pagination := jsonapi.NewPagination(total, page, perPage, self.Href)

	var v *view.IteratorView
	v = view.IteratorWithErrors(func(yield func(any, error) bool) {
		var teamIDs []string
		for p, err := range s.people.List(ctx, pagination.Limit(), pagination.Offset()) {
			if err != nil {
				yield(nil, err)
				return
			}
			if p.TeamID != "" {
				teamIDs = append(teamIDs, p.TeamID)
			}
			if !yield(p, nil) {
				return
			}
		}
		// The cursor is closed here, so the team lookup gets a free connection.
		teams, err := s.teams.GetMany(ctx, teamIDs)
		if err != nil {
			yield(nil, fmt.Errorf("load teams: %w", err))
			return
		}
		for _, t := range teams {
			v.AddIncluded(t)
		}
	}, view.WithDocumentCallback(pagination.Apply))

	return v, nil
}

// GetPerson returns one person with their team included.
func (s *PeopleService) GetPerson(r *http.Request) (any, error) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	p, err := s.people.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, person.TypePeople, id)
	}

	v := view.Object(p)
	if p.TeamID != "" {
		team, err := s.teams.Get(ctx, p.TeamID)
		switch {
		case err == nil:
			v.AddIncluded(team)
		case errors.Is(err, ports.ErrNotFound):
			s.logger.Warn().Str("person_id", p.ID).Str("team_id", p.TeamID).Msg("person references a missing team")
		default:
			return nil, fmt.Errorf("load team: %w", err)
		}
	}
	v.Link("self", person.APIRepository, person.LinkPeopleShow, map[string]any{"id": p.ID})
	return v, nil
}

// CreatePerson stores the person sent in the request document and responds
// 201 with its location.
func (s *PeopleService) CreatePerson(r *http.Request) (any, error) {
	ctx := r.Context()

	doc, err := apihttp.DecodeInto[*jsonapi.SingleResourceDocument](r, false)
	if err != nil {
		return nil, err
	}
	p, err := person.FromResource(doc.Resource())
	if err != nil {
		return validationFailed(err)
	}
	if err := person.Validate(p); err != nil {
		return validationFailed(err)
	}
	if p.TeamID != "" {
		if _, err := s.teams.Get(ctx, p.TeamID); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return validationFailed(person.ValidationErrors{{Field: "team", Message: "team does not exist"}})
			}
			return nil, fmt.Errorf("load team: %w", err)
		}
	}

	p.ID = s.idGen.New()
	p.CreatedAt = s.clock.Now()
	if err := s.people.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}

	location, err := s.links.Resolve(person.APIRepository, person.LinkPeopleShow, map[string]any{"id": p.ID}, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("person_id", p.ID).Msg("person created")

	return view.Object(p,
		view.WithStatus(http.StatusCreated),
		view.WithHeader("Location", location.Href),
	), nil
}

// GetTeam returns one team.
func (s *PeopleService) GetTeam(r *http.Request) (any, error) {
	id := chi.URLParam(r, "id")

	team, err := s.teams.Get(r.Context(), id)
	if err != nil {
		return nil, notFound(err, person.TypeTeams, id)
	}

	v := view.Object(team)
	v.Link("self", person.APIRepository, person.LinkTeamsShow, map[string]any{"id": id})
	return v, nil
}

// Seed stores a few teams and people when the person store is empty.
func (s *PeopleService) Seed(ctx context.Context) error {
	n, err := s.people.Count(ctx)
	if err != nil || n > 0 {
		return err
	}

	teams := []person.Team{
		{ID: s.idGen.New(), Name: "Platform"},
		{ID: s.idGen.New(), Name: "Research"},
	}
	for _, t := range teams {
		if err := s.teams.Create(ctx, t); err != nil {
			return fmt.Errorf("seed team: %w", err)
		}
	}
	people := []person.Person{
		{Name: "Ada Lovelace", Email: "ada@example.com", TeamID: teams[1].ID},
		{Name: "Grace Hopper", Email: "grace@example.com", TeamID: teams[0].ID},
		{Name: "Alan Turing", TeamID: teams[1].ID},
	}
	for _, p := range people {
		p.ID = s.idGen.New()
		p.CreatedAt = s.clock.Now()
		if err := s.people.Create(ctx, p); err != nil {
			return fmt.Errorf("seed person: %w", err)
		}
	}
	s.logger.Info().Int("teams", len(teams)).Int("people", len(people)).Msg("seeded demo data")
	return nil
}

func notFound(err error, typ, id string) error {
	if errors.Is(err, ports.ErrNotFound) {
		return &NotFoundError{Type: typ, ID: id}
	}
	return err
}

// validationFailed renders validation errors as a 422 error document.
func validationFailed(err error) (any, error) {
	var errs person.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, err
	}

	objects := make([]jsonapi.Error, 0, len(errs))
	for _, e := range errs {
		objects = append(objects, jsonapi.ErrValidation(pointer(e.Field), e.Message))
	}
	doc := jsonapi.NewErrorDocument(objects...)
	return view.Document(doc, view.WithStatus(http.StatusUnprocessableEntity)), nil
}

func pointer(field string) string {
	switch field {
	case "data", "type":
		return "/data"
	case "team":
		return "/data/relationships/team"
	default:
		return "/data/attributes/" + field
	}
}

// ClassifyError maps service errors to JSON:API error objects.
func ClassifyError(err error) (jsonapi.Error, bool) {
	var notFound *NotFoundError
	switch {
	case errors.As(err, &notFound):
		return jsonapi.ErrNotFoundWithID(notFound.Type, notFound.ID), true
	case errors.Is(err, ports.ErrNotFound):
		return jsonapi.ErrNotFound("resource"), true
	case errors.Is(err, ports.ErrDuplicate):
		return jsonapi.ErrConflict(err.Error()), true
	}
	return jsonapi.Error{}, false
}
