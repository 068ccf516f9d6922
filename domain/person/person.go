// Package person provides the people and teams served by the demo API.
// This package has NO dependencies on I/O.
package person

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/pkg/jsonapi"
)

// Resource types.
const (
	TypePeople = "people"
	TypeTeams  = "teams"
)

// Link names used by the demo API routes.
const (
	LinkPeopleList = "people.list"
	LinkPeopleShow = "people.show"
	LinkTeamsShow  = "teams.show"
)

// APIRepository is the link repository alias the demo resources link through.
const APIRepository = "api"

// MaxNameLength bounds person and team names.
const MaxNameLength = 100

// Person is a member of an optional team.
type Person struct {
	ID        string    `jsonapi:"primary,people"`
	Name      string    `jsonapi:"attr,name"`
	Email     string    `jsonapi:"attr,email,omitempty"`
	TeamID    string    `jsonapi:"relation,team,teams,omitempty"`
	CreatedAt time.Time `jsonapi:"meta,created_at"`
}

// ResourceLinks returns the self link of the person.
func (p Person) ResourceLinks() []link.Request {
	return []link.Request{{
		Name:       "self",
		Repository: APIRepository,
		Link:       LinkPeopleShow,
		Parameters: map[string]any{"id": p.ID},
	}}
}

// Team groups people.
type Team struct {
	ID   string `jsonapi:"primary,teams"`
	Name string `jsonapi:"attr,name"`
}

// ResourceLinks returns the self link of the team.
func (t Team) ResourceLinks() []link.Request {
	return []link.Request{{
		Name:       "self",
		Repository: APIRepository,
		Link:       LinkTeamsShow,
		Parameters: map[string]any{"id": t.ID},
	}}
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every invalid field of an input.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validate checks p and returns nil or ValidationErrors.
func Validate(p Person) error {
	var errs ValidationErrors
	errs = append(errs, validateName(p.Name)...)
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			errs = append(errs, ValidationError{Field: "email", Message: "must be a valid email address"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateTeam checks t and returns nil or ValidationErrors.
func ValidateTeam(t Team) error {
	if errs := validateName(t.Name); len(errs) > 0 {
		return errs
	}
	return nil
}

func validateName(name string) ValidationErrors {
	switch {
	case strings.TrimSpace(name) == "":
		return ValidationErrors{{Field: "name", Message: "name is required"}}
	case utf8.RuneCountInString(name) > MaxNameLength:
		return ValidationErrors{{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}}
	}
	return nil
}

// FromResource reads a person from a request resource. The ID is ignored;
// the server assigns one.
func FromResource(r *jsonapi.Resource) (Person, error) {
	if r == nil {
		return Person{}, ValidationErrors{{Field: "data", Message: "resource is required"}}
	}
	if r.Type != TypePeople {
		return Person{}, ValidationErrors{{Field: "type", Message: fmt.Sprintf("must be %q", TypePeople)}}
	}

	var (
		p    Person
		errs ValidationErrors
	)
	str := func(field string) string {
		v, ok := r.Attributes[field]
		if !ok || v == nil {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			errs = append(errs, ValidationError{Field: field, Message: "must be a string"})
		}
		return s
	}
	p.Name = str("name")
	p.Email = str("email")

	if rel, ok := r.Relationships["team"]; ok {
		switch data := rel.Data.(type) {
		case *jsonapi.ResourceIdentifier:
			if data != nil {
				if data.Type != TypeTeams {
					errs = append(errs, ValidationError{Field: "team", Message: fmt.Sprintf("must reference %q", TypeTeams)})
				}
				p.TeamID = data.ID
			}
		case nil:
		default:
			errs = append(errs, ValidationError{Field: "team", Message: "must be a to-one relationship"})
		}
	}

	if len(errs) > 0 {
		return Person{}, errs
	}
	return p, nil
}
