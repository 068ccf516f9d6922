package jsonapi

import (
	"errors"
	"testing"
)

func TestErrorBuilder(t *testing.T) {
	e := NewError(422, "validation_error", "Validation Failed").
		Detailf("%s is too short", "name").
		ID("err-1").
		Pointer("/data/attributes/name").
		Parameter("filter").
		Header("X-Test").
		Meta("min", 3).
		AboutLink("https://example.com/errors/validation").
		Build()

	if e.Status != "422" {
		t.Errorf("Status = %v, want 422", e.Status)
	}
	if e.Detail != "name is too short" {
		t.Errorf("Detail = %v", e.Detail)
	}
	if e.Source == nil || e.Source.Pointer != "/data/attributes/name" || e.Source.Parameter != "filter" || e.Source.Header != "X-Test" {
		t.Errorf("Source = %+v", e.Source)
	}
	if e.Links == nil || e.Links.About != "https://example.com/errors/validation" {
		t.Errorf("Links = %+v", e.Links)
	}
	if e.Meta["min"] != 3 {
		t.Errorf("Meta = %v", e.Meta)
	}
}

func TestErrorToMap(t *testing.T) {
	t.Run("omits empty optional members", func(t *testing.T) {
		m := NewError(404, "not_found", "Not Found").Build().ToMap()

		for _, key := range []string{"id", "detail", "links", "source", "meta"} {
			if _, ok := m[key]; ok {
				t.Errorf("%s should be omitted", key)
			}
		}
		if m["status"] != "404" {
			t.Errorf("status = %v, want \"404\"", m["status"])
		}
	})

	t.Run("includes source pointer", func(t *testing.T) {
		m := ErrValidation("/data/attributes/email", "bad email").ToMap()
		src := m["source"].(map[string]any)
		if src["pointer"] != "/data/attributes/email" {
			t.Errorf("pointer = %v", src["pointer"])
		}
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    Error
		status int
		code   string
	}{
		{"bad request", ErrBadRequest("nope"), 400, "bad_request"},
		{"not found", ErrNotFound("person"), 404, "not_found"},
		{"not found with id", ErrNotFoundWithID("person", "7"), 404, "not_found"},
		{"conflict", ErrConflict("exists"), 409, "conflict"},
		{"validation", ErrValidation("/data/attributes/name", "name is required"), 422, "validation_error"},
		{"internal", ErrInternal(""), 500, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.StatusCode(); got != tt.status {
				t.Errorf("StatusCode() = %d, want %d", got, tt.status)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
		})
	}
}

func TestErrNotFoundWithID(t *testing.T) {
	e := ErrNotFoundWithID("person", "7")
	if e.Detail != "The person with ID '7' was not found" {
		t.Errorf("Detail = %v", e.Detail)
	}
}

func TestErrInternalDefaultDetail(t *testing.T) {
	if ErrInternal("").Detail != "An internal error occurred" {
		t.Errorf("Detail = %v", ErrInternal("").Detail)
	}
}

func TestErrFromError(t *testing.T) {
	t.Run("uses error message", func(t *testing.T) {
		e := ErrFromError(errors.New("boom"))
		if e.Detail != "boom" || e.StatusCode() != 500 {
			t.Errorf("got %+v", e)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		e := ErrFromError(nil)
		if e.StatusCode() != 500 {
			t.Errorf("StatusCode() = %d, want 500", e.StatusCode())
		}
	})
}

func TestStatusCodeInvalid(t *testing.T) {
	if got := (Error{Status: "abc"}).StatusCode(); got != 0 {
		t.Errorf("StatusCode() = %d, want 0", got)
	}
}
