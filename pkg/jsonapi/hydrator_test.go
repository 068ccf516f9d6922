package jsonapi

import (
	"errors"
	"testing"
)

func TestHydrate(t *testing.T) {
	t.Run("single resource document", func(t *testing.T) {
		raw := `{
			"jsonapi": {"version": "1.0"},
			"data": {
				"type": "people", "id": "1",
				"attributes": {"name": "Ada"},
				"relationships": {
					"team": {"data": {"type": "teams", "id": "7"}},
					"mentor": {"data": null},
					"friends": {"data": [{"type": "people", "id": "2"}]}
				},
				"links": {"self": "/people/1"}
			},
			"included": [{"type": "teams", "id": "7"}],
			"links": {"self": {"href": "/people/1", "meta": {"a": 1}}},
			"meta": {"request": "x"}
		}`

		doc, err := Hydrate([]byte(raw))
		if err != nil {
			t.Fatalf("Hydrate() error = %v", err)
		}
		single, ok := doc.(*SingleResourceDocument)
		if !ok {
			t.Fatalf("doc = %T, want *SingleResourceDocument", doc)
		}
		r := single.Resource()
		if r.Attributes["name"] != "Ada" {
			t.Errorf("name = %v", r.Attributes["name"])
		}
		if ri, ok := r.Relationships["team"].Data.(*ResourceIdentifier); !ok || ri.ID != "7" {
			t.Errorf("team = %#v", r.Relationships["team"].Data)
		}
		if ri, ok := r.Relationships["mentor"].Data.(*ResourceIdentifier); !ok || ri != nil {
			t.Errorf("mentor = %#v, want typed nil", r.Relationships["mentor"].Data)
		}
		if ids, ok := r.Relationships["friends"].Data.([]ResourceIdentifier); !ok || len(ids) != 1 {
			t.Errorf("friends = %#v", r.Relationships["friends"].Data)
		}
		if r.Links["self"].Href != "/people/1" {
			t.Errorf("resource self = %v", r.Links["self"])
		}
		if doc.Links()["self"].Meta["a"] != float64(1) {
			t.Errorf("document self meta = %v", doc.Links()["self"].Meta)
		}
		if len(doc.Included()) != 1 {
			t.Errorf("len(Included()) = %d, want 1", len(doc.Included()))
		}
		if doc.JSONAPI() == nil || doc.JSONAPI().Version != "1.0" {
			t.Errorf("JSONAPI() = %v", doc.JSONAPI())
		}
		if doc.Meta()["request"] != "x" {
			t.Errorf("Meta() = %v", doc.Meta())
		}
	})

	t.Run("null data is an empty single document", func(t *testing.T) {
		doc, err := Hydrate([]byte(`{"data": null}`))
		if err != nil {
			t.Fatalf("Hydrate() error = %v", err)
		}
		single, ok := doc.(*SingleResourceDocument)
		if !ok || single.Resource() != nil {
			t.Errorf("doc = %#v", doc)
		}
	})

	t.Run("array data is a collection", func(t *testing.T) {
		doc, err := Hydrate([]byte(`{"data": [{"type": "people", "id": "1"}, {"type": "people", "id": "2"}]}`))
		if err != nil {
			t.Fatalf("Hydrate() error = %v", err)
		}
		coll, ok := doc.(*ResourceCollectionDocument)
		if !ok {
			t.Fatalf("doc = %T", doc)
		}
		if len(coll.Resources()) != 2 || coll.Resources()[1].ID != "2" {
			t.Errorf("resources = %v", coll.Resources())
		}
	})

	t.Run("missing data is a no-data document", func(t *testing.T) {
		doc, err := Hydrate([]byte(`{"errors": [{"status": "404", "title": "Not Found", "source": {"pointer": "/data"}}]}`))
		if err != nil {
			t.Fatalf("Hydrate() error = %v", err)
		}
		if _, ok := doc.(*NoDataDocument); !ok {
			t.Fatalf("doc = %T", doc)
		}
		if len(doc.Errors()) != 1 || doc.Errors()[0].StatusCode() != 404 {
			t.Errorf("errors = %+v", doc.Errors())
		}
		if doc.Errors()[0].Source.Pointer != "/data" {
			t.Errorf("source = %+v", doc.Errors()[0].Source)
		}
	})

	t.Run("resource without id is accepted", func(t *testing.T) {
		doc, err := Hydrate([]byte(`{"data": {"type": "people", "attributes": {"name": "Ada"}}}`))
		if err != nil {
			t.Fatalf("Hydrate() error = %v", err)
		}
		if doc.(*SingleResourceDocument).Resource().ID != "" {
			t.Error("ID should be empty")
		}
	})
}

func TestHydrateInvalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		pointer string
	}{
		{"top level array", `[]`, ""},
		{"data is a string", `{"data": "x"}`, "/data"},
		{"missing type", `{"data": {"id": "1"}}`, "/data/type"},
		{"numeric id", `{"data": {"type": "people", "id": 1}}`, "/data/id"},
		{"attributes not object", `{"data": {"type": "people", "attributes": []}}`, "/data/attributes"},
		{"collection item not object", `{"data": [1]}`, "/data/0"},
		{"identifier without id", `{"data": {"type": "people", "relationships": {"team": {"data": {"type": "teams"}}}}}`, "/data/relationships/team/data/id"},
		{"link without href", `{"links": {"self": {}}}`, "/links/self/href"},
		{"included not array", `{"included": {}}`, "/included"},
		{"meta not object", `{"meta": 1}`, "/meta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Hydrate([]byte(tt.raw))
			var invalid *InvalidDocumentError
			if !errors.As(err, &invalid) {
				t.Fatalf("err = %v, want *InvalidDocumentError", err)
			}
			if invalid.Pointer != tt.pointer {
				t.Errorf("Pointer = %q, want %q", invalid.Pointer, tt.pointer)
			}
		})
	}

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := Hydrate([]byte(`{`))
		if err == nil {
			t.Fatal("expected error")
		}
		var invalid *InvalidDocumentError
		if errors.As(err, &invalid) {
			t.Error("syntax errors should not be InvalidDocumentError")
		}
	})
}
