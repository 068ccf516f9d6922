package jsonapi

import (
	"testing"
)

func TestSingleResourceDocument(t *testing.T) {
	t.Run("data is the resource object", func(t *testing.T) {
		r := NewResource("people", "1").Attr("name", "Ada").Build()
		doc := NewSingleResourceDocument(r)

		data := doc.ToMap()["data"].(map[string]any)
		if data["id"] != "1" || data["type"] != "people" {
			t.Errorf("data = %v", data)
		}
		if doc.Resource() != r {
			t.Error("Resource() should return the same pointer")
		}
	})

	t.Run("nil resource encodes as null", func(t *testing.T) {
		m := NewSingleResourceDocument(nil).ToMap()

		data, ok := m["data"]
		if !ok {
			t.Fatal("data member missing")
		}
		if data != nil {
			t.Errorf("data = %v, want nil", data)
		}
	})

	t.Run("SetResource replaces primary data", func(t *testing.T) {
		doc := NewSingleResourceDocument(nil)
		r := &Resource{Type: "people", ID: "2"}
		doc.SetResource(r)
		if doc.Resource() != r {
			t.Error("SetResource did not replace data")
		}
	})
}

func TestResourceCollectionDocument(t *testing.T) {
	t.Run("empty collection encodes as empty array", func(t *testing.T) {
		data, ok := NewResourceCollectionDocument().ToMap()["data"].([]any)
		if !ok {
			t.Fatal("data should be an array")
		}
		if len(data) != 0 {
			t.Errorf("len(data) = %d, want 0", len(data))
		}
	})

	t.Run("preserves order", func(t *testing.T) {
		doc := NewResourceCollectionDocument(&Resource{Type: "people", ID: "1"})
		doc.AddResource(&Resource{Type: "people", ID: "2"})
		doc.AddResource(&Resource{Type: "people", ID: "3"})

		data := doc.ToMap()["data"].([]any)
		for i, want := range []string{"1", "2", "3"} {
			if got := data[i].(map[string]any)["id"]; got != want {
				t.Errorf("data[%d].id = %v, want %v", i, got, want)
			}
		}
		if len(doc.Resources()) != 3 {
			t.Errorf("len(Resources()) = %d, want 3", len(doc.Resources()))
		}
	})
}

func TestNoDataDocument(t *testing.T) {
	t.Run("has no data member", func(t *testing.T) {
		doc := NewNoDataDocument()
		doc.SetMeta("count", 0)

		m := doc.ToMap()
		if _, ok := m["data"]; ok {
			t.Error("no-data document should not have a data member")
		}
		if m["meta"].(map[string]any)["count"] != 0 {
			t.Errorf("meta = %v", m["meta"])
		}
	})

	t.Run("error document", func(t *testing.T) {
		doc := NewErrorDocument(ErrNotFound("person"), ErrBadRequest("x"))

		if len(doc.Errors()) != 2 {
			t.Fatalf("len(Errors()) = %d, want 2", len(doc.Errors()))
		}
		if doc.JSONAPI() == nil || doc.JSONAPI().Version != Version {
			t.Errorf("JSONAPI() = %v, want version %s", doc.JSONAPI(), Version)
		}
		errs := doc.ToMap()["errors"].([]any)
		if errs[0].(map[string]any)["status"] != "404" {
			t.Errorf("errors[0] = %v", errs[0])
		}
	})

	t.Run("meta document", func(t *testing.T) {
		doc := NewMetaDocument(Meta{"total": 3})
		if doc.Meta()["total"] != 3 {
			t.Errorf("Meta() = %v", doc.Meta())
		}
	})
}

func TestDocumentMembers(t *testing.T) {
	t.Run("links are keyed by name and replaced on reuse", func(t *testing.T) {
		doc := NewNoDataDocument()
		doc.SetLink("self", Link{Href: "/a"})
		doc.SetLink("self", Link{Href: "/b"})

		if len(doc.Links()) != 1 {
			t.Fatalf("len(Links()) = %d, want 1", len(doc.Links()))
		}
		if doc.Links()["self"].Href != "/b" {
			t.Errorf("self = %v, want /b", doc.Links()["self"].Href)
		}
	})

	t.Run("included keeps insertion order", func(t *testing.T) {
		doc := NewSingleResourceDocument(nil)
		doc.AddIncluded(&Resource{Type: "teams", ID: "2"})
		doc.AddIncluded(&Resource{Type: "teams", ID: "1"})

		inc := doc.ToMap()["included"].([]any)
		if inc[0].(map[string]any)["id"] != "2" || inc[1].(map[string]any)["id"] != "1" {
			t.Errorf("included = %v", inc)
		}
	})

	t.Run("absent members are omitted", func(t *testing.T) {
		m := NewSingleResourceDocument(nil).ToMap()
		for _, key := range []string{"jsonapi", "links", "meta", "included", "errors"} {
			if _, ok := m[key]; ok {
				t.Errorf("%s should be omitted", key)
			}
		}
	})
}

func TestDocumentJSON(t *testing.T) {
	r := NewResource("people", "1").Attr("name", "Ada").Build()
	doc := NewSingleResourceDocument(r)
	doc.SetJSONAPI(NewJSONAPI())

	raw, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	want := `{"data":{"attributes":{"name":"Ada"},"id":"1","type":"people"},"jsonapi":{"version":"1.0"}}`
	if string(raw) != want {
		t.Errorf("MarshalJSON() = %s, want %s", raw, want)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		doc  Document
		want string
	}{
		{NewSingleResourceDocument(nil), "single"},
		{NewResourceCollectionDocument(), "collection"},
		{NewNoDataDocument(), "nodata"},
		{nil, "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Kind(tt.doc); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}
