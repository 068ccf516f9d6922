package view

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/pkg/jsonapi"
)

func TestAttributesDefaults(t *testing.T) {
	v := Object("x")

	if v.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want 200", v.Status())
	}
	if len(v.Headers()) != 0 {
		t.Errorf("Headers() = %v, want empty", v.Headers())
	}
	if v.ResourceCallback() != nil || v.DocumentCallback() != nil {
		t.Error("callbacks should be unset")
	}
	if v.Object() != "x" {
		t.Errorf("Object() = %v", v.Object())
	}
}

func TestAttributesHeaders(t *testing.T) {
	v := Object(nil, WithHeader("X-Trace", "a"))
	v.SetHeader("x-trace", "b")

	if got := v.Headers().Values("X-Trace"); len(got) != 1 || got[0] != "b" {
		t.Errorf("X-Trace = %v, want [b]", got)
	}

	h := v.Headers()
	h.Set("X-Trace", "mutated")
	if v.Header("X-Trace") != "b" {
		t.Error("Headers() should return a copy")
	}
}

func TestAttributesIncludedOrder(t *testing.T) {
	v := Object(nil, WithIncluded("a", "b"))
	v.AddIncluded("c")

	got := v.Included()
	want := []any{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Included() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Included()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAttributesCallbacksAreSingleSlot(t *testing.T) {
	var calls []string
	v := Object(nil,
		WithResourceCallback(func(*jsonapi.Resource) { calls = append(calls, "r1") }),
		WithDocumentCallback(func(jsonapi.Document) { calls = append(calls, "d1") }),
	)
	v.SetResourceCallback(func(*jsonapi.Resource) { calls = append(calls, "r2") })
	v.SetDocumentCallback(func(jsonapi.Document) { calls = append(calls, "d2") })

	v.ResourceCallback()(nil)
	v.DocumentCallback()(nil)

	if len(calls) != 2 || calls[0] != "r2" || calls[1] != "d2" {
		t.Errorf("calls = %v, want [r2 d2]", calls)
	}
}

func TestAttributesLinks(t *testing.T) {
	v := Object(nil, WithLink(link.Request{Name: "self", Repository: "api", Link: "a"}))
	v.Link("related", "api", "b", nil)
	v.Link("self", "api", "c", map[string]any{"id": 1})

	reqs := v.LinkRequests()
	if len(reqs) != 2 {
		t.Fatalf("len(LinkRequests()) = %d, want 2", len(reqs))
	}
	if reqs[0].Name != "self" || reqs[0].Link != "c" {
		t.Errorf("reqs[0] = %+v, want self replaced in place", reqs[0])
	}
	if reqs[1].Name != "related" {
		t.Errorf("reqs[1] = %+v", reqs[1])
	}
}

func TestOptions(t *testing.T) {
	v := Document(jsonapi.NewNoDataDocument(), WithStatus(http.StatusCreated))

	if v.Status() != http.StatusCreated {
		t.Errorf("Status() = %d, want 201", v.Status())
	}
	if v.Document() == nil {
		t.Error("Document() should return the wrapped document")
	}
	if AttributesOf(v) != &v.Attributes {
		t.Error("AttributesOf should return the embedded attributes")
	}
}

func TestIteratorView(t *testing.T) {
	t.Run("yields in order", func(t *testing.T) {
		v := FromSlice([]int{1, 2, 3})

		var got []any
		for obj, err := range v.All() {
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			got = append(got, obj)
		}
		if len(got) != 3 || got[0] != 1 || got[2] != 3 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("second pass reports consumption", func(t *testing.T) {
		v := FromSlice([]string{"a"})
		for range v.All() {
		}
		if !v.Consumed() {
			t.Fatal("Consumed() should be true")
		}

		var gotErr error
		for _, err := range v.All() {
			gotErr = err
		}
		if !errors.Is(gotErr, ErrIteratorConsumed) {
			t.Errorf("err = %v, want ErrIteratorConsumed", gotErr)
		}
	})

	t.Run("is lazy", func(t *testing.T) {
		pulled := 0
		v := Iterator(func(yield func(any) bool) {
			for i := 0; i < 3; i++ {
				pulled++
				if !yield(i) {
					return
				}
			}
		})
		if pulled != 0 {
			t.Fatalf("sequence pulled %d items before iteration", pulled)
		}
		for range v.All() {
			break
		}
		if pulled != 1 {
			t.Errorf("pulled = %d, want 1", pulled)
		}
	})

	t.Run("propagates sequence errors", func(t *testing.T) {
		boom := errors.New("cursor closed")
		v := IteratorWithErrors(func(yield func(any, error) bool) {
			if !yield(1, nil) {
				return
			}
			yield(nil, boom)
		})

		var gotErr error
		for _, err := range v.All() {
			if err != nil {
				gotErr = err
			}
		}
		if !errors.Is(gotErr, boom) {
			t.Errorf("err = %v, want %v", gotErr, boom)
		}
	})
}

func TestZeroValueView(t *testing.T) {
	var v ObjectView

	if v.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want 200", v.Status())
	}
	v.SetHeader("X-Trace", "abc")
	if got := v.Header("X-Trace"); got != "abc" {
		t.Errorf("Header() = %q, want abc", got)
	}
	v.Link("self", "api", "people.show", nil)
	if len(v.LinkRequests()) != 1 {
		t.Errorf("LinkRequests() = %v", v.LinkRequests())
	}
}

func TestVariant(t *testing.T) {
	obj := Object("x")
	if Variant(obj) != View(obj) {
		t.Error("Variant should return the view itself")
	}
	if Variant(nil) != nil || AttributesOf(nil) != nil {
		t.Error("nil view should have no variant or attributes")
	}

	embedded := struct{ *IteratorView }{FromSlice([]int{1})}
	if Variant(embedded) != View(embedded.IteratorView) {
		t.Error("Variant should recover an embedded variant")
	}
	if AttributesOf(embedded) != &embedded.IteratorView.Attributes {
		t.Error("AttributesOf should follow the embedded variant")
	}

	viewType := reflect.TypeFor[View]()
	for _, typ := range []reflect.Type{
		reflect.TypeFor[*Attributes](),
		reflect.TypeFor[*struct{ Attributes }](),
	} {
		if typ.Implements(viewType) {
			t.Errorf("%s should not implement View", typ)
		}
	}
}
