package mapper

import (
	"fmt"
	"reflect"

	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/pkg/jsonapi"
)

// Target is the object being mapped.
type Target struct {
	Object     any
	Value      reflect.Value // dereferenced struct value
	Definition *Definition
}

// MappingHandler fills one aspect of a resource.
type MappingHandler interface {
	Name() string
	Map(t Target, r *jsonapi.Resource) error
}

// Linker is implemented by objects that carry resource-level links.
type Linker interface {
	ResourceLinks() []link.Request
}

// LinkResolver resolves link requests for the link handler.
type LinkResolver interface {
	ResolveRequest(req link.Request) (jsonapi.Link, error)
}

// UnknownHandlerError is returned when a mapper names an unknown handler.
type UnknownHandlerError struct {
	Name string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("mapper: unknown mapping handler %q", e.Name)
}

// Handler names accepted by HandlerByName.
const (
	HandlerAttribute    = "attribute"
	HandlerRelationship = "relationship"
	HandlerMeta         = "meta"
	HandlerLink         = "link"
)

// DefaultHandlers is the handler set used when none is configured.
var DefaultHandlers = []string{HandlerAttribute, HandlerRelationship, HandlerLink}

// Dependencies are the collaborators handlers may need.
type Dependencies struct {
	Links LinkResolver
}

// HandlerByName returns the named mapping handler.
func HandlerByName(name string, deps Dependencies) (MappingHandler, error) {
	switch name {
	case HandlerAttribute:
		return AttributeHandler{}, nil
	case HandlerRelationship:
		return RelationshipHandler{}, nil
	case HandlerMeta:
		return MetaHandler{}, nil
	case HandlerLink:
		if deps.Links == nil {
			return nil, fmt.Errorf("mapper: handler %q needs a link resolver", name)
		}
		return LinkHandler{Links: deps.Links}, nil
	default:
		return nil, &UnknownHandlerError{Name: name}
	}
}

// AttributeHandler copies attr fields into attributes.
type AttributeHandler struct{}

func (AttributeHandler) Name() string { return HandlerAttribute }

func (AttributeHandler) Map(t Target, r *jsonapi.Resource) error {
	for _, f := range t.Definition.Attributes {
		fv := t.Value.FieldByIndex(f.Index)
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		if r.Attributes == nil {
			r.Attributes = make(map[string]any)
		}
		r.Attributes[f.Name] = fv.Interface()
	}
	return nil
}

// MetaHandler copies meta fields into resource meta.
type MetaHandler struct{}

func (MetaHandler) Name() string { return HandlerMeta }

func (MetaHandler) Map(t Target, r *jsonapi.Resource) error {
	for _, f := range t.Definition.Meta {
		fv := t.Value.FieldByIndex(f.Index)
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		if r.Meta == nil {
			r.Meta = make(jsonapi.Meta)
		}
		r.Meta[f.Name] = fv.Interface()
	}
	return nil
}

// RelationshipHandler turns relation fields into resource linkage.
type RelationshipHandler struct{}

func (RelationshipHandler) Name() string { return HandlerRelationship }

func (RelationshipHandler) Map(t Target, r *jsonapi.Resource) error {
	for _, f := range t.Definition.Relationships {
		fv := t.Value.FieldByIndex(f.Index)
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		data, err := linkage(f, fv)
		if err != nil {
			return fmt.Errorf("relationship %s: %w", f.Name, err)
		}
		if r.Relationships == nil {
			r.Relationships = make(map[string]jsonapi.Relationship)
		}
		r.Relationships[f.Name] = jsonapi.Relationship{Data: data}
	}
	return nil
}

func linkage(f Field, fv reflect.Value) (any, error) {
	switch f.kind {
	case relIdentifier, relStringID, relObject:
		fv, ok := deref(fv)
		if !ok {
			return (*jsonapi.ResourceIdentifier)(nil), nil
		}
		ri, ok, err := identifier(f, fv)
		if err != nil || !ok {
			return (*jsonapi.ResourceIdentifier)(nil), err
		}
		return &ri, nil
	default:
		ids := make([]jsonapi.ResourceIdentifier, 0, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			item, ok := deref(fv.Index(i))
			if !ok {
				continue
			}
			ri, ok, err := identifier(f, item)
			if err != nil {
				return nil, err
			}
			if ok {
				ids = append(ids, ri)
			}
		}
		return ids, nil
	}
}

func deref(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, true
}

// identifier returns false for an empty string ID.
func identifier(f Field, v reflect.Value) (jsonapi.ResourceIdentifier, bool, error) {
	switch f.kind {
	case relIdentifier, relIdentifiers:
		return v.Interface().(jsonapi.ResourceIdentifier), true, nil
	case relStringID, relStringIDs:
		if v.String() == "" {
			return jsonapi.ResourceIdentifier{}, false, nil
		}
		return jsonapi.ResourceIdentifier{Type: f.RelatedType, ID: v.String()}, true, nil
	default:
		def, err := Define(v.Type())
		if err != nil {
			return jsonapi.ResourceIdentifier{}, false, err
		}
		return def.Identifier(v), true, nil
	}
}

// LinkHandler resolves the links of objects implementing Linker.
type LinkHandler struct {
	Links LinkResolver
}

func (LinkHandler) Name() string { return HandlerLink }

func (h LinkHandler) Map(t Target, r *jsonapi.Resource) error {
	linker, ok := asLinker(t)
	if !ok {
		return nil
	}
	for _, req := range linker.ResourceLinks() {
		l, err := h.Links.ResolveRequest(req)
		if err != nil {
			return fmt.Errorf("link %s: %w", req.Name, err)
		}
		r.SetLink(req.Name, l)
	}
	return nil
}

func asLinker(t Target) (Linker, bool) {
	if l, ok := t.Object.(Linker); ok {
		return l, true
	}
	// Pointer-receiver implementations on a value object.
	p := reflect.New(t.Value.Type())
	p.Elem().Set(t.Value)
	l, ok := p.Interface().(Linker)
	return l, ok
}
