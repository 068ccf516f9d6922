// Package builder assembles JSON:API documents from views.
//
// Build converts the view's primary objects through an ObjectHandler,
// converts and attaches included objects, resolves link requests and
// finally runs the document callback. Any failure aborts the build and is
// returned unmodified; no partial document is produced.
package builder

import (
	"fmt"

	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/core/view"
	"github.com/artpar/jsonview/pkg/jsonapi"
)

// ObjectHandler converts a domain object into a resource.
// *handler.Registry satisfies it.
type ObjectHandler interface {
	Handle(obj any) (*jsonapi.Resource, error)
}

// LinkResolver resolves a link request.
// *link.Resolver satisfies it.
type LinkResolver interface {
	ResolveRequest(req link.Request) (jsonapi.Link, error)
}

// UnsupportedViewError is returned for a nil view, including a nil variant
// pointer.
type UnsupportedViewError struct {
	View view.View
}

func (e *UnsupportedViewError) Error() string {
	return fmt.Sprintf("unsupported view %T", e.View)
}

// Builder turns views into documents. It keeps no per-build state and is
// safe for concurrent use when its collaborators are.
type Builder struct {
	handler ObjectHandler
	links   LinkResolver
}

// New creates a builder.
func New(handler ObjectHandler, links LinkResolver) *Builder {
	return &Builder{handler: handler, links: links}
}

// Build converts v into a document.
//
// ObjectView yields a *jsonapi.SingleResourceDocument and IteratorView a
// *jsonapi.ResourceCollectionDocument, both stamped with the JSON:API version.
// DocumentView yields its wrapped document without conversion. The resource
// callback runs for primary resources only. The document callback runs last.
func (b *Builder) Build(v view.View) (jsonapi.Document, error) {
	var doc jsonapi.Document

	switch v := view.Variant(v).(type) {
	case *view.ObjectView:
		if v == nil {
			return nil, &UnsupportedViewError{View: v}
		}
		d, err := b.buildSingle(v)
		if err != nil {
			return nil, err
		}
		doc = d
	case *view.IteratorView:
		if v == nil {
			return nil, &UnsupportedViewError{View: v}
		}
		d, err := b.buildCollection(v)
		if err != nil {
			return nil, err
		}
		doc = d
	case *view.DocumentView:
		if v == nil {
			return nil, &UnsupportedViewError{View: v}
		}
		doc = v.Document()
		if doc == nil {
			doc = jsonapi.NewNoDataDocument()
		}
	default:
		return nil, &UnsupportedViewError{View: v}
	}

	attrs := view.AttributesOf(v)
	included, err := b.convertIncluded(attrs.Included())
	if err != nil {
		return nil, err
	}
	requests := attrs.LinkRequests()
	links, err := b.resolveLinks(requests)
	if err != nil {
		return nil, err
	}

	// A DocumentView's document is only touched once nothing can fail.
	for _, r := range included {
		doc.AddIncluded(r)
	}
	for i, req := range requests {
		doc.SetLink(req.Name, links[i])
	}
	if fn := attrs.DocumentCallback(); fn != nil {
		fn(doc)
	}
	return doc, nil
}

func (b *Builder) buildSingle(v *view.ObjectView) (*jsonapi.SingleResourceDocument, error) {
	r, err := b.primary(v.Object(), v.ResourceCallback())
	if err != nil {
		return nil, err
	}
	doc := jsonapi.NewSingleResourceDocument(r)
	doc.SetJSONAPI(jsonapi.NewJSONAPI())
	return doc, nil
}

func (b *Builder) buildCollection(v *view.IteratorView) (*jsonapi.ResourceCollectionDocument, error) {
	doc := jsonapi.NewResourceCollectionDocument()
	callback := v.ResourceCallback()
	for obj, err := range v.All() {
		if err != nil {
			return nil, err
		}
		r, err := b.primary(obj, callback)
		if err != nil {
			return nil, err
		}
		doc.AddResource(r)
	}
	doc.SetJSONAPI(jsonapi.NewJSONAPI())
	return doc, nil
}

func (b *Builder) primary(obj any, callback view.ResourceCallback) (*jsonapi.Resource, error) {
	r, err := b.handler.Handle(obj)
	if err != nil {
		return nil, err
	}
	if callback != nil {
		callback(r)
	}
	return r, nil
}

func (b *Builder) convertIncluded(objects []any) ([]*jsonapi.Resource, error) {
	resources := make([]*jsonapi.Resource, 0, len(objects))
	for _, obj := range objects {
		r, err := b.handler.Handle(obj)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, nil
}

func (b *Builder) resolveLinks(requests []link.Request) ([]jsonapi.Link, error) {
	resolved := make([]jsonapi.Link, len(requests))
	for i, req := range requests {
		l, err := b.links.ResolveRequest(req)
		if err != nil {
			return nil, err
		}
		resolved[i] = l
	}
	return resolved, nil
}
