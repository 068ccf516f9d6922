// Package view describes what a document should be built from.
//
// A View is one of *ObjectView, *IteratorView or *DocumentView. The set is
// closed: View's method is unexported and only the three variants define it.
// A type from another package satisfies View only by embedding a variant,
// and Variant recovers that variant. Every variant carries the same
// Attributes: HTTP status and headers, included objects, link requests and
// the two callbacks.
package view

import (
	"errors"
	"iter"
	"net/http"
	"slices"

	"github.com/artpar/jsonview/core/link"
	"github.com/artpar/jsonview/pkg/jsonapi"
)

// ErrIteratorConsumed is returned when an IteratorView is iterated twice.
var ErrIteratorConsumed = errors.New("view: iterator already consumed")

// ResourceCallback mutates a resource in place right after it is built.
type ResourceCallback func(r *jsonapi.Resource)

// DocumentCallback mutates the assembled document in place.
type DocumentCallback func(doc jsonapi.Document)

// View is the closed set of build inputs.
type View interface {
	variant() View
}

// Variant returns the *ObjectView, *IteratorView or *DocumentView behind v,
// or nil for a nil v.
func Variant(v View) View {
	if v == nil {
		return nil
	}
	return v.variant()
}

// AttributesOf returns the shared attributes of v, or nil for a nil v.
func AttributesOf(v View) *Attributes {
	switch v := Variant(v).(type) {
	case *ObjectView:
		return &v.Attributes
	case *IteratorView:
		return &v.Attributes
	case *DocumentView:
		return &v.Attributes
	}
	return nil
}

// Attributes holds everything a view carries besides its payload.
type Attributes struct {
	status   int
	headers  http.Header
	included []any

	resourceCallback ResourceCallback
	documentCallback DocumentCallback

	links     []link.Request
	linkIndex map[string]int
}

func newAttributes() Attributes {
	return Attributes{status: http.StatusOK, headers: make(http.Header)}
}

// Status returns the HTTP status, 200 unless set.
func (a *Attributes) Status() int {
	if a.status == 0 {
		return http.StatusOK
	}
	return a.status
}

// SetStatus sets the HTTP status.
func (a *Attributes) SetStatus(status int) { a.status = status }

// SetHeader sets a header, replacing earlier values for the same name.
func (a *Attributes) SetHeader(name, value string) {
	if a.headers == nil {
		a.headers = make(http.Header)
	}
	a.headers.Set(name, value)
}

// Header returns the value of the named header.
func (a *Attributes) Header(name string) string { return a.headers.Get(name) }

// Headers returns a copy of all headers.
func (a *Attributes) Headers() http.Header { return a.headers.Clone() }

// AddIncluded appends objects to be converted into included resources.
func (a *Attributes) AddIncluded(objects ...any) {
	a.included = append(a.included, objects...)
}

// Included returns the included objects in insertion order.
func (a *Attributes) Included() []any { return slices.Clone(a.included) }

// SetResourceCallback sets the resource callback, replacing any earlier one.
func (a *Attributes) SetResourceCallback(fn ResourceCallback) { a.resourceCallback = fn }

// ResourceCallback returns the resource callback or nil.
func (a *Attributes) ResourceCallback() ResourceCallback { return a.resourceCallback }

// SetDocumentCallback sets the document callback, replacing any earlier one.
func (a *Attributes) SetDocumentCallback(fn DocumentCallback) { a.documentCallback = fn }

// DocumentCallback returns the document callback or nil.
func (a *Attributes) DocumentCallback() DocumentCallback { return a.documentCallback }

// AddLink requests a document link. A request with the same name replaces
// the earlier one in place.
func (a *Attributes) AddLink(req link.Request) {
	if a.linkIndex == nil {
		a.linkIndex = make(map[string]int)
	}
	if i, ok := a.linkIndex[req.Name]; ok {
		a.links[i] = req
		return
	}
	a.linkIndex[req.Name] = len(a.links)
	a.links = append(a.links, req)
}

// Link is shorthand for AddLink with no metadata overrides.
func (a *Attributes) Link(name, repository, linkName string, params map[string]any) {
	a.AddLink(link.Request{Name: name, Repository: repository, Link: linkName, Parameters: params})
}

// LinkRequests returns the link requests in first-added order.
func (a *Attributes) LinkRequests() []link.Request { return slices.Clone(a.links) }

// Option configures a view at construction.
type Option func(*Attributes)

// WithStatus sets the HTTP status.
func WithStatus(status int) Option {
	return func(a *Attributes) { a.SetStatus(status) }
}

// WithHeader sets a header.
func WithHeader(name, value string) Option {
	return func(a *Attributes) { a.SetHeader(name, value) }
}

// WithIncluded adds included objects.
func WithIncluded(objects ...any) Option {
	return func(a *Attributes) { a.AddIncluded(objects...) }
}

// WithLink adds a link request.
func WithLink(req link.Request) Option {
	return func(a *Attributes) { a.AddLink(req) }
}

// WithResourceCallback sets the resource callback.
func WithResourceCallback(fn ResourceCallback) Option {
	return func(a *Attributes) { a.SetResourceCallback(fn) }
}

// WithDocumentCallback sets the document callback.
func WithDocumentCallback(fn DocumentCallback) Option {
	return func(a *Attributes) { a.SetDocumentCallback(fn) }
}

func apply(a *Attributes, opts []Option) {
	for _, opt := range opts {
		opt(a)
	}
}

// ObjectView builds a single-resource document from one object.
type ObjectView struct {
	Attributes
	object any
}

// Object creates an ObjectView.
func Object(obj any, opts ...Option) *ObjectView {
	v := &ObjectView{Attributes: newAttributes(), object: obj}
	apply(&v.Attributes, opts)
	return v
}

func (v *ObjectView) variant() View { return v }

// Object returns the wrapped object.
func (v *ObjectView) Object() any { return v.object }

// IteratorView builds a collection document from a single-pass sequence.
type IteratorView struct {
	Attributes
	seq      iter.Seq2[any, error]
	consumed bool
}

// Iterator creates an IteratorView over seq.
func Iterator(seq iter.Seq[any], opts ...Option) *IteratorView {
	return IteratorWithErrors(func(yield func(any, error) bool) {
		for obj := range seq {
			if !yield(obj, nil) {
				return
			}
		}
	}, opts...)
}

// IteratorWithErrors creates an IteratorView over a sequence that may fail
// mid-way, such as a database cursor.
func IteratorWithErrors(seq iter.Seq2[any, error], opts ...Option) *IteratorView {
	v := &IteratorView{Attributes: newAttributes(), seq: seq}
	apply(&v.Attributes, opts)
	return v
}

// FromSlice creates an IteratorView over items.
func FromSlice[T any](items []T, opts ...Option) *IteratorView {
	return Iterator(func(yield func(any) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}, opts...)
}

func (v *IteratorView) variant() View { return v }

// All returns the wrapped sequence. It can be called once; later calls
// yield ErrIteratorConsumed.
func (v *IteratorView) All() iter.Seq2[any, error] {
	if v.consumed {
		return func(yield func(any, error) bool) {
			yield(nil, ErrIteratorConsumed)
		}
	}
	v.consumed = true
	return v.seq
}

// Consumed reports whether All has been called.
func (v *IteratorView) Consumed() bool { return v.consumed }

// DocumentView wraps a document that is already built.
type DocumentView struct {
	Attributes
	document jsonapi.Document
}

// Document creates a DocumentView.
func Document(doc jsonapi.Document, opts ...Option) *DocumentView {
	v := &DocumentView{Attributes: newAttributes(), document: doc}
	apply(&v.Attributes, opts)
	return v
}

func (v *DocumentView) variant() View { return v }

// Document returns the wrapped document.
func (v *DocumentView) Document() jsonapi.Document { return v.document }

var (
	_ View = (*ObjectView)(nil)
	_ View = (*IteratorView)(nil)
	_ View = (*DocumentView)(nil)
)
