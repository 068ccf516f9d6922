// Package handler maps domain objects to JSON:API resources.
//
// Handlers are scanned in registration order and the first one whose
// Supports reports true for an object's type name wins. Type names carry the
// full import path, so same-named types from different packages stay
// distinct. The match is memoized per type name, so a handler is never re-queried for a type
// it has already been resolved for. Registration order therefore matters
// when handlers overlap.
package handler

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/muir/reflectutils"
)

// Handler converts objects of the types it supports into resources.
type Handler interface {
	// Supports reports whether the handler can convert objects of the named type.
	Supports(typeName string) bool

	// Handle converts obj. The registry only calls it for supported types.
	Handle(obj any) (*jsonapi.Resource, error)
}

// UnsupportedTypeError is returned when no registered handler supports a type.
type UnsupportedTypeError struct {
	TypeName string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("no object handler supports type %s", e.TypeName)
}

// Registry resolves handlers for objects.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler

	// type name -> Handler
	cache sync.Map
}

// NewRegistry creates a registry with the given handlers in order.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register appends a handler to the scan order.
// Types already resolved keep their memoized handler.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Handle converts obj into a resource.
// A *jsonapi.Resource is returned as is.
func (r *Registry) Handle(obj any) (*jsonapi.Resource, error) {
	if res, ok := obj.(*jsonapi.Resource); ok {
		return res, nil
	}

	h, err := r.Resolve(TypeName(obj))
	if err != nil {
		return nil, err
	}
	return h.Handle(obj)
}

// Resolve returns the handler for the named type.
func (r *Registry) Resolve(typeName string) (Handler, error) {
	if h, ok := r.cache.Load(typeName); ok {
		return h.(Handler), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handlers {
		if h.Supports(typeName) {
			// Concurrent misses store the same first match.
			r.cache.Store(typeName, h)
			return h, nil
		}
	}
	return nil, &UnsupportedTypeError{TypeName: typeName}
}

// TypeName returns the name handlers are matched against.
// Pointers are dereferenced, so T and *T share a name.
func TypeName(obj any) string {
	if obj == nil {
		return "<nil>"
	}
	return NameOf(reflect.TypeOf(obj))
}

// TypeNameOf returns the name for type T.
func TypeNameOf[T any]() string {
	return NameOf(reflect.TypeFor[T]())
}

// NameOf returns the name for t. Named types are qualified by import path,
// as in "github.com/acme/app/domain.Person". Unnamed types use their
// printed form.
func NameOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return reflectutils.TypeName(t)
}

// Func adapts a conversion function for type T into a Handler.
// Both T and *T values are accepted.
func Func[T any](convert func(T) (*jsonapi.Resource, error)) Handler {
	return funcHandler[T]{name: TypeNameOf[T](), convert: convert}
}

type funcHandler[T any] struct {
	name    string
	convert func(T) (*jsonapi.Resource, error)
}

func (f funcHandler[T]) Supports(typeName string) bool {
	return typeName == f.name
}

func (f funcHandler[T]) Handle(obj any) (*jsonapi.Resource, error) {
	switch v := obj.(type) {
	case T:
		return f.convert(v)
	case *T:
		if v == nil {
			return nil, &UnsupportedTypeError{TypeName: f.name}
		}
		return f.convert(*v)
	default:
		return nil, &UnsupportedTypeError{TypeName: TypeName(obj)}
	}
}
