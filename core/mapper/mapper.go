// Package mapper converts tagged structs into JSON:API resources.
//
// Fields are described with the jsonapi struct tag:
//
//	type Person struct {
//		ID     string `jsonapi:"primary,people"`
//		Name   string `jsonapi:"attr,name"`
//		TeamID string `jsonapi:"relation,team,teams,omitempty"`
//		Rev    int    `jsonapi:"meta,revision"`
//	}
//
// A Mapper runs its mapping handlers in order over each object. MapperHandler
// plugs a Mapper into the object handler registry.
package mapper

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/artpar/jsonview/core/handler"
	"github.com/artpar/jsonview/pkg/jsonapi"
)

// Mapper maps registered struct types to resources.
type Mapper struct {
	name     string
	handlers []MappingHandler

	mu         sync.RWMutex
	registered map[string]*Definition
}

// New creates a mapper running handlers in order.
func New(name string, handlers ...MappingHandler) *Mapper {
	return &Mapper{
		name:       name,
		handlers:   handlers,
		registered: make(map[string]*Definition),
	}
}

// NewFromNames creates a mapper from handler names.
func NewFromNames(name string, handlerNames []string, deps Dependencies) (*Mapper, error) {
	if len(handlerNames) == 0 {
		handlerNames = DefaultHandlers
	}
	handlers := make([]MappingHandler, 0, len(handlerNames))
	for _, n := range handlerNames {
		h, err := HandlerByName(n, deps)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	return New(name, handlers...), nil
}

// Name returns the mapper name.
func (m *Mapper) Name() string { return m.name }

// HandlerNames returns the names of the handlers in run order.
func (m *Mapper) HandlerNames() []string {
	names := make([]string, len(m.handlers))
	for i, h := range m.handlers {
		names[i] = h.Name()
	}
	return names
}

// Register defines the types of samples and marks them as supported.
// Samples may be values or pointers.
func (m *Mapper) Register(samples ...any) error {
	for _, s := range samples {
		if s == nil {
			return &DefinitionError{Type: "<nil>", Reason: "nil sample"}
		}
		def, err := Define(reflect.TypeOf(s))
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.registered[handler.NameOf(def.Type)] = def
		m.mu.Unlock()
	}
	return nil
}

// Supports reports whether the named type was registered. Names are those
// returned by handler.TypeName.
func (m *Mapper) Supports(typeName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.registered[typeName]
	return ok
}

// Map converts obj into a resource. obj need not be registered.
func (m *Mapper) Map(obj any) (*jsonapi.Resource, error) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("mapper %s: nil %s", m.name, v.Type())
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, &DefinitionError{Type: "<nil>", Reason: "nil object"}
	}

	def, err := Define(v.Type())
	if err != nil {
		return nil, err
	}

	r := &jsonapi.Resource{Type: def.ResourceType, ID: def.ID(v)}
	target := Target{Object: obj, Value: v, Definition: def}
	for _, h := range m.handlers {
		if err := h.Map(target, r); err != nil {
			return nil, fmt.Errorf("mapper %s: %s handler: %w", m.name, h.Name(), err)
		}
	}
	return r, nil
}

// MapperHandler adapts a Mapper to handler.Handler.
type MapperHandler struct {
	Mapper *Mapper
}

// NewHandler returns a registry handler backed by m.
func NewHandler(m *Mapper) *MapperHandler {
	return &MapperHandler{Mapper: m}
}

// Supports reports whether the mapper registered the type.
func (h *MapperHandler) Supports(typeName string) bool {
	return h.Mapper.Supports(typeName)
}

// Handle maps obj.
func (h *MapperHandler) Handle(obj any) (*jsonapi.Resource, error) {
	return h.Mapper.Map(obj)
}

var _ handler.Handler = (*MapperHandler)(nil)
