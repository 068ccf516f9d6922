package mapper

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/artpar/jsonview/pkg/jsonapi"
	"github.com/muir/reflectutils"
)

const tagName = "jsonapi"

// DefinitionError reports a struct that cannot be mapped.
type DefinitionError struct {
	Type   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("mapper: cannot map %s: %s", e.Type, e.Reason)
}

// Definition describes how a struct type maps to a resource.
type Definition struct {
	Type         reflect.Type
	ResourceType string

	id            []int
	Attributes    []Field
	Relationships []Field
	Meta          []Field
}

// Field is one tagged struct field.
type Field struct {
	Name      string
	Index     []int
	OmitEmpty bool

	// RelatedType is the resource type for string ID relationships.
	RelatedType string
	kind        relationKind
}

type relationKind int

const (
	relNone relationKind = iota
	relIdentifier
	relIdentifiers
	relStringID
	relStringIDs
	relObject
	relObjects
)

var (
	identifierType = reflect.TypeFor[jsonapi.ResourceIdentifier]()
	definitions    sync.Map // reflect.Type -> *Definition
)

// Define returns the mapping definition for struct type t (or a pointer to it).
// Definitions are computed once per type.
func Define(t reflect.Type) (*Definition, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := definitions.Load(t); ok {
		return d.(*Definition), nil
	}
	d, err := define(t)
	if err != nil {
		return nil, err
	}
	actual, _ := definitions.LoadOrStore(t, d)
	return actual.(*Definition), nil
}

func define(t reflect.Type) (*Definition, error) {
	name := reflectutils.TypeName(t)
	if t.Kind() != reflect.Struct {
		return nil, &DefinitionError{Type: name, Reason: "not a struct"}
	}

	d := &Definition{Type: t}
	fail := func(format string, args ...any) error {
		return &DefinitionError{Type: name, Reason: fmt.Sprintf(format, args...)}
	}

	err := reflectutils.WalkStructElementsWithError(t, func(f reflect.StructField) error {
		tag, ok := f.Tag.Lookup(tagName)
		if !ok || tag == "-" {
			// Only embedded structs are walked into.
			if f.Anonymous && f.IsExported() {
				return nil
			}
			return reflectutils.DoNotRecurseSignalErr
		}
		if !f.IsExported() {
			return fail("field %s is tagged but unexported", f.Name)
		}

		parts := strings.Split(tag, ",")
		kind := parts[0]
		var fieldName string
		if len(parts) > 1 {
			fieldName = parts[1]
		}
		opts := parts[min(2, len(parts)):]

		switch kind {
		case "primary":
			if d.id != nil {
				return fail("more than one primary field")
			}
			if fieldName == "" {
				return fail("primary field %s has no resource type", f.Name)
			}
			d.ResourceType = fieldName
			d.id = f.Index
		case "attr", "meta":
			if fieldName == "" {
				return fail("field %s has no name", f.Name)
			}
			field := Field{Name: fieldName, Index: f.Index, OmitEmpty: hasOption(opts, "omitempty")}
			if kind == "attr" {
				if fieldName == "id" || fieldName == "type" {
					return fail("attribute %q is reserved", fieldName)
				}
				d.Attributes = append(d.Attributes, field)
			} else {
				d.Meta = append(d.Meta, field)
			}
		case "relation":
			if fieldName == "" {
				return fail("relation field %s has no name", f.Name)
			}
			field := Field{Name: fieldName, Index: f.Index}
			for _, opt := range opts {
				if opt == "omitempty" {
					field.OmitEmpty = true
				} else if opt != "" {
					field.RelatedType = opt
				}
			}
			field.kind = relationKindOf(f.Type, field.RelatedType != "")
			if field.kind == relNone {
				return fail("relation field %s has unsupported type %s", f.Name, f.Type)
			}
			d.Relationships = append(d.Relationships, field)
		default:
			return fail("field %s has unknown tag kind %q", f.Name, kind)
		}
		return reflectutils.DoNotRecurseSignalErr
	})
	if err != nil {
		return nil, err
	}
	if d.id == nil {
		return nil, &DefinitionError{Type: name, Reason: "no primary field"}
	}
	return d, nil
}

func hasOption(opts []string, name string) bool {
	for _, o := range opts {
		if o == name {
			return true
		}
	}
	return false
}

func relationKindOf(t reflect.Type, hasRelatedType bool) relationKind {
	elem := t
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	switch {
	case elem == identifierType:
		return relIdentifier
	case elem.Kind() == reflect.String && hasRelatedType:
		return relStringID
	case elem.Kind() == reflect.Struct:
		return relObject
	}

	if t.Kind() != reflect.Slice {
		return relNone
	}
	item := t.Elem()
	if item.Kind() == reflect.Pointer {
		item = item.Elem()
	}
	switch {
	case item == identifierType:
		return relIdentifiers
	case item.Kind() == reflect.String && hasRelatedType:
		return relStringIDs
	case item.Kind() == reflect.Struct:
		return relObjects
	}
	return relNone
}

// ID returns the primary identifier of v, which must be of the defined type.
func (d *Definition) ID(v reflect.Value) string {
	f := v.FieldByIndex(d.id)
	if f.Kind() == reflect.String {
		return f.String()
	}
	return fmt.Sprint(f.Interface())
}

// Identifier returns the resource linkage of v.
func (d *Definition) Identifier(v reflect.Value) jsonapi.ResourceIdentifier {
	return jsonapi.ResourceIdentifier{Type: d.ResourceType, ID: d.ID(v)}
}
