package jsonapi

import (
	"fmt"
	"strconv"
)

// InvalidDocumentError reports a structurally invalid JSON:API document.
type InvalidDocumentError struct {
	Pointer string // JSON pointer to the offending member
	Reason  string
}

func (e *InvalidDocumentError) Error() string {
	if e.Pointer == "" {
		return "invalid document: " + e.Reason
	}
	return fmt.Sprintf("invalid document at %s: %s", e.Pointer, e.Reason)
}

func invalid(pointer, format string, args ...any) error {
	return &InvalidDocumentError{Pointer: pointer, Reason: fmt.Sprintf(format, args...)}
}

// Hydrate decodes a raw JSON:API document.
//
// A missing "data" member yields a *NoDataDocument, an object or null yields a
// *SingleResourceDocument and an array yields a *ResourceCollectionDocument.
func Hydrate(raw []byte) (Document, error) {
	var decoded any
	if err := Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return HydrateValue(decoded)
}

// HydrateValue builds a document from an already decoded JSON value.
func HydrateValue(decoded any) (Document, error) {
	top, ok := decoded.(map[string]any)
	if !ok {
		return nil, invalid("", "top-level value must be an object")
	}

	var doc Document
	data, hasData := top["data"]
	switch d := data.(type) {
	case nil:
		if hasData {
			doc = NewSingleResourceDocument(nil)
		} else {
			doc = NewNoDataDocument()
		}
	case map[string]any:
		r, err := hydrateResource("/data", d)
		if err != nil {
			return nil, err
		}
		doc = NewSingleResourceDocument(r)
	case []any:
		coll := NewResourceCollectionDocument()
		for i, item := range d {
			pointer := "/data/" + strconv.Itoa(i)
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, invalid(pointer, "resource must be an object")
			}
			r, err := hydrateResource(pointer, obj)
			if err != nil {
				return nil, err
			}
			coll.AddResource(r)
		}
		doc = coll
	default:
		return nil, invalid("/data", "must be an object, an array or null")
	}

	if err := hydrateCommon(doc, top); err != nil {
		return nil, err
	}
	return doc, nil
}

func hydrateCommon(doc Document, top map[string]any) error {
	if v, ok := top["jsonapi"]; ok {
		obj, ok := v.(map[string]any)
		if !ok {
			return invalid("/jsonapi", "must be an object")
		}
		j := JSONAPI{}
		if ver, ok := obj["version"].(string); ok {
			j.Version = ver
		}
		meta, err := hydrateMeta("/jsonapi/meta", obj["meta"])
		if err != nil {
			return err
		}
		j.Meta = meta
		doc.SetJSONAPI(j)
	}

	links, err := hydrateLinks("/links", top["links"])
	if err != nil {
		return err
	}
	for name, l := range links {
		doc.SetLink(name, l)
	}

	meta, err := hydrateMeta("/meta", top["meta"])
	if err != nil {
		return err
	}
	for k, v := range meta {
		doc.SetMeta(k, v)
	}

	if v, ok := top["included"]; ok {
		items, ok := v.([]any)
		if !ok {
			return invalid("/included", "must be an array")
		}
		for i, item := range items {
			pointer := "/included/" + strconv.Itoa(i)
			obj, ok := item.(map[string]any)
			if !ok {
				return invalid(pointer, "resource must be an object")
			}
			r, err := hydrateResource(pointer, obj)
			if err != nil {
				return err
			}
			doc.AddIncluded(r)
		}
	}

	if v, ok := top["errors"]; ok {
		items, ok := v.([]any)
		if !ok {
			return invalid("/errors", "must be an array")
		}
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return invalid("/errors/"+strconv.Itoa(i), "error must be an object")
			}
			doc.AddError(hydrateError(obj))
		}
	}
	return nil
}

func hydrateResource(pointer string, obj map[string]any) (*Resource, error) {
	typ, ok := obj["type"].(string)
	if !ok || typ == "" {
		return nil, invalid(pointer+"/type", "must be a non-empty string")
	}
	r := &Resource{Type: typ}

	switch id := obj["id"].(type) {
	case nil:
	case string:
		r.ID = id
	default:
		return nil, invalid(pointer+"/id", "must be a string")
	}

	if v, ok := obj["attributes"]; ok && v != nil {
		attrs, ok := v.(map[string]any)
		if !ok {
			return nil, invalid(pointer+"/attributes", "must be an object")
		}
		r.Attributes = attrs
	}

	if v, ok := obj["relationships"]; ok && v != nil {
		rels, ok := v.(map[string]any)
		if !ok {
			return nil, invalid(pointer+"/relationships", "must be an object")
		}
		r.Relationships = make(map[string]Relationship, len(rels))
		for name, rv := range rels {
			rel, err := hydrateRelationship(pointer+"/relationships/"+name, rv)
			if err != nil {
				return nil, err
			}
			r.Relationships[name] = rel
		}
	}

	links, err := hydrateLinks(pointer+"/links", obj["links"])
	if err != nil {
		return nil, err
	}
	r.Links = links

	meta, err := hydrateMeta(pointer+"/meta", obj["meta"])
	if err != nil {
		return nil, err
	}
	r.Meta = meta
	return r, nil
}

func hydrateRelationship(pointer string, v any) (Relationship, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Relationship{}, invalid(pointer, "must be an object")
	}
	var rel Relationship
	switch data := obj["data"].(type) {
	case nil:
		if _, ok := obj["data"]; ok {
			rel.Data = (*ResourceIdentifier)(nil)
		}
	case map[string]any:
		ri, err := hydrateIdentifier(pointer+"/data", data)
		if err != nil {
			return Relationship{}, err
		}
		rel.Data = &ri
	case []any:
		ids := make([]ResourceIdentifier, 0, len(data))
		for i, item := range data {
			p := pointer + "/data/" + strconv.Itoa(i)
			m, ok := item.(map[string]any)
			if !ok {
				return Relationship{}, invalid(p, "identifier must be an object")
			}
			ri, err := hydrateIdentifier(p, m)
			if err != nil {
				return Relationship{}, err
			}
			ids = append(ids, ri)
		}
		rel.Data = ids
	default:
		return Relationship{}, invalid(pointer+"/data", "must be an object, an array or null")
	}

	links, err := hydrateLinks(pointer+"/links", obj["links"])
	if err != nil {
		return Relationship{}, err
	}
	rel.Links = links
	meta, err := hydrateMeta(pointer+"/meta", obj["meta"])
	if err != nil {
		return Relationship{}, err
	}
	rel.Meta = meta
	return rel, nil
}

func hydrateIdentifier(pointer string, obj map[string]any) (ResourceIdentifier, error) {
	typ, ok := obj["type"].(string)
	if !ok || typ == "" {
		return ResourceIdentifier{}, invalid(pointer+"/type", "must be a non-empty string")
	}
	id, ok := obj["id"].(string)
	if !ok {
		return ResourceIdentifier{}, invalid(pointer+"/id", "must be a string")
	}
	meta, err := hydrateMeta(pointer+"/meta", obj["meta"])
	if err != nil {
		return ResourceIdentifier{}, err
	}
	return ResourceIdentifier{Type: typ, ID: id, Meta: meta}, nil
}

// hydrateLinks accepts both link forms: a plain URL string or {href, meta}.
func hydrateLinks(pointer string, v any) (Links, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(pointer, "must be an object")
	}
	links := make(Links, len(obj))
	for name, lv := range obj {
		switch l := lv.(type) {
		case nil:
		case string:
			links[name] = Link{Href: l}
		case map[string]any:
			href, ok := l["href"].(string)
			if !ok {
				return nil, invalid(pointer+"/"+name+"/href", "must be a string")
			}
			meta, err := hydrateMeta(pointer+"/"+name+"/meta", l["meta"])
			if err != nil {
				return nil, err
			}
			links[name] = Link{Href: href, Meta: meta}
		default:
			return nil, invalid(pointer+"/"+name, "must be a string or an object")
		}
	}
	return links, nil
}

func hydrateMeta(pointer string, v any) (Meta, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(pointer, "must be an object")
	}
	return Meta(obj), nil
}

func hydrateError(obj map[string]any) Error {
	str := func(m map[string]any, key string) string {
		s, _ := m[key].(string)
		return s
	}
	e := Error{
		ID:     str(obj, "id"),
		Status: str(obj, "status"),
		Code:   str(obj, "code"),
		Title:  str(obj, "title"),
		Detail: str(obj, "detail"),
	}
	if src, ok := obj["source"].(map[string]any); ok {
		e.Source = &ErrorSource{
			Pointer:   str(src, "pointer"),
			Parameter: str(src, "parameter"),
			Header:    str(src, "header"),
		}
	}
	if links, ok := obj["links"].(map[string]any); ok {
		e.Links = &ErrorLinks{About: str(links, "about"), Type: str(links, "type")}
	}
	if meta, ok := obj["meta"].(map[string]any); ok {
		e.Meta = meta
	}
	return e
}
