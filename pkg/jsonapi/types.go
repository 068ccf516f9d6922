// Package jsonapi provides JSON:API specification compliant document types.
// See https://jsonapi.org for the full specification.
package jsonapi

// Resource represents a JSON:API resource object.
// Two resources are the same resource when their (type, id) pairs are equal.
type Resource struct {
	Type          string
	ID            string
	Attributes    map[string]any
	Relationships map[string]Relationship
	Links         Links
	Meta          Meta
}

// ResourceIdentifier represents a resource linkage (type + id only).
type ResourceIdentifier struct {
	Type string
	ID   string
	Meta Meta
}

// Relationship represents a relationship to one or more resources.
type Relationship struct {
	// Data is *ResourceIdentifier (to-one, nil for empty), []ResourceIdentifier (to-many)
	// or nil when only links/meta are present.
	Data  any
	Links Links
	Meta  Meta
}

// Link is a JSON:API link object.
type Link struct {
	Href string
	Meta Meta
}

// Links maps link names to link objects. Names are unique.
type Links map[string]Link

// Error represents a JSON:API error object.
type Error struct {
	ID     string       `json:"id,omitempty"`
	Links  *ErrorLinks  `json:"links,omitempty"`
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// ErrorLinks represents links within an error object.
type ErrorLinks struct {
	About string `json:"about,omitempty"`
	Type  string `json:"type,omitempty"`
}

// ErrorSource indicates the source of an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`   // JSON pointer to offending field
	Parameter string `json:"parameter,omitempty"` // Query parameter that caused error
	Header    string `json:"header,omitempty"`    // Header that caused error
}

// Meta represents arbitrary metadata.
type Meta map[string]any

// JSONAPI represents the JSON:API version object.
type JSONAPI struct {
	Version string
	Meta    Meta
}

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// Version is the JSON:API specification version stamped on built documents.
const Version = "1.0"

// NewJSONAPI returns the version object for Version.
func NewJSONAPI() JSONAPI {
	return JSONAPI{Version: Version}
}

// Identifier returns the resource linkage of r.
func (r *Resource) Identifier() ResourceIdentifier {
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// SameAs reports whether r and other identify the same resource.
func (r *Resource) SameAs(other *Resource) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Type == other.Type && r.ID == other.ID
}

// SetLink sets a resource-level link, replacing any link with the same name.
func (r *Resource) SetLink(name string, l Link) {
	if r.Links == nil {
		r.Links = make(Links)
	}
	r.Links[name] = l
}

// ToMap returns the wire shape of the resource object.
func (r *Resource) ToMap() map[string]any {
	out := map[string]any{
		"type": r.Type,
	}
	if r.ID != "" {
		out["id"] = r.ID
	}
	if len(r.Attributes) > 0 {
		attrs := make(map[string]any, len(r.Attributes))
		for k, v := range r.Attributes {
			attrs[k] = v
		}
		out["attributes"] = attrs
	}
	if len(r.Relationships) > 0 {
		rels := make(map[string]any, len(r.Relationships))
		for name, rel := range r.Relationships {
			rels[name] = rel.ToMap()
		}
		out["relationships"] = rels
	}
	if len(r.Links) > 0 {
		out["links"] = r.Links.ToMap()
	}
	if len(r.Meta) > 0 {
		out["meta"] = map[string]any(r.Meta)
	}
	return out
}

// ToMap returns the wire shape of the identifier.
func (ri ResourceIdentifier) ToMap() map[string]any {
	out := map[string]any{"type": ri.Type, "id": ri.ID}
	if len(ri.Meta) > 0 {
		out["meta"] = map[string]any(ri.Meta)
	}
	return out
}

// ToMap returns the wire shape of the relationship.
func (rel Relationship) ToMap() map[string]any {
	out := make(map[string]any)
	switch data := rel.Data.(type) {
	case *ResourceIdentifier:
		if data == nil {
			out["data"] = nil
		} else {
			out["data"] = data.ToMap()
		}
	case ResourceIdentifier:
		out["data"] = data.ToMap()
	case []ResourceIdentifier:
		items := make([]any, len(data))
		for i, ri := range data {
			items[i] = ri.ToMap()
		}
		out["data"] = items
	case nil:
		if len(rel.Links) == 0 && len(rel.Meta) == 0 {
			out["data"] = nil
		}
	}
	if len(rel.Links) > 0 {
		out["links"] = rel.Links.ToMap()
	}
	if len(rel.Meta) > 0 {
		out["meta"] = map[string]any(rel.Meta)
	}
	return out
}

// ToMap returns the wire shape of the link object.
func (l Link) ToMap() map[string]any {
	out := map[string]any{"href": l.Href}
	if len(l.Meta) > 0 {
		out["meta"] = map[string]any(l.Meta)
	}
	return out
}

// ToMap returns the wire shape of the links member.
func (ls Links) ToMap() map[string]any {
	out := make(map[string]any, len(ls))
	for name, l := range ls {
		out[name] = l.ToMap()
	}
	return out
}

// ToMap returns the wire shape of the version object.
func (j JSONAPI) ToMap() map[string]any {
	out := map[string]any{"version": j.Version}
	if len(j.Meta) > 0 {
		out["meta"] = map[string]any(j.Meta)
	}
	return out
}
