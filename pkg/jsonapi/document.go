package jsonapi

// Document is a JSON:API top-level document.
// Implementations are *SingleResourceDocument, *ResourceCollectionDocument and *NoDataDocument.
type Document interface {
	// SetLink sets a top-level link. Setting an existing name replaces it.
	SetLink(name string, l Link)
	Links() Links

	SetJSONAPI(j JSONAPI)
	JSONAPI() *JSONAPI

	AddIncluded(r *Resource)
	Included() []*Resource

	SetMeta(key string, value any)
	Meta() Meta

	AddError(e Error)
	Errors() []Error

	// ToMap returns the wire shape of the document, ready for encoding.
	ToMap() map[string]any

	MarshalJSON() ([]byte, error)
}

// base holds the members shared by every document variant.
type base struct {
	links    Links
	jsonapi  *JSONAPI
	included []*Resource
	meta     Meta
	errors   []Error
}

func (d *base) SetLink(name string, l Link) {
	if d.links == nil {
		d.links = make(Links)
	}
	d.links[name] = l
}

func (d *base) Links() Links { return d.links }

func (d *base) SetJSONAPI(j JSONAPI) { d.jsonapi = &j }

func (d *base) JSONAPI() *JSONAPI { return d.jsonapi }

func (d *base) AddIncluded(r *Resource) { d.included = append(d.included, r) }

func (d *base) Included() []*Resource { return d.included }

func (d *base) SetMeta(key string, value any) {
	if d.meta == nil {
		d.meta = make(Meta)
	}
	d.meta[key] = value
}

func (d *base) Meta() Meta { return d.meta }

func (d *base) AddError(e Error) { d.errors = append(d.errors, e) }

func (d *base) Errors() []Error { return d.errors }

func (d *base) toMap(out map[string]any) map[string]any {
	if d.jsonapi != nil {
		out["jsonapi"] = d.jsonapi.ToMap()
	}
	if len(d.links) > 0 {
		out["links"] = d.links.ToMap()
	}
	if len(d.meta) > 0 {
		out["meta"] = map[string]any(d.meta)
	}
	if len(d.included) > 0 {
		included := make([]any, len(d.included))
		for i, r := range d.included {
			included[i] = r.ToMap()
		}
		out["included"] = included
	}
	if len(d.errors) > 0 {
		errs := make([]any, len(d.errors))
		for i, e := range d.errors {
			errs[i] = e.ToMap()
		}
		out["errors"] = errs
	}
	return out
}

// SingleResourceDocument carries one primary resource (or null).
type SingleResourceDocument struct {
	base
	resource *Resource
}

// NewSingleResourceDocument creates a document with r as primary data.
func NewSingleResourceDocument(r *Resource) *SingleResourceDocument {
	return &SingleResourceDocument{resource: r}
}

// Resource returns the primary resource, nil for null data.
func (d *SingleResourceDocument) Resource() *Resource { return d.resource }

// SetResource replaces the primary resource.
func (d *SingleResourceDocument) SetResource(r *Resource) { d.resource = r }

// ToMap returns the wire shape of the document.
func (d *SingleResourceDocument) ToMap() map[string]any {
	out := make(map[string]any)
	if d.resource == nil {
		out["data"] = nil
	} else {
		out["data"] = d.resource.ToMap()
	}
	return d.toMap(out)
}

// MarshalJSON encodes the document.
func (d *SingleResourceDocument) MarshalJSON() ([]byte, error) { return Marshal(d.ToMap()) }

// ResourceCollectionDocument carries an ordered list of primary resources.
type ResourceCollectionDocument struct {
	base
	resources []*Resource
}

// NewResourceCollectionDocument creates a collection document.
func NewResourceCollectionDocument(resources ...*Resource) *ResourceCollectionDocument {
	return &ResourceCollectionDocument{resources: resources}
}

// AddResource appends a primary resource.
func (d *ResourceCollectionDocument) AddResource(r *Resource) {
	d.resources = append(d.resources, r)
}

// Resources returns primary resources in insertion order.
func (d *ResourceCollectionDocument) Resources() []*Resource { return d.resources }

// ToMap returns the wire shape of the document. Empty collections encode as [].
func (d *ResourceCollectionDocument) ToMap() map[string]any {
	data := make([]any, len(d.resources))
	for i, r := range d.resources {
		data[i] = r.ToMap()
	}
	return d.toMap(map[string]any{"data": data})
}

// MarshalJSON encodes the document.
func (d *ResourceCollectionDocument) MarshalJSON() ([]byte, error) { return Marshal(d.ToMap()) }

// NoDataDocument has no primary data member: error and meta-only documents.
type NoDataDocument struct {
	base
}

// NewNoDataDocument creates a document without primary data.
func NewNoDataDocument() *NoDataDocument {
	return &NoDataDocument{}
}

// ToMap returns the wire shape of the document.
func (d *NoDataDocument) ToMap() map[string]any {
	return d.toMap(make(map[string]any))
}

// MarshalJSON encodes the document.
func (d *NoDataDocument) MarshalJSON() ([]byte, error) { return Marshal(d.ToMap()) }

// NewErrorDocument is a convenience function for creating an error document.
func NewErrorDocument(errors ...Error) *NoDataDocument {
	doc := NewNoDataDocument()
	doc.SetJSONAPI(NewJSONAPI())
	for _, e := range errors {
		doc.AddError(e)
	}
	return doc
}

// NewMetaDocument creates a meta-only document.
func NewMetaDocument(meta Meta) *NoDataDocument {
	doc := NewNoDataDocument()
	for k, v := range meta {
		doc.SetMeta(k, v)
	}
	return doc
}

// Kind names the variant of doc, used in error messages and metric labels.
func Kind(doc Document) string {
	switch doc.(type) {
	case *SingleResourceDocument:
		return "single"
	case *ResourceCollectionDocument:
		return "collection"
	case *NoDataDocument:
		return "nodata"
	case nil:
		return "nil"
	default:
		return "unknown"
	}
}

var (
	_ Document = (*SingleResourceDocument)(nil)
	_ Document = (*ResourceCollectionDocument)(nil)
	_ Document = (*NoDataDocument)(nil)
)
