package jsonapi

// ResourceBuilder provides a fluent API for building Resource objects.
type ResourceBuilder struct {
	resource Resource
}

// NewResource creates a new ResourceBuilder with the given type and ID.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type:       resourceType,
			ID:         id,
			Attributes: make(map[string]any),
		},
	}
}

// Attr adds an attribute to the resource.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	if b.resource.Attributes == nil {
		b.resource.Attributes = make(map[string]any)
	}
	b.resource.Attributes[key] = value
	return b
}

// Attrs adds multiple attributes to the resource.
func (b *ResourceBuilder) Attrs(attrs map[string]any) *ResourceBuilder {
	for k, v := range attrs {
		// id and type are top-level members
		if k == "id" || k == "type" {
			continue
		}
		b.Attr(k, v)
	}
	return b
}

// Relationship adds a relationship to the resource.
func (b *ResourceBuilder) Relationship(name string, rel Relationship) *ResourceBuilder {
	if b.resource.Relationships == nil {
		b.resource.Relationships = make(map[string]Relationship)
	}
	b.resource.Relationships[name] = rel
	return b
}

// BelongsTo adds a to-one relationship.
func (b *ResourceBuilder) BelongsTo(name, relType, relID string) *ResourceBuilder {
	if relID == "" {
		return b
	}
	return b.Relationship(name, Relationship{
		Data: &ResourceIdentifier{Type: relType, ID: relID},
	})
}

// HasMany adds a to-many relationship.
func (b *ResourceBuilder) HasMany(name string, identifiers []ResourceIdentifier) *ResourceBuilder {
	if identifiers == nil {
		identifiers = []ResourceIdentifier{}
	}
	return b.Relationship(name, Relationship{
		Data: identifiers,
	})
}

// Meta adds metadata to the resource.
func (b *ResourceBuilder) Meta(key string, value any) *ResourceBuilder {
	if b.resource.Meta == nil {
		b.resource.Meta = make(Meta)
	}
	b.resource.Meta[key] = value
	return b
}

// Link sets a named resource link.
func (b *ResourceBuilder) Link(name, href string) *ResourceBuilder {
	b.resource.SetLink(name, Link{Href: href})
	return b
}

// Build returns the constructed Resource.
func (b *ResourceBuilder) Build() *Resource {
	r := b.resource
	return &r
}

// ToIdentifier returns a ResourceIdentifier for this resource.
func (b *ResourceBuilder) ToIdentifier() ResourceIdentifier {
	return b.resource.Identifier()
}
