package template

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Resource is a single declared resource inside a document. Property trees
// are cty values, so the scanner can match on a closed set of shapes
// (string, number, bool, tuple, object, map, null) instead of reflecting
// over `any`.
//
// A Resource is immutable once it has been handed to a graph: there is no
// update or removal operation anywhere in this module.
type Resource struct {
	// ID is the resource's identifier, unique within a document.
	ID string
	// Type is the resource's type tag, e.g. "Storage::Bucket". It is
	// carried for callers but never interpreted here.
	Type string
	// Properties is the resource's property tree. cty.NilVal means the
	// resource declares no properties.
	Properties cty.Value
	// DependsOn lists explicitly declared dependency ids.
	DependsOn []string
	// Condition optionally names a condition declared by the document.
	Condition string
	// Metadata is opaque lifecycle metadata, carried but not interpreted.
	Metadata cty.Value
}

// Document is an ordered collection of resources plus the identities of the
// document's parameters and conditions. Insertion order of resources is
// preserved so that diagnostics and load passes are deterministic.
type Document struct {
	resources  map[string]*Resource
	order      []string
	parameters sets.Set[string]
	conditions sets.Set[string]
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		resources:  make(map[string]*Resource),
		parameters: sets.New[string](),
		conditions: sets.New[string](),
	}
}

// AddResource appends a resource to the document. Resource ids are unique
// within a document; re-adding an id is an error.
func (d *Document) AddResource(r *Resource) error {
	if r == nil {
		return fmt.Errorf("resource is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("resource id is empty")
	}
	if _, exists := d.resources[r.ID]; exists {
		return fmt.Errorf("duplicate resource id %q", r.ID)
	}
	d.resources[r.ID] = r
	d.order = append(d.order, r.ID)
	return nil
}

// AddParameter declares a parameter id. Only the identity matters here;
// parameter schemas live with the parser.
func (d *Document) AddParameter(name string) {
	d.parameters.Insert(name)
}

// AddCondition declares a condition id.
func (d *Document) AddCondition(name string) {
	d.conditions.Insert(name)
}

// Resource returns the resource with the given id, if any.
func (d *Document) Resource(id string) (*Resource, bool) {
	r, ok := d.resources[id]
	return r, ok
}

// Resources returns all resources in document order.
func (d *Document) Resources() []*Resource {
	out := make([]*Resource, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.resources[id])
	}
	return out
}

// ResourceIDs returns all resource ids in document order.
func (d *Document) ResourceIDs() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// HasResource reports whether the document declares a resource with this id.
func (d *Document) HasResource(id string) bool {
	_, ok := d.resources[id]
	return ok
}

// HasParameter reports whether the document declares a parameter with this name.
func (d *Document) HasParameter(name string) bool {
	return d.parameters.Has(name)
}

// HasCondition reports whether the document declares a condition with this name.
func (d *Document) HasCondition(name string) bool {
	return d.conditions.Has(name)
}

// Parameters returns a copy of the declared parameter id set.
func (d *Document) Parameters() sets.Set[string] {
	return d.parameters.Clone()
}

// Conditions returns a copy of the declared condition id set.
func (d *Document) Conditions() sets.Set[string] {
	return d.conditions.Clone()
}
