package taxonomy

import (
	"fmt"
	"sort"
	"sync"
)

// TaxonomyRegistry provides O(1) runtime access to taxonomy definitions.
// The node and relation builders consult it to decide which document fields
// are promoted to graph properties and which relation semantics apply.
type TaxonomyRegistry interface {
	// Version returns the taxonomy version (tied to the binary version).
	// When custom definitions are merged the version carries a "+custom" suffix.
	Version() string

	// ObjectTypes returns all object type definitions sorted by type name.
	ObjectTypes() []ObjectTypeDefinition

	// ObjectType returns a specific object type definition by type name.
	ObjectType(typeName string) (*ObjectTypeDefinition, bool)

	// ObjectTypesByFamily returns all definitions belonging to a family,
	// sorted by type name.
	ObjectTypesByFamily(family Family) []ObjectTypeDefinition

	// IsCanonicalType checks if a type name is in the loaded taxonomy.
	IsCanonicalType(typeName string) bool

	// Family returns the relation semantics family for a type name.
	Family(typeName string) (Family, bool)

	// CommonProperties returns the property definitions recognized on every type.
	CommonProperties() []PropertyDefinition

	// IsRecognizedField reports whether a field is recognized for the given
	// type, either as a common property or as a type-specific one.
	// Unknown type names recognize only the common properties.
	IsRecognizedField(typeName string, field string) bool

	// RequiredFields returns the names of fields marked required for a type,
	// including required common properties.
	RequiredFields(typeName string) []string
}

// taxonomyRegistry is the default implementation of TaxonomyRegistry.
type taxonomyRegistry struct {
	taxonomy *Taxonomy
	mu       sync.RWMutex // Thread-safe for concurrent access

	// commonFields is the precomputed set of common property names.
	commonFields map[string]struct{}

	// typeFields is the precomputed per-type set of recognized field names,
	// common properties included.
	typeFields map[string]map[string]struct{}
}

// NewTaxonomyRegistry creates a new TaxonomyRegistry from a loaded taxonomy.
func NewTaxonomyRegistry(taxonomy *Taxonomy) (TaxonomyRegistry, error) {
	if taxonomy == nil {
		return nil, fmt.Errorf("taxonomy cannot be nil")
	}

	r := &taxonomyRegistry{
		taxonomy:     taxonomy,
		commonFields: make(map[string]struct{}, len(taxonomy.CommonProperties)),
		typeFields:   make(map[string]map[string]struct{}, len(taxonomy.ObjectTypes)),
	}

	for _, prop := range taxonomy.CommonProperties {
		r.commonFields[prop.Name] = struct{}{}
	}

	for typeName, def := range taxonomy.ObjectTypes {
		fields := make(map[string]struct{}, len(def.Properties)+len(r.commonFields))
		for name := range r.commonFields {
			fields[name] = struct{}{}
		}
		for _, prop := range def.Properties {
			fields[prop.Name] = struct{}{}
		}
		r.typeFields[typeName] = fields
	}

	return r, nil
}

// Version returns the taxonomy version.
func (r *taxonomyRegistry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	version := r.taxonomy.Version
	if r.taxonomy.IsCustomLoaded() {
		return version + "+custom"
	}
	return version
}

// ObjectTypes returns all object type definitions.
func (r *taxonomyRegistry) ObjectTypes() []ObjectTypeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]ObjectTypeDefinition, 0, len(r.taxonomy.ObjectTypes))
	for _, objDef := range r.taxonomy.ObjectTypes {
		types = append(types, *objDef)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Type < types[j].Type })
	return types
}

// ObjectType returns a specific object type definition.
func (r *taxonomyRegistry) ObjectType(typeName string) (*ObjectTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.taxonomy.ObjectTypes[typeName]
	if !ok {
		return nil, false
	}
	// Return a copy to prevent external modification
	defCopy := *def
	return &defCopy, true
}

// ObjectTypesByFamily returns definitions belonging to a family.
func (r *taxonomyRegistry) ObjectTypesByFamily(family Family) []ObjectTypeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]ObjectTypeDefinition, 0)
	for _, objDef := range r.taxonomy.ObjectTypes {
		if objDef.Family == family {
			types = append(types, *objDef)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Type < types[j].Type })
	return types
}

// IsCanonicalType checks if a type name is in the loaded taxonomy.
func (r *taxonomyRegistry) IsCanonicalType(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.taxonomy.ObjectTypes[typeName]
	return ok
}

// Family returns the relation semantics family for a type name.
func (r *taxonomyRegistry) Family(typeName string) (Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.taxonomy.ObjectTypes[typeName]
	if !ok {
		return "", false
	}
	return def.Family, true
}

// CommonProperties returns the property definitions recognized on every type.
func (r *taxonomyRegistry) CommonProperties() []PropertyDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	props := make([]PropertyDefinition, len(r.taxonomy.CommonProperties))
	copy(props, r.taxonomy.CommonProperties)
	return props
}

// IsRecognizedField reports whether a field is recognized for the given type.
func (r *taxonomyRegistry) IsRecognizedField(typeName string, field string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if fields, ok := r.typeFields[typeName]; ok {
		_, recognized := fields[field]
		return recognized
	}
	_, recognized := r.commonFields[field]
	return recognized
}

// RequiredFields returns the names of fields marked required for a type.
func (r *taxonomyRegistry) RequiredFields(typeName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	required := make([]string, 0)
	for _, prop := range r.taxonomy.CommonProperties {
		if prop.Required {
			required = append(required, prop.Name)
		}
	}
	if def, ok := r.taxonomy.ObjectTypes[typeName]; ok {
		for _, prop := range def.Properties {
			if prop.Required {
				required = append(required, prop.Name)
			}
		}
	}
	sort.Strings(required)
	return required
}
