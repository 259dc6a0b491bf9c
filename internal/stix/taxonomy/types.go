// Package taxonomy provides a YAML-driven taxonomy of the threat intelligence
// object types the ingestion engine understands.
//
// The taxonomy is embedded in the stixtoneo binary at compile time, with the
// version tied to the release. This ensures consistent behavior across
// deployments while allowing the YAML source files to be human-editable
// between releases.
package taxonomy

// Family groups object types by the relation semantics they carry.
type Family string

const (
	// FamilyDomain covers the domain objects (attack-pattern, malware, ...).
	FamilyDomain Family = "domain"

	// FamilyRelationship covers the generic relationship object.
	FamilyRelationship Family = "relationship"

	// FamilySighting covers the sighting object.
	FamilySighting Family = "sighting"

	// FamilyMarking covers marking-definition.
	FamilyMarking Family = "marking"

	// FamilyLanguageContent covers language-content.
	FamilyLanguageContent Family = "language-content"
)

// TaxonomyMetadata contains version and descriptive information about the taxonomy.
type TaxonomyMetadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	UpdatedAt   string `yaml:"updated_at"`
}

// PropertyDefinition defines a field recognized on an object type.
// Recognized scalar fields are promoted to node properties verbatim;
// everything else lands in the object's custom-content blob.
type PropertyDefinition struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"` // string, timestamp, integer, float, boolean, list
	Required    bool   `yaml:"required"`
	Description string `yaml:"description,omitempty"`
}

// ObjectTypeDefinition defines one object type in the taxonomy.
type ObjectTypeDefinition struct {
	ID          string               `yaml:"id"`          // Unique identifier (e.g., "object.sdo.attack-pattern")
	Name        string               `yaml:"name"`        // Human-readable name (e.g., "Attack Pattern")
	Type        string               `yaml:"type"`        // Wire type tag (e.g., "attack-pattern")
	Family      Family               `yaml:"family"`      // Relation semantics family
	Description string               `yaml:"description"` // Purpose and usage description
	Properties  []PropertyDefinition `yaml:"properties"`  // Type-specific recognized fields
}

// Taxonomy represents the complete loaded taxonomy with all object types.
// This is the in-memory representation built from the embedded YAML files.
type Taxonomy struct {
	Version  string           `yaml:"version"`
	Metadata TaxonomyMetadata `yaml:"metadata"`
	Includes []string         `yaml:"includes,omitempty"`

	// CommonProperties are recognized on every object type.
	CommonProperties []PropertyDefinition `yaml:"-"`

	// ObjectTypes is keyed by the Type field for fast lookup.
	ObjectTypes map[string]*ObjectTypeDefinition `yaml:"-"`

	// Secondary index keyed by ID field.
	objectTypesByID map[string]*ObjectTypeDefinition `yaml:"-"`

	// Extension tracking
	isCustomLoaded bool `yaml:"-"`
}

// ObjectTypeFile represents the structure of an object types YAML file.
// Multiple object type files can be loaded and merged into the taxonomy.
type ObjectTypeFile struct {
	ObjectTypes []ObjectTypeDefinition `yaml:"object_types"`
}

// NewTaxonomy creates a new Taxonomy with initialized maps.
func NewTaxonomy(version string) *Taxonomy {
	return &Taxonomy{
		Version:         version,
		ObjectTypes:     make(map[string]*ObjectTypeDefinition),
		objectTypesByID: make(map[string]*ObjectTypeDefinition),
		isCustomLoaded:  false,
	}
}

// AddObjectType adds an object type definition to the taxonomy.
// Returns an error if an object type with the same ID or Type already exists.
func (t *Taxonomy) AddObjectType(def *ObjectTypeDefinition) error {
	// Check for ID collision
	if _, exists := t.objectTypesByID[def.ID]; exists {
		return &TaxonomyError{
			Type:    ErrorTypeDuplicateDefinition,
			Message: "object type with ID already exists",
			Field:   "id",
			Value:   def.ID,
		}
	}

	// Check for Type collision
	if _, exists := t.ObjectTypes[def.Type]; exists {
		return &TaxonomyError{
			Type:    ErrorTypeDuplicateDefinition,
			Message: "object type with Type already exists",
			Field:   "type",
			Value:   def.Type,
		}
	}

	t.ObjectTypes[def.Type] = def
	t.objectTypesByID[def.ID] = def
	return nil
}

// GetObjectType retrieves an object type by its Type field.
func (t *Taxonomy) GetObjectType(typeName string) (*ObjectTypeDefinition, bool) {
	def, ok := t.ObjectTypes[typeName]
	return def, ok
}

// GetObjectTypeByID retrieves an object type by its ID field.
func (t *Taxonomy) GetObjectTypeByID(id string) (*ObjectTypeDefinition, bool) {
	def, ok := t.objectTypesByID[id]
	return def, ok
}

// IsCustomLoaded returns whether custom taxonomy has been merged.
func (t *Taxonomy) IsCustomLoaded() bool {
	return t.isCustomLoaded
}

// MarkCustomLoaded marks the taxonomy as having custom definitions merged.
func (t *Taxonomy) MarkCustomLoaded() {
	t.isCustomLoaded = true
}

// ErrorType represents the type of taxonomy error.
type ErrorType string

const (
	ErrorTypeDuplicateDefinition ErrorType = "duplicate_definition"
	ErrorTypeInvalidReference    ErrorType = "invalid_reference"
	ErrorTypeMissingField        ErrorType = "missing_field"
	ErrorTypeInvalidFormat       ErrorType = "invalid_format"
)

// TaxonomyError represents an error in taxonomy configuration.
type TaxonomyError struct {
	Type    ErrorType
	Message string
	Field   string // Which field caused the error
	Value   string // The problematic value
}

// Error implements the error interface.
func (e *TaxonomyError) Error() string {
	if e.Field != "" && e.Value != "" {
		return e.Message + " (field: " + e.Field + ", value: " + e.Value + ")"
	} else if e.Field != "" {
		return e.Message + " (field: " + e.Field + ")"
	}
	return e.Message
}

// Is implements error comparison for errors.Is.
func (e *TaxonomyError) Is(target error) bool {
	t, ok := target.(*TaxonomyError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}
