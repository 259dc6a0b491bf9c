package taxonomy

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaxonomyLoader provides functionality to load taxonomy definitions from embedded
// YAML files and optionally merge with custom taxonomy files.
type TaxonomyLoader interface {
	// Load parses all embedded taxonomy YAML files and returns a complete Taxonomy.
	Load() (*Taxonomy, error)

	// LoadWithCustom loads embedded taxonomy and merges custom definitions from the specified path.
	// Custom definitions are additive only - they cannot override or remove bundled types.
	LoadWithCustom(customPath string) (*Taxonomy, error)
}

// taxonomyLoader is the default implementation of TaxonomyLoader.
type taxonomyLoader struct {
	embeddedFS fs.FS
}

// NewTaxonomyLoader creates a new TaxonomyLoader using the embedded filesystem.
func NewTaxonomyLoader() TaxonomyLoader {
	return &taxonomyLoader{
		embeddedFS: GetEmbeddedFS(),
	}
}

// Load parses all embedded YAML files and constructs the complete taxonomy.
func (l *taxonomyLoader) Load() (*Taxonomy, error) {
	// First, load the root taxonomy.yaml to get version and metadata
	rootData, err := fs.ReadFile(l.embeddedFS, "taxonomy.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read root taxonomy.yaml: %w", err)
	}

	var root struct {
		Version  string           `yaml:"version"`
		Metadata TaxonomyMetadata `yaml:"metadata"`
		Includes []string         `yaml:"includes"`
	}

	if err := yaml.Unmarshal(rootData, &root); err != nil {
		return nil, fmt.Errorf("failed to parse root taxonomy.yaml: %w", err)
	}

	// Create taxonomy with version from root file
	taxonomy := NewTaxonomy(root.Version)
	taxonomy.Metadata = root.Metadata
	taxonomy.Includes = root.Includes

	// Load each included file
	for _, includePath := range root.Includes {
		if err := l.loadFile(taxonomy, includePath, "embedded"); err != nil {
			return nil, fmt.Errorf("failed to load included file %s: %w", includePath, err)
		}
	}

	return taxonomy, nil
}

// LoadWithCustom loads embedded taxonomy and merges custom definitions.
func (l *taxonomyLoader) LoadWithCustom(customPath string) (*Taxonomy, error) {
	// First load the embedded taxonomy
	taxonomy, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded taxonomy: %w", err)
	}

	// Load custom taxonomy from filesystem
	customData, err := os.ReadFile(customPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom taxonomy file %s: %w", customPath, err)
	}

	// Parse custom taxonomy root
	var customRoot struct {
		Version  string   `yaml:"version"`
		Includes []string `yaml:"includes"`
	}

	if err := yaml.Unmarshal(customData, &customRoot); err != nil {
		return nil, fmt.Errorf("failed to parse custom taxonomy file: %w", err)
	}

	// Get the directory containing the custom taxonomy file
	customDir := filepath.Dir(customPath)

	// Load each custom included file
	for _, includePath := range customRoot.Includes {
		fullPath := filepath.Join(customDir, includePath)
		if err := l.loadFileFromDisk(taxonomy, fullPath, "custom"); err != nil {
			return nil, fmt.Errorf("failed to load custom file %s: %w", fullPath, err)
		}
	}

	// Mark taxonomy as having custom definitions
	taxonomy.MarkCustomLoaded()

	return taxonomy, nil
}

// loadFile loads and parses a single taxonomy file from the embedded filesystem.
func (l *taxonomyLoader) loadFile(taxonomy *Taxonomy, path string, source string) error {
	data, err := fs.ReadFile(l.embeddedFS, path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return l.parseAndMerge(taxonomy, data, path, source)
}

// loadFileFromDisk loads and parses a single taxonomy file from disk.
func (l *taxonomyLoader) loadFileFromDisk(taxonomy *Taxonomy, path string, source string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return l.parseAndMerge(taxonomy, data, path, source)
}

// parseAndMerge parses YAML data and merges it into the taxonomy.
func (l *taxonomyLoader) parseAndMerge(taxonomy *Taxonomy, data []byte, path string, source string) error {
	// Determine file type from path
	if strings.HasSuffix(path, "common.yaml") {
		return l.parseCommonProperties(taxonomy, data, source)
	} else if strings.Contains(path, "objects/") || strings.HasSuffix(path, "objects.yaml") {
		return l.parseObjectTypes(taxonomy, data, path, source)
	}

	return fmt.Errorf("unknown file type for path: %s", path)
}

// parseCommonProperties parses the shared property definitions recognized on
// every object type. Custom taxonomies cannot extend the common set; they
// define their additional fields per object type instead.
func (l *taxonomyLoader) parseCommonProperties(taxonomy *Taxonomy, data []byte, source string) error {
	if source == "custom" {
		return fmt.Errorf("custom taxonomies cannot redefine common properties")
	}

	var commonFile struct {
		CommonProperties []PropertyDefinition `yaml:"common_properties"`
	}
	if err := yaml.Unmarshal(data, &commonFile); err != nil {
		return fmt.Errorf("failed to parse common properties YAML: %w", err)
	}

	taxonomy.CommonProperties = commonFile.CommonProperties
	return nil
}

// parseObjectTypes parses object type definitions from YAML.
func (l *taxonomyLoader) parseObjectTypes(taxonomy *Taxonomy, data []byte, path string, source string) error {
	var objFile ObjectTypeFile
	if err := yaml.Unmarshal(data, &objFile); err != nil {
		return fmt.Errorf("failed to parse object types YAML: %w", err)
	}

	for i := range objFile.ObjectTypes {
		objDef := &objFile.ObjectTypes[i]

		if err := validateObjectTypeDefinition(objDef); err != nil {
			return fmt.Errorf("invalid object type definition in %s: %w", path, err)
		}

		if err := taxonomy.AddObjectType(objDef); err != nil {
			// If this is a custom taxonomy and the error is a duplicate, provide clear message
			if source == "custom" {
				if taxErr, ok := err.(*TaxonomyError); ok && taxErr.Type == ErrorTypeDuplicateDefinition {
					return fmt.Errorf("custom object type %s (ID: %s) conflicts with bundled taxonomy - custom types cannot override bundled types", objDef.Type, objDef.ID)
				}
			}
			return fmt.Errorf("failed to add object type %s from %s: %w", objDef.Type, path, err)
		}
	}

	return nil
}

// LoadTaxonomy is a convenience function to load the embedded taxonomy.
func LoadTaxonomy() (*Taxonomy, error) {
	loader := NewTaxonomyLoader()
	return loader.Load()
}

// LoadTaxonomyWithCustom is a convenience function to load taxonomy with custom extensions.
func LoadTaxonomyWithCustom(customPath string) (*Taxonomy, error) {
	loader := NewTaxonomyLoader()
	return loader.LoadWithCustom(customPath)
}

// validateObjectTypeDefinition checks the structural requirements of a definition.
func validateObjectTypeDefinition(def *ObjectTypeDefinition) error {
	if def.ID == "" {
		return &TaxonomyError{
			Type:    ErrorTypeMissingField,
			Message: "object type definition missing required field",
			Field:   "id",
		}
	}
	if def.Type == "" {
		return &TaxonomyError{
			Type:    ErrorTypeMissingField,
			Message: "object type definition missing required field",
			Field:   "type",
			Value:   def.ID,
		}
	}
	switch def.Family {
	case FamilyDomain, FamilyRelationship, FamilySighting, FamilyMarking, FamilyLanguageContent:
		return nil
	case "":
		return &TaxonomyError{
			Type:    ErrorTypeMissingField,
			Message: "object type definition missing required field",
			Field:   "family",
			Value:   def.Type,
		}
	default:
		return &TaxonomyError{
			Type:    ErrorTypeInvalidFormat,
			Message: "object type definition has unknown family",
			Field:   "family",
			Value:   string(def.Family),
		}
	}
}
