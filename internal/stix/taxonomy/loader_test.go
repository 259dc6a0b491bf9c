package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTaxonomyLoader_Load(t *testing.T) {
	loader := NewTaxonomyLoader()
	taxonomy, err := loader.Load()
	if err != nil {
		t.Fatalf("TaxonomyLoader.Load() error = %v", err)
	}

	if taxonomy == nil {
		t.Fatal("TaxonomyLoader.Load() returned nil taxonomy")
	}

	if taxonomy.Version == "" {
		t.Error("TaxonomyLoader.Load() returned taxonomy with empty version")
	}

	if len(taxonomy.CommonProperties) == 0 {
		t.Error("TaxonomyLoader.Load() returned taxonomy with no common properties")
	}

	// All 23 STIX 2.1 object types must be present.
	if got := len(taxonomy.ObjectTypes); got != 23 {
		t.Errorf("TaxonomyLoader.Load() loaded %d object types, want 23", got)
	}

	expectedTypes := []string{
		"attack-pattern", "campaign", "course-of-action", "grouping",
		"identity", "incident", "indicator", "infrastructure",
		"intrusion-set", "location", "malware", "malware-analysis",
		"note", "observed-data", "opinion", "report",
		"threat-actor", "tool", "vulnerability",
		"relationship", "sighting",
		"marking-definition", "language-content",
	}
	for _, objType := range expectedTypes {
		if _, exists := taxonomy.ObjectTypes[objType]; !exists {
			t.Errorf("TaxonomyLoader.Load() missing expected object type: %s", objType)
		}
	}
}

func TestTaxonomyLoader_LoadFamilies(t *testing.T) {
	taxonomy, err := LoadTaxonomy()
	if err != nil {
		t.Fatalf("LoadTaxonomy() error = %v", err)
	}

	tests := []struct {
		objType string
		family  Family
	}{
		{"attack-pattern", FamilyDomain},
		{"vulnerability", FamilyDomain},
		{"observed-data", FamilyDomain},
		{"relationship", FamilyRelationship},
		{"sighting", FamilySighting},
		{"marking-definition", FamilyMarking},
		{"language-content", FamilyLanguageContent},
	}

	for _, tt := range tests {
		def, ok := taxonomy.GetObjectType(tt.objType)
		if !ok {
			t.Errorf("GetObjectType(%q) not found", tt.objType)
			continue
		}
		if def.Family != tt.family {
			t.Errorf("GetObjectType(%q).Family = %v, want %v", tt.objType, def.Family, tt.family)
		}
	}
}

func TestTaxonomyLoader_LoadByID(t *testing.T) {
	taxonomy, err := LoadTaxonomy()
	if err != nil {
		t.Fatalf("LoadTaxonomy() error = %v", err)
	}

	def, ok := taxonomy.GetObjectTypeByID("object.sdo.malware")
	if !ok {
		t.Fatal("GetObjectTypeByID(object.sdo.malware) not found")
	}
	if def.Type != "malware" {
		t.Errorf("GetObjectTypeByID(object.sdo.malware).Type = %v, want malware", def.Type)
	}
}

func TestTaxonomyLoader_LoadWithCustom(t *testing.T) {
	tests := []struct {
		name          string
		setupCustom   func(t *testing.T) string
		wantErr       bool
		validateExtra func(t *testing.T, taxonomy *Taxonomy)
	}{
		{
			name: "load with valid custom taxonomy",
			setupCustom: func(t *testing.T) string {
				tmpDir := t.TempDir()

				customObjectsYAML := `object_types:
  - id: object.custom.x-acme-detector
    name: ACME Detector
    type: x-acme-detector
    family: domain
    description: A vendor extension type for testing
    properties:
      - name: name
        type: string
        required: true
      - name: detector_version
        type: string
`
				objectsPath := filepath.Join(tmpDir, "custom_objects.yaml")
				if err := os.WriteFile(objectsPath, []byte(customObjectsYAML), 0644); err != nil {
					t.Fatalf("Failed to create custom objects file: %v", err)
				}

				customRootYAML := `version: "0.1.0-custom"
includes:
  - custom_objects.yaml
`
				rootPath := filepath.Join(tmpDir, "taxonomy.yaml")
				if err := os.WriteFile(rootPath, []byte(customRootYAML), 0644); err != nil {
					t.Fatalf("Failed to create custom root file: %v", err)
				}

				return rootPath
			},
			wantErr: false,
			validateExtra: func(t *testing.T, taxonomy *Taxonomy) {
				customDef, exists := taxonomy.ObjectTypes["x-acme-detector"]
				if !exists {
					t.Error("Custom object type 'x-acme-detector' not found in merged taxonomy")
					return
				}

				if customDef.Name != "ACME Detector" {
					t.Errorf("Custom object type name = %v, want 'ACME Detector'", customDef.Name)
				}

				// Verify bundled object types still exist
				if _, exists := taxonomy.ObjectTypes["malware"]; !exists {
					t.Error("Bundled object type 'malware' missing after custom merge")
				}

				if !taxonomy.IsCustomLoaded() {
					t.Error("Taxonomy should be marked as custom loaded")
				}
			},
		},
		{
			name: "load with duplicate object type should fail",
			setupCustom: func(t *testing.T) string {
				tmpDir := t.TempDir()

				// Try to override bundled 'malware' type
				customObjectsYAML := `object_types:
  - id: object.custom.malware-override
    name: Overridden Malware
    type: malware
    family: domain
    description: Attempting to override bundled type
    properties:
      - name: name
        type: string
        required: true
`
				objectsPath := filepath.Join(tmpDir, "custom_objects.yaml")
				if err := os.WriteFile(objectsPath, []byte(customObjectsYAML), 0644); err != nil {
					t.Fatalf("Failed to create custom objects file: %v", err)
				}

				customRootYAML := `version: "0.1.0-custom"
includes:
  - custom_objects.yaml
`
				rootPath := filepath.Join(tmpDir, "taxonomy.yaml")
				if err := os.WriteFile(rootPath, []byte(customRootYAML), 0644); err != nil {
					t.Fatalf("Failed to create custom root file: %v", err)
				}

				return rootPath
			},
			wantErr: true,
		},
		{
			name: "load with unknown family should fail",
			setupCustom: func(t *testing.T) string {
				tmpDir := t.TempDir()

				customObjectsYAML := `object_types:
  - id: object.custom.x-bad-family
    name: Bad Family
    type: x-bad-family
    family: widget
    description: Family outside the known set
`
				objectsPath := filepath.Join(tmpDir, "custom_objects.yaml")
				if err := os.WriteFile(objectsPath, []byte(customObjectsYAML), 0644); err != nil {
					t.Fatalf("Failed to create custom objects file: %v", err)
				}

				customRootYAML := `version: "0.1.0-custom"
includes:
  - custom_objects.yaml
`
				rootPath := filepath.Join(tmpDir, "taxonomy.yaml")
				if err := os.WriteFile(rootPath, []byte(customRootYAML), 0644); err != nil {
					t.Fatalf("Failed to create custom root file: %v", err)
				}

				return rootPath
			},
			wantErr: true,
		},
		{
			name: "load with invalid YAML should fail",
			setupCustom: func(t *testing.T) string {
				tmpDir := t.TempDir()

				invalidYAML := `object_types:
  - id: bad_object
    name: [this is not valid
    type: "broken
`
				objectsPath := filepath.Join(tmpDir, "bad_objects.yaml")
				if err := os.WriteFile(objectsPath, []byte(invalidYAML), 0644); err != nil {
					t.Fatalf("Failed to create invalid objects file: %v", err)
				}

				customRootYAML := `version: "0.1.0-custom"
includes:
  - bad_objects.yaml
`
				rootPath := filepath.Join(tmpDir, "taxonomy.yaml")
				if err := os.WriteFile(rootPath, []byte(customRootYAML), 0644); err != nil {
					t.Fatalf("Failed to create custom root file: %v", err)
				}

				return rootPath
			},
			wantErr: true,
		},
		{
			name: "load with missing file should fail",
			setupCustom: func(t *testing.T) string {
				return "/nonexistent/path/taxonomy.yaml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customPath := tt.setupCustom(t)

			loader := NewTaxonomyLoader()
			taxonomy, err := loader.LoadWithCustom(customPath)

			if (err != nil) != tt.wantErr {
				t.Errorf("TaxonomyLoader.LoadWithCustom() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if taxonomy == nil {
					t.Error("TaxonomyLoader.LoadWithCustom() returned nil taxonomy")
					return
				}

				if tt.validateExtra != nil {
					tt.validateExtra(t, taxonomy)
				}
			}
		})
	}
}

func TestTaxonomy_AddObjectType(t *testing.T) {
	taxonomy := NewTaxonomy("0.1.0")

	def := &ObjectTypeDefinition{
		ID:     "object.test.widget",
		Name:   "Widget",
		Type:   "x-widget",
		Family: FamilyDomain,
	}

	if err := taxonomy.AddObjectType(def); err != nil {
		t.Fatalf("AddObjectType() error = %v", err)
	}

	// Duplicate Type must fail
	dup := &ObjectTypeDefinition{
		ID:     "object.test.widget2",
		Name:   "Widget 2",
		Type:   "x-widget",
		Family: FamilyDomain,
	}
	err := taxonomy.AddObjectType(dup)
	if err == nil {
		t.Fatal("AddObjectType() with duplicate Type should fail")
	}
	taxErr, ok := err.(*TaxonomyError)
	if !ok {
		t.Fatalf("AddObjectType() error type = %T, want *TaxonomyError", err)
	}
	if taxErr.Type != ErrorTypeDuplicateDefinition {
		t.Errorf("AddObjectType() error Type = %v, want %v", taxErr.Type, ErrorTypeDuplicateDefinition)
	}

	// Duplicate ID must fail
	dupID := &ObjectTypeDefinition{
		ID:     "object.test.widget",
		Name:   "Widget 3",
		Type:   "x-widget-3",
		Family: FamilyDomain,
	}
	if err := taxonomy.AddObjectType(dupID); err == nil {
		t.Fatal("AddObjectType() with duplicate ID should fail")
	}
}
