package init

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/limengmingx/stixtoneolib/internal/stix/taxonomy"
)

// customTaxonomyStub is written to the taxonomy directory on first init.
// It is a valid overlay manifest with no includes, so a fresh install
// behaves exactly like the embedded taxonomy until the user extends it.
const customTaxonomyStub = `# Custom taxonomy overlay.
#
# Object types listed here are merged on top of the embedded taxonomy.
# Custom types are additive only: they cannot override or remove bundled
# STIX definitions, and they cannot redefine common properties. Include
# paths are relative to this file.
#
# Example extension:
#
#   includes:
#     - my-objects.yaml
#
# my-objects.yaml:
#
#   object_types:
#     - id: object.custom.threat-feed
#       name: Threat Feed
#       type: x-threat-feed
#       family: domain
#       description: Source feed metadata attached to ingested intel
#       properties:
#         - name: feed_url
#           type: string
#           required: true

version: "1"
includes: []
`

// SeedCustomTaxonomy writes the overlay stub into the given taxonomy
// directory. An existing overlay is preserved unless force is set.
// Returns true when a new stub was written.
func SeedCustomTaxonomy(taxonomyDir string, force bool) (bool, error) {
	stubPath := filepath.Join(taxonomyDir, "custom.yaml")

	if _, err := os.Stat(stubPath); err == nil && !force {
		return false, nil
	}

	if err := os.MkdirAll(taxonomyDir, 0755); err != nil {
		return false, fmt.Errorf("failed to create taxonomy directory %s: %w", taxonomyDir, err)
	}

	if err := os.WriteFile(stubPath, []byte(customTaxonomyStub), 0644); err != nil {
		return false, fmt.Errorf("failed to write taxonomy overlay %s: %w", stubPath, err)
	}

	return true, nil
}

// CustomTaxonomyPath returns the overlay manifest path under homeDir,
// or an empty string if no overlay exists.
func CustomTaxonomyPath(homeDir string) string {
	stubPath := filepath.Join(homeDir, "taxonomy", "custom.yaml")
	if _, err := os.Stat(stubPath); err != nil {
		return ""
	}
	return stubPath
}

// VerifyTaxonomy loads the embedded taxonomy, merged with the custom
// overlay when customPath is non-empty, and reports whether the result
// is usable. This backs both init validation and the --validate flag.
func VerifyTaxonomy(customPath string) (taxonomy.TaxonomyRegistry, error) {
	var (
		tax *taxonomy.Taxonomy
		err error
	)

	if customPath != "" {
		tax, err = taxonomy.LoadTaxonomyWithCustom(customPath)
	} else {
		tax, err = taxonomy.LoadTaxonomy()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}

	registry, err := taxonomy.NewTaxonomyRegistry(tax)
	if err != nil {
		return nil, fmt.Errorf("failed to build taxonomy registry: %w", err)
	}

	return registry, nil
}
