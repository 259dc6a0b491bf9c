package taxonomy

import (
	"embed"
)

// taxonomyFS embeds all taxonomy YAML files at compile time.
// This includes the root taxonomy.yaml file, the common property definitions,
// and all object type definitions.
//
// The embedded filesystem is used by the TaxonomyLoader to load the canonical
// taxonomy that ships with each stixtoneo binary release. The taxonomy version
// is tied to the binary version to ensure reproducible graph mappings.
//
//go:embed *.yaml objects/*.yaml
var taxonomyFS embed.FS

// GetEmbeddedFS returns the embedded filesystem containing all taxonomy YAML files.
// This is the primary interface for accessing the bundled taxonomy definitions.
func GetEmbeddedFS() embed.FS {
	return taxonomyFS
}
