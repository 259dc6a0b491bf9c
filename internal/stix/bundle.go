package stix

import (
	"encoding/json"
)

// BundleType is the type tag carried by every STIX bundle.
const BundleType = "bundle"

// Bundle is the envelope of a STIX bundle document. Objects are kept as raw
// JSON so each one can be decoded independently, letting a malformed object
// be skipped without discarding its siblings.
type Bundle struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	SpecVersion string            `json:"spec_version,omitempty"`
	Objects     []json.RawMessage `json:"objects"`
}

// Len returns the number of objects carried by the bundle.
func (b *Bundle) Len() int {
	return len(b.Objects)
}
