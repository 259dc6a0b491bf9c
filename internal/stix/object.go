// Package stix defines the typed envelope for STIX 2.x objects and the
// parsers that produce it from JSON documents and line-delimited streams.
//
// Parsing is deliberately permissive: the envelope carries the fields the
// mapping engine acts on (identifiers, reference fields, relationship and
// sighting fields) while the complete decoded document is retained in Raw.
// The node builder consults Raw so that field presence, producer extensions,
// and unrecognized content survive into the graph.
package stix

import (
	"encoding/json"
)

// ExternalReference is a citation to a non-STIX information source embedded
// in an object. Each entry is materialized as a satellite node in the graph.
type ExternalReference struct {
	SourceName  string            `json:"source_name"`
	Description string            `json:"description,omitempty"`
	URL         string            `json:"url,omitempty"`
	Hashes      map[string]string `json:"hashes,omitempty"`
	ExternalID  string            `json:"external_id,omitempty"`
}

// GranularMarking applies a marking or language to selected portions of an
// object. Each entry is materialized as a satellite node in the graph.
type GranularMarking struct {
	Lang       string   `json:"lang,omitempty"`
	MarkingRef string   `json:"marking_ref,omitempty"`
	Selectors  []string `json:"selectors,omitempty"`
}

// Object is the typed envelope for one STIX object of any type.
//
// Only the fields the mapping engine dispatches on are decoded into struct
// fields. Type-specific descriptive fields reach the graph through Raw, so a
// field absent from this struct is not a field the engine drops.
type Object struct {
	// Common envelope fields
	ID          string `json:"id"`
	Type        string `json:"type"`
	SpecVersion string `json:"spec_version,omitempty"`
	Created     string `json:"created,omitempty"`
	Modified    string `json:"modified,omitempty"`
	Revoked     bool   `json:"revoked,omitempty"`
	Lang        string `json:"lang,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`

	Labels            []string            `json:"labels,omitempty"`
	CreatedByRef      string              `json:"created_by_ref,omitempty"`
	ObjectMarkingRefs []string            `json:"object_marking_refs,omitempty"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
	GranularMarkings  []GranularMarking   `json:"granular_markings,omitempty"`

	// Reference list shared by report, grouping, note, opinion
	ObjectRefs []string `json:"object_refs,omitempty"`

	// Relationship fields
	SourceRef        string `json:"source_ref,omitempty"`
	TargetRef        string `json:"target_ref,omitempty"`
	RelationshipType string `json:"relationship_type,omitempty"`
	Description      string `json:"description,omitempty"`

	// Sighting fields
	SightingOfRef    string   `json:"sighting_of_ref,omitempty"`
	ObservedDataRefs []string `json:"observed_data_refs,omitempty"`
	WhereSightedRefs []string `json:"where_sighted_refs,omitempty"`
	FirstSeen        string   `json:"first_seen,omitempty"`
	LastSeen         string   `json:"last_seen,omitempty"`
	Count            int      `json:"count,omitempty"`
	Summary          bool     `json:"summary,omitempty"`

	// Language content fields
	ObjectRef      string `json:"object_ref,omitempty"`
	ObjectModified string `json:"object_modified,omitempty"`

	// Raw holds the complete decoded document. It is the authority on field
	// presence; the typed fields above cannot distinguish absent from zero.
	Raw map[string]any `json:"-"`
}

// HasField reports whether the field was present in the source document.
func (o *Object) HasField(name string) bool {
	_, ok := o.Raw[name]
	return ok
}

// RawField returns the decoded value of a field as it appeared in the source
// document, with ok reporting presence.
func (o *Object) RawField(name string) (any, bool) {
	v, ok := o.Raw[name]
	return v, ok
}

// MarshalJSON re-encodes the object from its raw document so no undecoded
// fields are lost on round trips.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o.Raw != nil {
		return json.Marshal(o.Raw)
	}
	type plain Object
	return json.Marshal((*plain)(o))
}
