// Package mapper translates parsed STIX objects into property graph nodes and
// edges. The NodeBuilder runs in the first ingestion pass and creates one node
// per object plus satellite nodes for embedded sub-objects; the RelationBuilder
// runs in the second pass and creates the edges, resolving reference fields
// through the IdentifierIndex. Node creation must complete before relation
// creation so that every edge endpoint exists when the edge is attempted.
package mapper

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/observability"
	"github.com/limengmingx/stixtoneolib/internal/stix"
	"github.com/limengmingx/stixtoneolib/internal/stix/taxonomy"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

// Edge type labels produced by the relation builder.
const (
	EdgeHasMarking          = "HAS_MARKING"
	EdgeCreatedBy           = "CREATED_BY"
	EdgeRefersTo            = "REFERS_TO"
	EdgeSightedObservedData = "SIGHTED_OBSERVED_DATA"
	EdgeWasSightedBy        = "WAS_SIGHTED_BY"
	EdgeHasExternalRef      = "HAS_EXTERNAL_REFERENCE"
	EdgeHasGranularMarking  = "HAS_GRANULAR_MARKING"
)

// Satellite node kind tags. They double as the id prefix of the satellite
// object, mirroring the <type>--<uuid> identifier form.
const (
	satelliteExternalRef     = "external-reference"
	satelliteGranularMarking = "granular-marking"
)

// customProperty is the node property holding fields that could not be
// flattened: unrecognized fields and nested recognized ones, serialized as a
// single JSON document.
const customProperty = "custom"

// satelliteNamespace seeds deterministic satellite ids. Satellites have no
// identifier of their own in the source document, so their ids are derived
// from the owning object's id and the entry position; re-ingesting the same
// object therefore yields the same satellite ids and the same owner property
// bag.
var satelliteNamespace = uuid.MustParse("b0f9c1de-6f47-4a43-9b52-3a0be6a7c21d")

// SanitizeLabel converts an arbitrary type string into a valid graph label
// token. Characters outside [A-Za-z0-9_] are replaced with underscores, a
// leading digit is prefixed with an underscore, and an empty input becomes a
// single underscore.
func SanitizeLabel(s string) string {
	if s == "" {
		return "_"
	}

	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)

	if mapped[0] >= '0' && mapped[0] <= '9' {
		mapped = "_" + mapped
	}
	return mapped
}

// satelliteID derives the deterministic id of the idx-th satellite of a kind
// owned by ownerID.
func satelliteID(kind, ownerID string, idx int) string {
	name := ownerID + "/" + kind + "/" + strconv.Itoa(idx)
	return kind + "--" + uuid.NewSHA1(satelliteNamespace, []byte(name)).String()
}

// externalReferenceIDs returns the deterministic satellite ids for an
// object's external references, in entry order.
func externalReferenceIDs(obj *stix.Object) []string {
	if len(obj.ExternalReferences) == 0 {
		return nil
	}
	ids := make([]string, len(obj.ExternalReferences))
	for i := range obj.ExternalReferences {
		ids[i] = satelliteID(satelliteExternalRef, obj.ID, i)
	}
	return ids
}

// granularMarkingIDs returns the deterministic satellite ids for an object's
// granular markings, in entry order.
func granularMarkingIDs(obj *stix.Object) []string {
	if len(obj.GranularMarkings) == 0 {
		return nil
	}
	ids := make([]string, len(obj.GranularMarkings))
	for i := range obj.GranularMarkings {
		ids[i] = satelliteID(satelliteGranularMarking, obj.ID, i)
	}
	return ids
}

// flattenValue reports whether a decoded JSON value can be stored directly as
// a graph property: a scalar, or an array whose elements are all scalars.
func flattenValue(value any) (any, bool) {
	switch v := value.(type) {
	case string, bool, float64:
		return v, true
	case []any:
		for _, elem := range v {
			switch elem.(type) {
			case string, bool, float64:
			default:
				return nil, false
			}
		}
		return v, true
	default:
		return nil, false
	}
}

// mapping carries the collaborators shared by both builders.
type mapping struct {
	client   graph.GraphClient
	index    *IdentifierIndex
	registry taxonomy.TaxonomyRegistry
	logger   *observability.TracedLogger
}

// buildProperties flattens an object into a graph property bag.
//
// Recognized fields with scalar or scalar-array values land as properties
// verbatim. Embedded sub-object lists are replaced with their deterministic
// satellite id arrays. Everything else, unrecognized fields included, is
// serialized into the custom property so nothing is silently dropped. Absent
// labels and revoked get empty-array and false defaults; all other absent
// fields stay absent.
func (m *mapping) buildProperties(ctx context.Context, obj *stix.Object) map[string]any {
	props := make(map[string]any, len(obj.Raw)+2)
	custom := make(map[string]any)

	for field, value := range obj.Raw {
		if value == nil {
			continue
		}

		switch field {
		case "external_references":
			props[field] = toAnySlice(externalReferenceIDs(obj))
			continue
		case "granular_markings":
			props[field] = toAnySlice(granularMarkingIDs(obj))
			continue
		}

		if !m.registry.IsRecognizedField(obj.Type, field) {
			custom[field] = value
			continue
		}

		if flat, ok := flattenValue(value); ok {
			props[field] = flat
		} else {
			custom[field] = value
		}
	}

	if _, ok := props["labels"]; !ok {
		props["labels"] = []any{}
	}
	if _, ok := props["revoked"]; !ok {
		props["revoked"] = false
	}

	if len(custom) > 0 {
		blob, err := json.Marshal(custom)
		if err != nil {
			m.logger.Error(ctx, "failed to serialize custom fields",
				"object_id", obj.ID,
				"error", types.WrapError(ErrCodeMapCustomEncode, "custom field serialization failed", err))
		} else {
			props[customProperty] = string(blob)
		}
	}

	return props
}

// createReferenceEdges creates one edge per resolvable target id. Unresolved
// targets and store failures are logged and skipped; the remaining targets
// are still attempted. Returns the number of edges created.
func (m *mapping) createReferenceEdges(ctx context.Context, fromElementID, fromID string, targetIDs []string, label string, props map[string]any) int {
	created := 0
	for _, targetID := range targetIDs {
		if targetID == "" {
			continue
		}

		targetElementID, err := m.index.Resolve(ctx, targetID)
		if err != nil {
			m.logger.Error(ctx, "reference target not resolved",
				"edge_type", label,
				"from_id", fromID,
				"target_id", targetID,
				"error", err)
			continue
		}

		if err := m.client.CreateRelationship(ctx, fromElementID, targetElementID, label, props); err != nil {
			m.logger.Error(ctx, "failed to create reference edge",
				"edge_type", label,
				"from_id", fromID,
				"target_id", targetID,
				"error", err)
			continue
		}
		created++
	}
	return created
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
