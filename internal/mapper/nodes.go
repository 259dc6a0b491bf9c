package mapper

import (
	"context"
	"encoding/json"

	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/observability"
	"github.com/limengmingx/stixtoneolib/internal/stix"
	"github.com/limengmingx/stixtoneolib/internal/stix/taxonomy"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

// NodeBuilder creates graph nodes during the first ingestion pass.
//
// Each object yields one node labeled with its sanitized type tag, plus one
// satellite node per embedded external reference and granular marking. Every
// created node is recorded in the IdentifierIndex so the relation pass can
// resolve references to it.
type NodeBuilder struct {
	mapping

	counts map[string]int
	total  int
}

// NewNodeBuilder creates a NodeBuilder writing through the given client and
// recording created nodes in the given index.
func NewNodeBuilder(client graph.GraphClient, index *IdentifierIndex, registry taxonomy.TaxonomyRegistry, logger *observability.TracedLogger) *NodeBuilder {
	return &NodeBuilder{
		mapping: mapping{
			client:   client,
			index:    index,
			registry: registry,
			logger:   logger,
		},
		counts: make(map[string]int),
	}
}

// CreateNodes materializes one object as a graph node with satellites.
//
// An object whose type tag is not in the taxonomy, or whose node write is
// rejected by the store, returns an error and leaves no index entry; the
// caller logs it and continues with the next object. Satellite failures are
// logged here and do not fail the object, the owning node already exists.
func (b *NodeBuilder) CreateNodes(ctx context.Context, obj *stix.Object) error {
	if _, ok := b.registry.Family(obj.Type); !ok {
		return types.NewError(ErrCodeMapUnknownType, "object type not in taxonomy: "+obj.Type)
	}

	props := b.buildProperties(ctx, obj)
	label := SanitizeLabel(obj.Type)

	elementID, err := b.client.CreateNode(ctx, []string{label}, props)
	if err != nil {
		return types.WrapError(ErrCodeMapNodeFailed, "failed to create node for "+obj.ID, err)
	}

	b.index.Put(obj.ID, elementID)
	b.counts[obj.Type]++
	b.total++

	b.materializeExternalReferences(ctx, obj, elementID)
	b.materializeGranularMarkings(ctx, obj, elementID)

	return nil
}

// Counts returns a copy of the per-type node counts.
func (b *NodeBuilder) Counts() map[string]int {
	counts := make(map[string]int, len(b.counts))
	for typeName, n := range b.counts {
		counts[typeName] = n
	}
	return counts
}

// Total returns the number of objects materialized as nodes. Satellite nodes
// are not counted.
func (b *NodeBuilder) Total() int {
	return b.total
}

// materializeExternalReferences creates one satellite node per external
// reference entry and links it to the owner with HAS_EXTERNAL_REFERENCE.
func (b *NodeBuilder) materializeExternalReferences(ctx context.Context, obj *stix.Object, ownerElementID string) {
	for i, ref := range obj.ExternalReferences {
		id := satelliteID(satelliteExternalRef, obj.ID, i)

		props := map[string]any{"id": id}
		if ref.SourceName != "" {
			props["source_name"] = ref.SourceName
		}
		if ref.Description != "" {
			props["description"] = ref.Description
		}
		if ref.URL != "" {
			props["url"] = ref.URL
		}
		if ref.ExternalID != "" {
			props["external_id"] = ref.ExternalID
		}
		if len(ref.Hashes) > 0 {
			if blob, err := json.Marshal(ref.Hashes); err == nil {
				props["hashes"] = string(blob)
			}
		}

		b.createSatellite(ctx, obj, ownerElementID, id, satelliteExternalRef, EdgeHasExternalRef, props)
	}
}

// materializeGranularMarkings creates one satellite node per granular marking
// entry and links it to the owner with HAS_GRANULAR_MARKING.
func (b *NodeBuilder) materializeGranularMarkings(ctx context.Context, obj *stix.Object, ownerElementID string) {
	for i, marking := range obj.GranularMarkings {
		id := satelliteID(satelliteGranularMarking, obj.ID, i)

		props := map[string]any{"id": id}
		if marking.Lang != "" {
			props["lang"] = marking.Lang
		}
		if marking.MarkingRef != "" {
			props["marking_ref"] = marking.MarkingRef
		}
		if len(marking.Selectors) > 0 {
			props["selectors"] = toAnySlice(marking.Selectors)
		}

		b.createSatellite(ctx, obj, ownerElementID, id, satelliteGranularMarking, EdgeHasGranularMarking, props)
	}
}

// createSatellite writes one satellite node and its linking edge from the
// owner. Failures are logged and the remaining satellites still attempted.
func (b *NodeBuilder) createSatellite(ctx context.Context, obj *stix.Object, ownerElementID, id, kind, edgeType string, props map[string]any) {
	elementID, err := b.client.CreateNode(ctx, []string{SanitizeLabel(kind)}, props)
	if err != nil {
		b.logger.Error(ctx, "failed to create satellite node",
			"kind", kind,
			"owner_id", obj.ID,
			"satellite_id", id,
			"error", err)
		return
	}
	b.index.Put(id, elementID)

	if err := b.client.CreateRelationship(ctx, ownerElementID, elementID, edgeType, nil); err != nil {
		b.logger.Error(ctx, "failed to link satellite node",
			"kind", kind,
			"owner_id", obj.ID,
			"satellite_id", id,
			"error", err)
	}
}
