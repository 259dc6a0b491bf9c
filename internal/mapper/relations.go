package mapper

import (
	"context"

	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/observability"
	"github.com/limengmingx/stixtoneolib/internal/stix"
	"github.com/limengmingx/stixtoneolib/internal/stix/taxonomy"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

// RelationBuilder creates graph edges during the second ingestion pass.
//
// Dispatch is by taxonomy family. Every reference field is resolved through
// the IdentifierIndex; an unresolvable endpoint costs only that edge, sibling
// edges and sibling objects proceed. The builder assumes the node pass has
// completed, otherwise every resolution fails.
type RelationBuilder struct {
	mapping

	edges int
}

// NewRelationBuilder creates a RelationBuilder resolving references through
// the given index.
func NewRelationBuilder(client graph.GraphClient, index *IdentifierIndex, registry taxonomy.TaxonomyRegistry, logger *observability.TracedLogger) *RelationBuilder {
	return &RelationBuilder{
		mapping: mapping{
			client:   client,
			index:    index,
			registry: registry,
			logger:   logger,
		},
	}
}

// EdgeCount returns the number of edges created by this builder.
func (b *RelationBuilder) EdgeCount() int {
	return b.edges
}

// CreateRelations produces the edges for one object according to its family.
//
// Only an object whose type tag is outside the taxonomy returns an error.
// Edge-level failures, unresolved endpoints and rejected writes, are logged
// here and never abort the object's siblings.
func (b *RelationBuilder) CreateRelations(ctx context.Context, obj *stix.Object) error {
	family, ok := b.registry.Family(obj.Type)
	if !ok {
		return types.NewError(ErrCodeMapUnknownType, "object type not in taxonomy: "+obj.Type)
	}

	switch family {
	case taxonomy.FamilyDomain:
		b.createDomainRelations(ctx, obj)
	case taxonomy.FamilyRelationship:
		b.createRelationshipRelations(ctx, obj)
	case taxonomy.FamilySighting:
		b.createSightingRelations(ctx, obj)
	case taxonomy.FamilyMarking:
		b.createCommonRelations(ctx, obj)
	case taxonomy.FamilyLanguageContent:
		b.createLanguageContentRelations(ctx, obj)
	default:
		return types.NewError(ErrCodeMapUnknownType, "unhandled taxonomy family: "+string(family))
	}

	return nil
}

// createCommonRelations creates the HAS_MARKING fan-out and the CREATED_BY
// edge every object family except sightings receives. Returns the resolved
// handle of the object's own node for follow-up edges, with ok false when the
// object's node is missing.
func (b *RelationBuilder) createCommonRelations(ctx context.Context, obj *stix.Object) (string, bool) {
	fromElementID, err := b.index.Resolve(ctx, obj.ID)
	if err != nil {
		b.logger.Error(ctx, "object node not resolved, skipping its relations",
			"object_id", obj.ID,
			"object_type", obj.Type,
			"error", err)
		return "", false
	}

	if len(obj.ObjectMarkingRefs) > 0 {
		b.edges += b.createReferenceEdges(ctx, fromElementID, obj.ID, obj.ObjectMarkingRefs, EdgeHasMarking, nil)
	}
	if obj.CreatedByRef != "" {
		b.edges += b.createReferenceEdges(ctx, fromElementID, obj.ID, []string{obj.CreatedByRef}, EdgeCreatedBy, nil)
	}

	return fromElementID, true
}

// createDomainRelations handles domain objects: common edges plus one
// REFERS_TO edge per entry of the object reference list carried by reports,
// groupings, notes, and opinions.
func (b *RelationBuilder) createDomainRelations(ctx context.Context, obj *stix.Object) {
	fromElementID, ok := b.createCommonRelations(ctx, obj)
	if !ok {
		return
	}

	if len(obj.ObjectRefs) > 0 {
		b.edges += b.createReferenceEdges(ctx, fromElementID, obj.ID, obj.ObjectRefs, EdgeRefersTo, nil)
	}
}

// createRelationshipRelations handles the generic relationship object. The
// base edge runs from the source node to the target node, labeled with the
// sanitized relationship type, and carries the relationship's complete
// property bag so the edge is self-describing. If the base edge cannot be
// created, no further edges for this object are attempted.
func (b *RelationBuilder) createRelationshipRelations(ctx context.Context, obj *stix.Object) {
	sourceElementID, err := b.index.Resolve(ctx, obj.SourceRef)
	if err != nil {
		b.logger.Error(ctx, "relationship source not resolved",
			"relationship_id", obj.ID,
			"source_ref", obj.SourceRef,
			"error", err)
		return
	}

	targetElementID, err := b.index.Resolve(ctx, obj.TargetRef)
	if err != nil {
		b.logger.Error(ctx, "relationship target not resolved",
			"relationship_id", obj.ID,
			"target_ref", obj.TargetRef,
			"error", err)
		return
	}

	label := SanitizeLabel(obj.RelationshipType)
	if obj.RelationshipType == "" {
		label = SanitizeLabel(obj.Type)
	}

	props := b.buildProperties(ctx, obj)
	if err := b.client.CreateRelationship(ctx, sourceElementID, targetElementID, label, props); err != nil {
		b.logger.Error(ctx, "failed to create relationship base edge",
			"relationship_id", obj.ID,
			"relationship_type", obj.RelationshipType,
			"error", err)
		return
	}
	b.edges++

	b.createCommonRelations(ctx, obj)
}

// createSightingRelations handles sightings. The base edge is a self-loop on
// the sighted object carrying the sighting's property bag; evidence edges
// follow: SIGHTED_OBSERVED_DATA from the sighting's own node to each observed
// data id, and WAS_SIGHTED_BY from the sighted object, not the sighting, to
// each where-sighted id.
func (b *RelationBuilder) createSightingRelations(ctx context.Context, obj *stix.Object) {
	sightedElementID, err := b.index.Resolve(ctx, obj.SightingOfRef)
	if err != nil {
		b.logger.Error(ctx, "sighted object not resolved",
			"sighting_id", obj.ID,
			"sighting_of_ref", obj.SightingOfRef,
			"error", err)
		return
	}

	props := b.buildProperties(ctx, obj)
	if err := b.client.CreateRelationship(ctx, sightedElementID, sightedElementID, SanitizeLabel(obj.Type), props); err != nil {
		b.logger.Error(ctx, "failed to create sighting base edge",
			"sighting_id", obj.ID,
			"sighting_of_ref", obj.SightingOfRef,
			"error", err)
		return
	}
	b.edges++

	if len(obj.ObservedDataRefs) > 0 {
		sightingElementID, err := b.index.Resolve(ctx, obj.ID)
		if err != nil {
			b.logger.Error(ctx, "sighting node not resolved, skipping observed data edges",
				"sighting_id", obj.ID,
				"error", err)
		} else {
			b.edges += b.createReferenceEdges(ctx, sightingElementID, obj.ID, obj.ObservedDataRefs, EdgeSightedObservedData, nil)
		}
	}

	if len(obj.WhereSightedRefs) > 0 {
		b.edges += b.createReferenceEdges(ctx, sightedElementID, obj.SightingOfRef, obj.WhereSightedRefs, EdgeWasSightedBy, nil)
	}
}

// createLanguageContentRelations handles language content objects: common
// edges plus one edge to the translated object, labeled with the sanitized
// type tag and carrying the object_modified timestamp it translates.
func (b *RelationBuilder) createLanguageContentRelations(ctx context.Context, obj *stix.Object) {
	fromElementID, ok := b.createCommonRelations(ctx, obj)
	if !ok {
		return
	}

	if obj.ObjectRef == "" {
		return
	}

	var props map[string]any
	if obj.ObjectModified != "" {
		props = map[string]any{"object_modified": obj.ObjectModified}
	}
	b.edges += b.createReferenceEdges(ctx, fromElementID, obj.ID, []string{obj.ObjectRef}, SanitizeLabel(obj.Type), props)
}
