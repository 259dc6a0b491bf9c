package mapper

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/observability"
	"github.com/limengmingx/stixtoneolib/internal/stix"
	"github.com/limengmingx/stixtoneolib/internal/stix/taxonomy"
)

// testHarness wires both builders against a connected mock store.
type testHarness struct {
	client    *graph.MockGraphClient
	index     *IdentifierIndex
	nodes     *NodeBuilder
	relations *RelationBuilder
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	client := graph.NewMockGraphClient()
	require.NoError(t, client.Connect(context.Background()))

	tax, err := taxonomy.LoadTaxonomy()
	require.NoError(t, err)
	registry, err := taxonomy.NewTaxonomyRegistry(tax)
	require.NoError(t, err)

	logger := observability.NewTracedLogger(
		observability.NewTextHandler(io.Discard, slog.LevelError), "test-run", "mapper")

	index := NewIdentifierIndex(client)
	return &testHarness{
		client:    client,
		index:     index,
		nodes:     NewNodeBuilder(client, index, registry, logger),
		relations: NewRelationBuilder(client, index, registry, logger),
	}
}

func mustObject(t *testing.T, data string) *stix.Object {
	t.Helper()
	obj, err := stix.ParseObject([]byte(data))
	require.NoError(t, err)
	return obj
}

// ingest runs the two-pass protocol over the given objects.
func (h *testHarness) ingest(t *testing.T, objects ...*stix.Object) {
	t.Helper()
	ctx := context.Background()
	for _, obj := range objects {
		require.NoError(t, h.nodes.CreateNodes(ctx, obj))
	}
	for _, obj := range objects {
		require.NoError(t, h.relations.CreateRelations(ctx, obj))
	}
}

// mockNodeByStixID finds the mock node carrying the given id property.
func mockNodeByStixID(t *testing.T, client *graph.MockGraphClient, stixID string) (string, graph.MockNode) {
	t.Helper()
	for elementID, node := range client.GetNodes() {
		if node.Props["id"] == stixID {
			return elementID, node
		}
	}
	t.Fatalf("no mock node with id %s", stixID)
	return "", graph.MockNode{}
}

// edgesByType filters the mock's relationships by edge type.
func edgesByType(client *graph.MockGraphClient, edgeType string) []graph.MockRelationship {
	var out []graph.MockRelationship
	for _, rel := range client.GetRelationships() {
		if rel.Type == edgeType {
			out = append(out, rel)
		}
	}
	return out
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"indicates", "indicates"},
		{"attack-pattern", "attack_pattern"},
		{"related-to", "related_to"},
		{"language-content", "language_content"},
		{"TLP:AMBER", "TLP_AMBER"},
		{"uses weird chars!", "uses_weird_chars_"},
		{"9lives", "_9lives"},
		{"x_custom", "x_custom"},
		{"", "_"},
		{"a.b/c", "a_b_c"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeLabel(tt.in))
		})
	}
}

func TestSatelliteID_Deterministic(t *testing.T) {
	a := satelliteID(satelliteExternalRef, "report--aaa", 0)
	b := satelliteID(satelliteExternalRef, "report--aaa", 0)
	assert.Equal(t, a, b)

	assert.True(t, strings.HasPrefix(a, "external-reference--"))

	// Position and owner both participate in the derivation
	assert.NotEqual(t, a, satelliteID(satelliteExternalRef, "report--aaa", 1))
	assert.NotEqual(t, a, satelliteID(satelliteExternalRef, "report--bbb", 0))
	assert.NotEqual(t, a, satelliteID(satelliteGranularMarking, "report--aaa", 0))
}

func TestFlattenValue(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		wantOK bool
	}{
		{"string", "hello", true},
		{"bool", true, true},
		{"number", float64(42), true},
		{"string array", []any{"a", "b"}, true},
		{"number array", []any{1.0, 2.0}, true},
		{"empty array", []any{}, true},
		{"object", map[string]any{"k": "v"}, false},
		{"array of objects", []any{map[string]any{"k": "v"}}, false},
		{"mixed array", []any{"a", map[string]any{}}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := flattenValue(tt.in)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
