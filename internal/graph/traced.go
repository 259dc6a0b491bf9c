package graph

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/limengmingx/stixtoneolib/internal/types"
)

// Span names for traced graph operations.
const (
	SpanGraphConnect            = "stixtoneo.graph.connect"
	SpanGraphQuery              = "stixtoneo.graph.query"
	SpanGraphCreateNode         = "stixtoneo.graph.create_node"
	SpanGraphCreateRelationship = "stixtoneo.graph.create_relationship"
	SpanGraphFindNode           = "stixtoneo.graph.find_node"
	SpanGraphDeleteNode         = "stixtoneo.graph.delete_node"
)

// TracedGraphClient wraps a GraphClient with OpenTelemetry tracing.
// Creates spans for all client operations and records graph-specific attributes.
//
// Thread-safety: Safe for concurrent access (delegates to inner client).
type TracedGraphClient struct {
	inner  GraphClient
	tracer trace.Tracer
}

// NewTracedGraphClient creates a new traced graph client.
// Wraps the inner client with OpenTelemetry tracing for observability.
//
// Example:
//
//	traced := NewTracedGraphClient(
//	    innerClient,
//	    otel.Tracer("stixtoneo.graph"),
//	)
func NewTracedGraphClient(inner GraphClient, tracer trace.Tracer) *TracedGraphClient {
	return &TracedGraphClient{
		inner:  inner,
		tracer: tracer,
	}
}

// Connect establishes the underlying connection with tracing.
func (c *TracedGraphClient) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, SpanGraphConnect)
	defer span.End()

	startTime := time.Now()
	err := c.inner.Connect(ctx)
	span.SetAttributes(attribute.Float64("stixtoneo.graph.duration_ms", float64(time.Since(startTime).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "connected")
	return nil
}

// Close closes the underlying client. Close is not traced; it typically runs
// after the tracer provider has shut down.
func (c *TracedGraphClient) Close(ctx context.Context) error {
	return c.inner.Close(ctx)
}

// Health delegates to the inner client without tracing.
func (c *TracedGraphClient) Health(ctx context.Context) types.HealthStatus {
	return c.inner.Health(ctx)
}

// Query executes a Cypher query with tracing.
func (c *TracedGraphClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	ctx, span := c.tracer.Start(ctx, SpanGraphQuery)
	defer span.End()

	span.SetAttributes(attribute.Int("stixtoneo.graph.param_count", len(params)))

	startTime := time.Now()
	result, err := c.inner.Query(ctx, cypher, params)
	span.SetAttributes(attribute.Float64("stixtoneo.graph.duration_ms", float64(time.Since(startTime).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return QueryResult{}, err
	}

	span.SetAttributes(attribute.Int("stixtoneo.graph.record_count", len(result.Records)))
	span.SetStatus(codes.Ok, "query succeeded")
	return result, nil
}

// CreateNode creates a node with tracing.
func (c *TracedGraphClient) CreateNode(ctx context.Context, labels []string, props map[string]any) (string, error) {
	ctx, span := c.tracer.Start(ctx, SpanGraphCreateNode)
	defer span.End()

	span.SetAttributes(
		attribute.StringSlice("stixtoneo.graph.labels", labels),
		attribute.Int("stixtoneo.graph.prop_count", len(props)),
	)

	startTime := time.Now()
	nodeID, err := c.inner.CreateNode(ctx, labels, props)
	span.SetAttributes(attribute.Float64("stixtoneo.graph.duration_ms", float64(time.Since(startTime).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetStatus(codes.Ok, "node created")
	return nodeID, nil
}

// CreateRelationship creates a relationship with tracing.
func (c *TracedGraphClient) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) error {
	ctx, span := c.tracer.Start(ctx, SpanGraphCreateRelationship)
	defer span.End()

	span.SetAttributes(
		attribute.String("stixtoneo.graph.rel_type", relType),
		attribute.Int("stixtoneo.graph.prop_count", len(props)),
	)

	startTime := time.Now()
	err := c.inner.CreateRelationship(ctx, fromID, toID, relType, props)
	span.SetAttributes(attribute.Float64("stixtoneo.graph.duration_ms", float64(time.Since(startTime).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "relationship created")
	return nil
}

// FindNodeByID looks up a node with tracing.
func (c *TracedGraphClient) FindNodeByID(ctx context.Context, id string) (string, error) {
	ctx, span := c.tracer.Start(ctx, SpanGraphFindNode)
	defer span.End()

	startTime := time.Now()
	nodeID, err := c.inner.FindNodeByID(ctx, id)
	span.SetAttributes(attribute.Float64("stixtoneo.graph.duration_ms", float64(time.Since(startTime).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetStatus(codes.Ok, "node found")
	return nodeID, nil
}

// DeleteNode deletes a node with tracing.
func (c *TracedGraphClient) DeleteNode(ctx context.Context, nodeID string) error {
	ctx, span := c.tracer.Start(ctx, SpanGraphDeleteNode)
	defer span.End()

	startTime := time.Now()
	err := c.inner.DeleteNode(ctx, nodeID)
	span.SetAttributes(attribute.Float64("stixtoneo.graph.duration_ms", float64(time.Since(startTime).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "node deleted")
	return nil
}
