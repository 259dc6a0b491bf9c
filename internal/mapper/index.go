package mapper

import (
	"context"
	"errors"

	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

// IdentifierIndex resolves STIX identifiers to graph node handles.
//
// The node pass records every created node here, so by the time the relation
// pass runs, any id ingested in the current run resolves from memory. Ids not
// found in memory fall back to a store lookup, which covers nodes created by
// earlier archive entries of the same run under a reopened index, or
// pre-existing graph content.
//
// The index lives for exactly one ingestion run and is owned by the ingester.
// It is confined to the run's goroutine, so access is not synchronized.
type IdentifierIndex struct {
	client graph.GraphClient
	byID   map[string]string
}

// NewIdentifierIndex creates an empty index backed by the given store.
func NewIdentifierIndex(client graph.GraphClient) *IdentifierIndex {
	return &IdentifierIndex{
		client: client,
		byID:   make(map[string]string),
	}
}

// Put records the graph handle for an ingested object id.
func (ix *IdentifierIndex) Put(id, elementID string) {
	ix.byID[id] = elementID
}

// Contains reports whether the id is present in memory, without consulting
// the store.
func (ix *IdentifierIndex) Contains(id string) bool {
	_, ok := ix.byID[id]
	return ok
}

// Len returns the number of ids recorded in memory.
func (ix *IdentifierIndex) Len() int {
	return len(ix.byID)
}

// Resolve returns the graph handle for an object id. Memory is consulted
// first, then the store. A miss in both returns MAP_UNRESOLVED_REFERENCE;
// store lookup failures are passed through unchanged so callers can tell an
// absent node from a failing store.
func (ix *IdentifierIndex) Resolve(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", types.NewError(ErrCodeMapUnresolvedReference, "cannot resolve empty identifier")
	}

	if elementID, ok := ix.byID[id]; ok {
		return elementID, nil
	}

	elementID, err := ix.client.FindNodeByID(ctx, id)
	if err != nil {
		var stixErr *types.StixError
		if errors.As(err, &stixErr) && stixErr.Code == graph.ErrCodeGraphNodeNotFound {
			return "", types.WrapError(ErrCodeMapUnresolvedReference, "identifier not found: "+id, err)
		}
		return "", err
	}

	ix.byID[id] = elementID
	return elementID, nil
}
