package mapper

import "github.com/limengmingx/stixtoneolib/internal/types"

// Mapping error codes.
const (
	// ErrCodeMapUnknownType indicates an object whose type tag is not in the
	// loaded taxonomy. The object is skipped in both passes.
	ErrCodeMapUnknownType types.ErrorCode = "MAP_UNKNOWN_TYPE"

	// ErrCodeMapUnresolvedReference indicates a reference whose id resolves
	// to no node, in the index or in the store.
	ErrCodeMapUnresolvedReference types.ErrorCode = "MAP_UNRESOLVED_REFERENCE"

	// ErrCodeMapNodeFailed indicates the store rejected a node write.
	ErrCodeMapNodeFailed types.ErrorCode = "MAP_NODE_FAILED"

	// ErrCodeMapEdgeFailed indicates the store rejected an edge write.
	ErrCodeMapEdgeFailed types.ErrorCode = "MAP_EDGE_FAILED"

	// ErrCodeMapCustomEncode indicates unrecognized fields could not be
	// serialized into the custom property.
	ErrCodeMapCustomEncode types.ErrorCode = "MAP_CUSTOM_ENCODE_FAILED"
)
