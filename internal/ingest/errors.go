package ingest

import "github.com/limengmingx/stixtoneolib/internal/types"

// Ingestion error codes.
const (
	// ErrCodeIngestInvalidState indicates a pass was attempted out of order
	// or after the run was closed.
	ErrCodeIngestInvalidState types.ErrorCode = "INGEST_INVALID_STATE"

	// ErrCodeIngestStorageFailed indicates the storage handle could not be
	// opened or closed for the run.
	ErrCodeIngestStorageFailed types.ErrorCode = "INGEST_STORAGE_FAILED"
)
