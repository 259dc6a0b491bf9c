package stix

import "github.com/limengmingx/stixtoneolib/internal/types"

// Parse error codes.
const (
	// ErrCodeParseDocumentFailed indicates a document could not be parsed as JSON.
	ErrCodeParseDocumentFailed types.ErrorCode = "PARSE_DOCUMENT_FAILED"

	// ErrCodeParseNotBundle indicates a document parsed but is not a bundle.
	ErrCodeParseNotBundle types.ErrorCode = "PARSE_NOT_BUNDLE"

	// ErrCodeParseObjectFailed indicates a single object could not be parsed as JSON.
	ErrCodeParseObjectFailed types.ErrorCode = "PARSE_OBJECT_FAILED"

	// ErrCodeParseMissingField indicates an object is missing a required envelope field.
	ErrCodeParseMissingField types.ErrorCode = "PARSE_MISSING_FIELD"
)
