package stix

import (
	"encoding/json"

	"github.com/limengmingx/stixtoneolib/internal/types"
)

// ParseBundle decodes a complete bundle document. The contained objects stay
// raw; decode them individually with ParseObject.
func ParseBundle(data []byte) (*Bundle, error) {
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, types.WrapError(ErrCodeParseDocumentFailed, "failed to parse bundle document", err)
	}

	if bundle.Type != BundleType {
		return nil, types.NewError(ErrCodeParseNotBundle, "document type is not bundle: "+bundle.Type)
	}
	if bundle.ID == "" {
		return nil, types.NewError(ErrCodeParseMissingField, "bundle missing required field: id")
	}

	return &bundle, nil
}

// ParseObject decodes one STIX object from JSON. The full document is
// decoded twice: once into the typed envelope and once into the raw field
// map that preserves everything the envelope does not model.
func ParseObject(data []byte) (*Object, error) {
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, types.WrapError(ErrCodeParseObjectFailed, "failed to parse object", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, types.WrapError(ErrCodeParseObjectFailed, "failed to decode object fields", err)
	}
	obj.Raw = raw

	if obj.Type == "" {
		return nil, types.NewError(ErrCodeParseMissingField, "object missing required field: type")
	}
	if obj.ID == "" {
		return nil, types.NewError(ErrCodeParseMissingField, "object missing required field: id")
	}

	return &obj, nil
}
