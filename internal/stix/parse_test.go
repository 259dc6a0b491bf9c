package stix

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limengmingx/stixtoneolib/internal/types"
)

func TestParseBundle(t *testing.T) {
	data := []byte(`{
		"type": "bundle",
		"id": "bundle--8f431b39-b571-4a2f-9ffd-d7dcee2a2f22",
		"objects": [
			{"type": "identity", "id": "identity--311b2d2d-f010-4473-83ec-1edf84858f4c", "name": "ACME"},
			{"type": "malware", "id": "malware--31b940d4-6f7f-459a-80ea-9c1f17b58abc", "name": "Poison Ivy", "is_family": true}
		]
	}`)

	bundle, err := ParseBundle(data)
	require.NoError(t, err)
	assert.Equal(t, "bundle", bundle.Type)
	assert.Equal(t, "bundle--8f431b39-b571-4a2f-9ffd-d7dcee2a2f22", bundle.ID)
	assert.Equal(t, 2, bundle.Len())
}

func TestParseBundle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode types.ErrorCode
	}{
		{
			name:     "invalid json",
			data:     `{"type": "bundle", "objects": [`,
			wantCode: ErrCodeParseDocumentFailed,
		},
		{
			name:     "not a bundle",
			data:     `{"type": "malware", "id": "malware--31b940d4-6f7f-459a-80ea-9c1f17b58abc"}`,
			wantCode: ErrCodeParseNotBundle,
		},
		{
			name:     "missing bundle id",
			data:     `{"type": "bundle", "objects": []}`,
			wantCode: ErrCodeParseMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBundle([]byte(tt.data))
			require.Error(t, err)

			var stixErr *types.StixError
			require.True(t, errors.As(err, &stixErr))
			assert.Equal(t, tt.wantCode, stixErr.Code)
		})
	}
}

func TestParseObject(t *testing.T) {
	data := []byte(`{
		"type": "indicator",
		"spec_version": "2.1",
		"id": "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f",
		"created": "2016-04-06T20:03:48.000Z",
		"modified": "2016-04-06T20:03:48.000Z",
		"created_by_ref": "identity--f431f809-377b-45e0-aa1c-6a4751cae5ff",
		"labels": ["malicious-activity"],
		"confidence": 85,
		"pattern": "[file:hashes.'SHA-256' = 'aec070645fe53ee3b3763059376134f058cc337247c978add178b6ccdfb0019f']",
		"pattern_type": "stix",
		"valid_from": "2016-04-06T20:03:48Z",
		"object_marking_refs": ["marking-definition--613f2e26-407d-48c7-9eca-b8e91df99dc9"]
	}`)

	obj, err := ParseObject(data)
	require.NoError(t, err)

	assert.Equal(t, "indicator", obj.Type)
	assert.Equal(t, "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f", obj.ID)
	assert.Equal(t, "2.1", obj.SpecVersion)
	assert.Equal(t, "2016-04-06T20:03:48.000Z", obj.Created)
	assert.Equal(t, "identity--f431f809-377b-45e0-aa1c-6a4751cae5ff", obj.CreatedByRef)
	assert.Equal(t, []string{"malicious-activity"}, obj.Labels)
	assert.Equal(t, 85, obj.Confidence)
	assert.Equal(t, []string{"marking-definition--613f2e26-407d-48c7-9eca-b8e91df99dc9"}, obj.ObjectMarkingRefs)

	// Fields without envelope slots are reachable through Raw
	pattern, ok := obj.RawField("pattern")
	require.True(t, ok)
	assert.Contains(t, pattern, "SHA-256")
	assert.True(t, obj.HasField("valid_from"))
	assert.False(t, obj.HasField("valid_until"))
}

func TestParseObject_Relationship(t *testing.T) {
	data := []byte(`{
		"type": "relationship",
		"spec_version": "2.1",
		"id": "relationship--44298a74-ba52-4f0c-87a3-1824e67d7fad",
		"created": "2016-04-06T20:06:37.000Z",
		"modified": "2016-04-06T20:06:37.000Z",
		"relationship_type": "indicates",
		"source_ref": "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f",
		"target_ref": "malware--31b940d4-6f7f-459a-80ea-9c1f17b58abc",
		"description": "The indicator detects Poison Ivy samples."
	}`)

	obj, err := ParseObject(data)
	require.NoError(t, err)

	assert.Equal(t, "relationship", obj.Type)
	assert.Equal(t, "indicates", obj.RelationshipType)
	assert.Equal(t, "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f", obj.SourceRef)
	assert.Equal(t, "malware--31b940d4-6f7f-459a-80ea-9c1f17b58abc", obj.TargetRef)
	assert.Equal(t, "The indicator detects Poison Ivy samples.", obj.Description)
}

func TestParseObject_Sighting(t *testing.T) {
	data := []byte(`{
		"type": "sighting",
		"spec_version": "2.1",
		"id": "sighting--ee20065d-2555-424f-ad9e-0f8428623c75",
		"created": "2016-04-06T20:08:31.000Z",
		"modified": "2016-04-06T20:08:31.000Z",
		"first_seen": "2015-12-21T19:00:00Z",
		"last_seen": "2015-12-22T19:00:00Z",
		"count": 50,
		"summary": true,
		"sighting_of_ref": "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f",
		"observed_data_refs": ["observed-data--b67d30ff-02ac-498a-92f9-32f845f448cf"],
		"where_sighted_refs": ["identity--b67d30ff-02ac-498a-92f9-32f845f448ff"]
	}`)

	obj, err := ParseObject(data)
	require.NoError(t, err)

	assert.Equal(t, "sighting", obj.Type)
	assert.Equal(t, "indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f", obj.SightingOfRef)
	assert.Equal(t, []string{"observed-data--b67d30ff-02ac-498a-92f9-32f845f448cf"}, obj.ObservedDataRefs)
	assert.Equal(t, []string{"identity--b67d30ff-02ac-498a-92f9-32f845f448ff"}, obj.WhereSightedRefs)
	assert.Equal(t, 50, obj.Count)
	assert.True(t, obj.Summary)
	assert.Equal(t, "2015-12-21T19:00:00Z", obj.FirstSeen)
	assert.Equal(t, "2015-12-22T19:00:00Z", obj.LastSeen)
}

func TestParseObject_EmbeddedSubObjects(t *testing.T) {
	data := []byte(`{
		"type": "attack-pattern",
		"spec_version": "2.1",
		"id": "attack-pattern--0c7b5b88-8ff7-4a4d-aa9d-feb398cd0061",
		"created": "2016-05-12T08:17:27.000Z",
		"modified": "2016-05-12T08:17:27.000Z",
		"name": "Spear Phishing",
		"external_references": [
			{"source_name": "capec", "external_id": "CAPEC-163", "url": "https://capec.mitre.org/data/definitions/163.html"}
		],
		"granular_markings": [
			{"marking_ref": "marking-definition--613f2e26-407d-48c7-9eca-b8e91df99dc9", "selectors": ["description"]}
		]
	}`)

	obj, err := ParseObject(data)
	require.NoError(t, err)

	require.Len(t, obj.ExternalReferences, 1)
	assert.Equal(t, "capec", obj.ExternalReferences[0].SourceName)
	assert.Equal(t, "CAPEC-163", obj.ExternalReferences[0].ExternalID)

	require.Len(t, obj.GranularMarkings, 1)
	assert.Equal(t, "marking-definition--613f2e26-407d-48c7-9eca-b8e91df99dc9", obj.GranularMarkings[0].MarkingRef)
	assert.Equal(t, []string{"description"}, obj.GranularMarkings[0].Selectors)
}

func TestParseObject_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode types.ErrorCode
	}{
		{
			name:     "invalid json",
			data:     `{"type": "malware"`,
			wantCode: ErrCodeParseObjectFailed,
		},
		{
			name:     "missing type",
			data:     `{"id": "malware--31b940d4-6f7f-459a-80ea-9c1f17b58abc"}`,
			wantCode: ErrCodeParseMissingField,
		},
		{
			name:     "missing id",
			data:     `{"type": "malware"}`,
			wantCode: ErrCodeParseMissingField,
		},
		{
			name:     "json scalar not an object",
			data:     `"just a string"`,
			wantCode: ErrCodeParseObjectFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseObject([]byte(tt.data))
			require.Error(t, err)

			var stixErr *types.StixError
			require.True(t, errors.As(err, &stixErr))
			assert.Equal(t, tt.wantCode, stixErr.Code)
		})
	}
}

func TestObject_MarshalRoundTrip(t *testing.T) {
	data := []byte(`{"type":"tool","id":"tool--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f","name":"VNC","x_vendor_score":7}`)

	obj, err := ParseObject(data)
	require.NoError(t, err)

	out, err := json.Marshal(obj)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, "VNC", round["name"])
	assert.Equal(t, float64(7), round["x_vendor_score"])
}
