// Package serialization provides utilities for converting workspace documents between
// their on-disk JSON form, generic map form, and typed domain structures.
package serialization

import (
	"encoding/json"

	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
	logger "github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

const moduleName = "serialization"

// MarshalDocument serializes a document map into its on-disk JSON byte form.
// Documents are written pretty-printed with two-space indentation so the files
// stay diffable and hand-inspectable.
func MarshalDocument(doc map[string]interface{}) ([]byte, error) {
	if doc == nil {
		logger.Debugf("Document is nil. Returning empty JSON object.")
		return []byte("{}"), nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logger.Errorf("Failed to serialize document: %v", err)
		return nil, exception.NewWorkspaceError(moduleName, "Failed to serialize document", err, false, false)
	}
	return data, nil
}

// UnmarshalDocument deserializes on-disk JSON bytes into a document map.
// The target map is created or cleared before decoding.
func UnmarshalDocument(data []byte, doc *map[string]interface{}) error {
	if *doc == nil {
		*doc = make(map[string]interface{})
	} else {
		for k := range *doc {
			delete(*doc, k)
		}
	}

	if len(data) == 0 || string(data) == "null" || string(data) == "{}" {
		logger.Debugf("Document data is nil or empty. Created/cleared empty document.")
		return nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		logger.Debugf("Failed to deserialize document: %v", err)
		return exception.NewWorkspaceError(moduleName, "Failed to deserialize document", err, false, false)
	}
	return nil
}

// EncodeToMap converts a typed value into its generic document map form via a
// JSON round trip, honoring the value's json tags.
func EncodeToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("Failed to encode value to document map: %v", err)
		return nil, exception.NewWorkspaceError(moduleName, "Failed to encode value to document map", err, false, false)
	}
	doc := make(map[string]interface{})
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Errorf("Failed to decode encoded value into document map: %v", err)
		return nil, exception.NewWorkspaceError(moduleName, "Failed to decode encoded value into document map", err, false, false)
	}
	return doc, nil
}

// DecodeFromMap converts a generic document map into a typed value via a JSON
// round trip, honoring the target's json tags.
func DecodeFromMap(doc map[string]interface{}, target interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		logger.Errorf("Failed to encode document map: %v", err)
		return exception.NewWorkspaceError(moduleName, "Failed to encode document map", err, false, false)
	}
	if err := json.Unmarshal(data, target); err != nil {
		logger.Errorf("Failed to decode document map into target: %v", err)
		return exception.NewWorkspaceError(moduleName, "Failed to decode document map into target", err, false, false)
	}
	return nil
}
