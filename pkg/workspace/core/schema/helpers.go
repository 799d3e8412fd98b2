package schema

import (
	"fmt"
	"time"
)

// documentArray extracts a required array field from a document.
func documentArray(doc map[string]interface{}, key string) ([]interface{}, error) {
	raw, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("missing %q array", key)
	}
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%q is not an array", key)
	}
	return arr, nil
}

// stringField returns the string value of a map field, or "" when the field is
// absent or not a string.
func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// nowTimestamp returns the current time in the RFC3339 form used for document
// timestamp backfills.
func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
