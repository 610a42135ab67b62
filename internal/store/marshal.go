package store

import (
	"encoding/json"
	"fmt"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// marshalStrings converts a string list to canonical JSON TEXT for storage.
// A nil list is stored as "[]".
func marshalStrings(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings parses JSON TEXT written by marshalStrings.
// An empty list comes back as nil.
func unmarshalStrings(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return list, nil
}
