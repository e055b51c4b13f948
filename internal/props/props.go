// Package props merges property change sets into persisted property
// documents.
//
// A persisted property section is a JSON object. Every key holds a JSON
// string except PropertyUserRights (an array) and PropertySiteConfigurations
// (an object), which are stored structurally and held in memory as their
// JSON text.
package props

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/metastore/pkg/types"
)

// Merge applies cs to the existing property section and returns the result.
// Keys cs does not mention are carried over untouched, so concurrent updates
// that change disjoint keys do not overwrite each other. existing is not
// modified.
func Merge(existing map[string]json.RawMessage, cs *types.ChangeSet) (map[string]json.RawMessage, error) {
	merged := make(map[string]json.RawMessage, len(existing)+cs.Len())
	for k, v := range existing {
		merged[k] = v
	}
	for _, ch := range cs.Changes() {
		switch ch.Op {
		case types.PropertyDelete:
			delete(merged, ch.Key)
		case types.PropertySet:
			raw, err := Encode(ch.Key, ch.Value)
			if err != nil {
				return nil, err
			}
			merged[ch.Key] = raw
		}
	}
	return merged, nil
}

// Encode returns the persisted form of one property value.
func Encode(key, value string) (json.RawMessage, error) {
	switch key {
	case types.PropertyUserRights:
		return structured(key, value, '[')
	case types.PropertySiteConfigurations:
		return structured(key, value, '{')
	default:
		return json.Marshal(value)
	}
}

func structured(key, value string, open byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(value)); err != nil {
		return nil, fmt.Errorf("property %s: %w: %v", key, types.ErrInvalidState, err)
	}
	if buf.Len() == 0 || buf.Bytes()[0] != open {
		return nil, fmt.Errorf("property %s: %w: want JSON %s", key, types.ErrInvalidState, kind(open))
	}
	return json.RawMessage(buf.Bytes()), nil
}

func kind(open byte) string {
	if open == '[' {
		return "array"
	}
	return "object"
}

// Flatten converts a persisted property section to the in-memory form:
// strings are unquoted, anything else is kept as compact JSON text.
func Flatten(raw map[string]json.RawMessage) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return nil, fmt.Errorf("property %s: %w", k, err)
		}
		out[k] = buf.String()
	}
	return out, nil
}

// Apply updates an in-memory property map with cs after a successful flush.
func Apply(properties map[string]string, cs *types.ChangeSet) map[string]string {
	if properties == nil {
		properties = make(map[string]string)
	}
	for _, ch := range cs.Changes() {
		if ch.Op == types.PropertyDelete {
			delete(properties, ch.Key)
			continue
		}
		properties[ch.Key] = ch.Value
	}
	return properties
}

// RewriteUserRights replaces oldID with newID in the Uri of every access-right
// entry. Entries whose Uri does not mention oldID are left unchanged.
func RewriteUserRights(value, oldID, newID string) (string, error) {
	var rights []map[string]any
	if err := json.Unmarshal([]byte(value), &rights); err != nil {
		return "", fmt.Errorf("property %s: %w: %v", types.PropertyUserRights, types.ErrInvalidState, err)
	}
	for _, right := range rights {
		uri, ok := right["Uri"].(string)
		if ok && strings.Contains(uri, oldID) {
			right["Uri"] = strings.ReplaceAll(uri, oldID, newID)
		}
	}
	out, err := json.Marshal(rights)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
