// Package changeset computes the minimal set of field changes between a stored
// property and an owner's edit, and applies approved changes back.
package changeset

import (
	"bytes"
	"encoding/json"
)

// Normalize collapses every "no data" representation to nil so that absent,
// empty-string and explicit-null values compare equal.
//
// Empty strings and empty arrays become nil. Objects are normalized key by
// key, nil entries are dropped and an object left without keys becomes nil.
// Non-empty arrays are returned untouched; their elements are not normalized.
// Values that are not already JSON-shaped (structs, typed slices, pointers)
// are converted through their JSON encoding first.
func Normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return v
	case bool, float64, json.Number:
		return v
	case []interface{}:
		if len(v) == 0 {
			return nil
		}
		return v
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			if normalized := Normalize(item); normalized != nil {
				out[key] = normalized
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		shaped, err := toJSONValue(v)
		if err != nil {
			return v
		}
		return Normalize(shaped)
	}
}

// toJSONValue converts v into the generic shape encoding/json decodes to.
func toJSONValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// jsonEqual compares two values by their JSON encoding. Map keys are encoded
// in sorted order, which makes the comparison independent of insertion order.
func jsonEqual(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
