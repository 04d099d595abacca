package action

import (
	"fmt"
	"reflect"
)

// DescriptorShape identifies which accepted form an action descriptor takes.
type DescriptorShape int

const (
	// ShapeInvalid is returned alongside an error for unrecognized descriptors.
	ShapeInvalid DescriptorShape = iota
	// ShapeIdentifier is a bare action name: "notify_manager".
	ShapeIdentifier
	// ShapePair is a two-element sequence: ["put_on_sale", {"percent": 25}].
	ShapePair
	// ShapeMapping is a mapping with an "action" key and optional "params".
	ShapeMapping
	// ShapeList is a sequence of descriptors of any of the other shapes.
	ShapeList
)

// String returns the lowercase name of the shape, used in logs and metric labels.
func (s DescriptorShape) String() string {
	switch s {
	case ShapeIdentifier:
		return "identifier"
	case ShapePair:
		return "pair"
	case ShapeMapping:
		return "mapping"
	case ShapeList:
		return "list"
	case ShapeInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Classify inspects a raw descriptor and reports its shape.
// It only looks at the outer structure: list elements are classified
// separately during normalization.
func Classify(v interface{}) (DescriptorShape, error) {
	if _, ok := asIdentifier(v); ok {
		return ShapeIdentifier, nil
	}

	if m, ok := asMapping(v); ok {
		if _, has := m[KeyAction]; !has {
			return ShapeInvalid, newInvalid(v, "", fmt.Sprintf("mapping has no %q key", KeyAction))
		}
		return ShapeMapping, nil
	}

	if seq, ok := asSequence(v); ok {
		if isPair(seq) {
			return ShapePair, nil
		}
		return ShapeList, nil
	}

	if v == nil {
		return ShapeInvalid, newInvalid(v, "", "descriptor is nil")
	}
	return ShapeInvalid, newInvalid(v, "", fmt.Sprintf("unsupported descriptor type %T", v))
}

// isPair reports whether a sequence is an [identifier, params] pair: exactly two
// elements, an identifier first, and a second element that is neither an
// identifier, a sequence, nor an action mapping. ["a", "b"] and
// ["a", {"action": "b"}] are therefore lists of two descriptors.
func isPair(seq []interface{}) bool {
	if len(seq) != 2 {
		return false
	}
	if _, ok := asIdentifier(seq[0]); !ok {
		return false
	}
	if _, ok := asIdentifier(seq[1]); ok {
		return false
	}
	if _, ok := asSequence(seq[1]); ok {
		return false
	}
	if m, ok := asMapping(seq[1]); ok {
		if _, has := m[KeyAction]; has {
			return false
		}
	}
	return true
}

// asIdentifier accepts string and any named type whose underlying kind is string.
func asIdentifier(v interface{}) (string, bool) {
	switch typed := v.(type) {
	case string:
		return typed, true
	case nil:
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

// asMapping converts the map types produced by JSON/YAML decoders (and Record
// itself) into a map[string]interface{}. Non-string keys make the value a
// non-mapping.
func asMapping(v interface{}) (map[string]interface{}, bool) {
	switch typed := v.(type) {
	case map[string]interface{}:
		return typed, true
	case Record:
		return typed.toMap(), true
	case *Record:
		if typed == nil {
			return nil, false
		}
		return typed.toMap(), true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for key, val := range typed {
			name, ok := key.(string)
			if !ok {
				return nil, false
			}
			out[name] = val
		}
		return out, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asSequence converts slices and arrays into []interface{}. Byte slices are not
// treated as sequences.
func asSequence(v interface{}) ([]interface{}, bool) {
	switch typed := v.(type) {
	case []interface{}:
		return typed, true
	case []string:
		out := make([]interface{}, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out, true
	case []map[string]interface{}:
		out := make([]interface{}, len(typed))
		for i, m := range typed {
			out[i] = m
		}
		return out, true
	case []Record:
		out := make([]interface{}, len(typed))
		for i, r := range typed {
			out[i] = r
		}
		return out, true
	case []byte, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
