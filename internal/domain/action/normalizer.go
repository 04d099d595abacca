package action

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// NestedListPolicy controls how a list element that is itself a list (and not
// an [identifier, params] pair) is handled.
type NestedListPolicy int

const (
	// NestedReject fails normalization with ErrInvalidActionDescriptor.
	NestedReject NestedListPolicy = iota
	// NestedFlatten normalizes nested lists recursively and splices their
	// records in place.
	NestedFlatten
)

// String returns the config spelling of the policy.
func (p NestedListPolicy) String() string {
	switch p {
	case NestedReject:
		return "reject"
	case NestedFlatten:
		return "flatten"
	default:
		return fmt.Sprintf("nested(%d)", int(p))
	}
}

// ParseNestedListPolicy parses "reject" or "flatten" (case-insensitive).
// An empty string yields NestedReject.
func ParseNestedListPolicy(s string) (NestedListPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return NestedReject, nil
	case "flatten":
		return NestedFlatten, nil
	default:
		return NestedReject, fmt.Errorf("unknown nested list policy %q (want reject or flatten)", s)
	}
}

// Normalizer converts action descriptors into canonical Records.
// A Normalizer holds only immutable options and is safe for concurrent use.
type Normalizer struct {
	nested NestedListPolicy
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithNestedLists sets the policy for doubly nested lists.
func WithNestedLists(p NestedListPolicy) Option {
	return func(n *Normalizer) {
		n.nested = p
	}
}

// NewNormalizer creates a Normalizer. Without options nested lists are rejected.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{nested: NestedReject}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NestedLists returns the configured nested list policy.
func (n *Normalizer) NestedLists() NestedListPolicy {
	return n.nested
}

var defaultNormalizer = NewNormalizer()

// Normalize converts desc with the default Normalizer.
func Normalize(desc interface{}) ([]Record, error) {
	return defaultNormalizer.Normalize(desc)
}

// Normalize converts a descriptor into an ordered list of Records.
// A single descriptor yields one record; a list yields one record per element
// in input order. Any invalid element fails the whole call and no partial
// result is returned.
func (n *Normalizer) Normalize(desc interface{}) ([]Record, error) {
	shape, err := Classify(desc)
	if err != nil {
		return nil, err
	}

	switch shape {
	case ShapeIdentifier, ShapePair, ShapeMapping:
		rec, err := n.single(desc, shape, "")
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	case ShapeList:
		seq, _ := asSequence(desc)
		return n.appendList(make([]Record, 0, len(seq)), seq, "")
	case ShapeInvalid:
		return nil, newInvalid(desc, "", "unclassifiable descriptor")
	default:
		return nil, newInvalid(desc, "", "unhandled descriptor shape "+shape.String())
	}
}

// appendList normalizes each element of seq and appends the records to out.
func (n *Normalizer) appendList(out []Record, seq []interface{}, path string) ([]Record, error) {
	for i, elem := range seq {
		elemPath := fmt.Sprintf("%s[%d]", path, i)

		shape, err := Classify(elem)
		if err != nil {
			var invalid *InvalidActionDescriptorError
			if errors.As(err, &invalid) {
				return nil, invalid.withPrefix(elemPath)
			}
			return nil, err
		}

		switch shape {
		case ShapeIdentifier, ShapePair, ShapeMapping:
			rec, err := n.single(elem, shape, elemPath)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		case ShapeList:
			if n.nested != NestedFlatten {
				return nil, newInvalid(elem, elemPath, "nested action lists are not allowed")
			}
			nested, _ := asSequence(elem)
			out, err = n.appendList(out, nested, elemPath)
			if err != nil {
				return nil, err
			}
		case ShapeInvalid:
			return nil, newInvalid(elem, elemPath, "unclassifiable descriptor")
		default:
			return nil, newInvalid(elem, elemPath, "unhandled descriptor shape "+shape.String())
		}
	}
	return out, nil
}

// single builds the record for a non-list descriptor of a known shape.
func (n *Normalizer) single(v interface{}, shape DescriptorShape, path string) (Record, error) {
	switch shape {
	case ShapeIdentifier:
		name, _ := asIdentifier(v)
		return NewRecord(name, nil), nil
	case ShapePair:
		seq, _ := asSequence(v)
		name, _ := asIdentifier(seq[0])
		// A second element that is nil or not a mapping means "no params".
		params, _ := asMapping(seq[1])
		return NewRecord(name, maps.Clone(params)), nil
	case ShapeMapping:
		m, _ := asMapping(v)
		return decodeMapping(v, m, path)
	case ShapeList, ShapeInvalid:
		return Record{}, newInvalid(v, path, "not a single action descriptor")
	default:
		return Record{}, newInvalid(v, path, "unhandled descriptor shape "+shape.String())
	}
}

// decodeMapping decodes an {"action": ..., "params": ...} mapping. Keys other
// than action and params are ignored.
func decodeMapping(v interface{}, m map[string]interface{}, path string) (Record, error) {
	if _, ok := asIdentifier(m[KeyAction]); !ok {
		return Record{}, newInvalid(v, path, fmt.Sprintf("%q must be a string, got %T", KeyAction, m[KeyAction]))
	}

	var rec Record
	if err := mapstructure.Decode(m, &rec); err != nil {
		return Record{}, newInvalid(v, path, fmt.Sprintf("%q is not a mapping: %v", KeyParams, err))
	}
	return NewRecord(rec.Action, rec.Params), nil
}
