// Package action defines the canonical Record type for rule actions and the
// normalizer that produces it.
// Rule definitions may spell an action as a bare name, an [name, params] pair,
// an {"action", "params"} mapping, or a list mixing all three. Every form is
// normalized into a list of Records so the rule engine can process actions
// uniformly.
package action

// Canonical keys of an action record.
const (
	KeyAction = "action"
	KeyParams = "params"
)

// Record is the canonical representation of a single action.
type Record struct {
	// Action is the action identifier (e.g., "notify_manager").
	Action string `json:"action" yaml:"action" mapstructure:"action" validate:"required"`
	// Params holds the action parameters. Never nil on records produced by
	// the normalizer.
	Params map[string]interface{} `json:"params" yaml:"params" mapstructure:"params"`
}

// NewRecord creates a Record, substituting an empty params mapping for nil.
func NewRecord(name string, params map[string]interface{}) Record {
	if params == nil {
		params = map[string]interface{}{}
	}
	return Record{Action: name, Params: params}
}

// toMap returns the generic two-key form of the record.
func (r Record) toMap() map[string]interface{} {
	params := r.Params
	if params == nil {
		params = map[string]interface{}{}
	}
	return map[string]interface{}{
		KeyAction: r.Action,
		KeyParams: params,
	}
}

// ToMaps converts records into plain {"action": ..., "params": ...} maps for
// consumers that handle actions as opaque structured values. The result can be
// fed back to Normalize and yields the same records.
func ToMaps(records []Record) []map[string]interface{} {
	out := make([]map[string]interface{}, len(records))
	for i, r := range records {
		out[i] = r.toMap()
	}
	return out
}
