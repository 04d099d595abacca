// Package rule contains domain types for rule definitions whose actions are
// normalized before evaluation.
package rule

import (
	"context"

	"github.com/checkngn/checkngn/internal/domain/action"
)

// Rule is a raw rule definition as loaded from configuration.
type Rule struct {
	// Name identifies the rule in logs and errors.
	Name string
	// Conditions are carried through untouched; their evaluation belongs to
	// the rule engine.
	Conditions interface{}
	// Actions is the raw action descriptor in any accepted shape.
	Actions interface{}
}

// NormalizedRule is a Rule whose actions have been normalized.
type NormalizedRule struct {
	Name       string          `json:"name" yaml:"name"`
	Conditions interface{}     `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Actions    []action.Record `json:"actions" yaml:"actions"`
}

// RuleSource loads raw rule definitions.
type RuleSource interface {
	// LoadRules returns all rules in definition order.
	LoadRules(ctx context.Context) ([]Rule, error)
}
