package action

import (
	"errors"
	"fmt"
)

// ErrInvalidActionDescriptor is matched by every InvalidActionDescriptorError.
var ErrInvalidActionDescriptor = errors.New("invalid action descriptor")

// InvalidActionDescriptorError reports a descriptor that matches none of the
// accepted shapes.
type InvalidActionDescriptorError struct {
	// Value is the offending descriptor (or list element).
	Value interface{}
	// Path locates Value inside list input, e.g. "[2]" or "[1][0]".
	// Empty when the top-level descriptor is at fault.
	Path string
	// Reason describes what is wrong with Value.
	Reason string
}

func newInvalid(v interface{}, path, reason string) *InvalidActionDescriptorError {
	return &InvalidActionDescriptorError{Value: v, Path: path, Reason: reason}
}

// Error implements the error interface.
func (e *InvalidActionDescriptorError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s (value: %#v)", ErrInvalidActionDescriptor, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s at %s: %s (value: %#v)", ErrInvalidActionDescriptor, e.Path, e.Reason, e.Value)
}

// Is makes errors.Is(err, ErrInvalidActionDescriptor) succeed.
func (e *InvalidActionDescriptorError) Is(target error) bool {
	return target == ErrInvalidActionDescriptor
}

// withPrefix returns a copy of the error located under prefix.
func (e *InvalidActionDescriptorError) withPrefix(prefix string) *InvalidActionDescriptorError {
	return &InvalidActionDescriptorError{Value: e.Value, Path: prefix + e.Path, Reason: e.Reason}
}
