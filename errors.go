package brisc

import (
	"fmt"
)

// StructuralError reports a netlist that cannot be analyzed, such as a
// register without a D input or a bidirectional port.
type StructuralError struct {
	Name   string // offending cell, port or signal
	Reason string
}

// Error returns the error message.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s: %s", e.Name, e.Reason)
}

// ValidationError reports an instruction set that does not fit the circuit.
type ValidationError struct {
	Instruction string // may be empty for top-level fields
	Field       string // port or field name
	Reason      string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	switch {
	case e.Instruction != "" && e.Field != "":
		return fmt.Sprintf("validation error: instruction %q: %s: %s", e.Instruction, e.Field, e.Reason)
	case e.Instruction != "":
		return fmt.Sprintf("validation error: instruction %q: %s", e.Instruction, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
	default:
		return "validation error: " + e.Reason
	}
}

// ConsistencyError reports a broken internal invariant, such as an untoggled
// signal without a driver or a mutation of a frozen set.
type ConsistencyError struct {
	Name string
	Err  error
}

// Error returns the error message.
func (e *ConsistencyError) Error() string {
	if e.Name == "" {
		return "consistency error: " + e.Err.Error()
	}
	return fmt.Sprintf("consistency error: %s: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error so errors.Is matches sentinel errors.
func (e *ConsistencyError) Unwrap() error { return e.Err }

func structuralErrorf(name, format string, args ...interface{}) error {
	return &StructuralError{Name: name, Reason: fmt.Sprintf(format, args...)}
}

func validationErrorf(inst, field, format string, args ...interface{}) error {
	return &ValidationError{Instruction: inst, Field: field, Reason: fmt.Sprintf(format, args...)}
}
