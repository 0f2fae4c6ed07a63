package brisc

import (
	"fmt"

	"github.com/pkg/errors"
)

// Names of the instructions every instruction set must define.
const (
	InstructionReset = "reset"
	InstructionNop   = "nop"
)

// Register port names.
const (
	PortD = "D"
	PortQ = "Q"
)

var (
	ErrNotReset     = errors.New("brisc: reset state not computed")
	ErrAlreadyReset = errors.New("brisc: reset state already computed")
	ErrFrozen       = errors.New("brisc: set is frozen")
	ErrNotConverged = errors.New("brisc: exploration not converged")
	ErrAlreadyBound = errors.New("brisc: signal already bound")
	ErrNoDriver     = errors.New("brisc: signal has no driver")
)

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
