package brisc

import (
	"github.com/pkg/errors"
)

// ExplorerStatus represents the progress of an exploration.
type ExplorerStatus string

const (
	ExplorerStatusIdle      = ExplorerStatus("idle")
	ExplorerStatusExecuting = ExplorerStatus("executing")
	ExplorerStatusConverged = ExplorerStatus("converged")
)

// Explorer applies every instruction to every reachable register state until
// no new state appears.
//
// Applying an instruction to a state is deterministic, so each state is
// expanded exactly once: a state expanded in an earlier round cannot yield
// a new state or toggle a new signal when expanded again.
type Explorer struct {
	analysis *Analysis
	status   ExplorerStatus
	expanded int // number of states, in insertion order, already expanded
	rounds   int
}

// NewExplorer returns an explorer over a reset analysis.
func NewExplorer(a *Analysis) *Explorer {
	return &Explorer{
		analysis: a,
		status:   ExplorerStatusIdle,
	}
}

// Status returns the current status of the exploration.
func (x *Explorer) Status() ExplorerStatus { return x.status }

// Rounds returns the number of rounds run so far.
func (x *Explorer) Rounds() int { return x.rounds }

// Run explores until convergence, then freezes the reachable state set and
// the untoggled signal set. Calling Run after convergence is a no-op.
func (x *Explorer) Run() error {
	a := x.analysis
	if x.status == ExplorerStatusConverged {
		return nil
	} else if a.Untoggled() == nil {
		return &ConsistencyError{Err: ErrNotReset}
	}

	x.status = ExplorerStatusExecuting
	for {
		n, err := x.round()
		if err != nil {
			return err
		} else if n == 0 {
			break
		}
	}

	a.States().Freeze()
	a.Untoggled().Freeze()
	x.status = ExplorerStatusConverged
	a.Logger.Info("[explore] converged", "states", a.States().Len(), "untoggled", a.Untoggled().Len(), "rounds", x.rounds)
	return nil
}

// round expands every known state that has not been expanded yet, including
// states discovered during the round. Returns the number of states added.
func (x *Explorer) round() (int, error) {
	a := x.analysis
	x.rounds++
	a.Metrics.round()

	before := a.States().Len()
	for x.expanded < a.States().Len() {
		state := a.States().At(x.expanded)
		x.expanded++
		if err := x.expand(state); err != nil {
			return 0, errors.Wrapf(err, "expand state %s", state)
		}
	}

	n := a.States().Len() - before
	a.Logger.Debug("[explore] round", "round", x.rounds, "added", n, "states", a.States().Len())
	return n, nil
}

// expand applies each instruction to state, each from the same baseline.
func (x *Explorer) expand(state RegisterState) error {
	a := x.analysis
	ev := a.Evaluator()

	ev.Push()
	defer ev.Pop()

	if err := ev.Set(a.Profile().QVector(), state.Bits(), false); err != nil {
		return err
	}
	for _, name := range a.Instructions().Names() {
		if err := x.step(name); err != nil {
			return err
		}
	}
	return nil
}

// step executes one instruction in its own frame. An instruction that does
// not reach a new state is followed by nop executions draining the pipeline.
func (x *Explorer) step(name string) error {
	a := x.analysis
	ev := a.Evaluator()

	ev.Push()
	defer ev.Pop()

	added, err := a.Execute(name, true, false)
	if err != nil {
		return err
	} else if added {
		return nil
	}

	for i := 1; i < a.Instructions().PipelineDepth; i++ {
		if _, err := a.Execute(InstructionNop, false, true); err != nil {
			return errors.Wrapf(err, "flush %s", name)
		}
	}
	return nil
}
