package brisc

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// Analysis holds everything derived from a circuit and its instruction set:
// the evaluator, the reset valuation, the reachable states and the signals
// that have not toggled. It is owned by a single caller.
type Analysis struct {
	netlist   *Netlist
	profile   *Profile
	insts     *InstructionSet
	evaluator *Evaluator

	signals      []SignalID       // every canonical signal, ascending
	signalIndex  map[SignalID]int // position within signals
	initial      Bits             // value of every signal after reset
	seed         RegisterState
	states       *StateSet
	untoggled    *SignalSet
	resetApplied bool

	// Value assumed for registers that are still unknown after reset and
	// declare no power-on value. Defaults to Bit0.
	PowerOn Bit

	// Diagnostics. Defaults to discarding all output.
	Logger *slog.Logger

	// Optional exploration metrics.
	Metrics *Metrics
}

// NewAnalysis validates insts against p and returns a new analysis.
func NewAnalysis(p *Profile, insts *InstructionSet) (*Analysis, error) {
	if err := insts.Validate(p); err != nil {
		return nil, err
	}

	ev, err := NewEvaluator(p)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		netlist:     p.Netlist(),
		profile:     p,
		insts:       insts,
		evaluator:   ev,
		signals:     p.Netlist().Signals(),
		signalIndex: make(map[SignalID]int),
		states:      NewStateSet(),
		PowerOn:     Bit0,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i, s := range a.signals {
		a.signalIndex[s] = i
	}
	return a, nil
}

// Netlist returns the analyzed netlist.
func (a *Analysis) Netlist() *Netlist { return a.netlist }

// Profile returns the circuit profile.
func (a *Analysis) Profile() *Profile { return a.profile }

// Instructions returns the validated instruction set.
func (a *Analysis) Instructions() *InstructionSet { return a.insts }

// Evaluator returns the evaluator used for all executions.
func (a *Analysis) Evaluator() *Evaluator { return a.evaluator }

// Signals returns every canonical signal in ascending order.
func (a *Analysis) Signals() []SignalID { return a.signals }

// InitialState returns the value of every signal after reset, in the order
// of Signals. Returns nil before Reset.
func (a *Analysis) InitialState() Bits { return a.initial.Clone() }

// InitialValue returns the value of a signal after reset.
func (a *Analysis) InitialValue(s SignalID) Bit {
	assert(a.resetApplied, "initial value requested before reset")
	i, ok := a.signalIndex[a.netlist.Canonical(s)]
	assert(ok, "initial value of unknown signal %d", s)
	return a.initial[i]
}

// Seed returns the register state after reset.
func (a *Analysis) Seed() RegisterState { return a.seed }

// States returns the set of reachable register states.
func (a *Analysis) States() *StateSet { return a.states }

// Untoggled returns the set of signals that have kept their reset value.
// Returns nil before Reset.
func (a *Analysis) Untoggled() *SignalSet { return a.untoggled }

// Reset computes the reset valuation. Inputs are held at the reset
// instruction while the registers are clocked once per pipeline stage,
// starting from unknown. Registers still unknown afterwards take their
// power-on value. Reset may only be called once.
func (a *Analysis) Reset() error {
	if a.resetApplied {
		return &ConsistencyError{Err: ErrAlreadyReset}
	}

	ev, p := a.evaluator, a.profile
	ev.Push()
	defer ev.Pop()

	reset := a.insts.Instruction(InstructionReset)
	if err := ev.Set(p.InputSignals(), reset.Vector(), false); err != nil {
		return errors.Wrap(err, "bind reset inputs")
	}
	qs := p.QVector()
	if err := ev.Set(qs, NewBits(len(qs), BitX), false); err != nil {
		return errors.Wrap(err, "bind registers")
	}

	for i := 0; i < a.insts.PipelineDepth; i++ {
		next := ev.EvalAllConns(p.DVector())
		if err := ev.Set(qs, next, true); err != nil {
			return err
		}
		a.Logger.Debug("[reset] clock", "stage", i+1, "state", next.String())
	}

	q := ev.EvalAll(qs)
	for i, reg := range p.Registers() {
		if q[i] != BitX {
			continue
		} else if reg.Init != BitX {
			q[i] = reg.Init
		} else {
			q[i] = a.PowerOn
		}
	}
	if err := ev.Set(qs, q, true); err != nil {
		return err
	}

	a.initial = ev.EvalAll(a.signals)
	a.seed = NewRegisterState(q)
	if _, err := a.states.Insert(a.seed); err != nil {
		return err
	}
	a.untoggled = NewSignalSet(a.signals)
	a.resetApplied = true

	a.Metrics.stateAdded()
	a.Metrics.setUntoggled(a.untoggled.Len())
	a.Logger.Info("[reset] settled", "state", a.seed.String(), "signals", len(a.signals))
	return nil
}

// Execute applies one instruction in the evaluator's current frame. The
// instruction's inputs are bound, rebinding held inputs only if overwrite is
// set, and the next register state is computed.
//
// If setState is set the next state is inserted into the reachable set and
// Execute reports whether it was new; a known state is loaded into the
// registers so execution can continue from it. Otherwise the next state is
// always loaded into the registers.
//
// Every signal whose value differs from its reset value is removed from the
// untoggled set.
func (a *Analysis) Execute(name string, setState, overwrite bool) (added bool, err error) {
	if !a.resetApplied {
		return false, &ConsistencyError{Name: name, Err: ErrNotReset}
	}
	inst := a.insts.Instruction(name)
	if inst == nil {
		return false, validationErrorf(name, "", "unknown instruction")
	}

	ev, p := a.evaluator, a.profile
	if err := ev.Set(p.InputSignals(), inst.Vector(), overwrite); err != nil {
		return false, errors.Wrapf(err, "execute %s", name)
	}
	a.Metrics.executed(name)

	values := ev.EvalAll(a.signals)
	next := ev.EvalAllConns(p.DVector())

	if setState {
		state := NewRegisterState(next)
		if added, err = a.states.Insert(state); err != nil {
			return false, err
		} else if added {
			a.Metrics.stateAdded()
			a.Logger.Info("[state] added", "instruction", name, "state", state.String(), "n", a.states.Len())
		}
	}
	if !added {
		if err := ev.Set(p.QVector(), next, true); err != nil {
			return false, err
		}
	}

	for i, s := range a.signals {
		if values[i] == a.initial[i] {
			continue
		}
		if ok, err := a.untoggled.Remove(s); err != nil {
			return added, err
		} else if ok {
			a.Logger.Debug("[untoggled] removed", "signal", a.netlist.SignalName(s), "instruction", name)
		}
	}
	a.Metrics.setUntoggled(a.untoggled.Len())

	return added, nil
}
