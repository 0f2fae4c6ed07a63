package brisc

import (
	"fmt"
	"io"
	"log/slog"
)

// Optimizer replaces the logic behind untoggled signals with constants.
type Optimizer struct {
	analysis *Analysis

	// Diagnostics. Defaults to the analysis logger.
	Logger *slog.Logger
}

// NewOptimizer returns an optimizer over a converged analysis.
func NewOptimizer(a *Analysis) *Optimizer {
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Optimizer{analysis: a, Logger: logger}
}

// Report summarizes a constant propagation.
type Report struct {
	Inputs   []string // input signals folded into their consumers
	Replaced []string // driver cells replaced by constant sources
	Split    []string // multi-bit cells with some outputs moved to constants
}

// Propagate rewrites the netlist. Consumers of untoggled input ports read the
// reset value directly; the driver of any other untoggled signal is replaced
// by a constant source carrying the reset value. Clock signals are left
// untouched.
func (o *Optimizer) Propagate() (*Report, error) {
	a := o.analysis
	if a.Untoggled() == nil || !a.Untoggled().Frozen() {
		return nil, &ConsistencyError{Err: ErrNotConverged}
	}
	n, p := a.Netlist(), a.Profile()

	skip := make(map[SignalID]bool)
	if clk := p.Input(a.Instructions().Clock); clk != nil {
		for _, bit := range clk.Bits {
			skip[n.Canonical(bit)] = true
		}
	}
	inputs := make(map[SignalID]bool)
	for _, s := range p.InputSignals() {
		inputs[s] = true
	}

	conn := n.Connectivity()
	untoggled := a.Untoggled()
	done := make(map[*Cell]bool)
	report := &Report{}

	for _, s := range untoggled.Signals() {
		if skip[s] {
			continue
		}
		value := a.InitialValue(s)

		if inputs[s] {
			for _, ref := range conn.Consumers(s) {
				ref.Cell.Ports[ref.Port][ref.Index] = Const(value)
			}
			report.Inputs = append(report.Inputs, n.SignalName(s))
			o.Logger.Debug("[constprop] constant input", "signal", n.SignalName(s), "value", value.String(), "consumers", len(conn.Consumers(s)))
			continue
		}

		drivers := conn.Drivers(s)
		if len(drivers) == 0 {
			return report, &ConsistencyError{Name: n.SignalName(s), Err: ErrNoDriver}
		}
		ref := drivers[0]
		if done[ref.Cell] {
			continue
		}

		outs := ref.Cell.Ports[ref.Port]
		if o.allUntoggled(outs) {
			if err := o.replace(ref.Cell, ref.Port); err != nil {
				return report, err
			}
			done[ref.Cell] = true
			report.Replaced = append(report.Replaced, ref.Cell.Name)
			continue
		}

		// Only some bits are constant: move this bit onto a dangling signal
		// and source the original signal from a constant.
		outs[ref.Index] = Sig(n.NewSignal())
		if _, err := o.addSource(n.UniqueName("const"), s, value); err != nil {
			return report, err
		}
		report.Split = append(report.Split, ref.Cell.Name)
		o.Logger.Debug("[constprop] split output", "cell", ref.Cell.Name, "signal", n.SignalName(s), "value", value.String())
	}
	return report, nil
}

// allUntoggled returns true if every signal bit in conns is untoggled.
func (o *Optimizer) allUntoggled(conns []Conn) bool {
	n, untoggled := o.analysis.Netlist(), o.analysis.Untoggled()
	for _, c := range conns {
		if !c.Const && !untoggled.Contains(n.Canonical(c.Signal)) {
			return false
		}
	}
	return true
}

// replace removes a cell and drives each bit of its output port from a
// constant source. A single-bit source keeps the cell's name.
func (o *Optimizer) replace(c *Cell, port string) error {
	a := o.analysis
	n := a.Netlist()
	outs := c.Ports[port]
	n.RemoveCell(c.Name)

	for i, out := range outs {
		if out.Const {
			continue
		}
		name := c.Name
		if len(outs) > 1 {
			name = fmt.Sprintf("%s$const%d", c.Name, i)
		}
		s := n.Canonical(out.Signal)
		if _, err := o.addSource(name, s, a.InitialValue(s)); err != nil {
			return err
		}
	}
	o.Logger.Info("[constprop] replaced cell", "cell", c.Name, "type", c.Type, "bits", len(outs))
	return nil
}

// addSource adds a buffer driving s from a constant.
func (o *Optimizer) addSource(name string, s SignalID, value Bit) (*Cell, error) {
	c, err := o.analysis.Netlist().AddCell(name, CellBuf)
	if err != nil {
		return nil, err
	}
	c.SetPort(pinA, DirInput, Const(value))
	c.SetPort(pinY, DirOutput, Sig(s))
	o.analysis.Metrics.replaced()
	return c, nil
}
