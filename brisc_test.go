package brisc_test

import (
	"strings"
	"testing"

	"github.com/benbjohnson/brisc"
)

// NewToggleNetlist returns a single register whose Q feeds its D through an
// inverter, with a clock and one unused input.
func NewToggleNetlist(tb testing.TB) *brisc.Netlist {
	tb.Helper()

	n := brisc.NewNetlist("toggle")
	clk := n.MustAddWire("clk", 1, brisc.DirInput)
	n.MustAddWire("unused", 1, brisc.DirInput)
	q := n.MustAddWire("q", 1, brisc.DirOutput)
	d := n.MustAddWire("d", 1, brisc.DirNone)

	inv := n.MustAddCell("inv", brisc.CellNot)
	inv.SetPort("A", brisc.DirNone, brisc.Sig(q.Bits[0]))
	inv.SetPort("Y", brisc.DirNone, brisc.Sig(d.Bits[0]))

	ff := n.MustAddCell("ff", brisc.CellDFF)
	ff.SetPort("C", brisc.DirNone, brisc.Sig(clk.Bits[0]))
	ff.SetPort(brisc.PortD, brisc.DirNone, brisc.Sig(d.Bits[0]))
	ff.SetPort(brisc.PortQ, brisc.DirNone, brisc.Sig(q.Bits[0]))
	return n
}

// ToggleInstructions drives only the unused input.
const ToggleInstructions = `
clock: clk
pipeline-depth: 1
instructions:
  reset: {unused: x}
  nop: {unused: x}
`

// NewCounterNetlist returns a 2-bit counter that increments while en is high.
func NewCounterNetlist(tb testing.TB) *brisc.Netlist {
	tb.Helper()

	n := brisc.NewNetlist("counter")
	clk := n.MustAddWire("clk", 1, brisc.DirInput)
	en := n.MustAddWire("en", 1, brisc.DirInput)
	count := n.MustAddWire("count", 2, brisc.DirOutput)
	next := n.MustAddWire("next", 2, brisc.DirNone)
	carry := n.MustAddWire("carry", 1, brisc.DirNone)

	addCell(n, "add0", brisc.CellXor, next.Bits[0], count.Bits[0], en.Bits[0])
	addCell(n, "carry", brisc.CellAnd, carry.Bits[0], count.Bits[0], en.Bits[0])
	addCell(n, "add1", brisc.CellXor, next.Bits[1], count.Bits[1], carry.Bits[0])

	ff := n.MustAddCell("count_reg", brisc.CellDFF)
	ff.SetPort("C", brisc.DirNone, brisc.Sig(clk.Bits[0]))
	ff.SetPort(brisc.PortD, brisc.DirNone, brisc.Sig(next.Bits[0]), brisc.Sig(next.Bits[1]))
	ff.SetPort(brisc.PortQ, brisc.DirNone, brisc.Sig(count.Bits[0]), brisc.Sig(count.Bits[1]))
	return n
}

// CounterInstructions holds the counter in reset and nop, and counts in inc.
const CounterInstructions = `
clock: clk
pipeline-depth: 1
instructions:
  reset: {en: 0}
  nop: {en: 0}
  inc: {en: 1}
`

// addCell adds a gate driving y from the given input signals on A, B, ...
func addCell(n *brisc.Netlist, name, typ string, y brisc.SignalID, inputs ...brisc.SignalID) *brisc.Cell {
	c := n.MustAddCell(name, typ)
	for i, s := range inputs {
		c.SetPort(string(rune('A'+i)), brisc.DirNone, brisc.Sig(s))
	}
	c.SetPort("Y", brisc.DirNone, brisc.Sig(y))
	return c
}

// MustNewProfile profiles n. Fatal on error.
func MustNewProfile(tb testing.TB, n *brisc.Netlist) *brisc.Profile {
	tb.Helper()
	p, err := brisc.NewProfile(n)
	if err != nil {
		tb.Fatal(err)
	}
	return p
}

// MustParseInstructionSet parses an instruction set document. Fatal on error.
func MustParseInstructionSet(tb testing.TB, s string) *brisc.InstructionSet {
	tb.Helper()
	insts, err := brisc.ReadInstructionSet(strings.NewReader(s))
	if err != nil {
		tb.Fatal(err)
	}
	return insts
}

// MustReset returns an analysis of n under insts with the reset state
// computed. Fatal on error.
func MustReset(tb testing.TB, n *brisc.Netlist, insts string) *brisc.Analysis {
	tb.Helper()
	a, err := brisc.NewAnalysis(MustNewProfile(tb, n), MustParseInstructionSet(tb, insts))
	if err != nil {
		tb.Fatal(err)
	} else if err := a.Reset(); err != nil {
		tb.Fatal(err)
	}
	return a
}

// MustExplore returns an analysis of n under insts explored to convergence.
// Fatal on error.
func MustExplore(tb testing.TB, n *brisc.Netlist, insts string) *brisc.Analysis {
	tb.Helper()
	a := MustReset(tb, n, insts)
	if err := brisc.NewExplorer(a).Run(); err != nil {
		tb.Fatal(err)
	}
	return a
}

// StateStrings returns the reachable states of a as strings.
func StateStrings(a *brisc.Analysis) []string {
	var states []string
	for _, state := range a.States().States() {
		states = append(states, state.String())
	}
	return states
}
