// Package aig reads and-inverter graphs in the AIGER format into netlists.
//
// Latches become positive-edge flip-flops clocked by a synthesized clock
// input, and gates become two-input AND cells with inverters on negated
// edges.
package aig

import (
	"bufio"
	"fmt"
	"io"

	"github.com/benbjohnson/brisc"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/logic/aiger"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// ClockName is the name of the synthesized clock input.
const ClockName = "clk"

// Read decodes an ASCII ("aag") or binary ("aig") AIGER file.
func Read(r io.Reader, name string) (*brisc.Netlist, error) {
	br := bufio.NewReader(r)
	hdr, err := br.Peek(3)
	if err != nil {
		return nil, errors.Wrap(err, "read aiger header")
	}

	var a *aiger.T
	switch string(hdr) {
	case "aag":
		a, err = aiger.ReadAscii(br)
	case "aig":
		a, err = aiger.ReadBinary(br)
	default:
		return nil, errors.Errorf("aiger: unknown header %q", hdr)
	}
	if err != nil {
		return nil, errors.Wrap(err, "aiger")
	}
	return Convert(a, name)
}

// Convert builds a netlist from an AIGER object.
func Convert(a *aiger.T, name string) (*brisc.Netlist, error) {
	c := &converter{
		aig:     a,
		netlist: brisc.NewNetlist(name),
		sigs:    make(map[z.Var]brisc.SignalID),
		negs:    make(map[z.Var]brisc.SignalID),
	}
	if err := c.convert(); err != nil {
		return nil, err
	}
	return c.netlist, nil
}

type converter struct {
	aig     *aiger.T
	netlist *brisc.Netlist
	sigs    map[z.Var]brisc.SignalID // positive literal of each variable
	negs    map[z.Var]brisc.SignalID // inverter outputs, created on demand
}

func (c *converter) convert() error {
	a, n := c.aig, c.netlist

	for i, m := range a.Inputs {
		w, err := c.addWire(symbol(a.InputName, i, "i"), brisc.DirInput)
		if err != nil {
			return err
		}
		c.sigs[m.Var()] = w.Bits[0]
	}

	for i, m := range a.Latches {
		w, err := c.addWire(symbol(a.LatchName, i, "l"), brisc.DirNone)
		if err != nil {
			return err
		}
		c.sigs[m.Var()] = w.Bits[0]

		switch a.Init(m) {
		case a.F:
			n.SetInit(w.Bits[0], brisc.Bit0)
		case a.T:
			n.SetInit(w.Bits[0], brisc.Bit1)
		}
	}

	// Gates are numbered after inputs and latches; variable 1 is the constant.
	var ands []z.Lit
	for v := 2; v < a.Len(); v++ {
		m := z.Var(v).Pos()
		if a.Type(m) != logic.SAnd {
			continue
		}
		w, err := n.AddWire(fmt.Sprintf("$and%d", v), 1, brisc.DirNone)
		if err != nil {
			return err
		}
		c.sigs[m.Var()] = w.Bits[0]
		ands = append(ands, m)
	}

	for _, m := range ands {
		x, y := a.Ins(m)
		cell, err := n.AddCell(fmt.Sprintf("$and$%d", m.Var()), brisc.CellAnd)
		if err != nil {
			return err
		}
		cell.SetPort("A", brisc.DirInput, c.lit(x))
		cell.SetPort("B", brisc.DirInput, c.lit(y))
		cell.SetPort("Y", brisc.DirOutput, brisc.Sig(c.sigs[m.Var()]))
	}

	if len(a.Latches) > 0 {
		clk, err := c.addWire(ClockName, brisc.DirInput)
		if err != nil {
			return err
		}
		for i, m := range a.Latches {
			cell, err := n.AddCell(fmt.Sprintf("$latch$%d", i), brisc.CellDFF)
			if err != nil {
				return err
			}
			cell.SetPort("C", brisc.DirInput, brisc.Sig(clk.Bits[0]))
			cell.SetPort(brisc.PortD, brisc.DirInput, c.lit(a.Next(m)))
			cell.SetPort(brisc.PortQ, brisc.DirOutput, brisc.Sig(c.sigs[m.Var()]))
		}
	}

	for i, m := range a.Outputs {
		w, err := c.addWire(symbol(a.OutputName, i, "o"), brisc.DirOutput)
		if err != nil {
			return err
		}
		conn := c.lit(m)
		if !conn.Const {
			n.Connect(w.Bits[0], conn.Signal)
			continue
		}
		cell, err := n.AddCell(n.UniqueName("const"), brisc.CellBuf)
		if err != nil {
			return err
		}
		cell.SetPort("A", brisc.DirInput, conn)
		cell.SetPort("Y", brisc.DirOutput, brisc.Sig(w.Bits[0]))
	}
	return nil
}

// addWire adds a single-bit wire, renaming it if a symbol is reused.
func (c *converter) addWire(name string, dir brisc.Direction) (*brisc.Wire, error) {
	base := name
	for i := 1; c.netlist.Wire(name) != nil; i++ {
		name = fmt.Sprintf("%s$%d", base, i)
	}
	return c.netlist.AddWire(name, 1, dir)
}

// lit returns the connection for a literal, inserting an inverter for
// negated literals.
func (c *converter) lit(m z.Lit) brisc.Conn {
	a := c.aig
	switch m {
	case a.T:
		return brisc.Const(brisc.Bit1)
	case a.F:
		return brisc.Const(brisc.Bit0)
	}

	s, ok := c.sigs[m.Var()]
	if !ok {
		// Unmapped variables are undriven and evaluate as unknown.
		s = c.netlist.NewSignal()
		c.sigs[m.Var()] = s
	}
	if m.IsPos() {
		return brisc.Sig(s)
	}

	neg, ok := c.negs[m.Var()]
	if !ok {
		neg = c.netlist.NewSignal()
		cell := c.netlist.MustAddCell(fmt.Sprintf("$not$%d", m.Var()), brisc.CellNot)
		cell.SetPort("A", brisc.DirInput, brisc.Sig(s))
		cell.SetPort("Y", brisc.DirOutput, brisc.Sig(neg))
		c.negs[m.Var()] = neg
	}
	return brisc.Sig(neg)
}

// symbol returns a symbol table name or a generated one.
func symbol(fn func(int) (string, bool), i int, prefix string) string {
	if name, ok := fn(i); ok && name != "" {
		return name
	}
	return fmt.Sprintf("%s%d", prefix, i)
}
