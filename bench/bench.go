// Package bench reads ISCAS-89 .bench netlists.
//
// A bench file declares ports and gates, one per line:
//
//	# comment
//	INPUT(G0)
//	OUTPUT(G17)
//	G10 = NAND(G0, G5, G6)
//	G5 = DFF(G10)
//
// Gates with more than two inputs are folded into chains of two-input cells
// and flip-flops are clocked by a synthesized clock input.
package bench

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/benbjohnson/brisc"
	"github.com/pkg/errors"
)

// ClockName is the name of the synthesized clock input.
const ClockName = "clk"

var (
	portRE = regexp.MustCompile(`^(INPUT|OUTPUT)\s*\(\s*([^\s()]+)\s*\)$`)
	gateRE = regexp.MustCompile(`^([^\s=()]+)\s*=\s*(\w+)\s*\(([^()]*)\)$`)
)

// gate is a parsed gate statement.
type gate struct {
	line   int
	output string
	typ    string
	inputs []string
}

// Read parses a bench file into a netlist with the given name.
func Read(r io.Reader, name string) (*brisc.Netlist, error) {
	p := &parser{
		netlist: brisc.NewNetlist(name),
		sigs:    make(map[string]brisc.SignalID),
	}
	if err := p.parse(r); err != nil {
		return nil, err
	} else if err := p.build(); err != nil {
		return nil, err
	}
	return p.netlist, nil
}

type parser struct {
	netlist *brisc.Netlist
	sigs    map[string]brisc.SignalID
	gates   []gate
	outputs []string
	clock   *brisc.Wire
}

func (p *parser) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := portRE.FindStringSubmatch(line); m != nil {
			if m[1] == "INPUT" {
				w, err := p.netlist.AddWire(m[2], 1, brisc.DirInput)
				if err != nil {
					return errors.Wrapf(err, "line %d", lineNo)
				}
				p.sigs[m[2]] = w.Bits[0]
			} else {
				p.outputs = append(p.outputs, m[2])
			}
			continue
		}

		m := gateRE.FindStringSubmatch(line)
		if m == nil {
			return errors.Errorf("line %d: invalid statement %q", lineNo, line)
		}
		g := gate{line: lineNo, output: m[1], typ: strings.ToUpper(m[2])}
		for _, in := range strings.Split(m[3], ",") {
			if in = strings.TrimSpace(in); in != "" {
				g.inputs = append(g.inputs, in)
			}
		}
		if len(g.inputs) == 0 {
			return errors.Errorf("line %d: gate %s has no inputs", lineNo, g.output)
		}
		p.gates = append(p.gates, g)
	}
	return scanner.Err()
}

// build creates a wire per gate output, then the cells and output ports.
func (p *parser) build() error {
	n := p.netlist
	for _, g := range p.gates {
		if _, ok := p.sigs[g.output]; ok {
			return errors.Errorf("line %d: %s defined more than once", g.line, g.output)
		}
		w, err := n.AddWire(g.output, 1, brisc.DirNone)
		if err != nil {
			return errors.Wrapf(err, "line %d", g.line)
		}
		p.sigs[g.output] = w.Bits[0]
	}

	for _, g := range p.gates {
		if err := p.addGate(g); err != nil {
			return errors.Wrapf(err, "line %d", g.line)
		}
	}

	for _, name := range p.outputs {
		s, ok := p.sigs[name]
		if !ok {
			return errors.Errorf("output %s is never driven", name)
		}
		if w := n.Wire(name); w != nil && w.Dir == brisc.DirNone {
			w.Dir = brisc.DirOutput
			continue
		}
		w, err := n.AddWire(name+"$out", 1, brisc.DirOutput)
		if err != nil {
			return err
		}
		n.Connect(w.Bits[0], s)
	}
	return nil
}

func (p *parser) signal(name string) (brisc.Conn, error) {
	s, ok := p.sigs[name]
	if !ok {
		return brisc.Conn{}, errors.Errorf("undefined signal %s", name)
	}
	return brisc.Sig(s), nil
}

func (p *parser) addGate(g gate) error {
	inputs := make([]brisc.Conn, len(g.inputs))
	for i, name := range g.inputs {
		var err error
		if inputs[i], err = p.signal(name); err != nil {
			return err
		}
	}
	y := brisc.Sig(p.sigs[g.output])

	switch g.typ {
	case "DFF":
		if len(inputs) != 1 {
			return errors.Errorf("DFF %s takes one input", g.output)
		}
		c, err := p.netlist.AddCell(g.output, brisc.CellDFF)
		if err != nil {
			return err
		}
		c.SetPort("C", brisc.DirInput, brisc.Sig(p.clk().Bits[0]))
		c.SetPort(brisc.PortD, brisc.DirInput, inputs[0])
		c.SetPort(brisc.PortQ, brisc.DirOutput, y)
		return nil

	case "NOT", "BUF", "BUFF":
		if len(inputs) != 1 {
			return errors.Errorf("%s %s takes one input", g.typ, g.output)
		}
		typ := brisc.CellBuf
		if g.typ == "NOT" {
			typ = brisc.CellNot
		}
		return p.addCell(g.output, typ, y, inputs[0])
	}

	// Chain n-ary gates: the inner links use the non-inverting form and the
	// last link uses the gate's own type.
	var inner, last string
	switch g.typ {
	case "AND":
		inner, last = brisc.CellAnd, brisc.CellAnd
	case "NAND":
		inner, last = brisc.CellAnd, brisc.CellNand
	case "OR":
		inner, last = brisc.CellOr, brisc.CellOr
	case "NOR":
		inner, last = brisc.CellOr, brisc.CellNor
	case "XOR":
		inner, last = brisc.CellXor, brisc.CellXor
	case "XNOR":
		inner, last = brisc.CellXor, brisc.CellXnor
	default:
		return errors.Errorf("unsupported gate type %s", g.typ)
	}

	if len(inputs) == 1 {
		typ := brisc.CellBuf
		if last != inner {
			typ = brisc.CellNot
		}
		return p.addCell(g.output, typ, y, inputs[0])
	}

	acc := inputs[0]
	for i := 1; i < len(inputs)-1; i++ {
		t := brisc.Sig(p.netlist.NewSignal())
		if err := p.addCell(fmt.Sprintf("%s$%d", g.output, i), inner, t, acc, inputs[i]); err != nil {
			return err
		}
		acc = t
	}
	return p.addCell(g.output, last, y, acc, inputs[len(inputs)-1])
}

// addCell adds a gate driving y from inputs A, B.
func (p *parser) addCell(name, typ string, y brisc.Conn, inputs ...brisc.Conn) error {
	c, err := p.netlist.AddCell(name, typ)
	if err != nil {
		return err
	}
	for i, in := range inputs {
		c.SetPort(string(rune('A'+i)), brisc.DirInput, in)
	}
	c.SetPort("Y", brisc.DirOutput, y)
	return nil
}

// clk returns the clock input, creating it on first use.
func (p *parser) clk() *brisc.Wire {
	if p.clock == nil {
		name := ClockName
		for i := 1; p.netlist.Wire(name) != nil; i++ {
			name = fmt.Sprintf("%s$%d", ClockName, i)
		}
		p.clock = p.netlist.MustAddWire(name, 1, brisc.DirInput)
	}
	return p.clock
}
