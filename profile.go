package brisc

import (
	"sort"
)

// CellKind classifies a cell for evaluation.
type CellKind int

const (
	CellCombinational CellKind = iota
	CellRegister
)

// String returns the name of the kind.
func (k CellKind) String() string {
	if k == CellRegister {
		return "register"
	}
	return "combinational"
}

// Register represents a single-bit flip-flop. Wide register cells are
// decomposed into one Register per bit.
type Register struct {
	Cell  *Cell
	Index int      // bit index within the cell's D and Q pins
	D     Conn     // next-state input, canonicalized
	Q     SignalID // current-state output, canonical
	Init  Bit      // power-on value, BitX if undeclared
}

// Profile holds the structural classification of a netlist: its ports, its
// registers and the kind of every cell. It is computed once.
type Profile struct {
	netlist *Netlist

	kinds     map[*Cell]CellKind
	inputs    []*Wire
	outputs   []*Wire
	inputSigs []SignalID
	registers []Register
	qIndex    map[SignalID]int
}

// NewProfile classifies the ports and cells of n.
func NewProfile(n *Netlist) (*Profile, error) {
	p := &Profile{
		netlist: n,
		kinds:   make(map[*Cell]CellKind),
		qIndex:  make(map[SignalID]int),
	}
	if err := p.classifyPorts(); err != nil {
		return nil, err
	} else if err := p.classifyCells(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) classifyPorts() error {
	seen := make(map[SignalID]struct{})
	for _, w := range p.netlist.Ports() {
		switch w.Dir {
		case DirInOut:
			return structuralErrorf(w.Name, "bidirectional port")
		case DirInput:
			p.inputs = append(p.inputs, w)
			for _, bit := range w.Bits {
				s := p.netlist.Canonical(bit)
				if _, ok := seen[s]; ok {
					continue
				}
				seen[s] = struct{}{}
				p.inputSigs = append(p.inputSigs, s)
			}
		case DirOutput:
			p.outputs = append(p.outputs, w)
		}
	}
	return nil
}

func (p *Profile) classifyCells() error {
	for _, c := range p.netlist.Cells() {
		q, ok := c.Ports[PortQ]
		if !ok {
			typ := LookupCellType(c.Type)
			if typ == nil {
				return structuralErrorf(c.Name, "unsupported cell type %s", c.Type)
			} else if _, ok := c.Ports[typ.Output]; !ok {
				return structuralErrorf(c.Name, "missing output %s", typ.Output)
			}
			for _, pin := range typ.Inputs {
				if len(c.Ports[pin]) == 0 {
					return structuralErrorf(c.Name, "missing input %s", pin)
				}
			}
			p.kinds[c] = CellCombinational
			continue
		}

		d, ok := c.Ports[PortD]
		if !ok {
			return structuralErrorf(c.Name, "register has no D input")
		} else if len(d) != len(q) {
			return structuralErrorf(c.Name, "register D width %d does not match Q width %d", len(d), len(q))
		}
		p.kinds[c] = CellRegister

		for i := range q {
			if q[i].Const {
				return structuralErrorf(c.Name, "register Q[%d] is tied to a constant", i)
			}
			qs := p.netlist.Canonical(q[i].Signal)
			if j, ok := p.qIndex[qs]; ok {
				return structuralErrorf(c.Name, "register Q[%d] also driven by %s", i, p.registers[j].Cell.Name)
			}

			reg := Register{Cell: c, Index: i, D: d[i], Q: qs, Init: BitX}
			if !reg.D.Const {
				reg.D.Signal = p.netlist.Canonical(reg.D.Signal)
			}
			if v, ok := p.netlist.Init(qs); ok {
				reg.Init = v
			}
			p.qIndex[qs] = len(p.registers)
			p.registers = append(p.registers, reg)
		}
	}

	// Enumerate registers by Q signal so state vectors are stable across
	// netlists that differ only in cell order.
	sort.SliceStable(p.registers, func(i, j int) bool { return p.registers[i].Q < p.registers[j].Q })
	for i, reg := range p.registers {
		p.qIndex[reg.Q] = i
	}
	return nil
}

// Netlist returns the profiled netlist.
func (p *Profile) Netlist() *Netlist { return p.netlist }

// Kind returns the classification of a cell.
func (p *Profile) Kind(c *Cell) CellKind { return p.kinds[c] }

// Inputs returns the input ports, sorted by name.
func (p *Profile) Inputs() []*Wire { return p.inputs }

// Outputs returns the output ports, sorted by name.
func (p *Profile) Outputs() []*Wire { return p.outputs }

// Input returns an input port by name, or nil.
func (p *Profile) Input(name string) *Wire {
	for _, w := range p.inputs {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// InputSignals returns the canonical signals of all input ports without
// duplicates, in port order.
func (p *Profile) InputSignals() []SignalID { return p.inputSigs }

// Registers returns all single-bit registers in state-vector order.
func (p *Profile) Registers() []Register { return p.registers }

// RegisterByQ returns the register driving the canonical signal q.
func (p *Profile) RegisterByQ(q SignalID) (Register, bool) {
	i, ok := p.qIndex[p.netlist.Canonical(q)]
	if !ok {
		return Register{}, false
	}
	return p.registers[i], true
}

// QVector returns the Q signals of all registers in state-vector order.
func (p *Profile) QVector() []SignalID {
	a := make([]SignalID, len(p.registers))
	for i, reg := range p.registers {
		a[i] = reg.Q
	}
	return a
}

// DVector returns the D connections of all registers in state-vector order.
func (p *Profile) DVector() []Conn {
	a := make([]Conn, len(p.registers))
	for i, reg := range p.registers {
		a[i] = reg.D
	}
	return a
}

// CombinationalCells returns all combinational cells in netlist order.
func (p *Profile) CombinationalCells() []*Cell {
	var a []*Cell
	for _, c := range p.netlist.Cells() {
		if p.kinds[c] == CellCombinational {
			a = append(a, c)
		}
	}
	return a
}
