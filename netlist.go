package brisc

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// SignalID identifies a single-bit net within a Netlist.
type SignalID int

// Direction represents the direction of a port or cell pin.
type Direction int

const (
	DirNone Direction = iota
	DirInput
	DirOutput
	DirInOut
)

// String returns the yosys name of the direction.
func (d Direction) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInOut:
		return "inout"
	default:
		return "none"
	}
}

// Conn represents one bit of a cell connection: either a signal or a constant.
type Conn struct {
	Signal SignalID
	Value  Bit
	Const  bool
}

// Sig returns a connection to signal s.
func Sig(s SignalID) Conn { return Conn{Signal: s} }

// Const returns a constant connection.
func Const(b Bit) Conn { return Conn{Value: b, Const: true} }

// String returns a string representation of the connection.
func (c Conn) String() string {
	if c.Const {
		return "'" + c.Value.String()
	}
	return fmt.Sprintf("#%d", c.Signal)
}

// Wire represents a named, possibly multi-bit, group of signals. Bit 0 is the
// least significant bit. A wire with a direction is a port.
type Wire struct {
	Name string
	Bits []SignalID
	Dir  Direction
}

// Width returns the number of bits in the wire.
func (w *Wire) Width() int { return len(w.Bits) }

// IsPort returns true if the wire is a module port.
func (w *Wire) IsPort() bool { return w.Dir != DirNone }

// Cell represents an instance of a gate or register.
type Cell struct {
	Name   string
	Type   string
	Ports  map[string][]Conn
	Dirs   map[string]Direction // explicit pin directions, optional
	Params map[string]string
}

// SetPort connects a pin of the cell. A dir of DirNone leaves the pin
// direction to the cell library.
func (c *Cell) SetPort(name string, dir Direction, conns ...Conn) {
	c.Ports[name] = conns
	if dir != DirNone {
		c.Dirs[name] = dir
	}
}

// PortNames returns the names of all connected pins, sorted.
func (c *Cell) PortNames() []string {
	a := make([]string, 0, len(c.Ports))
	for name := range c.Ports {
		a = append(a, name)
	}
	sort.Strings(a)
	return a
}

// Direction returns the direction of a pin. Explicit directions win over the
// cell library. Cells exposing Q are registers: Q drives, everything else reads.
func (c *Cell) Direction(port string) Direction {
	if dir, ok := c.Dirs[port]; ok {
		return dir
	}
	if typ := LookupCellType(c.Type); typ != nil {
		return typ.Direction(port)
	}
	if _, ok := c.Ports[PortQ]; ok {
		if port == PortQ {
			return DirOutput
		}
		return DirInput
	}
	return DirNone
}

// PortRef identifies one bit of a cell pin.
type PortRef struct {
	Cell  *Cell
	Port  string
	Index int
}

// String returns a string representation of the reference.
func (r PortRef) String() string {
	return fmt.Sprintf("%s.%s[%d]", r.Cell.Name, r.Port, r.Index)
}

// Netlist represents a flattened gate-level module.
type Netlist struct {
	Name string

	parent []SignalID          // union-find forest for aliased signals
	init   map[SignalID]Bit    // power-on values, keyed by canonical signal
	names  map[SignalID]string // lazily built signal names

	wires     []*Wire
	wireIndex map[string]*Wire

	cells     []*Cell
	cellIndex map[string]*Cell

	nameSeq int
}

// NewNetlist returns a new, empty netlist.
func NewNetlist(name string) *Netlist {
	return &Netlist{
		Name:      name,
		init:      make(map[SignalID]Bit),
		wireIndex: make(map[string]*Wire),
		cellIndex: make(map[string]*Cell),
	}
}

// NewSignal allocates a new signal.
func (n *Netlist) NewSignal() SignalID {
	id := SignalID(len(n.parent))
	n.parent = append(n.parent, id)
	n.names = nil
	return id
}

// SignalN returns the number of allocated signals, including aliases.
func (n *Netlist) SignalN() int { return len(n.parent) }

// Canonical returns the representative of the alias class of s. The
// representative is the lowest signal id in the class.
func (n *Netlist) Canonical(s SignalID) SignalID {
	assert(int(s) >= 0 && int(s) < len(n.parent), "canonical: invalid signal %d", s)
	root := s
	for n.parent[root] != root {
		root = n.parent[root]
	}
	for n.parent[s] != root {
		n.parent[s], s = root, n.parent[s]
	}
	return root
}

// Connect joins two signals into the same net.
func (n *Netlist) Connect(a, b SignalID) {
	a, b = n.Canonical(a), n.Canonical(b)
	if a == b {
		return
	} else if b < a {
		a, b = b, a
	}
	n.parent[b] = a
	if v, ok := n.init[b]; ok {
		if _, exists := n.init[a]; !exists {
			n.init[a] = v
		}
		delete(n.init, b)
	}
	n.names = nil
}

// Signals returns every canonical signal in ascending order.
func (n *Netlist) Signals() []SignalID {
	a := make([]SignalID, 0, len(n.parent))
	for i := range n.parent {
		if s := SignalID(i); n.Canonical(s) == s {
			a = append(a, s)
		}
	}
	return a
}

// CanonicalAll returns the canonical representatives of sigs.
func (n *Netlist) CanonicalAll(sigs []SignalID) []SignalID {
	a := make([]SignalID, len(sigs))
	for i, s := range sigs {
		a[i] = n.Canonical(s)
	}
	return a
}

// SetInit records the power-on value of a signal.
func (n *Netlist) SetInit(s SignalID, b Bit) {
	n.init[n.Canonical(s)] = b
}

// Init returns the power-on value of a signal, if one was declared.
func (n *Netlist) Init(s SignalID) (Bit, bool) {
	b, ok := n.init[n.Canonical(s)]
	return b, ok
}

// AddWire creates a wire of the given width backed by new signals.
func (n *Netlist) AddWire(name string, width int, dir Direction) (*Wire, error) {
	if _, ok := n.wireIndex[name]; ok {
		return nil, errors.Errorf("duplicate wire %q", name)
	}
	w := &Wire{Name: name, Bits: make([]SignalID, width), Dir: dir}
	for i := range w.Bits {
		w.Bits[i] = n.NewSignal()
	}
	n.wires = append(n.wires, w)
	n.wireIndex[name] = w
	return w, nil
}

// MustAddWire creates a wire. Panic on error.
func (n *Netlist) MustAddWire(name string, width int, dir Direction) *Wire {
	w, err := n.AddWire(name, width, dir)
	if err != nil {
		panic(err)
	}
	return w
}

// Wire returns a wire by name.
func (n *Netlist) Wire(name string) *Wire { return n.wireIndex[name] }

// Wires returns all wires in creation order.
func (n *Netlist) Wires() []*Wire { return n.wires }

// Ports returns all wires with a port direction, sorted by name.
func (n *Netlist) Ports() []*Wire {
	var a []*Wire
	for _, w := range n.wires {
		if w.IsPort() {
			a = append(a, w)
		}
	}
	sort.Slice(a, func(i, j int) bool { return a[i].Name < a[j].Name })
	return a
}

// AddCell creates a new cell.
func (n *Netlist) AddCell(name, typ string) (*Cell, error) {
	if _, ok := n.cellIndex[name]; ok {
		return nil, errors.Errorf("duplicate cell %q", name)
	}
	c := &Cell{
		Name:   name,
		Type:   typ,
		Ports:  make(map[string][]Conn),
		Dirs:   make(map[string]Direction),
		Params: make(map[string]string),
	}
	n.cells = append(n.cells, c)
	n.cellIndex[name] = c
	return c, nil
}

// MustAddCell creates a new cell. Panic on error.
func (n *Netlist) MustAddCell(name, typ string) *Cell {
	c, err := n.AddCell(name, typ)
	if err != nil {
		panic(err)
	}
	return c
}

// Cell returns a cell by name.
func (n *Netlist) Cell(name string) *Cell { return n.cellIndex[name] }

// Cells returns all cells in creation order.
func (n *Netlist) Cells() []*Cell { return n.cells }

// RemoveCell deletes a cell. Returns false if no such cell exists.
func (n *Netlist) RemoveCell(name string) bool {
	c, ok := n.cellIndex[name]
	if !ok {
		return false
	}
	delete(n.cellIndex, name)
	for i := range n.cells {
		if n.cells[i] == c {
			n.cells = append(n.cells[:i], n.cells[i+1:]...)
			break
		}
	}
	return true
}

// UniqueName returns a cell name with the given prefix that is not in use.
func (n *Netlist) UniqueName(prefix string) string {
	for {
		n.nameSeq++
		name := fmt.Sprintf("$%s$%d", prefix, n.nameSeq)
		if _, ok := n.cellIndex[name]; !ok {
			return name
		}
	}
}

// SignalName returns a human readable name for s, such as "count[2]".
func (n *Netlist) SignalName(s SignalID) string {
	if n.names == nil {
		n.names = make(map[SignalID]string)
		for i := len(n.wires) - 1; i >= 0; i-- {
			w := n.wires[i]
			for j, bit := range w.Bits {
				if len(w.Bits) == 1 {
					n.names[n.Canonical(bit)] = w.Name
				} else {
					n.names[n.Canonical(bit)] = fmt.Sprintf("%s[%d]", w.Name, j)
				}
			}
		}
	}
	if name, ok := n.names[n.Canonical(s)]; ok {
		return name
	}
	return fmt.Sprintf("#%d", n.Canonical(s))
}

// Connectivity returns a snapshot of the driver and consumer pins of every
// canonical signal. The snapshot is invalidated by any netlist mutation.
func (n *Netlist) Connectivity() *Connectivity {
	c := &Connectivity{
		drivers:   make(map[SignalID][]PortRef),
		consumers: make(map[SignalID][]PortRef),
	}
	for _, cell := range n.cells {
		for _, port := range cell.PortNames() {
			dir := cell.Direction(port)
			for i, conn := range cell.Ports[port] {
				if conn.Const {
					continue
				}
				s, ref := n.Canonical(conn.Signal), PortRef{Cell: cell, Port: port, Index: i}
				switch dir {
				case DirOutput:
					c.drivers[s] = append(c.drivers[s], ref)
				case DirInput:
					c.consumers[s] = append(c.consumers[s], ref)
				case DirInOut:
					c.drivers[s] = append(c.drivers[s], ref)
					c.consumers[s] = append(c.consumers[s], ref)
				}
			}
		}
	}
	return c
}

// Connectivity holds the fan-in and fan-out of every signal.
type Connectivity struct {
	drivers   map[SignalID][]PortRef
	consumers map[SignalID][]PortRef
}

// Drivers returns the cell pins driving a canonical signal.
func (c *Connectivity) Drivers(s SignalID) []PortRef { return c.drivers[s] }

// Consumers returns the cell pins reading a canonical signal.
func (c *Connectivity) Consumers(s SignalID) []PortRef { return c.consumers[s] }
