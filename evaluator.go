package brisc

import (
	"sort"

	"github.com/benbjohnson/immutable"
)

// Evaluator computes three-valued signal values over the combinational part
// of a netlist. Values are bound in a stack of frames: Push opens a child
// frame that sees every outer binding, Pop discards it.
//
// Registers are never traversed. Their Q outputs are sources and must be
// bound, like input ports.
type Evaluator struct {
	netlist *Netlist
	drivers map[SignalID]PortRef
	types   map[*Cell]*CellType

	// Each frame is a persistent map of signal to Bit. Pushing shares the
	// parent's map so lookups only ever consult the top frame.
	frames []*immutable.SortedMap
}

// NewEvaluator returns an evaluator over the combinational cells of p.
func NewEvaluator(p *Profile) (*Evaluator, error) {
	e := &Evaluator{
		netlist: p.Netlist(),
		drivers: make(map[SignalID]PortRef),
		types:   make(map[*Cell]*CellType),
		frames:  []*immutable.SortedMap{immutable.NewSortedMap(&signalComparer{})},
	}

	for _, c := range p.CombinationalCells() {
		typ := LookupCellType(c.Type)
		assert(typ != nil, "evaluator: unclassified cell type %s", c.Type)
		e.types[c] = typ

		for i, conn := range c.Ports[typ.Output] {
			if conn.Const {
				continue
			}
			s := e.netlist.Canonical(conn.Signal)
			if reg, ok := p.RegisterByQ(s); ok {
				return nil, structuralErrorf(e.netlist.SignalName(s), "driven by %s and register %s", c.Name, reg.Cell.Name)
			} else if prev, ok := e.drivers[s]; ok {
				return nil, structuralErrorf(e.netlist.SignalName(s), "driven by %s and %s", prev.Cell.Name, c.Name)
			}
			e.drivers[s] = PortRef{Cell: c, Port: typ.Output, Index: i}
		}
	}
	return e, nil
}

// Depth returns the number of frames, including the base frame.
func (e *Evaluator) Depth() int { return len(e.frames) }

// Push opens a new frame inheriting all current bindings.
func (e *Evaluator) Push() {
	e.frames = append(e.frames, e.top())
}

// Pop discards the top frame and its bindings. Panic if only the base
// frame remains.
func (e *Evaluator) Pop() {
	assert(len(e.frames) > 1, "evaluator: pop of base frame")
	e.frames[len(e.frames)-1] = nil
	e.frames = e.frames[:len(e.frames)-1]
}

func (e *Evaluator) top() *immutable.SortedMap {
	return e.frames[len(e.frames)-1]
}

// Lookup returns the bound value of a signal, if any.
func (e *Evaluator) Lookup(s SignalID) (Bit, bool) {
	v, ok := e.top().Get(e.netlist.Canonical(s))
	if !ok {
		return BitX, false
	}
	return v.(Bit), true
}

// Set binds signals to values in the top frame. Rebinding a signal that is
// already visible fails unless overwrite is set.
func (e *Evaluator) Set(sigs []SignalID, values Bits, overwrite bool) error {
	assert(len(sigs) == len(values), "evaluator: set %d signals to %d values", len(sigs), len(values))

	m := e.top()
	for i, s := range sigs {
		s = e.netlist.Canonical(s)
		if !overwrite {
			if _, ok := m.Get(s); ok {
				return &ConsistencyError{Name: e.netlist.SignalName(s), Err: ErrAlreadyBound}
			}
		}
		m = m.Set(s, values[i])
	}
	e.frames[len(e.frames)-1] = m
	return nil
}

// Bindings returns the number of signals bound in the top frame.
func (e *Evaluator) Bindings() int { return e.top().Len() }

// Eval computes the values of sigs. Signals that could not be resolved, either
// because they have no driver and are unbound or because they lie on a
// combinational loop, evaluate as BitX and are returned in undef.
//
// Computed values are not bound, so later bindings never see stale results.
func (e *Evaluator) Eval(sigs []SignalID) (values Bits, undef []SignalID) {
	conns := make([]Conn, len(sigs))
	for i, s := range sigs {
		conns[i] = Sig(s)
	}
	return e.EvalConns(conns)
}

// EvalConns computes the values of a vector of connections.
func (e *Evaluator) EvalConns(conns []Conn) (values Bits, undef []SignalID) {
	ev := &evaluation{
		Evaluator: e,
		memo:      make(map[SignalID]Bit),
		active:    make(map[SignalID]bool),
		undef:     make(map[SignalID]struct{}),
	}

	values = make(Bits, len(conns))
	for i, conn := range conns {
		values[i] = ev.conn(conn)
	}

	undef = make([]SignalID, 0, len(ev.undef))
	for s := range ev.undef {
		undef = append(undef, s)
	}
	sort.Slice(undef, func(i, j int) bool { return undef[i] < undef[j] })
	return values, undef
}

// EvalAll computes sigs and forces every unresolved signal to BitX in the
// top frame, repeating until no unresolved signal remains.
func (e *Evaluator) EvalAll(sigs []SignalID) Bits {
	conns := make([]Conn, len(sigs))
	for i, s := range sigs {
		conns[i] = Sig(s)
	}
	return e.EvalAllConns(conns)
}

// EvalAllConns is EvalAll over a vector of connections.
func (e *Evaluator) EvalAllConns(conns []Conn) Bits {
	for {
		values, undef := e.EvalConns(conns)
		if len(undef) == 0 {
			return values
		}

		// Forced signals are bound, so each round strictly grows the bound
		// set and the loop terminates.
		err := e.Set(undef, NewBits(len(undef), BitX), false)
		assert(err == nil, "evaluator: forced signal already bound: %v", err)
	}
}

// evaluation holds the per-call state of an evaluation.
type evaluation struct {
	*Evaluator
	memo   map[SignalID]Bit
	active map[SignalID]bool
	undef  map[SignalID]struct{}
}

func (ev *evaluation) conn(c Conn) Bit {
	if c.Const {
		return c.Value
	}
	return ev.signal(ev.netlist.Canonical(c.Signal))
}

func (ev *evaluation) signal(s SignalID) Bit {
	if v, ok := ev.top().Get(s); ok {
		return v.(Bit)
	} else if v, ok := ev.memo[s]; ok {
		return v
	}

	// A signal reached again while it is being computed lies on a loop.
	if ev.active[s] {
		ev.undef[s] = struct{}{}
		return BitX
	}

	ref, ok := ev.drivers[s]
	if !ok {
		ev.undef[s] = struct{}{}
		ev.memo[s] = BitX
		return BitX
	}

	ev.active[s] = true
	typ := ev.types[ref.Cell]
	v := typ.Eval(func(port string) Bit {
		index := ref.Index
		if port == typ.Select {
			index = 0
		}
		conns := ref.Cell.Ports[port]
		if index >= len(conns) {
			if len(conns) > 0 && typ.signExtends(ref.Cell, port) {
				return ev.conn(conns[len(conns)-1])
			}
			return Bit0
		}
		return ev.conn(conns[index])
	})
	delete(ev.active, s)

	ev.memo[s] = v
	return v
}

// signalComparer compares two signal ids. Implements immutable.Comparer.
type signalComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a SignalID.
func (c *signalComparer) Compare(a, b interface{}) int {
	if i, j := a.(SignalID), b.(SignalID); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}
