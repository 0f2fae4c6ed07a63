package yosys

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/benbjohnson/brisc"
)

// Creator is written into the creator field of every document.
var Creator = "brisc"

// Write encodes n as a yosys JSON design containing a single top module.
func Write(w io.Writer, n *brisc.Netlist) error {
	wr := &writer{netlist: n, ids: make(map[brisc.SignalID]int)}
	d := &design{
		Creator: Creator,
		Modules: map[string]*module{n.Name: wr.module()},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// writer numbers canonical signals from 2, as yosys reserves 0 and 1.
type writer struct {
	netlist *brisc.Netlist
	ids     map[brisc.SignalID]int
}

func (wr *writer) module() *module {
	m := &module{
		Attributes: map[string]interface{}{"top": "00000000000000000000000000000001"},
		Ports:      make(map[string]*port),
		Cells:      make(map[string]*cell),
		Netnames:   make(map[string]*netname),
	}

	for _, w := range wr.netlist.Wires() {
		bits := wr.signals(w.Bits)
		if w.IsPort() {
			m.Ports[w.Name] = &port{Direction: w.Dir.String(), Bits: bits}
		}

		nn := &netname{Bits: bits, Attributes: make(map[string]interface{})}
		if strings.HasPrefix(w.Name, "$") {
			nn.HideName = 1
		}
		if init, ok := wr.init(w); ok {
			nn.Attributes["init"] = init
		}
		m.Netnames[w.Name] = nn
	}

	for _, c := range wr.netlist.Cells() {
		yc := &cell{
			Type:           c.Type,
			Parameters:     make(map[string]interface{}),
			Attributes:     make(map[string]interface{}),
			PortDirections: make(map[string]string),
			Connections:    make(map[string][]interface{}),
		}
		if strings.HasPrefix(c.Name, "$") {
			yc.HideName = 1
		}
		for k, v := range c.Params {
			yc.Parameters[k] = v
		}
		for _, name := range c.PortNames() {
			if dir := c.Direction(name); dir != brisc.DirNone {
				yc.PortDirections[name] = dir.String()
			}
			yc.Connections[name] = wr.conns(c.Ports[name])
		}
		m.Cells[c.Name] = yc
	}
	return m
}

// init returns the init attribute of a wire, MSB first, if any bit has one.
func (wr *writer) init(w *brisc.Wire) (string, bool) {
	var found bool
	buf := make([]byte, len(w.Bits))
	for i, bit := range w.Bits {
		b, ok := wr.netlist.Init(bit)
		if !ok {
			b = brisc.BitX
		}
		found = found || ok
		buf[len(buf)-1-i] = b.String()[0]
	}
	return string(buf), found
}

func (wr *writer) id(s brisc.SignalID) int {
	s = wr.netlist.Canonical(s)
	id, ok := wr.ids[s]
	if !ok {
		id = len(wr.ids) + 2
		wr.ids[s] = id
	}
	return id
}

func (wr *writer) signals(sigs []brisc.SignalID) []interface{} {
	a := make([]interface{}, len(sigs))
	for i, s := range sigs {
		a[i] = wr.id(s)
	}
	return a
}

func (wr *writer) conns(conns []brisc.Conn) []interface{} {
	a := make([]interface{}, len(conns))
	for i, c := range conns {
		if c.Const {
			a[i] = c.Value.String()
		} else {
			a[i] = wr.id(c.Signal)
		}
	}
	return a
}
