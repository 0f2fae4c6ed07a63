// Package yosys reads and writes netlists in the format produced by the
// yosys write_json command.
package yosys

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/benbjohnson/brisc"
	"github.com/pkg/errors"
)

// design is the top-level document of a yosys JSON netlist.
type design struct {
	Creator string             `json:"creator,omitempty"`
	Modules map[string]*module `json:"modules"`
}

type module struct {
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Ports      map[string]*port        `json:"ports"`
	Cells      map[string]*cell        `json:"cells"`
	Netnames   map[string]*netname     `json:"netnames"`
}

type port struct {
	Direction string        `json:"direction"`
	Bits      []interface{} `json:"bits"`
}

type cell struct {
	HideName       int                      `json:"hide_name"`
	Type           string                   `json:"type"`
	Parameters     map[string]interface{}   `json:"parameters"`
	Attributes     map[string]interface{}   `json:"attributes"`
	PortDirections map[string]string        `json:"port_directions,omitempty"`
	Connections    map[string][]interface{} `json:"connections"`
}

type netname struct {
	HideName   int                    `json:"hide_name"`
	Bits       []interface{}          `json:"bits"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Read decodes a yosys JSON netlist and returns its top module. The top
// module is the one carrying the "top" attribute, or the only module.
func Read(r io.Reader) (*brisc.Netlist, error) {
	var d design
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decode yosys json")
	}

	name, err := topModule(&d)
	if err != nil {
		return nil, err
	}
	return newReader(name).read(d.Modules[name])
}

// topModule returns the name of the design's top module.
func topModule(d *design) (string, error) {
	names := make([]string, 0, len(d.Modules))
	for name := range d.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if isTrue(d.Modules[name].Attributes["top"]) {
			return name, nil
		}
	}
	switch len(names) {
	case 0:
		return "", errors.New("yosys json: no modules")
	case 1:
		return names[0], nil
	default:
		return "", errors.Errorf("yosys json: no top module among %s", strings.Join(names, ", "))
	}
}

// isTrue interprets a yosys attribute value as a boolean.
func isTrue(v interface{}) bool {
	switch v := v.(type) {
	case string:
		return strings.ContainsRune(v, '1')
	case float64:
		return v != 0
	}
	return false
}

// reader converts one module. Yosys bit numbers map to netlist signals.
type reader struct {
	netlist *brisc.Netlist
	bits    map[int]brisc.SignalID
}

func newReader(name string) *reader {
	return &reader{
		netlist: brisc.NewNetlist(name),
		bits:    make(map[int]brisc.SignalID),
	}
}

func (r *reader) read(m *module) (*brisc.Netlist, error) {
	for _, name := range sortedKeys(m.Ports) {
		p := m.Ports[name]
		dir, err := parseDirection(p.Direction)
		if err != nil {
			return nil, errors.Wrapf(err, "port %s", name)
		}
		if _, err := r.addWire(name, p.Bits, dir); err != nil {
			return nil, errors.Wrapf(err, "port %s", name)
		}
	}

	for _, name := range sortedKeys(m.Netnames) {
		nn := m.Netnames[name]
		w := r.netlist.Wire(name)
		if w == nil {
			var err error
			if w, err = r.addWire(name, nn.Bits, brisc.DirNone); err != nil {
				return nil, errors.Wrapf(err, "netname %s", name)
			}
		}
		if err := r.setInit(w, nn.Attributes["init"]); err != nil {
			return nil, errors.Wrapf(err, "netname %s", name)
		}
	}

	for _, name := range sortedKeys(m.Cells) {
		if err := r.addCell(name, m.Cells[name]); err != nil {
			return nil, errors.Wrapf(err, "cell %s", name)
		}
	}
	return r.netlist, nil
}

// addWire creates a wire aliased to the yosys bits. Constant bits are driven
// by constant buffers.
func (r *reader) addWire(name string, bits []interface{}, dir brisc.Direction) (*brisc.Wire, error) {
	w, err := r.netlist.AddWire(name, len(bits), dir)
	if err != nil {
		return nil, err
	}
	for i, v := range bits {
		conn, err := r.conn(v)
		if err != nil {
			return nil, err
		}
		if !conn.Const {
			r.netlist.Connect(w.Bits[i], conn.Signal)
			continue
		}
		c, err := r.netlist.AddCell(r.netlist.UniqueName("const"), brisc.CellBuf)
		if err != nil {
			return nil, err
		}
		c.SetPort("A", brisc.DirInput, conn)
		c.SetPort("Y", brisc.DirOutput, brisc.Sig(w.Bits[i]))
	}
	return w, nil
}

// setInit records an init attribute, a bit string with the MSB first.
func (r *reader) setInit(w *brisc.Wire, v interface{}) error {
	var s string
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		s = v
	case float64:
		s = strconv.FormatInt(int64(v), 2)
	default:
		return errors.Errorf("invalid init attribute %v", v)
	}

	for i := range w.Bits {
		if i >= len(s) {
			break
		}
		if b, ok := brisc.ParseBit(s[len(s)-1-i]); ok && b.Known() {
			r.netlist.SetInit(w.Bits[i], b)
		}
	}
	return nil
}

func (r *reader) addCell(name string, yc *cell) error {
	c, err := r.netlist.AddCell(name, yc.Type)
	if err != nil {
		return err
	}
	for k, v := range yc.Parameters {
		c.Params[k] = fmt.Sprint(v)
	}
	for _, port := range sortedKeys(yc.Connections) {
		dir := brisc.DirNone
		if s, ok := yc.PortDirections[port]; ok {
			if dir, err = parseDirection(s); err != nil {
				return errors.Wrapf(err, "pin %s", port)
			}
		}

		bits := yc.Connections[port]
		conns := make([]brisc.Conn, len(bits))
		for i, v := range bits {
			if conns[i], err = r.conn(v); err != nil {
				return errors.Wrapf(err, "pin %s", port)
			}
		}
		c.SetPort(port, dir, conns...)
	}
	return nil
}

// conn converts a yosys bit: a bit number or one of "0", "1", "x" and "z".
func (r *reader) conn(v interface{}) (brisc.Conn, error) {
	switch v := v.(type) {
	case float64:
		id := int(v)
		s, ok := r.bits[id]
		if !ok {
			s = r.netlist.NewSignal()
			r.bits[id] = s
		}
		return brisc.Sig(s), nil
	case string:
		switch v {
		case "0":
			return brisc.Const(brisc.Bit0), nil
		case "1":
			return brisc.Const(brisc.Bit1), nil
		case "x", "z":
			return brisc.Const(brisc.BitX), nil
		}
	}
	return brisc.Conn{}, errors.Errorf("invalid bit %v", v)
}

func parseDirection(s string) (brisc.Direction, error) {
	switch s {
	case "input":
		return brisc.DirInput, nil
	case "output":
		return brisc.DirOutput, nil
	case "inout":
		return brisc.DirInOut, nil
	}
	return brisc.DirNone, errors.Errorf("invalid direction %q", s)
}

func sortedKeys[V any](m map[string]V) []string {
	a := make([]string, 0, len(m))
	for k := range m {
		a = append(a, k)
	}
	sort.Strings(a)
	return a
}
