package brisc

import (
	"sort"
	"strings"
)

// Gate-level cell types emitted by yosys techmapping.
const (
	CellBuf    = "$_BUF_"
	CellNot    = "$_NOT_"
	CellAnd    = "$_AND_"
	CellNand   = "$_NAND_"
	CellOr     = "$_OR_"
	CellNor    = "$_NOR_"
	CellXor    = "$_XOR_"
	CellXnor   = "$_XNOR_"
	CellAndnot = "$_ANDNOT_"
	CellOrnot  = "$_ORNOT_"
	CellMux    = "$_MUX_"
	CellNmux   = "$_NMUX_"
	CellAoi3   = "$_AOI3_"
	CellOai3   = "$_OAI3_"
	CellAoi4   = "$_AOI4_"
	CellOai4   = "$_OAI4_"
	CellDFF    = "$_DFF_P_"
)

// Standard gate pin names.
const (
	pinA = "A"
	pinB = "B"
	pinC = "C"
	pinD = "D"
	pinS = "S"
	pinY = "Y"
)

// CellType describes a combinational cell. Every output bit is computed from
// the input bits at the same index, except for the select pin which is always
// read at index zero.
type CellType struct {
	Name    string
	Inputs  []string
	Output  string
	Select  string // optional
	Eval    func(in func(port string) Bit) Bit
	Bitwise bool // word-level cell with per-bit semantics
}

// Direction returns the direction of a pin of the cell type.
func (t *CellType) Direction(port string) Direction {
	if port == t.Output {
		return DirOutput
	}
	for _, name := range t.Inputs {
		if name == port {
			return DirInput
		}
	}
	return DirNone
}

// IsInput returns true if port is an input pin of the cell type.
func (t *CellType) IsInput(port string) bool {
	return t.Direction(port) == DirInput
}

var cellTypes = make(map[string]*CellType)

// RegisterCellType adds a combinational cell type to the library.
func RegisterCellType(t *CellType) {
	assert(t.Name != "", "register cell type: name required")
	assert(t.Output != "", "register cell type: output required")
	cellTypes[t.Name] = t
}

// LookupCellType returns a combinational cell type by name, or nil.
func LookupCellType(name string) *CellType {
	return cellTypes[name]
}

// CellTypeNames returns the names of all registered cell types, sorted.
func CellTypeNames() []string {
	a := make([]string, 0, len(cellTypes))
	for name := range cellTypes {
		a = append(a, name)
	}
	sort.Strings(a)
	return a
}

func unary(name string, fn func(a Bit) Bit) *CellType {
	return &CellType{
		Name:   name,
		Inputs: []string{pinA},
		Output: pinY,
		Eval:   func(in func(string) Bit) Bit { return fn(in(pinA)) },
	}
}

func binary(name string, fn func(a, b Bit) Bit) *CellType {
	return &CellType{
		Name:   name,
		Inputs: []string{pinA, pinB},
		Output: pinY,
		Eval:   func(in func(string) Bit) Bit { return fn(in(pinA), in(pinB)) },
	}
}

func bitwise(t *CellType) *CellType {
	t.Bitwise = true
	return t
}

// signExtends returns true if a short operand on port of c extends with its
// top bit. Only word-level cells carry A_SIGNED and B_SIGNED.
func (t *CellType) signExtends(c *Cell, port string) bool {
	return t.Bitwise && strings.ContainsRune(c.Params[port+"_SIGNED"], '1')
}

func init() {
	identity := func(a Bit) Bit { return a }

	// Single-bit gates.
	RegisterCellType(unary(CellBuf, identity))
	RegisterCellType(unary(CellNot, bitNot))
	RegisterCellType(binary(CellAnd, bitAnd))
	RegisterCellType(binary(CellNand, func(a, b Bit) Bit { return bitNot(bitAnd(a, b)) }))
	RegisterCellType(binary(CellOr, bitOr))
	RegisterCellType(binary(CellNor, func(a, b Bit) Bit { return bitNot(bitOr(a, b)) }))
	RegisterCellType(binary(CellXor, bitXor))
	RegisterCellType(binary(CellXnor, func(a, b Bit) Bit { return bitNot(bitXor(a, b)) }))
	RegisterCellType(binary(CellAndnot, func(a, b Bit) Bit { return bitAnd(a, bitNot(b)) }))
	RegisterCellType(binary(CellOrnot, func(a, b Bit) Bit { return bitOr(a, bitNot(b)) }))
	RegisterCellType(&CellType{
		Name:   CellMux,
		Inputs: []string{pinA, pinB, pinS},
		Output: pinY,
		Select: pinS,
		Eval:   func(in func(string) Bit) Bit { return bitMux(in(pinA), in(pinB), in(pinS)) },
	})
	RegisterCellType(&CellType{
		Name:   CellNmux,
		Inputs: []string{pinA, pinB, pinS},
		Output: pinY,
		Select: pinS,
		Eval:   func(in func(string) Bit) Bit { return bitNot(bitMux(in(pinA), in(pinB), in(pinS))) },
	})
	RegisterCellType(&CellType{
		Name:   CellAoi3,
		Inputs: []string{pinA, pinB, pinC},
		Output: pinY,
		Eval: func(in func(string) Bit) Bit {
			return bitNot(bitOr(bitAnd(in(pinA), in(pinB)), in(pinC)))
		},
	})
	RegisterCellType(&CellType{
		Name:   CellOai3,
		Inputs: []string{pinA, pinB, pinC},
		Output: pinY,
		Eval: func(in func(string) Bit) Bit {
			return bitNot(bitAnd(bitOr(in(pinA), in(pinB)), in(pinC)))
		},
	})
	RegisterCellType(&CellType{
		Name:   CellAoi4,
		Inputs: []string{pinA, pinB, pinC, pinD},
		Output: pinY,
		Eval: func(in func(string) Bit) Bit {
			return bitNot(bitOr(bitAnd(in(pinA), in(pinB)), bitAnd(in(pinC), in(pinD))))
		},
	})
	RegisterCellType(&CellType{
		Name:   CellOai4,
		Inputs: []string{pinA, pinB, pinC, pinD},
		Output: pinY,
		Eval: func(in func(string) Bit) Bit {
			return bitNot(bitAnd(bitOr(in(pinA), in(pinB)), bitOr(in(pinC), in(pinD))))
		},
	})

	// Word-level cells with per-bit semantics. Short operands are zero
	// extended, or sign extended when the port's _SIGNED parameter is set.
	RegisterCellType(bitwise(unary("$buf", identity)))
	RegisterCellType(bitwise(unary("$pos", identity)))
	RegisterCellType(bitwise(unary("$not", bitNot)))
	RegisterCellType(bitwise(binary("$and", bitAnd)))
	RegisterCellType(bitwise(binary("$or", bitOr)))
	RegisterCellType(bitwise(binary("$xor", bitXor)))
	RegisterCellType(bitwise(binary("$xnor", func(a, b Bit) Bit { return bitNot(bitXor(a, b)) })))
	RegisterCellType(bitwise(&CellType{
		Name:   "$mux",
		Inputs: []string{pinA, pinB, pinS},
		Output: pinY,
		Select: pinS,
		Eval:   func(in func(string) Bit) Bit { return bitMux(in(pinA), in(pinB), in(pinS)) },
	}))
}
