package brisc_test

import (
	"testing"

	"github.com/benbjohnson/brisc"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestNewProfile(t *testing.T) {
	t.Run("Counter", func(t *testing.T) {
		n := NewCounterNetlist(t)
		n.SetInit(n.Wire("count").Bits[1], brisc.Bit1)
		p := MustNewProfile(t, n)

		var inputs []string
		for _, w := range p.Inputs() {
			inputs = append(inputs, w.Name)
		}
		if diff := cmp.Diff(inputs, []string{"clk", "en"}); diff != "" {
			t.Fatal(diff)
		} else if len(p.Outputs()) != 1 || p.Outputs()[0].Name != "count" {
			t.Fatalf("unexpected outputs: %v", p.Outputs())
		} else if diff := cmp.Diff(p.InputSignals(), n.CanonicalAll([]brisc.SignalID{n.Wire("clk").Bits[0], n.Wire("en").Bits[0]})); diff != "" {
			t.Fatal(diff)
		} else if p.Input("count") != nil {
			t.Fatal("expected output not to be an input")
		}

		count, next := n.Wire("count"), n.Wire("next")
		if diff := cmp.Diff(p.QVector(), count.Bits); diff != "" {
			t.Fatal(diff)
		} else if diff := cmp.Diff(p.DVector(), []brisc.Conn{brisc.Sig(next.Bits[0]), brisc.Sig(next.Bits[1])}); diff != "" {
			t.Fatal(diff)
		}

		regs := p.Registers()
		if len(regs) != 2 {
			t.Fatalf("unexpected register count: %d", len(regs))
		} else if regs[0].Init != brisc.BitX || regs[1].Init != brisc.Bit1 {
			t.Fatalf("unexpected init values: %s, %s", regs[0].Init, regs[1].Init)
		} else if regs[1].Index != 1 || regs[1].Cell.Name != "count_reg" {
			t.Fatalf("unexpected register: %s", spew.Sdump(regs[1]))
		}

		if reg, ok := p.RegisterByQ(count.Bits[1]); !ok || reg.Index != 1 {
			t.Fatalf("unexpected register lookup: %v", ok)
		} else if _, ok := p.RegisterByQ(next.Bits[0]); ok {
			t.Fatal("expected no register")
		}

		if got := p.Kind(n.Cell("count_reg")); got != brisc.CellRegister {
			t.Fatalf("unexpected kind: %s", got)
		} else if got := p.Kind(n.Cell("carry")); got != brisc.CellCombinational {
			t.Fatalf("unexpected kind: %s", got)
		} else if len(p.CombinationalCells()) != 3 {
			t.Fatalf("unexpected combinational cell count: %d", len(p.CombinationalCells()))
		}
	})

	t.Run("ErrInOutPort", func(t *testing.T) {
		n := brisc.NewNetlist("top")
		n.MustAddWire("pad", 1, brisc.DirInOut)
		assertStructuralError(t, n, "pad")
	})

	t.Run("ErrUnsupportedCell", func(t *testing.T) {
		n := brisc.NewNetlist("top")
		c := n.MustAddCell("mul", "$mul")
		c.SetPort("Y", brisc.DirOutput, brisc.Sig(n.NewSignal()))
		assertStructuralError(t, n, "mul")
	})

	t.Run("ErrMissingOutput", func(t *testing.T) {
		n := brisc.NewNetlist("top")
		c := n.MustAddCell("inv", brisc.CellNot)
		c.SetPort("A", brisc.DirNone, brisc.Sig(n.NewSignal()))
		assertStructuralError(t, n, "inv")
	})

	t.Run("ErrMissingInput", func(t *testing.T) {
		n := brisc.NewNetlist("top")
		c := n.MustAddCell("and", brisc.CellAnd)
		c.SetPort("A", brisc.DirInput, brisc.Sig(n.NewSignal()))
		c.SetPort("Y", brisc.DirOutput, brisc.Sig(n.NewSignal()))
		assertStructuralError(t, n, "and")
	})

	t.Run("ErrRegisterWithoutD", func(t *testing.T) {
		n := brisc.NewNetlist("top")
		c := n.MustAddCell("ff", brisc.CellDFF)
		c.SetPort(brisc.PortQ, brisc.DirNone, brisc.Sig(n.NewSignal()))
		assertStructuralError(t, n, "ff")
	})

	t.Run("ErrRegisterWidth", func(t *testing.T) {
		n := brisc.NewNetlist("top")
		c := n.MustAddCell("ff", brisc.CellDFF)
		c.SetPort(brisc.PortD, brisc.DirNone, brisc.Sig(n.NewSignal()))
		c.SetPort(brisc.PortQ, brisc.DirNone, brisc.Sig(n.NewSignal()), brisc.Sig(n.NewSignal()))
		assertStructuralError(t, n, "ff")
	})

	t.Run("ErrDuplicateQ", func(t *testing.T) {
		n := brisc.NewNetlist("top")
		q := n.NewSignal()
		for _, name := range []string{"ff0", "ff1"} {
			c := n.MustAddCell(name, brisc.CellDFF)
			c.SetPort(brisc.PortD, brisc.DirNone, brisc.Const(brisc.Bit0))
			c.SetPort(brisc.PortQ, brisc.DirNone, brisc.Sig(q))
		}
		assertStructuralError(t, n, "ff1")
	})
}

// assertStructuralError profiles n and expects a StructuralError naming name.
func assertStructuralError(tb testing.TB, n *brisc.Netlist, name string) {
	tb.Helper()

	_, err := brisc.NewProfile(n)
	var e *brisc.StructuralError
	if !errors.As(err, &e) {
		tb.Fatalf("expected structural error, got %v", err)
	} else if e.Name != name {
		tb.Fatalf("unexpected error name: %s", e.Name)
	}
}
