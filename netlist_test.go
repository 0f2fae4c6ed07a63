package brisc_test

import (
	"testing"

	"github.com/benbjohnson/brisc"
	"github.com/google/go-cmp/cmp"
)

func TestNetlist_Connect(t *testing.T) {
	n := brisc.NewNetlist("top")
	a := n.MustAddWire("a", 1, brisc.DirInput)
	b := n.MustAddWire("b", 2, brisc.DirNone)
	c := n.MustAddWire("c", 1, brisc.DirOutput)

	n.SetInit(c.Bits[0], brisc.Bit1)
	n.Connect(c.Bits[0], b.Bits[1])
	n.Connect(b.Bits[1], a.Bits[0])

	if got := n.Canonical(c.Bits[0]); got != a.Bits[0] {
		t.Fatalf("unexpected canonical signal: %d", got)
	} else if diff := cmp.Diff(n.Signals(), []brisc.SignalID{0, 1}); diff != "" {
		t.Fatal(diff)
	} else if diff := cmp.Diff(n.CanonicalAll(c.Bits), []brisc.SignalID{0}); diff != "" {
		t.Fatal(diff)
	} else if n.SignalN() != 4 {
		t.Fatalf("unexpected signal count: %d", n.SignalN())
	}

	// The power-on value follows the canonical signal.
	if v, ok := n.Init(a.Bits[0]); !ok || v != brisc.Bit1 {
		t.Fatalf("unexpected init: %s, %v", v, ok)
	}

	// Names prefer the earliest wire.
	if got := n.SignalName(c.Bits[0]); got != "a" {
		t.Fatalf("unexpected name: %s", got)
	} else if got := n.SignalName(b.Bits[0]); got != "b[0]" {
		t.Fatalf("unexpected name: %s", got)
	} else if got := n.SignalName(n.NewSignal()); got != "#4" {
		t.Fatalf("unexpected name: %s", got)
	}
}

func TestNetlist_AddWire(t *testing.T) {
	n := brisc.NewNetlist("top")
	n.MustAddWire("b", 1, brisc.DirOutput)
	n.MustAddWire("x", 3, brisc.DirNone)
	n.MustAddWire("a", 2, brisc.DirInput)

	if _, err := n.AddWire("a", 1, brisc.DirNone); err == nil {
		t.Fatal("expected duplicate wire error")
	}

	var names []string
	for _, w := range n.Ports() {
		names = append(names, w.Name)
	}
	if diff := cmp.Diff(names, []string{"a", "b"}); diff != "" {
		t.Fatal(diff)
	} else if w := n.Wire("x"); w == nil || w.Width() != 3 || w.IsPort() {
		t.Fatalf("unexpected wire: %#v", w)
	}
}

func TestNetlist_Cells(t *testing.T) {
	n := brisc.NewNetlist("top")
	n.MustAddCell("u1", brisc.CellAnd)
	n.MustAddCell("u2", brisc.CellOr)

	if _, err := n.AddCell("u1", brisc.CellNot); err == nil {
		t.Fatal("expected duplicate cell error")
	}

	if !n.RemoveCell("u1") {
		t.Fatal("expected removal")
	} else if n.RemoveCell("u1") {
		t.Fatal("expected second removal to fail")
	} else if n.Cell("u1") != nil {
		t.Fatal("expected cell to be gone")
	} else if len(n.Cells()) != 1 || n.Cells()[0].Name != "u2" {
		t.Fatalf("unexpected cells: %v", n.Cells())
	}

	n.MustAddCell("$const$1", brisc.CellBuf)
	if got := n.UniqueName("const"); got != "$const$2" {
		t.Fatalf("unexpected unique name: %s", got)
	}
}

func TestCell_Direction(t *testing.T) {
	n := brisc.NewNetlist("top")

	and := n.MustAddCell("and", brisc.CellAnd)
	if got := and.Direction("Y"); got != brisc.DirOutput {
		t.Fatalf("unexpected direction: %s", got)
	}

	// Unknown cells exposing Q are treated as registers.
	ff := n.MustAddCell("ff", "$dffe")
	ff.SetPort(brisc.PortQ, brisc.DirNone, brisc.Sig(n.NewSignal()))
	ff.SetPort("EN", brisc.DirNone, brisc.Sig(n.NewSignal()))
	if got := ff.Direction(brisc.PortQ); got != brisc.DirOutput {
		t.Fatalf("unexpected Q direction: %s", got)
	} else if got := ff.Direction("EN"); got != brisc.DirInput {
		t.Fatalf("unexpected EN direction: %s", got)
	}

	// Explicit directions win.
	and.SetPort("Y", brisc.DirInput, brisc.Sig(n.NewSignal()))
	if got := and.Direction("Y"); got != brisc.DirInput {
		t.Fatalf("unexpected direction: %s", got)
	}
}

func TestNetlist_Connectivity(t *testing.T) {
	n := NewToggleNetlist(t)
	q, d := n.Wire("q").Bits[0], n.Wire("d").Bits[0]

	conn := n.Connectivity()
	if diff := cmp.Diff(refStrings(conn.Drivers(q)), []string{"ff.Q[0]"}); diff != "" {
		t.Fatal(diff)
	} else if diff := cmp.Diff(refStrings(conn.Consumers(q)), []string{"inv.A[0]"}); diff != "" {
		t.Fatal(diff)
	} else if diff := cmp.Diff(refStrings(conn.Drivers(d)), []string{"inv.Y[0]"}); diff != "" {
		t.Fatal(diff)
	} else if diff := cmp.Diff(refStrings(conn.Consumers(d)), []string{"ff.D[0]"}); diff != "" {
		t.Fatal(diff)
	}
}

func refStrings(refs []brisc.PortRef) []string {
	var a []string
	for _, ref := range refs {
		a = append(a, ref.String())
	}
	return a
}
