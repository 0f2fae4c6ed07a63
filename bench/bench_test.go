package bench_test

import (
	"os"
	"strings"
	"testing"

	"github.com/benbjohnson/brisc"
	"github.com/benbjohnson/brisc/bench"
	"github.com/google/go-cmp/cmp"
)

func TestRead(t *testing.T) {
	t.Run("Counter", func(t *testing.T) {
		f, err := os.Open("../testdata/s8.bench")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		n, err := bench.Read(f, "s8")
		if err != nil {
			t.Fatal(err)
		}

		var ports []string
		for _, w := range n.Ports() {
			ports = append(ports, w.Name+":"+w.Dir.String())
		}
		if diff := cmp.Diff(ports, []string{"clk:input", "en:input", "q0:output", "q1:output"}); diff != "" {
			t.Fatal(diff)
		}

		p, err := brisc.NewProfile(n)
		if err != nil {
			t.Fatal(err)
		} else if len(p.Registers()) != 2 {
			t.Fatalf("unexpected register count: %d", len(p.Registers()))
		} else if c := n.Cell("q1"); c == nil || c.Type != brisc.CellDFF {
			t.Fatalf("unexpected register cell: %#v", c)
		} else if c := n.Cell("c"); c == nil || c.Type != brisc.CellAnd {
			t.Fatalf("unexpected gate cell: %#v", c)
		}

		// Counting from 01 (q0=0, q1=1) with en high gives 11.
		ev, err := brisc.NewEvaluator(p)
		if err != nil {
			t.Fatal(err)
		} else if err := ev.Set(p.QVector(), brisc.MustParseBits("01"), false); err != nil {
			t.Fatal(err)
		} else if err := ev.Set(n.Wire("en").Bits, brisc.MustParseBits("1"), false); err != nil {
			t.Fatal(err)
		} else if got := ev.EvalAllConns(p.DVector()).String(); got != "11" {
			t.Fatalf("unexpected next state: %s", got)
		}
	})

	t.Run("Chain", func(t *testing.T) {
		n, err := bench.Read(strings.NewReader(`
INPUT(a)
INPUT(b)
INPUT(c)
OUTPUT(y)
OUTPUT(a)
y = NAND(a, b, c)  # three inputs
z = and(a)
`), "chain")
		if err != nil {
			t.Fatal(err)
		}

		types := make(map[string]string)
		for _, c := range n.Cells() {
			types[c.Name] = c.Type
		}
		if diff := cmp.Diff(types, map[string]string{
			"y$1": brisc.CellAnd,
			"y":   brisc.CellNand,
			"z":   brisc.CellBuf,
		}); diff != "" {
			t.Fatal(diff)
		} else if n.Wire(bench.ClockName) != nil {
			t.Fatal("expected no clock without flip-flops")
		}

		// Outputs on inputs get their own port.
		if w := n.Wire("a$out"); w == nil || w.Dir != brisc.DirOutput {
			t.Fatalf("unexpected output port: %#v", w)
		} else if n.Canonical(w.Bits[0]) != n.Canonical(n.Wire("a").Bits[0]) {
			t.Fatal("expected output to alias input")
		}

		p, err := brisc.NewProfile(n)
		if err != nil {
			t.Fatal(err)
		}
		ev, err := brisc.NewEvaluator(p)
		if err != nil {
			t.Fatal(err)
		}
		for _, tt := range []struct{ in, out string }{{"111", "0"}, {"110", "1"}, {"0xx", "1"}} {
			ev.Push()
			if err := ev.Set(p.InputSignals(), brisc.MustParseBits(tt.in), false); err != nil {
				t.Fatal(err)
			} else if got := ev.EvalAll(n.Wire("y").Bits).String(); got != tt.out {
				t.Fatalf("nand(%s)=%s, want %s", tt.in, got, tt.out)
			}
			ev.Pop()
		}
	})

	for _, tt := range []struct {
		name, src, msg string
	}{
		{"ErrUndefined", "INPUT(a)\ny = AND(a, b)\n", "undefined signal b"},
		{"ErrRedefined", "INPUT(a)\na = NOT(a)\n", "defined more than once"},
		{"ErrGate", "INPUT(a)\ny = MAJ(a, a, a)\n", "unsupported gate type MAJ"},
		{"ErrStatement", "INPUT(a)\ny := NOT(a)\n", "invalid statement"},
		{"ErrNoInputs", "y = NOT()\n", "has no inputs"},
		{"ErrUndrivenOutput", "OUTPUT(y)\n", "never driven"},
		{"ErrDFFArity", "INPUT(a)\nq = DFF(a, a)\n", "takes one input"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bench.Read(strings.NewReader(tt.src), "bad")
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
