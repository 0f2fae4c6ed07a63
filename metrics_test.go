package brisc_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benbjohnson/brisc"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	a, err := brisc.NewAnalysis(MustNewProfile(t, NewCounterNetlist(t)), MustParseInstructionSet(t, CounterInstructions))
	if err != nil {
		t.Fatal(err)
	}
	m := brisc.NewMetrics()
	a.Metrics = m

	if err := a.Reset(); err != nil {
		t.Fatal(err)
	} else if err := brisc.NewExplorer(a).Run(); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(m.States); got != 4 {
		t.Fatalf("unexpected states: %v", got)
	} else if got := testutil.ToFloat64(m.Rounds); got != 2 {
		t.Fatalf("unexpected rounds: %v", got)
	} else if got := testutil.ToFloat64(m.Executions.WithLabelValues("inc")); got != 4 {
		t.Fatalf("unexpected inc executions: %v", got)
	} else if got := testutil.ToFloat64(m.Untoggled); got != 1 {
		t.Fatalf("unexpected untoggled: %v", got)
	}

	path := filepath.Join(t.TempDir(), "brisc.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	} else if !strings.Contains(string(buf), "brisc_states_total 4") {
		t.Fatalf("unexpected metrics file:\n%s", buf)
	}
}

func TestMetrics_Nil(t *testing.T) {
	a := MustExplore(t, NewToggleNetlist(t), ToggleInstructions)
	if a.Metrics != nil {
		t.Fatal("expected metrics to be disabled by default")
	}
}
