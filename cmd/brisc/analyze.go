package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/brisc"
	"github.com/benbjohnson/brisc/yosys"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// AnalyzeCommand represents a command for exploring a circuit to a fixpoint
// and folding its untoggled signals.
type AnalyzeCommand struct {
	stdout io.Writer
	stderr io.Writer

	Format      string
	PowerOn     string
	Output      string
	MetricsFile string
	Verbose     bool
}

// NewAnalyzeCommand returns a new instance of AnalyzeCommand.
func NewAnalyzeCommand(stdout, stderr io.Writer) *AnalyzeCommand {
	return &AnalyzeCommand{stdout: stdout, stderr: stderr, PowerOn: "0"}
}

// Command returns the cobra command bound to cmd.
func (cmd *AnalyzeCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "analyze NETLIST INSTSET",
		Short: "Explore reachable states and fold untoggled signals",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c.Context(), args)
		},
	}
	c.Flags().StringVar(&cmd.Format, "format", "", "netlist format: yosys, aiger or bench (default: by extension)")
	c.Flags().StringVar(&cmd.PowerOn, "power-on", cmd.PowerOn, "value of registers left unknown by reset: 0, 1 or x")
	c.Flags().StringVarP(&cmd.Output, "output", "o", "", "write the optimized netlist as yosys JSON")
	c.Flags().StringVar(&cmd.MetricsFile, "metrics-file", "", "write exploration metrics in Prometheus text format")
	c.Flags().BoolVarP(&cmd.Verbose, "verbose", "v", false, "verbose")
	return c
}

// Run executes the "analyze" subcommand.
func (cmd *AnalyzeCommand) Run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("netlist and instruction set required")
	}
	powerOn, err := parsePowerOn(cmd.PowerOn)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.stderr, cmd.Verbose)

	n, err := readNetlist(args[0], cmd.Format)
	if err != nil {
		return err
	}
	p, err := brisc.NewProfile(n)
	if err != nil {
		return err
	}
	logger.Info("[profile] loaded", "inputs", len(p.Inputs()), "outputs", len(p.Outputs()), "registers", len(p.Registers()))

	insts, err := readInstructionSet(args[1], p)
	if err != nil {
		return err
	}

	a, err := brisc.NewAnalysis(p, insts)
	if err != nil {
		return err
	}
	a.PowerOn, a.Logger = powerOn, logger
	if cmd.MetricsFile != "" {
		a.Metrics = brisc.NewMetrics()
	}

	if err := a.Reset(); err != nil {
		return errors.Wrap(err, "reset")
	}
	x := brisc.NewExplorer(a)
	if err := x.Run(); err != nil {
		return errors.Wrap(err, "explore")
	}

	// Report untoggled signals before the netlist is rewritten.
	untoggled := a.Untoggled().Signals()
	fmt.Fprintf(cmd.stdout, "reset state: %s\n", a.Seed())
	fmt.Fprintf(cmd.stdout, "reachable states: %d (%d rounds)\n", a.States().Len(), x.Rounds())
	for _, state := range a.States().States() {
		fmt.Fprintf(cmd.stdout, "  %s\n", state)
	}
	fmt.Fprintf(cmd.stdout, "untoggled signals: %d of %d\n", len(untoggled), len(a.Signals()))
	for _, s := range untoggled {
		fmt.Fprintf(cmd.stdout, "  %s = %s\n", n.SignalName(s), a.InitialValue(s))
	}

	report, err := brisc.NewOptimizer(a).Propagate()
	if err != nil {
		return errors.Wrap(err, "propagate constants")
	}
	fmt.Fprintf(cmd.stdout, "constant inputs: %d, replaced cells: %d, split cells: %d\n",
		len(report.Inputs), len(report.Replaced), len(report.Split))

	if cmd.Output != "" {
		if err := writeNetlist(cmd.Output, n); err != nil {
			return err
		}
	}
	if a.Metrics != nil {
		if err := a.Metrics.WriteFile(cmd.MetricsFile); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}

// writeNetlist writes n to path as yosys JSON.
func writeNetlist(path string, n *brisc.Netlist) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yosys.Write(f, n); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}
