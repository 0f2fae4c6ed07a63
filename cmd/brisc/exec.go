package main

import (
	"context"
	"fmt"
	"io"

	"github.com/benbjohnson/brisc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ExecCommand represents a command for running a sequence of instructions
// from the reset state.
type ExecCommand struct {
	stdout io.Writer
	stderr io.Writer

	Format   string
	PowerOn  string
	SetState bool
	Verbose  bool
}

// NewExecCommand returns a new instance of ExecCommand.
func NewExecCommand(stdout, stderr io.Writer) *ExecCommand {
	return &ExecCommand{stdout: stdout, stderr: stderr, PowerOn: "0"}
}

// Command returns the cobra command bound to cmd.
func (cmd *ExecCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "exec NETLIST INSTSET INSTRUCTION...",
		Short: "Execute instructions from the reset state and print each register state",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c.Context(), args)
		},
	}
	c.Flags().StringVar(&cmd.Format, "format", "", "netlist format: yosys, aiger or bench (default: by extension)")
	c.Flags().StringVar(&cmd.PowerOn, "power-on", cmd.PowerOn, "value of registers left unknown by reset: 0, 1 or x")
	c.Flags().BoolVarP(&cmd.SetState, "set-state", "s", false, "record each new state as reachable")
	c.Flags().BoolVarP(&cmd.Verbose, "verbose", "v", false, "verbose")
	return c
}

// Run executes the "exec" subcommand.
func (cmd *ExecCommand) Run(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("netlist, instruction set and at least one instruction required")
	}
	powerOn, err := parsePowerOn(cmd.PowerOn)
	if err != nil {
		return err
	}

	n, err := readNetlist(args[0], cmd.Format)
	if err != nil {
		return err
	}
	p, err := brisc.NewProfile(n)
	if err != nil {
		return err
	}
	insts, err := readInstructionSet(args[1], p)
	if err != nil {
		return err
	}

	a, err := brisc.NewAnalysis(p, insts)
	if err != nil {
		return err
	}
	a.PowerOn, a.Logger = powerOn, newLogger(cmd.stderr, cmd.Verbose)
	if err := a.Reset(); err != nil {
		return errors.Wrap(err, "reset")
	}
	fmt.Fprintf(cmd.stdout, "reset: %s\n", a.Seed())

	ev := a.Evaluator()
	ev.Push()
	defer ev.Pop()
	if err := ev.Set(p.QVector(), a.Seed().Bits(), false); err != nil {
		return err
	}

	for _, name := range args[2:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		added, err := a.Execute(name, cmd.SetState, true)
		if err != nil {
			return err
		}

		// A newly recorded state is not loaded into the registers.
		state := brisc.NewRegisterState(ev.EvalAll(p.QVector()))
		if added {
			state = a.States().At(a.States().Len() - 1)
			if err := ev.Set(p.QVector(), state.Bits(), true); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.stdout, "%s: %s\n", name, state)
	}
	fmt.Fprintf(cmd.stdout, "untoggled signals: %d of %d\n", a.Untoggled().Len(), len(a.Signals()))
	return nil
}
