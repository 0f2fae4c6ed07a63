package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/benbjohnson/brisc"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

// ProfileCommand represents a command for printing the structure of a netlist.
type ProfileCommand struct {
	stdout io.Writer
	stderr io.Writer

	Format string
	Dump   bool
}

// NewProfileCommand returns a new instance of ProfileCommand.
func NewProfileCommand(stdout, stderr io.Writer) *ProfileCommand {
	return &ProfileCommand{stdout: stdout, stderr: stderr}
}

// Command returns the cobra command bound to cmd.
func (cmd *ProfileCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "profile NETLIST",
		Short: "Print the ports, registers and cells of a netlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c.Context(), args)
		},
	}
	c.Flags().StringVar(&cmd.Format, "format", "", "netlist format: yosys, aiger or bench (default: by extension)")
	c.Flags().BoolVar(&cmd.Dump, "dump", false, "dump the registers in full")
	return c
}

// Run executes the "profile" subcommand.
func (cmd *ProfileCommand) Run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("netlist required")
	}

	n, err := readNetlist(args[0], cmd.Format)
	if err != nil {
		return err
	}
	p, err := brisc.NewProfile(n)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.stdout, "module %s: %d signals, %d cells\n", n.Name, len(n.Signals()), len(n.Cells()))
	for _, w := range p.Inputs() {
		fmt.Fprintf(cmd.stdout, "input  %s[%d]\n", w.Name, w.Width())
	}
	for _, w := range p.Outputs() {
		fmt.Fprintf(cmd.stdout, "output %s[%d]\n", w.Name, w.Width())
	}

	for _, reg := range p.Registers() {
		fmt.Fprintf(cmd.stdout, "register %s[%d]: Q=%s D=%s init=%s\n",
			reg.Cell.Name, reg.Index, n.SignalName(reg.Q), connName(n, reg.D), reg.Init)
	}

	counts := make(map[string]int)
	for _, c := range p.CombinationalCells() {
		counts[c.Type]++
	}
	types := make([]string, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		fmt.Fprintf(cmd.stdout, "cell %s: %d\n", typ, counts[typ])
	}

	if cmd.Dump {
		spew.Fdump(cmd.stdout, p.Registers())
	}
	return nil
}

// connName returns the name of the signal or constant on a pin.
func connName(n *brisc.Netlist, c brisc.Conn) string {
	if c.Const {
		return c.Value.String()
	}
	return n.SignalName(c.Signal)
}
