package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/benbjohnson/brisc"
	"github.com/benbjohnson/brisc/aig"
	"github.com/benbjohnson/brisc/bench"
	"github.com/benbjohnson/brisc/yosys"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand returns the brisc command with all subcommands attached.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "brisc",
		Short: "Instruction-driven state exploration and constant folding of gate-level netlists",
		Long: `
Brisc explores the register states a gate-level circuit can reach under a
declared instruction set, starting from its reset state, and folds every
signal that never leaves its reset value into a constant.

Netlists may be yosys JSON (.json), AIGER (.aag, .aig) or ISCAS bench
(.bench) files.
`[1:],
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		NewProfileCommand(stdout, stderr).Command(),
		NewAnalyzeCommand(stdout, stderr).Command(),
		NewExecCommand(stdout, stderr).Command(),
	)
	return root
}

// Netlist formats.
const (
	FormatYosys = "yosys"
	FormatAIGER = "aiger"
	FormatBench = "bench"
)

// detectFormat returns the netlist format implied by a file extension.
func detectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatYosys, nil
	case ".aag", ".aig":
		return FormatAIGER, nil
	case ".bench":
		return FormatBench, nil
	}
	return "", errors.Errorf("cannot detect netlist format of %s, use --format", path)
}

// readNetlist reads a netlist file in the given format, or detects the
// format if empty.
func readNetlist(path, format string) (*brisc.Netlist, error) {
	if format == "" {
		var err error
		if format, err = detectFormat(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var n *brisc.Netlist
	switch format {
	case FormatYosys:
		n, err = yosys.Read(f)
	case FormatAIGER:
		n, err = aig.Read(f, name)
	case FormatBench:
		n, err = bench.Read(f, name)
	default:
		return nil, errors.Errorf("unknown netlist format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return n, nil
}

// readInstructionSet reads and validates an instruction-set file.
func readInstructionSet(path string, p *brisc.Profile) (*brisc.InstructionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := brisc.LoadInstructionSet(f, p)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return s, nil
}

// newLogger returns a logger writing to w if verbose, otherwise discarding.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// parsePowerOn parses the --power-on flag.
func parsePowerOn(s string) (brisc.Bit, error) {
	if len(s) == 1 {
		if b, ok := brisc.ParseBit(s[0]); ok {
			return b, nil
		}
	}
	return brisc.BitX, errors.Errorf("invalid power-on value %q, expected 0, 1 or x", s)
}
