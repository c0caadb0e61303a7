// Command timingc is a thin demo CLI over the program/compiler packages
// (SPEC_FULL.md item 13): it loads a JSON program descriptor, optionally
// prints its timeline, and optionally compiles and prints the resulting
// per-board call lists. It is explicitly not part of the compiler's
// contract — everything it does is re-derivable from the library packages
// it wraps.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"timingc/bus"
	"timingc/compiler"
	"timingc/descriptor"
	"timingc/diag"
	"timingc/program"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timingc",
		Short: "Hardware-timing program compiler demo CLI",
	}
	root.AddCommand(newDescribeCmd(), newCompileCmd())
	return root
}

// descriptorAssembler is the minimal compiler.Assembler a descriptor file
// can supply: board emission contexts exist for exactly the boards it
// declares.
type descriptorAssembler struct {
	boards map[string]bool
}

func (a descriptorAssembler) HasBoard(board string) bool { return a.boards[board] }

func assemblerFor(pd *descriptor.ProgramDescriptor) descriptorAssembler {
	boards := make(map[string]bool, len(pd.Boards))
	for _, b := range pd.Boards {
		boards[b.ID] = true
	}
	return descriptorAssembler{boards: boards}
}

func loadMorphism(ctx context.Context, path string) (*program.Morphism, error) {
	pd, err := descriptor.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return descriptor.Build(pd)
}

func loadDescriptorAndMorphism(ctx context.Context, path string) (*descriptor.ProgramDescriptor, *program.Morphism, error) {
	pd, err := descriptor.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	m, err := descriptor.Build(pd)
	if err != nil {
		return nil, nil, err
	}
	return pd, m, nil
}

func newDescribeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "describe [descriptor.json]",
		Short: "Print the per-channel timeline of a program descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMorphism(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tl := diag.BuildTimeline(m)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), tl)
			}
			printTimeline(cmd.OutOrStdout(), tl)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the timeline as JSON instead of text")
	return cmd
}

func newCompileCmd() *cobra.Command {
	var asJSON bool
	var trace bool
	var noCrossEpochPull bool
	cmd := &cobra.Command{
		Use:   "compile [descriptor.json]",
		Short: "Compile a program descriptor to per-board assembler calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pd, m, err := loadDescriptorAndMorphism(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			asm := assemblerFor(pd)

			opts := compiler.Options{DisableCrossEpochPull: noCrossEpochPull}
			var stop func()
			if trace {
				opts.Trace, stop = attachStderrTracer(cmd.ErrOrStderr())
				defer stop()
			}

			calls, err := compiler.Compile(m, asm, opts)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), calls)
			}
			printCalls(cmd.OutOrStdout(), calls)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the compiled call lists as JSON instead of text")
	cmd.Flags().BoolVar(&trace, "trace", false, "print a pass-by-pass event trace to stderr while compiling")
	cmd.Flags().BoolVar(&noCrossEpochPull, "no-cross-epoch-pull", false, "disable Pass 3 cross-epoch LOAD pulling")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTimeline(w io.Writer, tl diag.Timeline) {
	fmt.Fprintf(w, "total duration: %d cycles\n", tl.TotalDuration)
	for _, lane := range tl.Lanes {
		fmt.Fprintf(w, "%s:\n", lane.Channel)
		for _, seg := range lane.Segments {
			fmt.Fprintf(w, "  [%6d,%6d) %-18s %s -> %s\n", seg.StartCycle, seg.EndCycle, seg.Kind, seg.StartState, seg.EndState)
		}
	}
}

func printCalls(w io.Writer, calls map[string][]compiler.Call) {
	boards := make([]string, 0, len(calls))
	for b := range calls {
		boards = append(boards, b)
	}
	sort.Strings(boards)
	for _, b := range boards {
		fmt.Fprintf(w, "%s:\n", b)
		for _, c := range calls[b] {
			fmt.Fprintf(w, "  %s%v\n", c.Opcode, c.Args)
		}
	}
}

// attachStderrTracer wires a fresh diag trace bus to the compiler and
// prints every published TracePass to w as it arrives. The returned stop
// function disconnects the subscriber; it must be called after Compile
// returns so the final pass's trace messages are not missed.
func attachStderrTracer(w io.Writer) (*diag.Tracer, func()) {
	b, tracer := diag.NewTraceBus(16)
	conn := b.NewConnection("timingc-cli")
	sub := conn.Subscribe(bus.T("compiler", "+", "+"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range sub.Channel() {
			tp, ok := msg.Payload.(diag.TracePass)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "-- %s board=%s --\n", tp.Pass, tp.Board)
			for _, e := range tp.Events {
				fmt.Fprintf(w, "  t=%-6d cost=%-4d epoch=%d %-10s %s %v\n", e.Timestamp, e.Cost, e.Epoch, e.Kind, e.Channel, e.Opcodes)
			}
		}
	}()
	return tracer, func() {
		conn.Disconnect()
		<-done
	}
}
