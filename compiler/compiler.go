// Package compiler implements the five-pass pipeline (plus emission) that
// lowers a program.Morphism to a board-scoped, ordered list of symbolic
// assembler calls (SPEC_FULL.md §4.7). The pipeline itself lives under
// compiler/internal/core; this package is the public entry point and the
// one place the internal pass types are translated into the public Call
// contract and optionally replayed onto the diag trace bus.
package compiler

import (
	"sort"

	"timingc/compiler/internal/core"
	"timingc/diag"
	"timingc/errs"
	"timingc/program"
)

// Call is a single symbolic assembler call, e.g. ttl_config(value, mask) or
// wait_mu(cycles) (SPEC_FULL.md §6).
type Call = core.Call

// Opcode name constants re-exported for callers inspecting a compiled Call
// list without importing the internal pass package.
const (
	OpTTLConfig       = core.OpTTLConfig
	OpWaitMu          = core.OpWaitMu
	OpRWGInitPort     = core.OpRWGInitPort
	OpRWGRFSwitch     = core.OpRWGRFSwitch
	OpRWGLoadWaveform = core.OpRWGLoadWaveform
	OpRWGPlay         = core.OpRWGPlay
	OpTriggerSlave    = core.OpTriggerSlave
	OpWaitMaster      = core.OpWaitMaster
)

// Assembler is the opaque handle the compiler is given alongside a
// Morphism. The core treats it only as a registry of board emission
// contexts it may validate board references against; it never calls back
// into assembler-specific opcode functions itself (SPEC_FULL.md §1, §6 —
// final assembler/machine-code emission is an external collaborator's
// job). A nil Assembler skips board validation entirely.
type Assembler interface {
	// HasBoard reports whether this assembler provides an emission context
	// for the given board id.
	HasBoard(board string) bool
}

// Options configures non-default compiler behaviour.
type Options struct {
	// DisableCrossEpochPull restricts Pass 3's LOAD placement to each
	// LOAD's own epoch, per the compile flag named in SPEC_FULL.md §4.7's
	// Open Questions resolution.
	DisableCrossEpochPull bool

	// Trace, if non-nil, receives a best-effort snapshot of every board's
	// event list after each pass (SPEC_FULL.md Pass 5, diag trace bus).
	// Delivery is never blocking and never affects the returned map.
	Trace *diag.Tracer
}

// Compile runs the full pipeline over m and returns the ordered per-board
// call lists. Every failure is fatal: no partial result is ever returned
// (SPEC_FULL.md §7).
func Compile(m *program.Morphism, asm Assembler, opts Options) (map[string][]Call, error) {
	events := core.ExtractEvents(m)

	if asm != nil {
		for _, board := range sortedBoards(events) {
			if !asm.HasBoard(board) {
				return nil, errs.New(errs.InternalAssertion, "compiler.Compile",
					"assembler has no emission context for board "+board).WithChannel(board)
			}
		}
	}
	traceEvents(opts.Trace, events, "pass0_extract")

	core.Translate(events)
	traceEvents(opts.Trace, events, "pass1_translate")

	core.AssignCostsAndEpochs(events)
	traceEvents(opts.Trace, events, "pass2_cost")

	records, err := core.ScheduleLoads(events, opts.DisableCrossEpochPull)
	if err != nil {
		return nil, err
	}
	traceEvents(opts.Trace, events, "pass3_schedule")

	if err := core.Validate(events, records); err != nil {
		return nil, err
	}
	traceEvents(opts.Trace, events, "pass4_validate")

	out := core.Emit(events)
	traceEvents(opts.Trace, events, "pass5_emit")

	return out, nil
}

func sortedBoards(events map[string][]*core.LogicalEvent) []string {
	boards := make([]string, 0, len(events))
	for b := range events {
		boards = append(boards, b)
	}
	sort.Strings(boards)
	return boards
}

// traceEvents replays the current state of every board's event list onto
// the trace bus under topic ["compiler", boardID, passName]. It is a
// no-op when tracer is nil.
func traceEvents(tracer *diag.Tracer, events map[string][]*core.LogicalEvent, pass string) {
	if tracer == nil {
		return
	}
	for _, board := range sortedBoards(events) {
		snap := make([]diag.TraceEvent, 0, len(events[board]))
		for _, e := range events[board] {
			opcodes := make([]string, 0, len(e.Calls))
			for _, c := range e.Calls {
				opcodes = append(opcodes, c.Opcode)
			}
			snap = append(snap, diag.TraceEvent{
				Channel:   e.Channel.String(),
				Kind:      e.Op.Kind.String(),
				Timestamp: int64(e.Timestamp),
				Cost:      int64(e.Cost),
				Epoch:     e.Epoch,
				Opcodes:   opcodes,
			})
		}
		tracer.Publish(board, pass, snap)
	}
}
