// Package core implements the compiler's five-pass pipeline plus emission,
// operating on a flat per-board list of LogicalEvent values derived from a
// program.Morphism.
package core

import (
	"timingc/hwtime"
	"timingc/program"
)

// Call is a single symbolic assembler call the compiler emits.
type Call struct {
	Opcode string
	Args   []any
}

// Opcode names used by the core (SPEC_FULL.md §6).
const (
	OpTTLConfig       = "ttl_config"
	OpWaitMu          = "wait_mu"
	OpRWGInitPort     = "rwg_initialize_port"
	OpRWGRFSwitch     = "rwg_rf_switch"
	OpRWGLoadWaveform = "rwg_load_waveform"
	OpRWGPlay         = "rwg_play"
	OpTriggerSlave    = "trigger_slave"
	OpWaitMaster      = "wait_master"
)

// WaitTimePlaceholder is the sentinel trigger_slave wait argument backfilled
// by Pass 5 once every board's final physical cursor is known.
const WaitTimePlaceholder = int64(-1)

// LogicalEvent is one non-no-op atomic operation lowered out of a Lane,
// carrying the mutable fields the later passes fill in.
type LogicalEvent struct {
	Board     string
	Channel   program.Channel
	Op        program.AtomicOp
	Timestamp hwtime.Cycle // logical, cycles; rewritten for LOAD events by Pass 3
	Cost      hwtime.Cycle // physical, filled by Pass 2
	Epoch     int          // filled by Pass 2
	Calls     []Call       // filled by Pass 1
}

// ScheduledLoadRecord is the Pass 3 output: the final placement of one
// RWG_LOAD_COEFFS event on its board's serial loader.
type ScheduledLoadRecord struct {
	Event *LogicalEvent
	Start hwtime.Cycle
	End   hwtime.Cycle
}

// kindPriority orders events sharing a timestamp: init < load < play < sync
// (SPEC_FULL.md Pass 0).
func kindPriority(kind program.OpKind) int {
	switch kind {
	case program.OpTTLInit, program.OpRWGInit, program.OpRWGSetCarrier:
		return 0
	case program.OpRWGLoadCoeffs:
		return 1
	case program.OpTTLOn, program.OpTTLOff, program.OpRWGUpdateParams, program.OpRWGRFSwitch:
		return 2
	case program.OpSyncMaster, program.OpSyncSlave:
		return 3
	default:
		return 4
	}
}
