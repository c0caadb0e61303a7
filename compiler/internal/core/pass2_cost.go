package core

import "timingc/program"

// costPerSBGParamLoad is the documented per-parameter physical cost of a
// single rwg_load_waveform call (SPEC_FULL.md Pass 2).
const costPerSBGParamLoad = 14

// AssignCostsAndEpochs fills each event's physical Cost and Epoch index
// (SPEC_FULL.md Pass 2). A simple analytical cost model is used: 1 cycle
// per simple CSR write (TTL fused write, RF switch, play-trigger), and
// costPerSBGParamLoad cycles per SBG parameter loaded by RWG_LOAD_COEFFS.
// Every SYNC_MASTER starts a new epoch.
//
// Cost is derived from the event's own Calls list rather than its OpKind
// alone: Pass 1 fuses several TTL events into one call on the first member
// of the group and leaves the rest with an empty Calls list (and similarly
// for merged SYNC_SLAVE waits). An event that emitted no call of its own
// contributes no physical cost.
func AssignCostsAndEpochs(events map[string][]*LogicalEvent) {
	for _, evs := range events {
		epoch := 0
		for _, e := range evs {
			e.Epoch = epoch
			e.Cost = costOf(e)
			if e.Op.Kind == program.OpSyncMaster {
				epoch++
			}
		}
	}
}

func costOf(e *LogicalEvent) int64 {
	switch e.Op.Kind {
	case program.OpTTLInit, program.OpTTLOn, program.OpTTLOff:
		if len(e.Calls) == 0 {
			return 0
		}
		return 1
	case program.OpRWGLoadCoeffs:
		return int64(len(e.Calls)) * costPerSBGParamLoad
	case program.OpRWGUpdateParams, program.OpRWGRFSwitch, program.OpRWGInit, program.OpRWGSetCarrier:
		if len(e.Calls) == 0 {
			return 0
		}
		return 1
	case program.OpSyncMaster:
		return 1
	case program.OpSyncSlave:
		if len(e.Calls) == 0 {
			return 0
		}
		return 1
	default:
		return 0
	}
}
