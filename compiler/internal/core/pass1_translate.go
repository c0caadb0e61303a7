package core

import (
	"timingc/hwtime"
	"timingc/program"
)

// Translate synthesizes, per event, the concrete assembler call list that
// would realize that operation in isolation (SPEC_FULL.md Pass 1). TTL
// transitions sharing a (board, timestamp) are fused into masked writes, one
// per write burst (see fuseTTLBursts); SYNC_SLAVE waits adjacent on the same
// board collapse into one.
func Translate(events map[string][]*LogicalEvent) {
	for _, evs := range events {
		translateTTLGroups(evs)
		for _, e := range evs {
			switch e.Op.Kind {
			case program.OpRWGInit:
				e.Calls = []Call{{Opcode: OpRWGInitPort, Args: []any{e.Channel.Index, e.Op.End.CarrierMHz}}}
			case program.OpRWGSetCarrier:
				e.Calls = []Call{{Opcode: OpRWGInitPort, Args: []any{e.Channel.Index, e.Op.End.CarrierMHz}}}
			case program.OpRWGLoadCoeffs:
				e.Calls = translateLoadCoeffs(e.Op)
			case program.OpRWGUpdateParams:
				e.Calls = translatePlay(e.Op)
			case program.OpRWGRFSwitch:
				p, _ := e.Op.Params.(program.RFSwitchParams)
				e.Calls = []Call{{Opcode: OpRWGRFSwitch, Args: []any{rfMask(e.Channel), p.On}}}
			case program.OpSyncMaster:
				p, _ := e.Op.Params.(program.SyncParams)
				e.Calls = []Call{{Opcode: OpTriggerSlave, Args: []any{WaitTimePlaceholder, p.Code}}}
			case program.OpSyncSlave:
				p, _ := e.Op.Params.(program.SyncParams)
				e.Calls = []Call{{Opcode: OpWaitMaster, Args: []any{p.Code}}}
			}
		}
	}
	mergeAdjacentSlaveWaits(events)
}

func rfMask(ch program.Channel) uint32 { return uint32(1) << uint(ch.Index) }

func translateLoadCoeffs(op program.AtomicOp) []Call {
	p, ok := op.Params.(program.LoadCoeffsParams)
	if !ok {
		return nil
	}
	calls := make([]Call, 0, len(p.Targets))
	for _, tgt := range p.Targets {
		freq := EncodeFreqCoeffs(tgt.FreqCoeffs, tgt.ScaleExp)
		amp := EncodeAmpCoeffs(tgt.AmpCoeffs, tgt.ScaleExp)
		calls = append(calls, Call{
			Opcode: OpRWGLoadWaveform,
			Args:   []any{tgt.Index, freq, amp, tgt.Phase, tgt.Changed},
		})
	}
	return calls
}

func translatePlay(op program.AtomicOp) []Call {
	p, _ := op.Params.(program.UpdateParamsParams)
	durationUS := hwtime.CyclesToMicros(op.Duration)
	return []Call{{Opcode: OpRWGPlay, Args: []any{durationUS, p.PUDMask, p.IOUMask}}}
}

// translateTTLGroups groups every TTL_INIT/TTL_ON/TTL_OFF event sharing a
// timestamp on one board and hands each group to fuseTTLBursts, which emits
// one ttl_config(value_mask, set_mask) call per write burst, attached to the
// burst's first event; the other events in a burst get no calls of their
// own.
func translateTTLGroups(evs []*LogicalEvent) {
	type groupKey struct {
		ts hwtime.Cycle
	}
	groups := make(map[groupKey][]*LogicalEvent)
	var order []groupKey
	for _, e := range evs {
		if !isTTLTransition(e.Op.Kind) {
			continue
		}
		k := groupKey{ts: e.Timestamp}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}
	for _, k := range order {
		fuseTTLBursts(groups[k])
	}
}

// fuseTTLBursts partitions one timestamp's TTL transitions into successive
// write bursts: a single burst may contain at most one transition per
// channel (distinct channels triggered at the same instant genuinely share
// one masked write), but if the same channel appears twice at this
// timestamp — e.g. TTL_INIT immediately followed by TTL_ON, both
// zero-duration — the second occurrence cannot be part of the same
// physical write and opens a new burst instead.
func fuseTTLBursts(members []*LogicalEvent) {
	var burst []*LogicalEvent
	seen := make(map[program.Channel]bool)
	flush := func() {
		if len(burst) == 0 {
			return
		}
		var valueMask, setMask uint32
		for _, e := range burst {
			bit := uint32(1) << uint(e.Channel.Index)
			setMask |= bit
			if e.Op.End.TTL == program.TTLOn {
				valueMask |= bit
			}
		}
		burst[0].Calls = []Call{{Opcode: OpTTLConfig, Args: []any{valueMask, setMask}}}
		for _, e := range burst[1:] {
			e.Calls = nil
		}
		burst = nil
		seen = make(map[program.Channel]bool)
	}
	for _, e := range members {
		if seen[e.Channel] {
			flush()
		}
		seen[e.Channel] = true
		burst = append(burst, e)
	}
	flush()
}

func isTTLTransition(k program.OpKind) bool {
	return k == program.OpTTLInit || k == program.OpTTLOn || k == program.OpTTLOff
}

// mergeAdjacentSlaveWaits collapses consecutive SYNC_SLAVE events on the
// same board with no intervening non-sync event into a single wait_master
// call, attached to the first event.
func mergeAdjacentSlaveWaits(events map[string][]*LogicalEvent) {
	for _, evs := range events {
		var run []*LogicalEvent
		flush := func() {
			if len(run) > 1 {
				for _, e := range run[1:] {
					e.Calls = nil
				}
			}
			run = nil
		}
		for _, e := range evs {
			if e.Op.Kind == program.OpSyncSlave {
				run = append(run, e)
				continue
			}
			flush()
		}
		flush()
	}
}
