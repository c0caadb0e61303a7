package core

import (
	"sort"

	"timingc/hwtime"
)

// masterWaitSafetyMargin is the small, deterministic safety margin added to
// the computed master wait-time, matching the reference implementation's
// documented default (SPEC_FULL.md Pass 5).
const masterWaitSafetyMargin = 10

// triggerSlaveSite locates one trigger_slave call emitted during Pass 5,
// so its WaitTimePlaceholder argument can be backfilled once every board's
// epoch-0 physical cursor is known.
type triggerSlaveSite struct {
	board string
	index int
}

// Emit runs Pass 5: for each board, walks the final (post-Pass-3) events in
// timestamp order, emitting wait_mu calls to bridge logical gaps and the
// event's own pre-translated calls, then backfills every trigger_slave
// call's WaitTimePlaceholder with the true master wait-time computed from
// every board's epoch-0 physical cursor (SPEC_FULL.md Pass 5).
func Emit(events map[string][]*LogicalEvent) map[string][]Call {
	out := make(map[string][]Call, len(events))
	boards := make([]string, 0, len(events))
	for b := range events {
		boards = append(boards, b)
	}
	sort.Strings(boards)

	var masterWait hwtime.Cycle
	var sites []triggerSlaveSite

	for _, board := range boards {
		evs := make([]*LogicalEvent, len(events[board]))
		copy(evs, events[board])
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Timestamp < evs[j].Timestamp })

		var calls []Call
		var physCursor, epoch0Cursor hwtime.Cycle
		for _, e := range evs {
			if wait := e.Timestamp - physCursor; wait > 0 {
				calls = append(calls, Call{Opcode: OpWaitMu, Args: []any{wait}})
			}
			for _, c := range e.Calls {
				calls = append(calls, c)
				if c.Opcode == OpTriggerSlave {
					sites = append(sites, triggerSlaveSite{board: board, index: len(calls) - 1})
				}
			}
			// physCursor accumulates across events sharing one logical
			// timestamp: several zero-logical-duration writes at the same
			// instant still cost real, sequential cycles.
			if e.Timestamp > physCursor {
				physCursor = e.Timestamp
			}
			physCursor += e.Cost
			if e.Epoch == 0 {
				epoch0Cursor = physCursor
			}
		}
		out[board] = calls
		if epoch0Cursor > masterWait {
			masterWait = epoch0Cursor
		}
	}

	backfill := masterWait + masterWaitSafetyMargin
	for _, s := range sites {
		args := out[s.board][s.index].Args
		if len(args) > 0 {
			args[0] = backfill
		}
	}
	return out
}
