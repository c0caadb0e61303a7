package core

import (
	"container/heap"
	"sort"

	"timingc/errs"
	"timingc/hwtime"
	"timingc/program"
)

// loadItem is one RWG_LOAD_COEFFS event awaiting placement on its board's
// single serial loader (SPEC_FULL.md Pass 3).
type loadItem struct {
	event        *LogicalEvent
	deadline     hwtime.Cycle // the paired PLAY's original timestamp
	originalTS   hwtime.Cycle
	cost         hwtime.Cycle
	epochFloor   hwtime.Cycle // earliest cycle this LOAD may be placed at (epoch-pull guard)
	index        int
}

// loadHeap orders pending LOADs by deadline ascending, in the style of the
// teacher's poller heap (container/heap over a typed slice).
type loadHeap []*loadItem

func (h loadHeap) Len() int            { return len(h) }
func (h loadHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h loadHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *loadHeap) Push(x any)         { it := x.(*loadItem); it.index = len(*h); *h = append(*h, it) }
func (h *loadHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	it.index = -1
	*h = old[:n-1]
	return it
}

// interval is a half-open [Start, End) window on one board's logical
// timeline.
type interval struct {
	Start, End hwtime.Cycle
}

// ScheduleLoads runs the deadline-first serial-loader scheduler described in
// SPEC_FULL.md Pass 3, independently per board, and rewrites each
// RWG_LOAD_COEFFS event's Timestamp to its committed placement. It returns
// every ScheduledLoadRecord produced, or the first errs.TimingViolation
// encountered.
//
// disableCrossEpochPull restricts every placement (preferred or searched) to
// not precede the LOAD's own epoch start cycle, implementing the
// compiler.Options.DisableCrossEpochPull flag from SPEC_FULL.md §4.7.
func ScheduleLoads(events map[string][]*LogicalEvent, disableCrossEpochPull bool) ([]ScheduledLoadRecord, error) {
	var records []ScheduledLoadRecord
	boards := make([]string, 0, len(events))
	for b := range events {
		boards = append(boards, b)
	}
	sort.Strings(boards)

	for _, board := range boards {
		evs := events[board]
		epochFloors := epochStartCycles(evs)
		pairs := pairLoadsWithPlays(evs)
		hosts := hostWindows(evs)

		var h loadHeap
		for _, p := range pairs {
			floor := hwtime.Cycle(0)
			if disableCrossEpochPull {
				floor = epochFloors[p.load.Epoch]
			}
			heap.Push(&h, &loadItem{
				event:      p.load,
				deadline:   p.deadline,
				originalTS: p.load.Timestamp,
				cost:       p.load.Cost,
				epochFloor: floor,
			})
		}

		var loaderFreeAt hwtime.Cycle
		for h.Len() > 0 {
			it := heap.Pop(&h).(*loadItem)
			start, ok := placeLoad(it, loaderFreeAt, hosts)
			if !ok {
				return nil, errs.New(errs.TimingViolation, "pass3.schedule",
					"no placement satisfies the serial-loader constraint before the paired PLAY's deadline").
					WithChannel(it.event.Channel.String()).
					WithTimestamp(int64(it.deadline))
			}
			it.event.Timestamp = start
			loaderFreeAt = start + it.cost
			records = append(records, ScheduledLoadRecord{Event: it.event, Start: start, End: loaderFreeAt})
		}
	}
	return records, nil
}

// loadPlayPair is one LOAD paired with the timestamp of the next
// UPDATE_PARAMS on the same channel (SPEC_FULL.md Pass 3, pair
// identification). Cross-epoch pairing is implicit: timestamps are
// continuous across epoch boundaries (Serial concatenates lanes without
// resetting the per-channel cursor), so a PLAY in a later epoch pairs with
// its channel's most recent unpaired LOAD exactly as it would within one
// epoch.
type loadPlayPair struct {
	load     *LogicalEvent
	deadline hwtime.Cycle
}

func pairLoadsWithPlays(evs []*LogicalEvent) []loadPlayPair {
	pending := make(map[program.Channel]*LogicalEvent)
	var pairs []loadPlayPair
	for _, e := range evs {
		switch e.Op.Kind {
		case program.OpRWGLoadCoeffs:
			pending[e.Channel] = e
		case program.OpRWGUpdateParams:
			if load, ok := pending[e.Channel]; ok {
				pairs = append(pairs, loadPlayPair{load: load, deadline: e.Timestamp})
				delete(pending, e.Channel)
			}
		}
	}
	return pairs
}

// hostWindows is the union, merged and sorted, of every RWG_UPDATE_PARAMS
// event's logical [timestamp, timestamp+duration) window on the board —
// candidate intervals during which the shared loader may act without
// user-visible effect (SPEC_FULL.md Pass 3).
func hostWindows(evs []*LogicalEvent) []interval {
	var raw []interval
	for _, e := range evs {
		if e.Op.Kind == program.OpRWGUpdateParams && e.Op.Duration > 0 {
			raw = append(raw, interval{Start: e.Timestamp, End: e.Timestamp + e.Op.Duration})
		}
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].Start < raw[j].Start })
	var merged []interval
	for _, iv := range raw {
		if n := len(merged); n > 0 && iv.Start <= merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// epochStartCycles maps an epoch index to the cycle at which it began (the
// timestamp of the SYNC_MASTER that opened it, or 0 for epoch 0).
func epochStartCycles(evs []*LogicalEvent) map[int]hwtime.Cycle {
	floors := map[int]hwtime.Cycle{0: 0}
	for _, e := range evs {
		if e.Op.Kind == program.OpSyncMaster {
			if _, ok := floors[e.Epoch+1]; !ok {
				floors[e.Epoch+1] = e.Timestamp
			}
		}
	}
	return floors
}

// placeLoad implements SPEC_FULL.md Pass 3 step 4: try the natural
// (original-timestamp-or-loader-free) placement first; a LOAD and its PLAY
// routinely share one logical timestamp (e.g. LinearRamp's LOAD has zero
// logical duration), so that placement is unsatisfiable for any cost>0 and
// the common case is pulling the LOAD backward into idle loader time ending
// at the deadline. The host-window scan after that only accepts a start at
// or after lowerBound that ends by the deadline, so it finds a placement
// only where the backward placement would already have succeeded.
func placeLoad(it *loadItem, loaderFreeAt hwtime.Cycle, hosts []interval) (hwtime.Cycle, bool) {
	lowerBound := loaderFreeAt
	if it.epochFloor > lowerBound {
		lowerBound = it.epochFloor
	}
	if lowerBound < 0 {
		lowerBound = 0
	}

	preferred := it.originalTS
	if lowerBound > preferred {
		preferred = lowerBound
	}
	if preferred+it.cost <= it.deadline {
		return preferred, true
	}

	if backward := it.deadline - it.cost; backward >= lowerBound {
		return backward, true
	}

	for _, w := range hosts {
		start := w.Start
		if lowerBound > start {
			start = lowerBound
		}
		if start+it.cost <= w.End && start+it.cost <= it.deadline {
			return start, true
		}
	}
	return 0, false
}
