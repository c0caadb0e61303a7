package core

import (
	"sort"

	"timingc/errs"
	"timingc/hwtime"
	"timingc/program"
)

// Validate runs the Pass 4 constraint checks over the rescheduled events and
// the load records Pass 3 produced, per board (SPEC_FULL.md Pass 4). It
// returns the first errs.ScheduleError encountered, or nil.
func Validate(events map[string][]*LogicalEvent, records []ScheduledLoadRecord) error {
	if err := checkNoOverlappingLoads(records); err != nil {
		return err
	}
	for board, evs := range events {
		sorted := make([]*LogicalEvent, len(evs))
		copy(sorted, evs)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

		if err := checkNonNegativeGaps(board, sorted); err != nil {
			return err
		}
		if err := checkInitOnlyInEpochZero(board, sorted); err != nil {
			return err
		}
	}
	return checkLoadPrecedesPlay(events)
}

// checkNoOverlappingLoads is the serial-loader invariant: no two
// ScheduledLoadRecords on the same board overlap.
func checkNoOverlappingLoads(records []ScheduledLoadRecord) error {
	byBoard := make(map[string][]ScheduledLoadRecord)
	for _, r := range records {
		byBoard[r.Event.Board] = append(byBoard[r.Event.Board], r)
	}
	for board, rs := range byBoard {
		sort.Slice(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })
		for i := 1; i < len(rs); i++ {
			if rs[i].Start < rs[i-1].End {
				return errs.New(errs.ScheduleError, "pass4.validate", "overlapping LOAD windows on same board "+board).
					WithChannel(rs[i].Event.Channel.String()).
					WithTimestamp(int64(rs[i].Start))
			}
		}
	}
	return nil
}

// checkLoadPrecedesPlay re-derives every LOAD->PLAY pair post-scheduling and
// checks LOAD.end <= PLAY.timestamp.
func checkLoadPrecedesPlay(events map[string][]*LogicalEvent) error {
	for _, evs := range events {
		sorted := make([]*LogicalEvent, len(evs))
		copy(sorted, evs)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

		pending := make(map[program.Channel]*LogicalEvent)
		for _, e := range sorted {
			switch e.Op.Kind {
			case program.OpRWGLoadCoeffs:
				pending[e.Channel] = e
			case program.OpRWGUpdateParams:
				if load, ok := pending[e.Channel]; ok {
					if load.Timestamp+load.Cost > e.Timestamp {
						return errs.New(errs.ScheduleError, "pass4.validate", "LOAD does not finish before its paired PLAY").
							WithChannel(e.Channel.String()).
							WithTimestamp(int64(e.Timestamp))
					}
					delete(pending, e.Channel)
				}
			}
		}
	}
	return nil
}

// checkNonNegativeGaps walks the board's events in timestamp order,
// accumulating a running physical cursor exactly as Pass 5 will, and flags
// a ScheduleError the moment a genuinely later logical timestamp arrives
// before the physical cursor reaches it. Several events that share one
// exact logical timestamp are a single instant's burst of writes and never
// trigger this check against each other: only the first event of each new
// (strictly different) timestamp is checked against the cursor built up by
// every prior instant.
func checkNonNegativeGaps(board string, sorted []*LogicalEvent) error {
	var physCursor hwtime.Cycle
	prevTimestamp := hwtime.Cycle(-1)
	for _, e := range sorted {
		if e.Timestamp != prevTimestamp {
			if e.Timestamp < physCursor {
				return errs.New(errs.ScheduleError, "pass4.validate", "negative gap between adjacent events").
					WithChannel(e.Channel.String()).
					WithTimestamp(int64(e.Timestamp))
			}
			if e.Timestamp > physCursor {
				physCursor = e.Timestamp
			}
			prevTimestamp = e.Timestamp
		}
		physCursor += e.Cost
	}
	return nil
}

// checkInitOnlyInEpochZero: RWG_INIT must never occur outside epoch 0
// (SPEC_FULL.md Pass 4).
func checkInitOnlyInEpochZero(board string, sorted []*LogicalEvent) error {
	for _, e := range sorted {
		if e.Op.Kind == program.OpRWGInit && e.Epoch != 0 {
			return errs.New(errs.ScheduleError, "pass4.validate", "RWG_INIT outside epoch 0").
				WithChannel(e.Channel.String()).
				WithTimestamp(int64(e.Timestamp))
		}
	}
	return nil
}
