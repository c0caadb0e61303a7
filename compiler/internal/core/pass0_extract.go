package core

import (
	"sort"

	"timingc/program"
)

// ExtractEvents flattens a Morphism into a per-board list of LogicalEvent,
// one per non-HOLD atomic operation, in (timestamp, kind priority) order
// (SPEC_FULL.md Pass 0).
func ExtractEvents(m *program.Morphism) map[string][]*LogicalEvent {
	events := make(map[string][]*LogicalEvent)
	for _, ch := range m.Channels() {
		lane, ok := m.Lane(ch)
		if !ok {
			continue
		}
		board := ch.Board.ID
		var cursor int64
		for _, op := range lane.Ops {
			if op.Kind != program.OpHold {
				events[board] = append(events[board], &LogicalEvent{
					Board:     board,
					Channel:   ch,
					Op:        op,
					Timestamp: cursor,
				})
			}
			cursor += op.Duration
		}
	}
	for _, evs := range events {
		sort.SliceStable(evs, func(i, j int) bool {
			if evs[i].Timestamp != evs[j].Timestamp {
				return evs[i].Timestamp < evs[j].Timestamp
			}
			return kindPriority(evs[i].Op.Kind) < kindPriority(evs[j].Op.Kind)
		})
	}
	return events
}
