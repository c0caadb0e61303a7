package diag

import (
	"sort"

	"timingc/hwtime"
	"timingc/program"
)

// Segment is one atomic operation's placement on a channel's lane, as seen
// by a diagnostic viewer: its op kind, boundary cycle, and a short state
// label rather than the full program.State value.
type Segment struct {
	Kind       string
	StartCycle hwtime.Cycle
	EndCycle   hwtime.Cycle
	StartState string
	EndState   string
}

// LaneView is the per-channel diagnostic projection of a program.Lane.
type LaneView struct {
	Channel  string
	Segments []Segment
}

// Timeline is the full diagnostic projection of a program.Morphism: one
// LaneView per channel, in the same stable channel order the morphism
// itself uses, plus the morphism's total duration.
type Timeline struct {
	TotalDuration hwtime.Cycle
	Lanes         []LaneView
}

// BuildTimeline derives a Timeline from m. It never mutates m and never
// fails: a Morphism is always well-formed by construction, so there is
// nothing for a diagnostic view to reject (SPEC_FULL.md §2 item 8 —
// peripheral, stub-friendly).
func BuildTimeline(m *program.Morphism) Timeline {
	tl := Timeline{TotalDuration: m.TotalDuration()}
	for _, ch := range m.Channels() {
		lane, ok := m.Lane(ch)
		if !ok {
			continue
		}
		tl.Lanes = append(tl.Lanes, BuildLaneView(lane))
	}
	return tl
}

// BuildLaneView derives a LaneView from a single Lane.
func BuildLaneView(l program.Lane) LaneView {
	view := LaneView{Channel: l.Channel.String()}
	var cursor hwtime.Cycle
	for _, op := range l.Ops {
		view.Segments = append(view.Segments, Segment{
			Kind:       op.Kind.String(),
			StartCycle: cursor,
			EndCycle:   cursor + op.Duration,
			StartState: stateLabel(op.Start),
			EndState:   stateLabel(op.End),
		})
		cursor += op.Duration
	}
	return view
}

// BoardChannels groups m's channels by board id, for a per-board diagnostic
// view (e.g. a CLI "describe" subcommand listing one board at a time). The
// result is a map, so it has no board order; within each board the channels
// keep m.Channels() order. BoardIDs gives the sorted board ids.
func BoardChannels(m *program.Morphism) map[string][]program.Channel {
	out := make(map[string][]program.Channel)
	for _, ch := range m.Channels() {
		out[ch.Board.ID] = append(out[ch.Board.ID], ch)
	}
	return out
}

// BoardIDs returns the sorted set of board ids present in m.
func BoardIDs(m *program.Morphism) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ch := range m.Channels() {
		if !seen[ch.Board.ID] {
			seen[ch.Board.ID] = true
			out = append(out, ch.Board.ID)
		}
	}
	sort.Strings(out)
	return out
}

func stateLabel(s program.State) string {
	if s.Unspecified {
		return "unspecified"
	}
	switch s.Kind {
	case program.TTL:
		switch s.TTL {
		case program.TTLUninit:
			return "uninit"
		case program.TTLOff:
			return "off"
		case program.TTLOn:
			return "on"
		}
	case program.RWG:
		switch s.RWG {
		case program.RWGUninit:
			return "uninit"
		case program.RWGReady:
			return "ready"
		case program.RWGActive:
			return "active"
		}
	}
	return "unknown"
}
