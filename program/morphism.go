package program

import (
	"sort"

	"timingc/hwtime"
)

// Morphism is an immutable multi-channel program: a map from channel to
// lane, with every lane's duration equal to the morphism's total duration
// (SPEC_FULL.md §3, §4.4). It is frozen at construction; the three
// composition operators each return a new Morphism.
type Morphism struct {
	lanes    map[Channel]Lane
	duration hwtime.Cycle
}

// NewMorphism builds a Morphism from a set of lanes. Every lane's duration
// must already match (this holds trivially for a single-lane morphism, and
// is the invariant the composition operators maintain for multi-lane
// ones).
func NewMorphism(lanes ...Lane) (*Morphism, error) {
	m := &Morphism{lanes: make(map[Channel]Lane, len(lanes))}
	for _, l := range lanes {
		if _, exists := m.lanes[l.Channel]; exists {
			return nil, newBuildError("program.NewMorphism", "duplicate channel").WithChannel(l.Channel.String())
		}
		m.lanes[l.Channel] = l
	}
	for _, l := range lanes {
		d := l.TotalDuration()
		if d > m.duration {
			m.duration = d
		}
	}
	for _, l := range lanes {
		if l.TotalDuration() != m.duration {
			return nil, newBuildError("program.NewMorphism", "lane duration does not match morphism duration").WithChannel(l.Channel.String())
		}
	}
	return m, nil
}

// Channels returns the morphism's channels in a stable (sorted) order.
func (m *Morphism) Channels() []Channel {
	out := make([]Channel, 0, len(m.lanes))
	for ch := range m.lanes {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Board.ID != out[j].Board.ID {
			return out[i].Board.ID < out[j].Board.ID
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Lane returns the lane for the given channel, if present.
func (m *Morphism) Lane(ch Channel) (Lane, bool) {
	l, ok := m.lanes[ch]
	return l, ok
}

// TotalDuration is the cached max-over-lanes total duration.
func (m *Morphism) TotalDuration() hwtime.Cycle { return m.duration }

func identityHoldOp(ch Channel, state State, dur hwtime.Cycle) AtomicOp {
	op, _ := newAtomicOp(ch, OpHold, state, state, dur, nil)
	return op
}

func unionChannels(a, b *Morphism) []Channel {
	seen := make(map[Channel]bool)
	var out []Channel
	for _, ch := range a.Channels() {
		if !seen[ch] {
			seen[ch] = true
			out = append(out, ch)
		}
	}
	for _, ch := range b.Channels() {
		if !seen[ch] {
			seen[ch] = true
			out = append(out, ch)
		}
	}
	return out
}

// serialOp is shared by Serial and AutoSerial; autoFill enables the
// identity-boundary resolution rule from SPEC_FULL.md §4.4(b).
func serialOp(a, b *Morphism, autoFill bool) (*Morphism, error) {
	var lanes []Lane
	for _, ch := range unionChannels(a, b) {
		aLane, aok := a.Lane(ch)
		bLane, bok := b.Lane(ch)
		switch {
		case aok && bok:
			merged, err := joinLanes(aLane, bLane, autoFill)
			if err != nil {
				return nil, err
			}
			lanes = append(lanes, merged)
		case aok && !bok:
			padDur := b.TotalDuration()
			pad := identityHoldOp(ch, aLane.LastEnd(), padDur)
			merged, err := aLane.withAppendedOp(pad)
			if err != nil {
				return nil, err
			}
			lanes = append(lanes, merged)
		case !aok && bok:
			padDur := a.TotalDuration()
			pad := identityHoldOp(ch, bLane.FirstStart(), padDur)
			merged, err := concatLanes(mustSingleOpLane(ch, pad), bLane)
			if err != nil {
				return nil, err
			}
			lanes = append(lanes, merged)
		}
	}
	return NewMorphism(lanes...)
}

func mustSingleOpLane(ch Channel, op AtomicOp) Lane {
	l, _ := NewLane(ch, op)
	return l
}

// joinLanes concatenates aLane then bLane, resolving an Unspecified
// boundary when autoFill is set and the adjacent op is a HOLD/IDENTITY.
func joinLanes(a, b Lane, autoFill bool) (Lane, error) {
	if len(a.Ops) == 0 || len(b.Ops) == 0 {
		return concatLanes(a, b)
	}
	end, start := a.LastEnd(), b.FirstStart()
	if end.Equal(start) {
		return concatLanes(a, b)
	}
	if !autoFill {
		return Lane{}, newStateMismatch("program.Serial", "boundary state mismatch").WithChannel(a.Channel.String())
	}

	lastOp := a.Ops[len(a.Ops)-1]
	firstOp := b.Ops[0]
	aFillable := lastOp.Kind.IsIdentity() && lastOp.End.Unspecified
	bFillable := firstOp.Kind.IsIdentity() && firstOp.Start.Unspecified

	switch {
	case aFillable && !start.Unspecified:
		a = a.withRewrittenLast(start)
	case bFillable && !end.Unspecified:
		b = b.withRewrittenFirst(end)
	default:
		return Lane{}, newStateMismatch("program.AutoSerial", "boundary state mismatch not resolvable via identity fill").WithChannel(a.Channel.String())
	}
	return concatLanes(a, b)
}

// Serial is strict composition: boundary states on shared channels must
// already match exactly, or StateMismatch is raised. Channels present on
// only one side are padded with an identity hold on the other
// (SPEC_FULL.md §4.4(a)).
func Serial(a, b *Morphism) (*Morphism, error) {
	return serialOp(a, b, false)
}

// AutoSerial is like Serial, but a boundary mismatch against an
// Unspecified HOLD/IDENTITY op is resolved by filling that op's state from
// the concrete neighbour, rather than failing (SPEC_FULL.md §4.4(b)).
func AutoSerial(a, b *Morphism) (*Morphism, error) {
	return serialOp(a, b, true)
}

// Parallel requires disjoint channel sets and merges the two morphisms
// side by side, padding the shorter side's lanes with identity holds so
// every lane ends up with duration max(total_duration(A), total_duration(B))
// (SPEC_FULL.md §4.4(c)).
func Parallel(a, b *Morphism) (*Morphism, error) {
	for _, ch := range a.Channels() {
		if _, ok := b.Lane(ch); ok {
			return nil, newChannelConflict("program.Parallel", "overlapping channel").WithChannel(ch.String())
		}
	}
	t := a.TotalDuration()
	if b.TotalDuration() > t {
		t = b.TotalDuration()
	}
	var lanes []Lane
	for _, ch := range a.Channels() {
		l, _ := a.Lane(ch)
		lanes = append(lanes, padLaneTo(l, t))
	}
	for _, ch := range b.Channels() {
		l, _ := b.Lane(ch)
		lanes = append(lanes, padLaneTo(l, t))
	}
	return NewMorphism(lanes...)
}

func padLaneTo(l Lane, total hwtime.Cycle) Lane {
	remaining := total - l.TotalDuration()
	if remaining <= 0 {
		return l
	}
	pad := identityHoldOp(l.Channel, l.LastEnd(), remaining)
	out, _ := l.withAppendedOp(pad)
	return out
}
