package program

import "timingc/hwtime"

// Lane is the per-channel ordered sequence of atomic operations, with
// strict continuity: for every adjacent pair, the successor's start state
// equals the predecessor's end state (SPEC_FULL.md §4.3). Lanes are
// immutable; composition always produces a new Lane.
type Lane struct {
	Channel Channel
	Ops     []AtomicOp
}

// NewLane builds a Lane from a channel-homogeneous, internally continuous
// sequence of ops.
func NewLane(ch Channel, ops ...AtomicOp) (Lane, error) {
	for i, op := range ops {
		if op.Channel != ch {
			return Lane{}, newBuildError("program.NewLane", "op channel does not match lane channel").WithChannel(ch.String())
		}
		if i > 0 && !ops[i-1].End.Equal(op.Start) {
			return Lane{}, newBuildError("program.NewLane", "state discontinuity within lane").WithChannel(ch.String())
		}
	}
	cp := make([]AtomicOp, len(ops))
	copy(cp, ops)
	return Lane{Channel: ch, Ops: cp}, nil
}

// TotalDuration is the integer sum of the lane's operations' logical
// durations.
func (l Lane) TotalDuration() hwtime.Cycle {
	var total hwtime.Cycle
	for _, op := range l.Ops {
		total += op.Duration
	}
	return total
}

// FirstStart returns the start state of the lane's first op, or the
// channel's Unspecified state if the lane is empty.
func (l Lane) FirstStart() State {
	if len(l.Ops) == 0 {
		return UnspecifiedState(l.Channel.Kind)
	}
	return l.Ops[0].Start
}

// LastEnd returns the end state of the lane's last op, or the channel's
// Unspecified state if the lane is empty.
func (l Lane) LastEnd() State {
	if len(l.Ops) == 0 {
		return UnspecifiedState(l.Channel.Kind)
	}
	return l.Ops[len(l.Ops)-1].End
}

// withAppendedOp returns a new lane with op appended and continuity
// re-validated; it never mutates the receiver's backing array.
func (l Lane) withAppendedOp(op AtomicOp) (Lane, error) {
	if len(l.Ops) > 0 && !l.LastEnd().Equal(op.Start) {
		return Lane{}, newStateMismatch("program.Lane.withAppendedOp", "appended op does not continue lane state").WithChannel(l.Channel.String())
	}
	cp := make([]AtomicOp, len(l.Ops)+1)
	copy(cp, l.Ops)
	cp[len(l.Ops)] = op
	return Lane{Channel: l.Channel, Ops: cp}, nil
}

// withRewrittenLast returns a new lane whose final op has had its End state
// replaced, used by AutoSerial to resolve an Unspecified boundary state. If
// Start was also Unspecified (a bare Hold with no anchor on either side),
// it is rewritten to the same value since Hold requires start == end.
func (l Lane) withRewrittenLast(newEnd State) Lane {
	if len(l.Ops) == 0 {
		return l
	}
	cp := make([]AtomicOp, len(l.Ops))
	copy(cp, l.Ops)
	last := cp[len(cp)-1]
	if last.Start.Unspecified {
		last.Start = newEnd
	}
	last.End = newEnd
	cp[len(cp)-1] = last
	return Lane{Channel: l.Channel, Ops: cp}
}

// withRewrittenFirst is the symmetric operation for the first op's Start
// state.
func (l Lane) withRewrittenFirst(newStart State) Lane {
	if len(l.Ops) == 0 {
		return l
	}
	cp := make([]AtomicOp, len(l.Ops))
	copy(cp, l.Ops)
	first := cp[0]
	if first.End.Unspecified {
		first.End = newStart
	}
	first.Start = newStart
	cp[0] = first
	return Lane{Channel: l.Channel, Ops: cp}
}

// concatLanes joins two already-continuous, same-channel lanes end to end,
// re-validating the new boundary.
func concatLanes(a, b Lane) (Lane, error) {
	if a.Channel != b.Channel {
		return Lane{}, newBuildError("program.concatLanes", "channel mismatch").WithChannel(a.Channel.String())
	}
	if len(a.Ops) > 0 && len(b.Ops) > 0 && !a.LastEnd().Equal(b.FirstStart()) {
		return Lane{}, newStateMismatch("program.concatLanes", "lane boundary state mismatch").WithChannel(a.Channel.String())
	}
	cp := make([]AtomicOp, 0, len(a.Ops)+len(b.Ops))
	cp = append(cp, a.Ops...)
	cp = append(cp, b.Ops...)
	return Lane{Channel: a.Channel, Ops: cp}, nil
}
