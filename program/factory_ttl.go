package program

import "timingc/hwtime"

// legalTTLTransition is the TTL channel's transition table (SPEC_FULL.md
// §4.6): INIT may only be issued from Uninit; ON/OFF require the channel to
// already be initialized.
func legalTTLTransition(kind OpKind, from TTLLevel) bool {
	switch kind {
	case OpTTLInit:
		return from == TTLUninit
	case OpTTLOn:
		return from == TTLOff || from == TTLOn
	case OpTTLOff:
		return from == TTLOn || from == TTLOff
	default:
		return false
	}
}

// TTLInit builds the single op that moves a TTL channel from Uninit to Off.
func TTLInit(ch Channel) (*Morphism, error) {
	if ch.Kind != TTL {
		return nil, newBuildError("program.TTLInit", "channel is not a TTL channel").WithChannel(ch.String())
	}
	op, err := newAtomicOp(ch, OpTTLInit, TTLState(TTLUninit), TTLState(TTLOff), 0, nil)
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}

// DriveHigh drives a TTL channel high. from is the caller's asserted current
// level; it must already be Off or On (the transition is a no-op from On).
func DriveHigh(ch Channel, from TTLLevel) (*Morphism, error) {
	return ttlTransition(ch, OpTTLOn, from, TTLOn)
}

// DriveLow drives a TTL channel low.
func DriveLow(ch Channel, from TTLLevel) (*Morphism, error) {
	return ttlTransition(ch, OpTTLOff, from, TTLOff)
}

func ttlTransition(ch Channel, kind OpKind, from, to TTLLevel) (*Morphism, error) {
	if ch.Kind != TTL {
		return nil, newBuildError("program.ttlTransition", "channel is not a TTL channel").WithChannel(ch.String())
	}
	if !legalTTLTransition(kind, from) {
		return nil, newBuildError("program.ttlTransition", "illegal TTL transition").WithChannel(ch.String())
	}
	op, err := newAtomicOp(ch, kind, TTLState(from), TTLState(to), 0, nil)
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}

// Hold emits a zero-information identity op that advances the channel clock
// by dur cycles without changing state. Passing a nil state leaves the
// boundary state open for a later AutoSerial to resolve (SPEC_FULL.md
// §4.4(b)); otherwise state pins both ends to the given concrete value.
func Hold(ch Channel, state *State, dur hwtime.Cycle) (*Morphism, error) {
	var s State
	if state == nil {
		s = UnspecifiedState(ch.Kind)
	} else {
		if state.Kind != ch.Kind {
			return nil, newBuildError("program.Hold", "state kind does not match channel kind").WithChannel(ch.String())
		}
		s = *state
	}
	op, err := newAtomicOp(ch, OpHold, s, s, dur, nil)
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}

func singleOpMorphism(ch Channel, op AtomicOp) (*Morphism, error) {
	l, err := NewLane(ch, op)
	if err != nil {
		return nil, err
	}
	return NewMorphism(l)
}
