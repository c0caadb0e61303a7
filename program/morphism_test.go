package program

import (
	"testing"

	"timingc/hwtime"
)

func ch1() Channel { return NewChannel("RWG_0", 1, TTL) }

func ttlMorphism(t *testing.T, ch Channel, start, end TTLLevel, kind OpKind, dur hwtime.Cycle) *Morphism {
	t.Helper()
	op, err := newAtomicOp(ch, kind, TTLState(start), TTLState(end), dur, nil)
	if err != nil {
		t.Fatalf("newAtomicOp: %v", err)
	}
	l := mustLane(t, ch, op)
	m, err := NewMorphism(l)
	if err != nil {
		t.Fatalf("NewMorphism: %v", err)
	}
	return m
}

func TestSerialRejectsBoundaryMismatch(t *testing.T) {
	ch := ch0()
	a := ttlMorphism(t, ch, TTLOff, TTLOn, OpTTLOn, 0)
	b := ttlMorphism(t, ch, TTLOff, TTLOff, OpTTLOff, 0) // expects TTLOff start, but a ends TTLOn
	if _, err := Serial(a, b); err == nil {
		t.Fatal("expected StateMismatch from Serial on boundary mismatch")
	}
}

func TestSerialConcatenatesOnMatchingBoundary(t *testing.T) {
	ch := ch0()
	a := ttlMorphism(t, ch, TTLOff, TTLOn, OpTTLOn, 0)
	b := ttlMorphism(t, ch, TTLOn, TTLOff, OpTTLOff, 0)
	m, err := Serial(a, b)
	if err != nil {
		t.Fatalf("Serial: %v", err)
	}
	l, ok := m.Lane(ch)
	if !ok {
		t.Fatal("expected lane for channel")
	}
	if len(l.Ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(l.Ops))
	}
}

func TestSerialPadsChannelOnlyOnOneSide(t *testing.T) {
	chA := ch0()
	chB := ch1()
	a, err := NewMorphism(mustLane(t, chA, mustOp(t, chA, OpTTLOn, TTLOff, TTLOn, 0)))
	if err != nil {
		t.Fatalf("NewMorphism a: %v", err)
	}
	bOp := mustOp(t, chB, OpHold, TTLOn, TTLOn, 2500)
	b, err := NewMorphism(mustLane(t, chB, bOp))
	if err != nil {
		t.Fatalf("NewMorphism b: %v", err)
	}
	m, err := Serial(a, b)
	if err != nil {
		t.Fatalf("Serial: %v", err)
	}
	la, ok := m.Lane(chA)
	if !ok {
		t.Fatal("expected padded lane for chA")
	}
	if la.TotalDuration() != 2500 {
		t.Fatalf("padded lane duration = %d, want 2500", la.TotalDuration())
	}
	if m.TotalDuration() != 2500 {
		t.Fatalf("morphism duration = %d, want 2500", m.TotalDuration())
	}
}

func TestParallelRejectsOverlappingChannels(t *testing.T) {
	ch := ch0()
	a := ttlMorphism(t, ch, TTLOff, TTLOn, OpTTLOn, 0)
	b := ttlMorphism(t, ch, TTLOff, TTLOn, OpTTLOn, 0)
	if _, err := Parallel(a, b); err == nil {
		t.Fatal("expected ChannelConflict from Parallel on overlapping channel")
	}
}

func TestParallelMergesDisjointChannelsAndPadsToMax(t *testing.T) {
	chA := ch0()
	chB := ch1()
	a, err := NewMorphism(mustLane(t, chA, mustOp(t, chA, OpHold, TTLOff, TTLOff, 1000)))
	if err != nil {
		t.Fatalf("NewMorphism a: %v", err)
	}
	b, err := NewMorphism(mustLane(t, chB, mustOp(t, chB, OpHold, TTLOn, TTLOn, 2500)))
	if err != nil {
		t.Fatalf("NewMorphism b: %v", err)
	}
	m, err := Parallel(a, b)
	if err != nil {
		t.Fatalf("Parallel: %v", err)
	}
	if m.TotalDuration() != 2500 {
		t.Fatalf("morphism duration = %d, want 2500", m.TotalDuration())
	}
	la, _ := m.Lane(chA)
	if la.TotalDuration() != 2500 {
		t.Fatalf("padded chA duration = %d, want 2500", la.TotalDuration())
	}
}

func TestParallelIsCommutativeInResultingChannelSet(t *testing.T) {
	chA := ch0()
	chB := ch1()
	a, _ := NewMorphism(mustLane(t, chA, mustOp(t, chA, OpHold, TTLOff, TTLOff, 100)))
	b, _ := NewMorphism(mustLane(t, chB, mustOp(t, chB, OpHold, TTLOn, TTLOn, 100)))
	ab, err := Parallel(a, b)
	if err != nil {
		t.Fatalf("Parallel(a,b): %v", err)
	}
	ba, err := Parallel(b, a)
	if err != nil {
		t.Fatalf("Parallel(b,a): %v", err)
	}
	if len(ab.Channels()) != len(ba.Channels()) {
		t.Fatalf("channel count mismatch: %d vs %d", len(ab.Channels()), len(ba.Channels()))
	}
	if ab.TotalDuration() != ba.TotalDuration() {
		t.Fatalf("duration mismatch: %d vs %d", ab.TotalDuration(), ba.TotalDuration())
	}
}

func TestAutoSerialResolvesUnspecifiedIdentityBoundary(t *testing.T) {
	ch := ch0()
	a := ttlMorphism(t, ch, TTLOff, TTLOn, OpTTLOn, 0)

	holdOp, err := newAtomicOp(ch, OpHold, UnspecifiedState(TTL), UnspecifiedState(TTL), 500, nil)
	if err != nil {
		t.Fatalf("newAtomicOp hold: %v", err)
	}
	b, err := NewMorphism(mustLane(t, ch, holdOp))
	if err != nil {
		t.Fatalf("NewMorphism b: %v", err)
	}

	m, err := AutoSerial(a, b)
	if err != nil {
		t.Fatalf("AutoSerial: %v", err)
	}
	l, _ := m.Lane(ch)
	if !l.Ops[1].Start.Equal(TTLState(TTLOn)) {
		t.Fatalf("expected hold start resolved to TTLOn, got %+v", l.Ops[1].Start)
	}
	if !l.Ops[1].End.Equal(TTLState(TTLOn)) {
		t.Fatalf("expected hold end resolved to TTLOn, got %+v", l.Ops[1].End)
	}
}

func TestSerialStillFailsOnUnresolvableMismatchEvenWithAutoSerial(t *testing.T) {
	ch := ch0()
	a := ttlMorphism(t, ch, TTLOff, TTLOn, OpTTLOn, 0)
	b := ttlMorphism(t, ch, TTLOff, TTLOff, OpTTLOff, 0) // concrete, non-identity, mismatched
	if _, err := AutoSerial(a, b); err == nil {
		t.Fatal("expected StateMismatch: boundary mismatch between two concrete non-identity ops is never resolvable")
	}
}

func mustOp(t *testing.T, ch Channel, kind OpKind, start, end TTLLevel, dur hwtime.Cycle) AtomicOp {
	t.Helper()
	op, err := newAtomicOp(ch, kind, TTLState(start), TTLState(end), dur, nil)
	if err != nil {
		t.Fatalf("newAtomicOp: %v", err)
	}
	return op
}
