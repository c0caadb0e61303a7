package program

import "testing"

func TestTTLInitProducesUninitToOff(t *testing.T) {
	ch := ch0()
	m, err := TTLInit(ch)
	if err != nil {
		t.Fatalf("TTLInit: %v", err)
	}
	l, _ := m.Lane(ch)
	if !l.FirstStart().Equal(TTLState(TTLUninit)) || !l.LastEnd().Equal(TTLState(TTLOff)) {
		t.Fatalf("unexpected boundary states: %+v -> %+v", l.FirstStart(), l.LastEnd())
	}
}

func TestDriveHighRejectsFromUninit(t *testing.T) {
	ch := ch0()
	if _, err := DriveHigh(ch, TTLUninit); err == nil {
		t.Fatal("expected BuildError: cannot drive high from Uninit")
	}
}

func TestDriveHighAndLowRoundTrip(t *testing.T) {
	ch := ch0()
	on, err := DriveHigh(ch, TTLOff)
	if err != nil {
		t.Fatalf("DriveHigh: %v", err)
	}
	off, err := DriveLow(ch, TTLOn)
	if err != nil {
		t.Fatalf("DriveLow: %v", err)
	}
	m, err := Serial(on, off)
	if err != nil {
		t.Fatalf("Serial: %v", err)
	}
	l, _ := m.Lane(ch)
	if !l.LastEnd().Equal(TTLState(TTLOff)) {
		t.Fatalf("expected final state Off, got %+v", l.LastEnd())
	}
}

func TestHoldWithNilStateIsUnspecified(t *testing.T) {
	ch := ch0()
	m, err := Hold(ch, nil, 1000)
	if err != nil {
		t.Fatalf("Hold: %v", err)
	}
	l, _ := m.Lane(ch)
	if !l.FirstStart().Unspecified {
		t.Fatal("expected Unspecified boundary state from bare Hold")
	}
	if m.TotalDuration() != 1000 {
		t.Fatalf("TotalDuration = %d, want 1000", m.TotalDuration())
	}
}

func TestHoldWithConcreteStatePinsBothEnds(t *testing.T) {
	ch := ch0()
	s := TTLState(TTLOn)
	m, err := Hold(ch, &s, 500)
	if err != nil {
		t.Fatalf("Hold: %v", err)
	}
	l, _ := m.Lane(ch)
	if !l.FirstStart().Equal(s) || !l.LastEnd().Equal(s) {
		t.Fatal("expected both boundary states pinned to the given concrete state")
	}
}
