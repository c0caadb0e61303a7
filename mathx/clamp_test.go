package mathx

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{5, 10, 0, 5}, // swapped bounds
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%d,%d,%d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestBetween(t *testing.T) {
	if !Between(5, 0, 10) {
		t.Error("expected 5 between 0 and 10")
	}
	if Between(11, 0, 10) {
		t.Error("expected 11 not between 0 and 10")
	}
}

func TestMinMaxAbs(t *testing.T) {
	if Min(3, 4) != 3 || Max(3, 4) != 4 {
		t.Fatal("min/max mismatch")
	}
	if Abs(-7) != 7 || Abs(7) != 7 {
		t.Fatal("abs mismatch")
	}
}

func TestCeilRoundDiv(t *testing.T) {
	if CeilDiv(10, 3) != 4 {
		t.Fatalf("CeilDiv(10,3) = %d, want 4", CeilDiv(10, 3))
	}
	if CeilDiv(9, 3) != 3 {
		t.Fatalf("CeilDiv(9,3) = %d, want 3", CeilDiv(9, 3))
	}
	if RoundDiv(10, 3) != 3 {
		t.Fatalf("RoundDiv(10,3) = %d, want 3", RoundDiv(10, 3))
	}
}
