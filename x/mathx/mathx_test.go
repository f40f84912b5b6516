package mathx

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{11, 10, 0, 10}, // swapped bounds
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Fatalf("Clamp(%d,%d,%d)=%d want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
	if Min(uint64(3), 7) != 3 || Min(9, -2) != -2 {
		t.Fatal("Min mismatch")
	}
}

func TestRoundDiv(t *testing.T) {
	if RoundDiv(uint32(7), 2) != 4 || RoundDiv(uint32(5), 3) != 2 {
		t.Fatal("RoundDiv rounding incorrect")
	}
	if RoundDiv(uint32(1), 0) != 0 {
		t.Fatal("RoundDiv by zero must return 0")
	}
}

func TestLowMask(t *testing.T) {
	cases := []struct {
		n    uint8
		want uint32
	}{
		{0, 0},
		{12, 0x0FFF},
		{14, 0x3FFF},
		{16, 0xFFFF},
		{32, 0xFFFFFFFF},
	}
	for _, c := range cases {
		if got := LowMask[uint32](c.n); got != c.want {
			t.Fatalf("LowMask(%d)=%#x want %#x", c.n, got, c.want)
		}
	}
	if LowMask[uint16](16) != 0xFFFF {
		t.Fatal("LowMask[uint16](16) must be all ones")
	}
}
