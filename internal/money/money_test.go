package money

import "testing"

func TestFromMajor_Rounding(t *testing.T) {
	cases := []struct {
		in   float64
		want Amount
	}{
		{0, 0},
		{1, 100},
		{12.34, 1234},
		{0.005, 1},
		{0.004, 0},
		{-1.5, -150},
		{-0.005, -1},
		{99.999, 10000},
	}
	for _, c := range cases {
		if got := FromMajor(c.in); got != c.want {
			t.Errorf("FromMajor(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		in   Amount
		want string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1234, "12.34"},
		{-150, "-1.50"},
		{10000, "100.00"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFee_MinimumAlwaysApplies(t *testing.T) {
	// 100.00 at 1% with a 1.00 minimum: exactly the minimum.
	if got := Fee(FromMajor(100), 0.01, FromMajor(1)); got != FromMajor(1) {
		t.Fatalf("fee = %s, want 1.00", got)
	}
	// Tiny amount still pays the minimum.
	if got := Fee(FromMajor(0.50), 0.01, FromMajor(1)); got != FromMajor(1) {
		t.Fatalf("fee = %s, want 1.00", got)
	}
	// Zero rate and zero minimum: free.
	if got := Fee(FromMajor(20), 0, 0); got != 0 {
		t.Fatalf("fee = %s, want 0.00", got)
	}
	// Rate dominates once it clears the minimum; floor, not round.
	if got := Fee(Amount(199), 0.01, 0); got != 1 {
		t.Fatalf("fee = %d, want 1", got)
	}
}
