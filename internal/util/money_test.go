package util

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1.004, 1},
		{1.006, 1.01},
		{2.344, 2.34},
		{-1.006, -1.01},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMoneyEquals(t *testing.T) {
	if !MoneyEquals(10.00, 10.01) {
		t.Fatalf("0.01 difference should be within tolerance")
	}
	if MoneyEquals(10.00, 10.02) {
		t.Fatalf("0.02 difference should exceed tolerance")
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"USD 99", 99, true},
		{"total: 1,000", 1000, true},
		{"12.5", 12.5, true},
		{"no numbers here", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseAmount(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
