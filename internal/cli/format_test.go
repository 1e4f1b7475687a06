package cli

import "testing"

func TestFormatTokens(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1.2K"},
		{1_500_000, "1.5M"},
		{2_300_000_000, "2.3B"},
	}
	for _, tc := range cases {
		if got := FormatTokens(tc.in); got != tc.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCost(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{0.00137, "$0.0014"},
		{1.096, "$1.10"},
		{13.7, "$13.7"},
		{250, "$250"},
		{1234.5, "$1,235"},
	}
	for _, tc := range cases {
		if got := FormatCost(tc.in); got != tc.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{7, "7"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
		{-9876, "-9,876"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCredits(t *testing.T) {
	if got := FormatCredits(109.6); got != "109.6 cr" {
		t.Errorf("FormatCredits(109.6) = %q", got)
	}
	if got := FormatCredits(2500); got != "2,500 cr" {
		t.Errorf("FormatCredits(2500) = %q", got)
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(5, 3); got != "+$2.00" {
		t.Errorf("FormatDelta(5,3) = %q", got)
	}
	if got := FormatDelta(3, 5); got != "-$2.00" {
		t.Errorf("FormatDelta(3,5) = %q", got)
	}
}

func TestFormatBudget(t *testing.T) {
	if got := FormatBudget(1.096, 1.25); got != "$1.10 / $1.25" {
		t.Errorf("FormatBudget = %q", got)
	}
}
