package cli

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{4849638, "4,849,638"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12, "12"},
		{1234, "1.2K"},
		{2_500_000, "2.5M"},
		{3_100_000_000, "3.1B"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.in); got != tt.want {
			t.Errorf("FormatCompact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEstimate(t *testing.T) {
	v := 47138.0
	r := 64.12
	if got := FormatEstimate(&v); got != "47,138" {
		t.Errorf("FormatEstimate(47138) = %q", got)
	}
	if got := FormatEstimate(&r); got != "64.1" {
		t.Errorf("FormatEstimate(64.12) = %q", got)
	}
	if got := FormatEstimate(nil); got != "NA" {
		t.Errorf("FormatEstimate(nil) = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(12.345); got != "12.3%" {
		t.Errorf("FormatPercent = %q, want 12.3%%", got)
	}
}
