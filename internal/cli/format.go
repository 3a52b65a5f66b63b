// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCompact formats a count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatCompact(n float64) string {
	abs := math.Abs(n)

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", n/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	default:
		return strconv.FormatFloat(math.Round(n), 'f', 0, 64)
	}
}

// FormatNumber adds thousands separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatCount rounds an estimate to a whole number with separators.
func FormatCount(v float64) string {
	return FormatNumber(int64(math.Round(v)))
}

// FormatEstimate formats an optional estimate, rendering missing values as "NA".
func FormatEstimate(v *float64) string {
	if v == nil {
		return "NA"
	}
	if *v == math.Trunc(*v) {
		return FormatCount(*v)
	}
	return printer.Sprintf("%.1f", *v)
}

// FormatRate formats a rate per 100,000 with one decimal.
func FormatRate(v float64) string {
	return printer.Sprintf("%.1f", v)
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatPerThousand formats a per-1,000 ratio.
func FormatPerThousand(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
