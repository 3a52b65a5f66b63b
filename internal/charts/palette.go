package charts

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Diverging blue-to-red stops used for outcome types.
var coolwarm = []string{"3b4cc0", "6f92f3", "aac7fd", "dddcdc", "f7b89c", "e7745b", "b40426"}

// Qualitative colors used for severities.
var set2 = []string{"66c2a5", "fc8d62", "8da0cb", "e78ac3", "a6d854", "ffd92f", "e5c494", "b3b3b3"}

// Service slice colors.
var pastel = []string{"ff9999", "66b3ff", "99ff99", "ffcc99", "c2c2f0", "ffb3e6"}

var outline = drawing.ColorFromHex("282726")

// Scheme selects a color family.
type Scheme int

// Available schemes.
const (
	SchemeDiverging Scheme = iota
	SchemeQualitative
	SchemePastel
)

// LegendEntry pairs a category with its color as "#rrggbb".
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Palette assigns a color to each category. The mapping depends only on the
// category's position, so the same slice always yields the same colors.
func Palette(categories []string, scheme Scheme) map[string]drawing.Color {
	out := make(map[string]drawing.Color, len(categories))
	for i, c := range categories {
		out[c] = colorAt(i, len(categories), scheme)
	}
	return out
}

// Legend returns the palette as ordered entries.
func Legend(categories []string, scheme Scheme) []LegendEntry {
	out := make([]LegendEntry, len(categories))
	for i, c := range categories {
		out[i] = LegendEntry{Label: c, Color: Hex(colorAt(i, len(categories), scheme))}
	}
	return out
}

// Hex formats c as "#rrggbb".
func Hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func colorAt(i, n int, scheme Scheme) drawing.Color {
	switch scheme {
	case SchemeQualitative:
		return drawing.ColorFromHex(set2[i%len(set2)])
	case SchemePastel:
		return drawing.ColorFromHex(pastel[i%len(pastel)])
	}
	// Spread categories across the diverging ramp.
	if n <= 1 {
		return drawing.ColorFromHex(coolwarm[0])
	}
	idx := i * (len(coolwarm) - 1) / (n - 1)
	return drawing.ColorFromHex(coolwarm[idx])
}
