package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as a single row of block characters.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := values[0]
	for _, v := range values[1:] {
		peak = math.Max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * 7)
		idx = min(max(idx, 0), 7)
		buf.WriteRune(eighths[idx+1])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// BarChart renders vertical bars with a y axis and x labels. It falls back to
// a sparkline when the area is too small.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}
	step := tickStep(peak)
	for math.Ceil(peak/step) > float64(max(height/2, 2)) {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	intervals := max(int(math.Round(ceiling/step)), 1)
	rowsPerTick := max(height/intervals, 2)
	chartH := rowsPerTick * intervals

	labelW := max(len(FormatAxis(ceiling))+1, 4)
	ticks := make(map[int]string, intervals)
	for i := 1; i <= intervals; i++ {
		ticks[i*rowsPerTick] = FormatAxis(step * float64(i))
	}

	n := len(values)
	areaW := max(width-labelW-1, 5)
	barW := min(max((areaW-(n-1))/n, 1), 6)
	axisLen := n*barW + (n - 1)

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axis.Render(fmt.Sprintf("%*s│", labelW, ticks[row])))
		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := min(max(int((v-bottom)/(top-bottom)*8), 1), 8)
				b.WriteString(bar.Render(strings.Repeat(string(eighths[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", labelW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		line := []rune(strings.Repeat(" ", axisLen))
		lastEnd := -1
		for i, lbl := range labels {
			pos := i * (barW + 1)
			if pos <= lastEnd {
				continue
			}
			r := []rune(lbl)
			if pos+len(r) > axisLen {
				continue
			}
			copy(line[pos:], r)
			lastEnd = pos + len(r)
		}
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", labelW+1)))
		b.WriteString(axis.Render(strings.TrimRight(string(line), " ")))
	}
	return b.String()
}

// HBar is one labelled row of a horizontal bar list.
type HBar struct {
	Label string
	Value float64
	Text  string // shown after the bar; defaults to FormatAxis(Value)
	Color lipgloss.Color
}

// HBars renders labelled horizontal bars scaled to the largest value.
func HBars(bars []HBar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, textW := 0, 0
	peak := 0.0
	for i := range bars {
		if bars[i].Text == "" {
			bars[i].Text = FormatAxis(bars[i].Value)
		}
		labelW = max(labelW, lipgloss.Width(bars[i].Label))
		textW = max(textW, lipgloss.Width(bars[i].Text))
		peak = math.Max(peak, bars[i].Value)
	}
	labelW = min(labelW, width/3)
	barW := max(width-labelW-textW-2, 4)
	if peak <= 0 {
		peak = 1
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	track := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	lines := make([]string, len(bars))
	for i, hb := range bars {
		color := hb.Color
		if color == "" {
			color = t.Accent
		}
		filled := int(math.Round(hb.Value / peak * float64(barW)))
		filled = min(max(filled, 0), barW)

		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s ", labelW, Truncate(hb.Label, labelW))) +
			lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(strings.Repeat("█", filled)) +
			track.Render(strings.Repeat("░", barW-filled)) +
			textStyle.Render(fmt.Sprintf(" %*s", textW, hb.Text))
	}
	return strings.Join(lines, "\n")
}

// StackedBar renders one row split into colored segments proportional to
// shares. Shares are percentages; rounding slack goes to the last segment.
func StackedBar(shares []float64, colors []lipgloss.Color, width int) string {
	if len(shares) == 0 || width <= 0 {
		return ""
	}
	t := theme.Active
	if len(colors) == 0 {
		colors = []lipgloss.Color{t.Accent}
	}

	var b strings.Builder
	used := 0
	for i, s := range shares {
		n := int(math.Round(s / 100 * float64(width)))
		if i == len(shares)-1 && s > 0 {
			n = width - used
		}
		n = min(max(n, 0), width-used)
		used += n
		b.WriteString(lipgloss.NewStyle().Foreground(colors[i%len(colors)]).Background(t.Surface).Render(strings.Repeat("█", n)))
	}
	if used < width {
		b.WriteString(lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", width-used)))
	}
	return b.String()
}

// Truncate shortens s to limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// tickStep picks a round axis interval for about five ticks.
func tickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// FormatAxis formats an axis or bar value compactly.
func FormatAxis(v float64) string {
	unit := func(div float64, suffix string) string {
		if v == math.Trunc(v/div)*div {
			return fmt.Sprintf("%.0f%s", v/div, suffix)
		}
		return fmt.Sprintf("%.1f%s", v/div, suffix)
	}
	switch {
	case v >= 1e9:
		return unit(1e9, "B")
	case v >= 1e6:
		return unit(1e6, "M")
	case v >= 1e3:
		return unit(1e3, "k")
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
