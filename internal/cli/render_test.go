package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Civilian Data",
		Headers: []string{"age_group", "number_est"},
		Rows: [][]string{
			{"0-17", "47,138"},
			{"---"},
			{"75+", "NA"},
		},
		Note: "showing 2 of 231 rows",
	})

	for _, want := range []string{"Civilian Data", "age_group", "47,138", "75+", "NA", "showing 2 of 231 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if got := strings.Count(out, "\n"); got != 9 {
		t.Errorf("lines = %d, want 9", got)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("empty table = %q", got)
	}
}

func TestIsNumeric(t *testing.T) {
	for _, s := range []string{"1,234", "12.5%", "NA", "1.2M", "-3"} {
		if !isNumeric(s) {
			t.Errorf("isNumeric(%q) = false", s)
		}
	}
	for _, s := range []string{"Army", "0-17 years", ""} {
		if isNumeric(s) {
			t.Errorf("isNumeric(%q) = true", s)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	got := RenderSparkline([]float64{0, 5, 10})
	if []rune(got)[0] != '▁' || []rune(got)[2] != '█' {
		t.Errorf("sparkline = %q", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("empty sparkline should be empty")
	}
}

func TestRenderStackedBar(t *testing.T) {
	bar := RenderStackedBar([]float64{25, 75}, []lipgloss.Color{ColorOrange, ColorBlue}, 20)
	if got := lipgloss.Width(bar); got != 20 {
		t.Errorf("width = %d, want 20", got)
	}
}

func TestRenderProgressBar(t *testing.T) {
	got := RenderProgressBar(1, 3, 6)
	if !strings.Contains(got, "██░░░░") || !strings.HasSuffix(got, "] 1/3") {
		t.Errorf("RenderProgressBar(1, 3, 6) = %q", got)
	}
	if full := RenderProgressBar(5, 3, 4); !strings.Contains(full, "████") {
		t.Errorf("overflow not clamped: %q", full)
	}
	if RenderProgressBar(0, 0, 4) != "" {
		t.Error("zero total should render nothing")
	}
}
