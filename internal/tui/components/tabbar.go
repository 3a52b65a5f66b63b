package components

import (
	"strings"

	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab is one entry of the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // index of Key in Name
}

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Introduction", Key: 'i', KeyPos: 0},
	{Name: "Explore", Key: 'e', KeyPos: 0},
	{Name: "Age Groups", Key: 'a', KeyPos: 0},
	{Name: "Mechanisms", Key: 'm', KeyPos: 0},
	{Name: "Trends", Key: 't', KeyPos: 0},
	{Name: "Military", Key: 'y', KeyPos: 7},
	{Name: "Conclusions", Key: 'c', KeyPos: 0},
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active

	if active {
		return lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true).Underline(true)

	name := []rune(tab.Name)
	pos := tab.KeyPos
	if pos < 0 || pos >= len(name) {
		return base.Render(" " + tab.Name + " ")
	}
	return base.Render(" "+string(name[:pos])) + key.Render(string(name[pos])) + base.Render(string(name[pos+1:])+" ")
}

// TabVisualWidth returns the rendered width of tab.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tabs on one line, padded to width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	bar := strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}

// TabIdxByKey returns the tab bound to key, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
