package components

import (
	"strings"

	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom bar: key hints on the left and the
// data status on the right.
func RenderStatusBar(width int, status string, reloading bool) string {
	t := theme.Active

	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	statusStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := hintStyle.Render(" ") + keyStyle.Render("?") + hintStyle.Render(" help  ") +
		keyStyle.Render("r") + hintStyle.Render(" reload  ") +
		keyStyle.Render("q") + hintStyle.Render(" quit")

	right := status
	if reloading {
		right = "reloading… " + right
	}
	right = statusStyle.Render(right + " ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", gap)) + right
}
