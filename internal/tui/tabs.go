package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/narrative"
	"github.com/theirongolddev/tbidash/internal/tui/components"
	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab indexes, matching components.Tabs.
const (
	tabIntroduction = iota
	tabExplore
	tabAgeGroups
	tabMechanisms
	tabTrends
	tabMilitary
	tabConclusions
)

func (a App) renderTab(cw, h int) string {
	switch a.activeTab {
	case tabIntroduction:
		return a.renderIntroductionTab(cw)
	case tabExplore:
		return a.renderExploreTab(cw, h)
	case tabAgeGroups:
		return a.renderAgeGroupsTab(cw)
	case tabMechanisms:
		return a.renderMechanismsTab(cw)
	case tabTrends:
		return a.renderTrendsTab(cw)
	case tabMilitary:
		return a.renderMilitaryTab(cw)
	case tabConclusions:
		return a.renderConclusionsTab(cw)
	}
	return ""
}

// wrap word-wraps text to width on the card surface.
func wrap(text string, width int, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(color).
		Background(theme.Active.Surface).
		Width(width).
		Render(text)
}

// renderNotes renders narrative notes as bulleted paragraphs.
func renderNotes(notes []narrative.Note, width int) string {
	t := theme.Active
	heading := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	lead := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	var b strings.Builder
	for i, n := range notes {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(heading.Render(n.Heading))
		for _, p := range n.Points {
			b.WriteString("\n")
			b.WriteString(bullet(p, width, lead))
		}
	}
	return b.String()
}

func bullet(p narrative.Point, width int, lead lipgloss.Style) string {
	t := theme.Active
	text := p.Text
	if p.Lead != "" {
		text = lead.Render(p.Lead) + lipgloss.NewStyle().Background(t.Surface).Render(" ") + text
	}
	return wrap("• "+text, width, t.TextMuted)
}

func (a App) renderIntroductionTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	var b strings.Builder
	b.WriteString(wrap("This application explores civilian and military TBI patterns using:", inner, t.TextPrimary))
	for _, line := range narrative.Tagline {
		b.WriteString("\n")
		b.WriteString(wrap("  • "+line, inner, t.TextMuted))
	}
	b.WriteString("\n")
	for _, para := range narrative.Introduction {
		b.WriteString("\n")
		b.WriteString(wrap(para, inner, t.TextPrimary))
		b.WriteString("\n")
	}

	var out strings.Builder
	out.WriteString(components.MetricCardRow(a.headlineMetrics(), cw))
	out.WriteString("\n")
	out.WriteString(components.ContentCard(narrative.Title, b.String(), cw))
	out.WriteString("\n")
	out.WriteString(components.ContentCard("Tables", a.renderTableSummaries(inner), cw))
	return out.String()
}

// renderTableSummaries lists each loaded table with its rows and year span.
func (a App) renderTableSummaries(width int) string {
	t := theme.Active
	name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	lines := make([]string, 0, len(a.summaries))
	for _, s := range a.summaries {
		span := "2014"
		if s.Kind != model.KindAge {
			span = "-"
			if s.Rows > 0 {
				span = fmt.Sprintf("%d-%d", s.MinYear, s.MaxYear)
			}
		}
		detail := fmt.Sprintf("  %s rows · %s · %d missing values", cli.FormatNumber(int64(s.Rows)), span, s.Missing)
		lines = append(lines, name.Render(fmt.Sprintf("%-22s", s.Kind.DisplayName()))+muted.Render(components.Truncate(detail, max(width-22, 10))))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderConclusionsTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	lead := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	var findings strings.Builder
	for i, p := range narrative.KeyFindings {
		if i > 0 {
			findings.WriteString("\n")
		}
		findings.WriteString(bullet(p, inner, lead))
	}

	var future strings.Builder
	for i, line := range narrative.FutureWork {
		if i > 0 {
			future.WriteString("\n")
		}
		future.WriteString(wrap("• "+line, inner, t.TextMuted))
	}

	return components.ContentCard("Key Findings", findings.String(), cw) + "\n" +
		components.ContentCard("Future Work", future.String(), cw)
}
