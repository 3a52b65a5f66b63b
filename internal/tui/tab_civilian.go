package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/narrative"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/tui/components"
	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// renderProportions draws one stacked bar per group with a color legend.
func renderProportions(pt model.ProportionTable, width int) string {
	t := theme.Active
	if len(pt.Groups) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No data for the current filter")
	}

	colors := t.Series(len(pt.Columns))
	labelW := 0
	for _, g := range pt.Groups {
		labelW = max(labelW, lipgloss.Width(g))
	}
	labelW = min(labelW, width/4)
	barW := max(width-labelW-1, 10)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	var b strings.Builder
	for i, g := range pt.Groups {
		b.WriteString(labelStyle.Render(fitCell(g, labelW, false)))
		b.WriteString(space)
		b.WriteString(components.StackedBar(pt.Values[i], colors, barW))
		b.WriteString("\n")
	}
	b.WriteString(renderLegend(pt.Columns, colors, width))
	return b.String()
}

func renderLegend(labels []string, colors []lipgloss.Color, width int) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render("  ")

	var lines []string
	line, lineW := "", 0
	for i, l := range labels {
		entry := lipgloss.NewStyle().Foreground(colors[i%len(colors)]).Background(t.Surface).Render("■") +
			text.Render(" "+l)
		w := lipgloss.Width(entry) + 2
		if lineW > 0 && lineW+w > width {
			lines = append(lines, line)
			line, lineW = "", 0
		}
		if lineW > 0 {
			line += space
		}
		line += entry
		lineW += w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (a App) renderAgeGroupsTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	var b strings.Builder

	b.WriteString(components.ContentCard("Proportions of TBI Types Across Age Groups",
		renderProportions(a.ageProps, inner), cw))
	b.WriteString("\n")

	totals, err := pipeline.TotalsBy(a.view, model.KindAge, "age_group")
	if err == nil && len(totals) > 0 {
		bars := make([]components.HBar, 0, len(totals))
		for _, ct := range totals {
			if ct.Category == "Total" {
				continue
			}
			bars = append(bars, components.HBar{Label: ct.Category, Value: ct.Total, Text: cli.FormatCount(ct.Total), Color: t.Blue})
		}
		b.WriteString(components.ContentCard("Estimated TBIs by Age Group (2014)", components.HBars(bars, inner), cw))
		b.WriteString("\n")
	}
	b.WriteString(components.ContentCard("", renderNotes(narrative.NotesFor(charts.AgeTypes), inner), cw))
	return b.String()
}

func (a App) renderMechanismsTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	dists := a.mechDists

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	statW := 8
	nameW := max(inner-6*(statW+1), 16)

	var table strings.Builder
	table.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s %*s %*s",
		nameW, "Mechanism", statW, "n", statW, "Min", statW, "Q1", statW, "Median", statW, "Q3", statW, "Max")))
	table.WriteString("\n")
	table.WriteString(mutedStyle.Render(strings.Repeat("─", min(nameW+6*(statW+1), inner))))

	colors := t.Series(len(dists))
	bars := make([]components.HBar, len(dists))
	for i, d := range dists {
		table.WriteString("\n")
		table.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Background(t.Surface).
			Render(fitCell(d.Category, nameW, false)))
		table.WriteString(rowStyle.Render(fmt.Sprintf(" %*d %*s %*s %*s %*s %*s",
			statW, d.Count,
			statW, cli.FormatRate(d.Min),
			statW, cli.FormatRate(d.Q1),
			statW, cli.FormatRate(d.Median),
			statW, cli.FormatRate(d.Q3),
			statW, cli.FormatRate(d.Max))))
		bars[i] = components.HBar{Label: d.Category, Value: d.Median, Text: cli.FormatRate(d.Median), Color: colors[i]}
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Distribution of TBI Rates by Injury Mechanism", table.String(), cw))
	b.WriteString("\n")
	if len(bars) > 0 {
		b.WriteString(components.ContentCard("Median Rate per 100,000", components.HBars(bars, inner), cw))
		b.WriteString("\n")
	}
	b.WriteString(components.ContentCard("", renderNotes(narrative.NotesFor(charts.MechanismRates), inner), cw))
	return b.String()
}
