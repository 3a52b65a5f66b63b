package tui

import (
	"fmt"
	"sort"
	"strconv"
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

func (a App) renderMilitaryTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	var b strings.Builder

	if len(a.services) == 0 {
		msg := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
			Render("No military rows for the current filter")
		b.WriteString(components.ContentCard("Service Branches", msg, cw))
		b.WriteString("\n")
	} else {
		b.WriteString(components.ContentCard("Share of Diagnosed TBIs per 1,000 Recruits", a.renderServiceShares(inner), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Diagnosed TBIs by Service", a.renderServiceTable(inner), cw))
		b.WriteString("\n")
	}

	if sev := a.severityBars(); len(sev) > 0 {
		b.WriteString(components.ContentCard("Diagnosed TBIs by Severity", components.HBars(sev, inner), cw))
		b.WriteString("\n")
	}

	var notes []narrative.Note
	notes = append(notes, narrative.NotesFor(charts.ServiceShare)...)
	notes = append(notes, narrative.NotesFor(charts.DiagnosedByYear)...)
	b.WriteString(components.ContentCard("", renderNotes(notes, inner), cw))
	return b.String()
}

func (a App) renderServiceShares(width int) string {
	colors := theme.Active.Series(len(a.services))
	labelW := 0
	for _, s := range a.services {
		labelW = max(labelW, lipgloss.Width(s.Service))
	}
	labelW = min(labelW, width/4)
	barW := max(width-labelW-8, 10)

	lines := make([]string, len(a.services))
	for i, s := range a.services {
		lines[i] = components.ShareBar(s.Service, s.SharePercent/100, colors[i], labelW, barW)
	}
	return strings.Join(lines, "\n")
}

func (a App) renderServiceTable(width int) string {
	t := theme.Active
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	numW := 12
	nameW := max(width-4*(numW+1), 12)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s",
		nameW, "Service", numW, "Diagnosed", numW, "Recruited", numW, "Per 1,000", numW, "Share")))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", min(nameW+4*(numW+1), width))))

	var diagnosed float64
	var recruited int64
	for _, s := range a.services {
		diagnosed += s.Diagnosed
		recruited += s.Recruited
		b.WriteString("\n")
		b.WriteString(rowStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s",
			nameW, components.Truncate(s.Service, nameW),
			numW, cli.FormatCount(s.Diagnosed),
			numW, cli.FormatNumber(s.Recruited),
			numW, cli.FormatPerThousand(s.PerThousand),
			numW, cli.FormatPercent(s.SharePercent))))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", min(nameW+4*(numW+1), width))))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s",
		nameW, "Total", numW, cli.FormatCount(diagnosed), numW, cli.FormatNumber(recruited))))
	return b.String()
}

// severityBars sums diagnosed cases per severity, largest first.
func (a App) severityBars() []components.HBar {
	var rows []model.MilitaryRecord
	if a.view != nil {
		rows = a.view.Military
	}
	totals := pipeline.GroupSum(rows,
		func(r model.MilitaryRecord) string { return r.Severity },
		func(r model.MilitaryRecord) *float64 { return r.Diagnosed },
	)
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].Total > totals[j].Total })

	colors := theme.Active.Series(len(totals))
	bars := make([]components.HBar, len(totals))
	for i, ct := range totals {
		bars[i] = components.HBar{
			Label: ct.Category,
			Value: ct.Total,
			Text:  cli.FormatCount(ct.Total) + " (" + strconv.Itoa(ct.Rows) + " rows)",
			Color: colors[i],
		}
	}
	return bars
}
