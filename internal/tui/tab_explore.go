package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/tui/components"
	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultExploreRows = 5
	maxExploreRows     = 100
)

// exploreState is the Explore tab's dataset selection and paging.
type exploreState struct {
	kindIdx int
	rows    int
	offset  int
}

func newExploreState() exploreState {
	return exploreState{rows: defaultExploreRows}
}

func (e exploreState) kind() model.Kind {
	return model.Kinds[e.kindIdx%len(model.Kinds)]
}

// handleKey applies an Explore key. It reports false for keys it ignores.
func (e *exploreState) handleKey(key string, ds *model.Dataset) bool {
	switch key {
	case "d":
		e.kindIdx = (e.kindIdx + 1) % len(model.Kinds)
		e.offset = 0
	case "D":
		e.kindIdx = (e.kindIdx - 1 + len(model.Kinds)) % len(model.Kinds)
		e.offset = 0
	case "+", "=":
		e.rows = min(e.rows+1, maxExploreRows)
	case "-":
		e.rows = max(e.rows-1, 1)
	case "j", "down":
		e.scroll(1, ds)
	case "k", "up":
		e.scroll(-1, ds)
	case "g":
		e.offset = 0
	default:
		return false
	}
	e.clamp(ds)
	return true
}

func (e *exploreState) scroll(step int, ds *model.Dataset) {
	e.offset += step
	e.clamp(ds)
}

// clamp keeps the window inside the selected table.
func (e *exploreState) clamp(ds *model.Dataset) {
	n := ds.Rows(e.kind())
	e.offset = min(e.offset, max(n-e.rows, 0))
	e.offset = max(e.offset, 0)
}

func (a App) headlineMetrics() []components.Metric {
	civilian := pipeline.TableTotal(a.view, model.KindAge)
	yearly := pipeline.TableTotal(a.view, model.KindYear)
	military := pipeline.TableTotal(a.view, model.KindMilitary)

	parseErrors := 0
	if a.dataset != nil {
		for _, info := range a.dataset.Tables {
			parseErrors += info.ParseErrors
		}
	}
	skipped := "no rows skipped"
	if parseErrors > 0 {
		skipped = fmt.Sprintf("%d rows skipped", parseErrors)
	}

	return []components.Metric{
		{Label: "Civilian TBIs (2014)", Value: cli.FormatCompact(civilian), Note: fmt.Sprintf("%d rows", a.view.Rows(model.KindAge))},
		{Label: "Yearly Estimates", Value: cli.FormatCompact(yearly), Note: fmt.Sprintf("%d rows", a.view.Rows(model.KindYear))},
		{Label: "Military Diagnosed", Value: cli.FormatCompact(military), Note: fmt.Sprintf("%d rows", a.view.Rows(model.KindMilitary))},
		{Label: "Rows Loaded", Value: cli.FormatNumber(int64(a.totalRows())), Note: skipped},
	}
}

func (a App) renderExploreTab(cw, h int) string {
	t := theme.Active
	ex := a.explore
	kind := ex.kind()

	headers, rows, err := pipeline.Preview(a.dataset, kind, ex.offset+ex.rows)
	if err != nil {
		return components.ContentCard("Data Exploration", err.Error(), cw)
	}
	if ex.offset < len(rows) {
		rows = rows[ex.offset:]
	} else {
		rows = nil
	}
	// Keep the table inside the content area: card border, title, header,
	// rule and footer take six lines.
	if visible := h - 6; visible > 0 && len(rows) > visible {
		rows = rows[:visible]
	}

	inner := components.CardInnerWidth(cw)
	widths := columnWidths(headers, rows, inner)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	naStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	gap := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	var b strings.Builder
	for i, hd := range headers {
		if i > 0 {
			b.WriteString(gap)
		}
		b.WriteString(headerStyle.Render(fitCell(hd, widths[i], false)))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", min(sum(widths)+len(widths)-1, inner))))

	for _, row := range rows {
		b.WriteString("\n")
		for i, cell := range row {
			if i > 0 {
				b.WriteString(gap)
			}
			style := cellStyle
			if cell == "NA" {
				style = naStyle
			}
			b.WriteString(style.Render(fitCell(cell, widths[i], isNumber(cell))))
		}
	}

	total := a.dataset.Rows(kind)
	b.WriteString("\n")
	first := 0
	if len(rows) > 0 {
		first = ex.offset + 1
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("rows %d-%d of %d · d next dataset · +/- rows · j/k scroll",
		first, ex.offset+len(rows), total)))

	return components.ContentCard(kind.DisplayName(), b.String(), cw)
}

// columnWidths sizes columns to their content, shrinking the widest text
// columns until the table fits width.
func columnWidths(headers []string, rows [][]string, width int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	for sum(widths)+len(widths)-1 > width {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 6 {
			break
		}
		widths[widest]--
	}
	return widths
}

func fitCell(s string, w int, right bool) string {
	s = components.Truncate(s, w)
	pad := max(w-lipgloss.Width(s), 0)
	if right {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			return false
		}
	}
	return true
}

func sum(vals []int) int {
	total := 0
	for _, v := range vals {
		total += v
	}
	return total
}
