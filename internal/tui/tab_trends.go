package tui

import (
	"strconv"
	"strings"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/narrative"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/tui/components"
	"github.com/theirongolddev/tbidash/internal/tui/theme"
)

func (a App) renderTrendsTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	var b strings.Builder

	totals, _ := pipeline.TotalsBy(a.view, model.KindYear, "year")
	if len(totals) > 0 {
		values := make([]float64, len(totals))
		labels := make([]string, len(totals))
		for i, ct := range totals {
			values[i] = ct.Total
			labels[i] = shortYear(ct.Category)
		}

		peak, peakYear := 0.0, ""
		for _, ct := range totals {
			if ct.Total > peak {
				peak, peakYear = ct.Total, ct.Category
			}
		}
		metrics := []components.Metric{
			{Label: "Years", Value: strconv.Itoa(len(totals)), Note: totals[0].Category + " to " + totals[len(totals)-1].Category},
			{Label: "Peak Year", Value: peakYear, Note: cli.FormatCompact(peak) + " est. TBIs"},
			{Label: "Sparkline", Value: components.Sparkline(values, t.Accent), Note: "yearly estimates"},
		}
		b.WriteString(components.MetricCardRow(metrics, cw))
		b.WriteString("\n")

		chart := components.BarChart(values, labels, t.Blue, inner, 10)
		b.WriteString(components.ContentCard("Estimated TBIs per Year", chart, cw))
		b.WriteString("\n")
	}

	b.WriteString(components.ContentCard("Proportions of TBI Types Across Years",
		renderProportions(a.yearProps, inner), cw))
	b.WriteString("\n")

	b.WriteString(components.ContentCard("", renderNotes(narrative.NotesFor(charts.YearTypes), inner), cw))
	return b.String()
}

// shortYear turns "2006" into "'06" so bar labels fit narrow columns.
func shortYear(s string) string {
	if len(s) == 4 {
		return "'" + s[2:]
	}
	return s
}
