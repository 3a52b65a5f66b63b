package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Row counts, year spans and totals for each table",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ds, err := loadFiltered(cmd.Context())
	if err != nil {
		return err
	}

	if totalRows(ds) == 0 {
		fmt.Println("\n  No rows match the current filters.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("TBI DATASET SUMMARY" + filterLabel()))
	fmt.Println()

	rows := [][]string{}
	for i, s := range pipeline.Summarize(ds) {
		if i > 0 {
			rows = append(rows, []string{"---"})
		}
		years := "2014"
		if s.Kind != model.KindAge {
			years = "-"
			if s.Rows > 0 {
				years = fmt.Sprintf("%d-%d", s.MinYear, s.MaxYear)
				if trend := yearTrend(ds, s.Kind); trend != "" {
					years += "  " + trend
				}
			}
		}
		rows = append(rows,
			[]string{s.Kind.DisplayName(), "Rows", cli.FormatNumber(int64(s.Rows))},
			[]string{"", "Years", years},
			[]string{"", totalLabel(s.Kind), cli.FormatCount(s.Total)},
			[]string{"", "Missing values", cli.FormatNumber(int64(s.Missing))},
			[]string{"", "Distinct", distinctSummary(s.Distinct)},
		)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Table", "Metric", "Value"},
		Rows:    rows,
	}))

	if ds.Tables != nil {
		skipped := 0
		for _, info := range ds.Tables {
			skipped += info.ParseErrors
		}
		if skipped > 0 {
			fmt.Println(cli.RenderWarning(fmt.Sprintf("%d malformed rows were skipped while loading", skipped)))
		}
	}
	return nil
}

// yearTrend renders a table's per-year totals as a sparkline, or "" when
// fewer than two years are present.
func yearTrend(ds *model.Dataset, k model.Kind) string {
	totals, err := pipeline.TotalsBy(ds, k, "year")
	if err != nil || len(totals) < 2 {
		return ""
	}
	values := make([]float64, len(totals))
	for i, t := range totals {
		values[i] = t.Total
	}
	return cli.RenderSparkline(values)
}

func totalLabel(k model.Kind) string {
	if k == model.KindMilitary {
		return "Diagnosed"
	}
	return "Estimated TBIs"
}

// distinctSummary renders "service 3, severity 5" sorted by column name.
func distinctSummary(d map[string]int) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, d[k])
	}
	return strings.Join(parts, ", ")
}
