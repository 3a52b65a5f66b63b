package cmd

import (
	"fmt"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var flagProportionsBy string

var proportionsCmd = &cobra.Command{
	Use:   "proportions",
	Short: "Share of each TBI outcome type per age group or per year",
	RunE:  runProportions,
}

func init() {
	proportionsCmd.Flags().StringVar(&flagProportionsBy, "by", "age", "Group rows by age or year")
	rootCmd.AddCommand(proportionsCmd)
}

func runProportions(cmd *cobra.Command, _ []string) error {
	var groupHeader string
	switch flagProportionsBy {
	case "age":
		groupHeader = "Age Group"
	case "year":
		groupHeader = "Year"
	default:
		return fmt.Errorf("--by must be age or year, got %q", flagProportionsBy)
	}

	ds, err := loadFiltered(cmd.Context())
	if err != nil {
		return err
	}

	var pt model.ProportionTable
	if flagProportionsBy == "age" {
		pt = pipeline.AgeTypeProportions(ds.Age)
	} else {
		pt = pipeline.YearTypeProportions(ds.Year)
	}
	if len(pt.Groups) == 0 {
		fmt.Println("\n  No rows with estimates match the current filters.")
		return nil
	}

	headers := append([]string{groupHeader}, pt.Columns...)
	headers = append(headers, "Total", "")
	colors := legendColors(pt.Columns)

	rows := make([][]string, len(pt.Groups))
	for i, g := range pt.Groups {
		row := []string{g}
		for _, v := range pt.Values[i] {
			row = append(row, cli.FormatPercent(v))
		}
		row = append(row, cli.FormatCount(pt.Totals[i]), cli.RenderStackedBar(pt.Values[i], colors, 20))
		rows[i] = row
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Proportions of TBI Types by " + groupHeader + filterLabel(),
		Headers: headers,
		Rows:    rows,
		Note:    "Shares of summed number_est; rows without an estimate are skipped",
	}))
	return nil
}

// legendColors maps categories to the chart palette so terminal bars match
// the rendered charts.
func legendColors(categories []string) []lipgloss.Color {
	entries := charts.Legend(categories, charts.SchemeDiverging)
	out := make([]lipgloss.Color, len(entries))
	for i, e := range entries {
		out[i] = lipgloss.Color(e.Color)
	}
	return out
}
