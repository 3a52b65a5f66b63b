package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	"github.com/spf13/cobra"
)

var mechanismsCmd = &cobra.Command{
	Use:   "mechanisms",
	Short: "Distribution of TBI rates per injury mechanism",
	RunE:  runMechanisms,
}

func init() {
	rootCmd.AddCommand(mechanismsCmd)
}

func runMechanisms(cmd *cobra.Command, _ []string) error {
	ds, err := loadFiltered(cmd.Context())
	if err != nil {
		return err
	}

	dists := pipeline.MechanismRateDistributions(ds.Age)
	if len(dists) == 0 {
		fmt.Println("\n  No civilian rows with a rate match the current filters.")
		return nil
	}

	peak := 0.0
	for _, d := range dists {
		peak = max(peak, d.Median)
	}

	rows := make([][]string, len(dists))
	for i, d := range dists {
		rows[i] = []string{
			d.Category,
			strconv.Itoa(d.Count),
			cli.FormatRate(d.Min),
			cli.FormatRate(d.Q1),
			cli.FormatRate(d.Median),
			cli.FormatRate(d.Q3),
			cli.FormatRate(d.Max),
			cli.FormatRate(d.Mean),
			cli.RenderHorizontalBar(d.Median, peak, 20),
		}
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "TBI Rates by Injury Mechanism" + filterLabel(),
		Headers: []string{"Mechanism", "n", "Min", "Q1", "Median", "Q3", "Max", "Mean", ""},
		Rows:    rows,
		Note:    "rate_est per 100,000 population; quartiles use linear interpolation",
	}))
	return nil
}
