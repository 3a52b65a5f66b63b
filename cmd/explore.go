package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagExploreRows int

var exploreCmd = &cobra.Command{
	Use:       "explore [age|military|year]",
	Short:     "Show the first rows of a dataset",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"age", "military", "year"},
	RunE:      runExplore,
}

func init() {
	exploreCmd.Flags().IntVarP(&flagExploreRows, "rows", "n", 5, "Number of rows to show (1-100)")
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	kind := model.KindAge
	if len(args) == 1 {
		kind = model.Kind(strings.ToLower(args[0]))
		if !kind.Valid() {
			return fmt.Errorf("unknown dataset %q (want age, military or year)", args[0])
		}
	}
	if flagExploreRows < 1 || flagExploreRows > 100 {
		return fmt.Errorf("--rows must be between 1 and 100, got %d", flagExploreRows)
	}

	ds, err := loadFiltered(cmd.Context())
	if err != nil {
		return err
	}

	headers, rows, err := pipeline.Preview(ds, kind, flagExploreRows)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   kind.DisplayName() + filterLabel(),
		Headers: headers,
		Rows:    rows,
		Note:    fmt.Sprintf("%d of %s rows", len(rows), cli.FormatNumber(int64(ds.Rows(kind)))),
	}))
	return nil
}
