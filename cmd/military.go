package cmd

import (
	"fmt"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	"github.com/spf13/cobra"
)

var militaryCmd = &cobra.Command{
	Use:   "military",
	Short: "Diagnosed TBIs per service branch, normalized by recruitment",
	RunE:  runMilitary,
}

func init() {
	rootCmd.AddCommand(militaryCmd)
}

func runMilitary(cmd *cobra.Command, _ []string) error {
	ds, err := loadFiltered(cmd.Context())
	if err != nil {
		return err
	}

	stats := pipeline.ServiceNormalized(ds.Military, config.Recruitment(appConfig))
	if len(stats) == 0 {
		fmt.Println("\n  No military rows match the current filters.")
		return nil
	}

	var diagnosed float64
	var recruited int64
	missing := 0
	rows := make([][]string, 0, len(stats)+2)
	for _, s := range stats {
		diagnosed += s.Diagnosed
		recruited += s.Recruited
		perThousand, share := "-", "-"
		if s.Recruited > 0 {
			perThousand = cli.FormatPerThousand(s.PerThousand)
			share = cli.FormatPercent(s.SharePercent)
		} else {
			missing++
		}
		rows = append(rows, []string{
			s.Service,
			cli.FormatCount(s.Diagnosed),
			cli.FormatNumber(s.Recruited),
			perThousand,
			share,
			cli.RenderHorizontalBar(s.SharePercent, 100, 20),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatCount(diagnosed), cli.FormatNumber(recruited), "", "", ""})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Military TBIs by Service" + filterLabel(),
		Headers: []string{"Service", "Diagnosed", "Recruited", "Per 1,000", "Share", ""},
		Rows:    rows,
		Note:    "Share of the summed per-1,000 rates; recruitment from [military.recruitment]",
	}))
	if missing > 0 {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%d services have no recruitment figure and are left out of the shares", missing)))
	}
	return nil
}
