package cmd

import (
	"fmt"

	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/source"
	"github.com/theirongolddev/tbidash/internal/tui"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	rows := 0
	if !source.IsRemote(flagDataDir) {
		if result, err := loadDataFrom(cmd.Context(), flagDataDir, nil, false); err == nil {
			rows = totalRows(result.Dataset)
		}
	}

	cfg, err := tui.RunSetup(appConfig, rows)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `tbidash setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
