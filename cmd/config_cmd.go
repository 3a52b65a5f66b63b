// Package cmd implements the tbidash CLI commands.
package cmd

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/model"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Environment overrides: %s*\n", config.EnvPrefix)
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.General.DataDir)
	files := cfg.General.Files()
	for _, k := range model.Kinds {
		fmt.Printf("    %-15s %s\n", string(k)+" file:", files.Name(k))
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:         %s\n", cfg.Server.Addr)
	fmt.Printf("    Open browser:    %v\n", cfg.Server.OpenBrowser)
	if cfg.Server.ReloadIntervalSec > 0 {
		fmt.Printf("    Reload interval: %s\n", cfg.Server.ReloadInterval())
	} else {
		fmt.Println("    Reload interval: disabled")
	}
	fmt.Printf("    Events buffer:   %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Charts]")
	fmt.Printf("    Size:   %dx%d\n", cfg.Charts.Width, cfg.Charts.Height)
	fmt.Printf("    Format: %s\n", cfg.Charts.Format)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Military recruitment]")
	recruitment := config.Recruitment(cfg)
	services := make([]string, 0, len(recruitment))
	for s := range recruitment {
		services = append(services, s)
	}
	sort.Strings(services)
	for _, s := range services {
		fmt.Printf("    %-12s %s\n", s, cli.FormatNumber(recruitment[s]))
	}
	if len(cfg.Military.Recruitment) == 0 {
		fmt.Println("    (built-in figures)")
	}
	fmt.Println()

	fmt.Println("  [Telemetry]")
	if cfg.Telemetry.OTLPEndpoint != "" {
		fmt.Printf("    OTLP endpoint: %s\n", cfg.Telemetry.OTLPEndpoint)
		fmt.Printf("    Service name:  %s\n", cfg.Telemetry.ServiceName)
	} else {
		fmt.Println("    Tracing: disabled")
	}
	fmt.Println()

	fmt.Println("  Run `tbidash setup` to reconfigure.")
	return nil
}
