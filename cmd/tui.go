package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/tui"
	"github.com/theirongolddev/tbidash/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appConfig.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// The alt screen owns the terminal, so loading stays silent.
	load := func(ctx context.Context, progressFn pipeline.ProgressFunc) (*model.Dataset, error) {
		dir, err := resolveDataDir(ctx, false)
		if err != nil {
			return nil, err
		}
		result, err := loadDataFrom(ctx, dir, progressFn, false)
		if err != nil {
			return nil, err
		}
		return result.Dataset, nil
	}

	app := tui.NewApp(tui.Options{
		Load:        load,
		Config:      appConfig,
		Recruitment: config.Recruitment(appConfig),
		Filter:      currentFilter(),
		NeedSetup:   !config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
