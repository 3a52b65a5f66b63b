package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues is bound to the first-run form fields.
type setupValues struct {
	dataDir     string
	themeName   string
	openBrowser bool
	addr        string
}

func newSetupForm(cfg config.Config, rows int, vals *setupValues) *huh.Form {
	vals.dataDir = cfg.General.DataDir
	vals.themeName = cfg.Appearance.Theme
	vals.openBrowser = cfg.Server.OpenBrowser
	vals.addr = cfg.Server.Addr

	welcome := fmt.Sprintf("Loaded %d rows. A few settings and you're done.", rows)
	if rows == 0 {
		welcome = "No data loaded yet. Point tbidash at the TBI tables below."
	}

	themeOpts := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themeOpts[i] = huh.NewOption(t.Name, t.Name)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tbidash").
				Description(welcome),
			huh.NewInput().
				Title("Data directory").
				Description("Folder holding tbi_age.csv, tbi_year.csv and tbi_military.csv, or an s3:// prefix.").
				Value(&vals.dataDir).
				Validate(validateDataDir),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.themeName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Web dashboard address").
				Value(&vals.addr).
				Validate(func(s string) error {
					if !strings.Contains(s, ":") {
						return fmt.Errorf("expected host:port")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Open a browser when serving the dashboard?").
				Value(&vals.openBrowser),
		),
	).WithShowHelp(true)
}

func validateDataDir(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("data directory is required")
	}
	if strings.HasPrefix(s, "s3://") {
		return nil
	}
	info, err := os.Stat(s)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s)
	}
	return nil
}

// applySetup copies the form values onto cfg.
func applySetup(cfg *config.Config, vals setupValues) {
	cfg.General.DataDir = strings.TrimSpace(vals.dataDir)
	cfg.Appearance.Theme = vals.themeName
	cfg.Server.OpenBrowser = vals.openBrowser
	cfg.Server.Addr = strings.TrimSpace(vals.addr)
}

func (a *App) saveSetupConfig() error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	applySetup(&cfg, a.setupVals)
	theme.SetActive(cfg.Appearance.Theme)
	return config.Save(cfg)
}

// RunSetup runs the setup form outside the dashboard and returns cfg with
// the answers applied. rows is shown in the welcome note.
func RunSetup(cfg config.Config, rows int) (config.Config, error) {
	var vals setupValues
	if err := newSetupForm(cfg, rows, &vals).Run(); err != nil {
		return cfg, err
	}
	applySetup(&cfg, vals)
	return cfg, nil
}
