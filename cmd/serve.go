package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/dashboard"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr      string
	flagServeNoBrowser bool
	flagServeInterval  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard and open it in a browser",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().BoolVar(&flagServeNoBrowser, "no-browser", false, "Do not open a browser")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 0, "Data file polling interval, 0 uses the config value")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dir, err := resolveDataDir(ctx, !flagQuiet)
	if err != nil {
		return err
	}
	result, err := loadDataFrom(ctx, dir, nil, !flagQuiet)
	if err != nil {
		return err
	}

	cfg, err := dashboardConfig(appConfig, dir)
	if err != nil {
		return err
	}
	svc := dashboard.New(cfg, result.Dataset, result.Files)

	url := "http://" + svc.Addr()
	fmt.Printf("  tbidash dashboard listening on %s\n", url)
	if cfg.Interval > 0 {
		fmt.Printf("  Watching %s every %s\n", dir, cfg.Interval)
	}
	fmt.Println("  Stop with Ctrl+C")

	if appConfig.Server.OpenBrowser && !flagServeNoBrowser {
		go func() {
			// Give the listener a moment before the browser asks for the page.
			time.Sleep(300 * time.Millisecond)
			if err := openBrowser(url); err != nil && !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Could not open a browser: %v\n", err)
			}
		}()
	}

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// dashboardConfig builds the dashboard settings from the loaded config and
// serve flags. dir is the resolved local data directory. --year and --type
// become the default filter of every page and API request.
func dashboardConfig(cfg config.Config, dir string) (dashboard.Config, error) {
	format, err := charts.ParseFormat(cfg.Charts.Format)
	if err != nil {
		return dashboard.Config{}, err
	}

	addr := cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	interval := cfg.Server.ReloadInterval()
	if flagServeInterval > 0 {
		interval = flagServeInterval
	}

	return dashboard.Config{
		DataDir:      dir,
		Files:        cfg.General.Files(),
		UseCache:     !flagNoCache,
		CachePath:    pipeline.CachePath(),
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: cfg.Server.EventsBuffer,
		Recruitment:  config.Recruitment(cfg),
		Filter:       currentFilter(),
		Chart: charts.Options{
			Width:  cfg.Charts.Width,
			Height: cfg.Charts.Height,
			Format: format,
		},
	}, nil
}

func openBrowser(url string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	return c.Start()
}
