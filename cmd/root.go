package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/source"
	"github.com/theirongolddev/tbidash/internal/store"
	"github.com/theirongolddev/tbidash/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	flagDataDir string
	flagYear    int
	flagType    string
	flagNoCache bool
	flagQuiet   bool
)

// appConfig is loaded once before any command runs.
var appConfig = config.DefaultConfig()

var shutdownTelemetry = func(context.Context) error { return nil }

var rootCmd = &cobra.Command{
	Use:   "tbidash",
	Short: "Traumatic Brain Injury dataset dashboard",
	Long: "Explore the TBI tables (civilian by age group, yearly estimates, military diagnoses)\n" +
		"through a local web dashboard, a terminal dashboard, or plain tables.",
	SilenceUsage:       true,
	PersistentPreRunE:  initRoot,
	PersistentPostRunE: closeRoot,
	RunE:               runServe,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory (or s3://bucket/prefix) holding the TBI CSV files")
	rootCmd.PersistentFlags().IntVarP(&flagYear, "year", "y", 0, "Only use rows from this year")
	rootCmd.PersistentFlags().StringVarP(&flagType, "type", "t", "", "Only use rows of this outcome type (e.g. Deaths)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func initRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg
	if !cmd.Flags().Changed("data-dir") {
		flagDataDir = cfg.General.DataDir
	}
	if flagYear < 0 {
		return fmt.Errorf("--year must be positive, got %d", flagYear)
	}

	shutdown, err := telemetry.Setup(cmd.Context(), cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	shutdownTelemetry = shutdown
	return nil
}

func closeRoot(cmd *cobra.Command, _ []string) error {
	return shutdownTelemetry(cmd.Context())
}

// currentFilter returns the filter selected by the persistent flags.
func currentFilter() pipeline.Filter {
	return pipeline.Filter{Year: flagYear, Type: flagType}
}

// resolveDataDir mirrors a remote data location to local disk if needed.
func resolveDataDir(ctx context.Context, verbose bool) (string, error) {
	if source.IsRemote(flagDataDir) && verbose {
		fmt.Fprintf(os.Stderr, "  Fetching tables from %s...\n", flagDataDir)
	}
	return source.Fetch(ctx, flagDataDir, appConfig.General.Files(), pipeline.MirrorDir())
}

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData(ctx context.Context) (*pipeline.LoadResult, error) {
	dir, err := resolveDataDir(ctx, !flagQuiet)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", dir)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
	}

	result, err := loadDataFrom(ctx, dir, progressFn, !flagQuiet)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr)
		}
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s rows from %d files%s\n",
			cli.FormatNumber(int64(totalRows(result.Dataset))), result.TotalFiles, strings.Repeat(" ", 12))
		if result.ParseErrors > 0 {
			fmt.Fprintln(os.Stderr, cli.RenderWarning(
				fmt.Sprintf("%d malformed rows were skipped", result.ParseErrors)))
		}
	}
	return result, nil
}

// loadDataFrom loads dir through the cache unless --no-cache is set. A cache
// that cannot be opened or read degrades to a full parse.
func loadDataFrom(ctx context.Context, dir string, progressFn pipeline.ProgressFunc, verbose bool) (*pipeline.LoadResult, error) {
	files := appConfig.General.Files()

	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full parse\n")
			}
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(ctx, dir, files, cache, progressFn)
			if err == nil {
				if cr.CacheWriteErrors > 0 && verbose {
					fmt.Fprintln(os.Stderr, cli.RenderWarning(cacheWriteWarning(cr.CacheWriteErrors)))
				}
				return &cr.LoadResult, nil
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "\n  Cache error (%v), falling back to full parse\n", err)
			}
		}
	}

	return pipeline.Load(ctx, dir, files, progressFn)
}

func cacheWriteWarning(n int) string {
	if n == 1 {
		return "1 table could not be cached; it will be reparsed next run"
	}
	return fmt.Sprintf("%d tables could not be cached; they will be reparsed next run", n)
}

// loadFiltered loads the dataset and applies the persistent filter flags.
func loadFiltered(ctx context.Context) (*model.Dataset, error) {
	result, err := loadData(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.FilterDataset(result.Dataset, currentFilter()), nil
}

func totalRows(ds *model.Dataset) int {
	n := 0
	for _, k := range model.Kinds {
		n += ds.Rows(k)
	}
	return n
}

// filterLabel describes the active filter flags for titles.
func filterLabel() string {
	label := ""
	if flagYear > 0 {
		label += fmt.Sprintf("  %d", flagYear)
	}
	if flagType != "" {
		label += "  " + flagType
	}
	return label
}
