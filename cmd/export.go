package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/cli"
	"github.com/theirongolddev/tbidash/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagExportOut    string
	flagExportFormat string
	flagExportWidth  int
	flagExportHeight int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every chart to image files",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "charts", "Output directory")
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "", "Image format: svg or png (default from config)")
	exportCmd.Flags().IntVar(&flagExportWidth, "width", 0, "Image width in pixels (default from config)")
	exportCmd.Flags().IntVar(&flagExportHeight, "height", 0, "Image height in pixels (default from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	formatName := appConfig.Charts.Format
	if flagExportFormat != "" {
		formatName = flagExportFormat
	}
	format, err := charts.ParseFormat(formatName)
	if err != nil {
		return err
	}
	opts := charts.Options{
		Width:  appConfig.Charts.Width,
		Height: appConfig.Charts.Height,
		Format: format,
	}
	if flagExportWidth > 0 {
		opts.Width = flagExportWidth
	}
	if flagExportHeight > 0 {
		opts.Height = flagExportHeight
	}

	ds, err := loadFiltered(cmd.Context())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flagExportOut, 0o750); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	in := charts.Input{Dataset: ds, Recruitment: config.Recruitment(appConfig)}
	written := 0
	for _, c := range charts.Catalog() {
		var buf bytes.Buffer
		err := c.Render(cmd.Context(), &buf, in, opts)
		if errors.Is(err, charts.ErrNoData) {
			fmt.Println(cli.RenderWarning(fmt.Sprintf("skipped %s: no data for the current filters", c.Name)))
			continue
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", c.Name, err)
		}

		path := filepath.Join(flagExportOut, c.Name+"."+string(format))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // chart images are meant to be shared
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written++
		if !flagQuiet {
			fmt.Printf("  %s  %s\n", path, c.Title)
		}
	}

	fmt.Printf("\n  Wrote %d of %d charts to %s\n", written, len(charts.Catalog()), flagExportOut)
	return nil
}
