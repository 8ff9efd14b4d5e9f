package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cxfeedback/internal/config"
	"cxfeedback/internal/exporter"
	"cxfeedback/internal/feedback"
	"cxfeedback/internal/infrastructure"
	"cxfeedback/internal/services"
	"cxfeedback/internal/sheets"
	"cxfeedback/pkg/contracts"
)

type rootOptions struct {
	configFile string
	sheetFile  string
	verbose    bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "feedbackctl",
		Short: "Filter and export call center feedback",
		Long: `feedbackctl reads the call center feedback sheet, keeps the rows of one
center within a date range and exports them to the clipboard and to files.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file (default: config.yaml when present)")
	flags.StringVar(&opts.sheetFile, "sheet-file", "", "read feedback from a local .csv or .xlsx file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging and row diagnostics")

	cmd.AddCommand(newExportCmd(opts), newRecentCmd(opts))
	return cmd
}

// load reads the configuration with the global flags and extra applied,
// and builds a text logger on stderr.
func (o *rootOptions) load(extra ...config.Override) (*config.Config, *slog.Logger, error) {
	overrides := append([]config.Override{func(c *config.Config) {
		if o.sheetFile != "" {
			c.Sheets.LocalPath = o.sheetFile
			c.Sheets.Mode = config.ModeCSV
			if strings.EqualFold(filepath.Ext(o.sheetFile), ".xlsx") {
				c.Sheets.Mode = config.ModeXLSX
			}
		}
		c.Logging.Format = "text"
		c.Logging.Output = "console"
		if o.verbose {
			c.Logging.Level = "debug"
		}
	}}, extra...)

	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile, overrides...)
	} else {
		cfg, err = config.Load(overrides...)
	}
	if err != nil {
		return nil, nil, err
	}

	logger := infrastructure.NewLogger(cfg.Logging, o.stderr).
		With(slog.String("component", "feedbackctl"))
	return cfg, logger, nil
}

// exportService completes deps from cfg. Callers set the sinks, the
// notifier and the formats.
func exportService(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps services.ExportDeps) (*services.ExportService, error) {
	source, err := sheets.NewSource(ctx, cfg.Sheets, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("feedback source: %w", err)
	}

	deps.Source = source
	deps.ResourceID = cfg.Sheets.Location()
	deps.Range = cfg.Sheets.Range
	deps.Filter = feedback.NewFilter(feedback.DefaultDateParser(), logger)
	deps.Options = exporter.Options{
		SheetName:   cfg.Export.SheetName,
		ColumnWidth: cfg.Export.ColumnWidth,
		CSVBOM:      cfg.Export.CSVBOM,
	}
	deps.Centers = cfg.Export.Centers
	deps.RecentDays = cfg.Export.RecentDays
	deps.MaxInFlight = cfg.Export.MaxInFlight
	deps.Logger = logger
	return services.NewExportService(deps), nil
}
