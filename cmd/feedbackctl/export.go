package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"cxfeedback/internal/config"
	"cxfeedback/internal/delivery"
	"cxfeedback/internal/exporter"
	"cxfeedback/internal/notifier"
	"cxfeedback/internal/services"
)

type exportOptions struct {
	start     string
	end       string
	center    string
	out       string
	clipboard string
	formats   string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one center's feedback for a date range",
		Example: `  feedbackctl export --start 2025-01-01 --end 2025-01-31 --center TEP
  feedbackctl export --start 2025-01-01 --end 2025-01-31 --center WNS --clipboard none --formats csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.start, "start", "", "first date, YYYY-MM-DD")
	f.StringVar(&opts.end, "end", "", "last date, YYYY-MM-DD")
	f.StringVar(&opts.center, "center", "", "call center")
	f.StringVarP(&opts.out, "out", "o", "", "directory for CSV and XLSX files (default: export.output_dir)")
	f.StringVar(&opts.clipboard, "clipboard", "", "auto, system, console or none (default: export.clipboard)")
	f.StringVar(&opts.formats, "formats", "", "comma separated html,text,csv,xlsx (default: export.formats)")
	return cmd
}

func runExport(ctx context.Context, root *rootOptions, opts *exportOptions) error {
	cfg, logger, err := root.load(func(c *config.Config) {
		if opts.out != "" {
			c.Export.OutputDir = opts.out
		}
		if opts.clipboard != "" {
			c.Export.Clipboard = opts.clipboard
		}
		if opts.formats != "" {
			c.Export.Formats = opts.formats
		}
	})
	if err != nil {
		return err
	}

	formats, err := exporter.ParseFormats(cfg.Export.Formats)
	if err != nil {
		return err
	}
	sinks, err := clipboardSinks(cfg.Export.Clipboard, cfg.Export.RichCopy, root.stdout)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		// Without a clipboard the table formats have nowhere to go.
		formats = slices.DeleteFunc(slices.Clone(formats), func(f exporter.Format) bool { return !f.IsFile() })
		if len(formats) == 0 {
			return errors.New("nothing to export: clipboard is off and no file format was selected")
		}
	}

	files := delivery.NewDirSink(cfg.Export.OutputDir, logger)
	svc, err := exportService(ctx, cfg, logger, services.ExportDeps{
		Formats:   formats,
		Clipboard: sinks,
		Files:     files,
		Notifier:  &notifier.WriterNotifier{W: root.stdout, Verbose: root.verbose},
	})
	if err != nil {
		return err
	}

	report, err := svc.Submit(ctx, services.Submission{
		StartDate: opts.start,
		EndDate:   opts.end,
		Center:    opts.center,
		Formats:   formats,
	})
	if err != nil {
		if report != nil {
			return fmt.Errorf("%w: %v", errReported, err)
		}
		return err
	}

	printSaved(root.stdout, report, files)
	return nil
}

// clipboardSinks builds the fallback chain for mode. auto tries the system
// clipboard and ends with the console block. rich lets the system clipboard
// take the HTML table.
func clipboardSinks(mode string, rich bool, stdout io.Writer) ([]delivery.ClipboardSink, error) {
	console := &delivery.ConsoleClipboard{W: stdout}

	switch mode {
	case config.ClipboardAuto:
		if sys, err := delivery.DetectClipboard(rich); err == nil {
			return []delivery.ClipboardSink{sys, console}, nil
		}
		return []delivery.ClipboardSink{console}, nil
	case config.ClipboardSystem:
		sys, err := delivery.DetectClipboard(rich)
		if err != nil {
			return nil, fmt.Errorf("no clipboard command found on PATH: %w", err)
		}
		return []delivery.ClipboardSink{sys}, nil
	case config.ClipboardConsole:
		return []delivery.ClipboardSink{console}, nil
	case config.ClipboardNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid clipboard mode: %q", mode)
	}
}

func printSaved(w io.Writer, report *services.Report, files *delivery.DirSink) {
	for _, f := range exporter.AllFormats {
		name, ok := report.FileNames[f]
		if !ok || slices.Contains(report.Outcome.Failed, name) {
			continue
		}
		fmt.Fprintf(w, "Saved %s\n", files.Path(name))
	}
}
