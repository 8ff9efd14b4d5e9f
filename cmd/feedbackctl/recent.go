package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cxfeedback/internal/services"
)

func newRecentCmd(root *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the feedback of the last few days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecent(cmd.Context(), root, days)
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 0, "window in days (default: export.recent_days)")
	return cmd
}

func runRecent(ctx context.Context, root *rootOptions, days int) error {
	if days < 0 {
		return errors.New("days must be positive")
	}

	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	svc, err := exportService(ctx, cfg, logger, services.ExportDeps{})
	if err != nil {
		return err
	}

	report, err := svc.Recent(ctx, days)
	if err != nil {
		return err
	}

	fmt.Fprintf(root.stdout, "%s (%s to %s)\n", report.Message(), report.From, report.To)
	if len(report.Result.Rows) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(root.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(report.Result.Header, "\t"))
	for _, row := range report.Result.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
