package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"siphon/internal/export"
	"siphon/internal/ingest"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun bool
		limit  int
		settle int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest settled spool files into the warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			if settle >= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				cfg.Ingest.SettleSeconds = settle
			}
			return runIngest(ctx, cmd, ingest.Options{DryRun: dryRun, Limit: limit})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without writing events, manifests, or quarantine records")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum files to process this run (0 = unlimited)")
	cmd.Flags().IntVar(&settle, "settle", -1, "Override the settle window in seconds")
	return cmd
}

// runIngest drives one engine run and, when events actually landed, refreshes
// the derived outputs so analysts never query a stale dataset.
func runIngest(ctx *commandContext, cmd *cobra.Command, opts ingest.Options) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := ingest.New(cfg, st, logger)
	summary, runErr := engine.Run(cmd.Context(), opts)
	if runErr != nil && !errors.Is(runErr, ingest.ErrFilesAborted) {
		return runErr
	}

	printSummary(cmd, summary, opts.DryRun)

	if !opts.DryRun && summary.EventsIngested > 0 {
		if _, err := st.ApplyViews(cmd.Context(), ""); err != nil {
			return err
		}
		rows, err := export.Rebuild(cmd.Context(), st, cfg.SilverDir(), logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s rows to %s\n", formatCount(rows), cfg.SilverDir())
	}

	return runErr
}

func printSummary(cmd *cobra.Command, summary ingest.Summary, dryRun bool) {
	headers := []string{"Metric", "Count"}
	rows := [][]string{
		{"Files processed", formatCount(int64(summary.FilesProcessed))},
		{"Files skipped", formatCount(int64(summary.FilesSkipped))},
		{"Files aborted", formatCount(int64(summary.FilesAborted))},
		{"Events ingested", formatCount(int64(summary.EventsIngested))},
		{"Events duplicate", formatCount(int64(summary.EventsDuplicate))},
		{"Events quarantined", formatCount(int64(summary.EventsQuarantined))},
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, "Dry run; nothing was written.")
	}
	fmt.Fprintln(out, renderTable(headers, rows, 1))
}
