package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"siphon/internal/ingest"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var (
		startFlag string
		endFlag   string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Re-ingest spool files whose mtime falls inside a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDay(startFlag, "--start")
			if err != nil {
				return err
			}
			end, err := parseDay(endFlag, "--end")
			if err != nil {
				return err
			}

			// The date window always bounds the candidate set; --force only
			// widens what happens inside it.
			return runIngest(ctx, cmd, ingest.Options{
				Force:    force,
				Backfill: &ingest.DateRange{Start: start, End: end},
			})
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "Last day of the range (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-ingest files in the range even when the manifest already covers them")
	return cmd
}

func parseDay(value, flag string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%s is required (YYYY-MM-DD)", flag)
	}
	day, err := time.ParseInLocation("2006-01-02", trimmed, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not a YYYY-MM-DD date", flag, trimmed)
	}
	return day, nil
}
