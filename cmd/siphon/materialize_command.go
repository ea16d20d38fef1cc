package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"siphon/internal/export"
)

func newMaterializeCommand(ctx *commandContext) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Refresh the silver and gold views and rebuild the parquet dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			applied, err := st.ApplyViews(cmd.Context(), model)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d view(s)\n", applied)

			// A single-model refresh leaves the parquet dataset alone; the
			// dataset always reflects the whole store.
			if model != "" {
				return nil
			}

			rows, err := export.Rebuild(cmd.Context(), st, cfg.SilverDir(), logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Exported %s rows to %s\n", formatCount(rows), cfg.SilverDir())
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Refresh a single view by name instead of all of them")
	return cmd
}
