package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data-root layout and the warehouse schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data root initialized at %s\n", cfg.Paths.DataRoot)
			fmt.Fprintf(out, "Warehouse database: %s\n", st.Path())
			return nil
		},
	}
}
