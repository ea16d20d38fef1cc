package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"siphon/internal/doctor"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var check string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run warehouse health checks",
		Long: "Run warehouse health checks.\n\nExit code 0 when every check passes, " +
			"1 when the worst verdict is a warning, 2 when any check fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			results, err := doctor.Run(cmd.Context(), st, time.Now().UTC(), strings.TrimSpace(check))
			if err != nil {
				return err
			}

			headers := []string{"Check", "Status", "Message", "Hint"}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, r.Status.String(), r.Message, r.Hint})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows))

			switch doctor.Worst(results) {
			case doctor.StatusFail:
				return &exitCodeError{code: 2, message: "health checks failed"}
			case doctor.StatusWarn:
				return &exitCodeError{code: 1, message: "health checks reported warnings"}
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&check, "check", "", "Run a single check ("+strings.Join(doctor.Names(), ", ")+")")
	return cmd
}
