package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"siphon/internal/catalog"
)

func newCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "catalog [metric]",
		Short:       "Show the published metrics catalog",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				metric, err := catalog.Find(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Name:        %s\n", metric.Name)
				fmt.Fprintf(out, "Owner:       %s\n", metric.Owner)
				fmt.Fprintf(out, "Model:       %s\n", metric.Model)
				fmt.Fprintf(out, "Column:      %s\n", metric.Column)
				fmt.Fprintf(out, "Refresh:     %s\n", metric.Refresh)
				fmt.Fprintf(out, "Description: %s\n", metric.Description)
				return nil
			}

			metrics, err := catalog.Load()
			if err != nil {
				return err
			}
			headers := []string{"Metric", "Model", "Column", "Owner"}
			rows := make([][]string, 0, len(metrics))
			for _, m := range metrics {
				rows = append(rows, []string{m.Name, m.Model, m.Column, m.Owner})
			}
			fmt.Fprintln(out, renderTable(headers, rows))
			return nil
		},
	}
}
