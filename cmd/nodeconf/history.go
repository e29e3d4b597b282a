package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func HistoryCmd(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cli.settings()
			if err != nil {
				return err
			}
			if settings.HistoryPath == "" {
				return fmt.Errorf("run history is disabled")
			}
			runs := cli.openStore(settings)
			defer runs.Close()

			list, err := runs.ListRuns(cli.V.GetInt("limit"))
			if err != nil {
				return err
			}
			writer := table.NewWriter()
			writer.AppendHeader(table.Row{"started", "id", "cidr", "role", "ports", "status", "detail"})
			for _, r := range list {
				ports := strings.Join(r.Ports, ",")
				if ports == "" {
					ports = "any"
				}
				writer.AppendRow(table.Row{r.StartedAt.Format(time.RFC3339), r.ID, r.CIDR, r.Role, ports, r.Status, r.Detail})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", writer.Render())
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "number of runs to show (0 for all)")
	return cmd
}
