package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/ipc"
)

func newWatchesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watches",
		Short: "Show per-folder watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Watches()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Watches) == 0 {
					fmt.Fprintln(stdout, "No watches configured")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Path", "Recursive", "State", "Events", "Last Error"},
					watchRows(resp.Watches),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit watches as JSON")
	return cmd
}
