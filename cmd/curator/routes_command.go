package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/ipc"
)

func newRoutesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show the active routing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Routes()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Routes) == 0 {
					fmt.Fprintln(stdout, "No routes configured")
					return nil
				}

				rows := make([][]string, 0, len(resp.Routes))
				for _, route := range resp.Routes {
					rows = append(rows, []string{
						strings.Join(route.Extensions, ", "),
						route.Category,
						route.Destination,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Extensions", "Category", "Destination"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				if resp.DefaultCategory != "" {
					fmt.Fprintf(stdout, "Unrouted files fall back to category %q\n", resp.DefaultCategory)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit routes as JSON")
	return cmd
}
