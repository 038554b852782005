package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/ipc"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	auditCmd.AddCommand(newAuditListCommand(ctx))
	auditCmd.AddCommand(newAuditHistoryCommand(ctx))
	auditCmd.AddCommand(newAuditPruneCommand(ctx))
	return auditCmd
}

func newAuditHistoryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <operation-id>",
		Short: "Show every audit entry for one operation, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AuditHistory(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(stdout, "No entries for that operation")
					return nil
				}
				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, []string{
						humanize.Time(entry.RecordedAt),
						string(entry.Outcome),
						entry.DestinationPath,
						strconv.Itoa(entry.Attempt),
						entry.Reason,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"When", "Outcome", "Destination", "Attempt", "Reason"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit entries as JSON")
	return cmd
}

func newAuditListCommand(ctx *commandContext) *cobra.Command {
	var outcome string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AuditList(ipc.AuditListRequest{
					Outcome: outcome,
					Limit:   limit,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(stdout, "No audit entries")
					return nil
				}

				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, []string{
						humanize.Time(entry.RecordedAt),
						string(entry.Outcome),
						entry.SourcePath,
						entry.DestinationPath,
						strconv.Itoa(entry.Attempt),
						entry.Reason,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"When", "Outcome", "Source", "Destination", "Attempt", "Reason"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "", "Filter by outcome (succeeded, failed, retried, skipped, interrupted)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to return (default 100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit entries as JSON")
	return cmd
}

func newAuditPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove audit entries older than the configured retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AuditPrune()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d audit entries\n", resp.Removed)
				return nil
			})
		},
	}
}
