package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/ipc"
)

func newTargetCommand(ctx *commandContext) *cobra.Command {
	targetCmd := &cobra.Command{
		Use:   "target",
		Short: "Network target utilities",
	}

	var asJSON bool
	testCmd := &cobra.Command{
		Use:   "test <name>",
		Short: "Probe a configured network target for reachability, latency, and free space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TargetTest(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Report)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				report := resp.Report

				fmt.Fprintln(stdout, renderStatusLine("Target", statusInfo, report.Target, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Path", statusInfo, report.Path, colorize))
				if report.Resolved != "" {
					fmt.Fprintln(stdout, renderStatusLine("Resolved", statusInfo, report.Resolved, colorize))
				}
				if report.Format != "" {
					fmt.Fprintln(stdout, renderStatusLine("Format", statusInfo, report.Format, colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Reachable", boolKind(report.Reachable), yesNo(report.Reachable), colorize))
				if report.Reachable {
					fmt.Fprintln(stdout, renderStatusLine("Latency", statusInfo,
						fmt.Sprintf("%.1f ms", report.LatencyMS), colorize))
					fmt.Fprintln(stdout, renderStatusLine("Free space", statusInfo,
						fmt.Sprintf("%s of %s", humanize.IBytes(report.FreeBytes), humanize.IBytes(report.TotalBytes)), colorize))
					fmt.Fprintln(stdout, renderStatusLine("Writable", boolKind(report.Writable), yesNo(report.Writable), colorize))
				}
				if report.Error != "" {
					fmt.Fprintln(stdout, renderStatusLine("Error", statusError, report.Error, colorize))
				}
				return nil
			})
		},
	}
	testCmd.Flags().BoolVar(&asJSON, "json", false, "Emit the probe report as JSON")

	targetCmd.AddCommand(testCmd)
	return targetCmd
}
