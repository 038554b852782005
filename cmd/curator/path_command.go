package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/ipc"
)

func newPathCommand(ctx *commandContext) *cobra.Command {
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Path utilities",
	}

	var asJSON bool
	testCmd := &cobra.Command{
		Use:   "test <path>",
		Short: "Resolve and probe a destination path or template without moving anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PathTest(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Report)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				report := resp.Report

				fmt.Fprintln(stdout, renderStatusLine("Input", statusInfo, report.Input, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Resolved", statusInfo, report.Resolved, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Format", statusInfo, report.Format, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Exists", boolKind(report.Exists), yesNo(report.Exists), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Directory", statusInfo, yesNo(report.IsDir), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Readable", boolKind(report.Readable), yesNo(report.Readable), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Writable", boolKind(report.Writable), yesNo(report.Writable), colorize))
				return nil
			})
		},
	}
	testCmd.Flags().BoolVar(&asJSON, "json", false, "Emit the probe report as JSON")

	pathCmd.AddCommand(testCmd)
	return pathCmd
}

func boolKind(value bool) statusKind {
	if value {
		return statusOK
	}
	return statusWarn
}
