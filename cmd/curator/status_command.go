package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				renderStatus(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}

func renderStatus(cmd *cobra.Command, resp *ipc.StatusResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	runningKind := statusOK
	if !resp.Running {
		runningKind = statusError
	}
	fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, yesNo(resp.Running), colorize))
	fmt.Fprintln(stdout, renderStatusLine("PID", statusInfo, strconv.Itoa(resp.PID), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Config", statusInfo, resp.ConfigPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Audit DB", statusInfo, resp.AuditDBPath, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Engine", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Workers", statusInfo, strconv.Itoa(resp.Workers), colorize))
	throttleKind := statusOK
	if resp.Throttled {
		throttleKind = statusWarn
	}
	fmt.Fprintln(stdout, renderStatusLine("Throttled", throttleKind, yesNo(resp.Throttled), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Queue", statusInfo,
		fmt.Sprintf("%d / %d", resp.QueueDepth, resp.QueueCapacity), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Indexed hashes", statusInfo, strconv.Itoa(resp.IndexedHashes), colorize))
	fmt.Fprintln(stdout, renderStatusLine("CPU", statusInfo,
		fmt.Sprintf("%.1f%%", resp.Health.CPUPercent), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Memory", statusInfo,
		humanize.IBytes(uint64(resp.Health.RSSBytes)), colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Watches", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if len(resp.Watches) == 0 {
		fmt.Fprintln(stdout, "No watches configured")
	} else {
		fmt.Fprintln(stdout, renderTable(
			[]string{"ID", "Path", "Recursive", "State", "Events", "Last Error"},
			watchRows(resp.Watches),
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Operations", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := stateRows(resp.States)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No operations processed yet")
		return
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"State", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}

func watchRows(watches []ipc.WatchStatus) [][]string {
	rows := make([][]string, 0, len(watches))
	for _, w := range watches {
		rows = append(rows, []string{
			w.WatchID,
			w.Path,
			yesNo(w.Recursive),
			w.State,
			strconv.FormatUint(w.EventsSeen, 10),
			w.LastError,
		})
	}
	return rows
}

func stateRows(states map[string]int) [][]string {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(states[name])})
	}
	return rows
}
