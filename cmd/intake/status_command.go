package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"intake/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				runningKind := statusOK
				if !resp.Running {
					runningKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Running", runningKind, yesNo(resp.Running), colorize))
				fmt.Fprintln(out, renderStatusLine("PID", statusInfo, strconv.Itoa(resp.PID), colorize))
				fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, resp.LockPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Socket", statusInfo, ctx.socketPath(), colorize))
				if resp.HistoryPath != "" {
					fmt.Fprintln(out, renderStatusLine("History", statusInfo, resp.HistoryPath, colorize))
				}
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := buildStatsRows(resp.Stats)
				if len(rows) == 0 {
					fmt.Fprintln(out, renderStatusLine("Queue", statusOK, "empty", colorize))
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, 1))
				fmt.Fprintln(out, renderStatusLine("Active", statusInfo, yesNo(resp.Stats.IsActive), colorize))
				fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%.0f%%", resp.Stats.OverallProgress), colorize))
				return nil
			})
		},
	}
}

func buildStatsRows(stats ipc.QueueStats) [][]string {
	if stats.Total == 0 {
		return nil
	}
	counts := []struct {
		label string
		count int
	}{
		{"pending", stats.Pending},
		{"uploading", stats.Uploading},
		{"classifying", stats.Classifying},
		{"processing", stats.Processing},
		{"completed", stats.Completed},
		{"failed", stats.Failed},
	}
	rows := make([][]string, 0, len(counts)+1)
	for _, entry := range counts {
		if entry.count == 0 {
			continue
		}
		rows = append(rows, []string{titleCase(entry.label), strconv.Itoa(entry.count)})
	}
	rows = append(rows, []string{"Total", strconv.Itoa(stats.Total)})
	return rows
}
