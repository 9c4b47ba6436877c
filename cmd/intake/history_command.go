package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"intake/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var claimFilter string
	var outcomeFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished ingest attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome := strings.ToLower(strings.TrimSpace(outcomeFilter))
			switch outcome {
			case "", "completed", "failed":
			default:
				return fmt.Errorf("unknown outcome %q (valid: completed, failed)", outcomeFilter)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(ipc.HistoryRequest{
					Claim:   strings.TrimSpace(claimFilter),
					Outcome: outcome,
					Limit:   limit,
				})
				if err != nil {
					return err
				}
				if len(resp.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history entries")
					return nil
				}
				table := renderTable(
					[]string{"Finished", "File", "Type", "Outcome", "Claim", "Retries", "Error"},
					buildHistoryRows(resp.Entries),
					5,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&claimFilter, "claim", "", "Only show entries for this claim number")
	cmd.Flags().StringVar(&outcomeFilter, "outcome", "", "Filter by outcome (completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to show")
	return cmd
}

func buildHistoryRows(entries []ipc.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.DocumentType,
			titleCase(entry.Outcome),
			entry.ClaimNumber,
			strconv.Itoa(entry.RetryCount),
			entry.ErrorMessage,
		})
	}
	return rows
}
