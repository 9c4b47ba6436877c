package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"intake/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the ingest queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				rows := buildStatsRows(resp.Stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, 1))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var claimFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(ipc.QueueListRequest{Claim: strings.TrimSpace(claimFilter)})
				if err != nil {
					return err
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "File", "Type", "Status", "Progress", "Claim", "Error"},
					buildQueueRows(resp.Items),
					4,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&claimFilter, "claim", "", "Only show documents for this claim id or claim number")
	return cmd
}

func buildQueueRows(items []ipc.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		claim := item.ClaimNumber
		if claim == "" {
			claim = item.ClaimID
		}
		rows = append(rows, []string{
			shortID(item.ID),
			item.FileName,
			item.DocumentType,
			titleCase(item.Status),
			formatItemProgress(item),
			claim,
			item.ErrorMessage,
		})
	}
	return rows
}

func formatItemProgress(item ipc.QueueItem) string {
	switch item.Status {
	case "uploading":
		return strconv.Itoa(item.UploadProgress) + "%"
	case "processing":
		progress := fmt.Sprintf("%.0f%%", item.ProcessPercent)
		if item.ProcessStage != "" {
			progress += " " + item.ProcessStage
		}
		return progress
	case "completed":
		return "100%"
	default:
		return ""
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var retryAll bool

	cmd := &cobra.Command{
		Use:   "retry [id]",
		Short: "Re-admit failed documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if retryAll == (len(args) == 1) {
				return errors.New("provide exactly one of an item id or --all")
			}
			var id string
			if len(args) == 1 {
				id = strings.TrimSpace(args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRetry(id)
				if err != nil {
					return err
				}
				switch resp.Updated {
				case 0:
					fmt.Fprintln(cmd.OutOrStdout(), "No failed documents to retry")
				case 1:
					fmt.Fprintln(cmd.OutOrStdout(), "Retrying 1 document")
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Retrying %d documents\n", resp.Updated)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&retryAll, "all", false, "Retry every failed document")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a document from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRemove(id)
				if err != nil {
					return err
				}
				if !resp.Removed {
					return fmt.Errorf("no queue entry with id %s", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", shortID(id))
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "clear [completed|failed|all]",
		Short:     "Remove finished documents from the queue",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"completed", "failed", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := "completed"
			if len(args) == 1 {
				scope = strings.ToLower(strings.TrimSpace(args[0]))
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClear(scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", resp.Removed)
				return nil
			})
		},
	}
}
