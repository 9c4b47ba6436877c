package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"intake/internal/ipc"
	"intake/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var docType string
	var claimID string
	var claimNumber string

	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Queue documents for upload to the claims pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := queue.ParseDocumentType(docType)
			if !ok {
				return fmt.Errorf("unknown document type %q (valid: fnol, policy, endorsement, photo, estimate, auto)", docType)
			}

			paths := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(strings.TrimSpace(arg))
				if err != nil {
					return fmt.Errorf("resolve path %q: %w", arg, err)
				}
				paths = append(paths, abs)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Enqueue(ipc.EnqueueRequest{
					Paths:        paths,
					DocumentType: string(parsed),
					ClaimID:      strings.TrimSpace(claimID),
					ClaimNumber:  strings.TrimSpace(claimNumber),
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, id := range resp.IDs {
					fmt.Fprintf(out, "Queued %s (%s)\n", filepath.Base(paths[i]), shortID(id))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", string(queue.DocumentAuto), "Document type (fnol, policy, endorsement, photo, estimate, auto)")
	cmd.Flags().StringVar(&claimID, "claim-id", "", "Claim identifier to associate with the documents")
	cmd.Flags().StringVar(&claimNumber, "claim-number", "", "Human-readable claim number")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
