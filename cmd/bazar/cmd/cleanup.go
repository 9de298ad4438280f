package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func CleanupCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete used or expired tokens and merge tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeApp(a)

			tokens, err := a.Store.Tokens.CleanupExpired(cmd.Context(), olderThan)
			if err != nil {
				return fmt.Errorf("failed to clean up tokens: %w", err)
			}

			tickets, err := a.Store.MergeTickets.CleanupExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clean up merge tickets: %w", err)
			}

			fmt.Printf("removed %d tokens and %d merge tickets\n", tokens, tickets)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Keep used tokens newer than this")
	return cmd
}
