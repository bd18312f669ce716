package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var clearCmd = &cobra.Command{
	Use:       "clear [documents|chat|all]",
	Short:     "Clear session data",
	Long:      `Removes the session's documents, its chat history, or both.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"documents", "chat", "all"},
	RunE:      runClear,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Stats(context.Background(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Session %q\n", sessionID)
	cmd.Printf("  Documents: %d (%d active)\n", stats.Documents, stats.ActiveDocuments)
	cmd.Printf("  Chunks:    %d\n", stats.Chunks)
	cmd.Printf("  Bytes:     %d\n", stats.Bytes)
	cmd.Printf("  Messages:  %d\n", stats.Messages)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	scope := args[0]
	if err := documentService.Clear(context.Background(), sessionID, scope); err != nil {
		return fmt.Errorf("failed to clear %s: %w", scope, err)
	}

	cmd.Printf("Cleared %s for session %q.\n", scope, sessionID)
	return nil
}
