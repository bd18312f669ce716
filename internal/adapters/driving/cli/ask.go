package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a natural-language question from the session's uploaded
documents, consulting live web search when the documents do not cover it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Regenerate the last answer",
	Long: `Re-answers the session's most recent question, replacing the previous
answer. Retrieval and generation run again from scratch.`,
	Args: cobra.NoArgs,
	RunE: runRegenerate,
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the session's conversation",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of messages")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(historyCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	answer, err := chatService.Ask(context.Background(), sessionID, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	return outputAnswer(cmd, answer)
}

func runRegenerate(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	answer, err := chatService.Regenerate(context.Background(), sessionID)
	if err != nil {
		return fmt.Errorf("regenerate failed: %w", err)
	}
	return outputAnswer(cmd, answer)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	messages, err := chatService.History(context.Background(), sessionID, historyLimit)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	if len(messages) == 0 {
		cmd.Println("No messages yet.")
		return nil
	}
	for _, msg := range messages {
		cmd.Printf("[%s] %s\n", msg.Role, msg.Content)
	}
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) error {
	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range answer.Sources {
			switch src.Kind {
			case domain.SourceWeb:
				cmd.Printf("  [%d] %s (%s)\n", i+1, src.Title, src.URL)
			default:
				cmd.Printf("  [%d] %s (%.2f)\n", i+1, src.Title, src.Score)
			}
		}
	}
	if !answer.Grounded {
		cmd.Println()
		cmd.Println("Note: answered from general knowledge; no uploaded document covers this.")
	}
	return nil
}
