package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat interface",
	Long: `Launch the interactive terminal chat for the session.

Controls:
  Enter   - Ask the typed question
  Ctrl+R  - Regenerate the last answer
  Esc     - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat UI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Chat:     chatService,
		Document: documentService,
		Ingest:   ingestService,
	}

	app, err := tui.NewApp(ports, sessionID)
	if err != nil {
		return fmt.Errorf("failed to create chat UI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
