package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// version is set via SetVersion at startup.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	ingestService   driving.IngestService
	documentService driving.DocumentService
	chatService     driving.ChatService
	settingsService driving.SettingsService
)

// Persistent flags.
var (
	verbose   bool
	sessionID string
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `DocChat answers natural-language questions from the documents you
upload, falling back to live web search when the documents do not cover
the question.

Upload documents, then ask away:

  docchat upload report.pdf
  docchat ask "What does the report conclude?"

All state is scoped to a session (--session), so separate projects can
keep separate document sets and conversations.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "default", "session to operate on")
}

// Services groups the driving ports the CLI depends on.
type Services struct {
	Ingest   driving.IngestService
	Document driving.DocumentService
	Chat     driving.ChatService
	Settings driving.SettingsService
}

// SetServices injects the driving ports. Must be called before Execute.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	ingestService = s.Ingest
	documentService = s.Document
	chatService = s.Chat
	settingsService = s.Settings
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
