package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage the session's documents",
	Long:  `List, enable, disable or delete the session's indexed documents.`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsEnableCmd = &cobra.Command{
	Use:   "enable [doc-id]",
	Short: "Include a document in retrieval",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsEnable,
}

var docsDisableCmd = &cobra.Command{
	Use:   "disable [doc-id]",
	Short: "Exclude a document from retrieval",
	Long: `Excludes a document from question answering without deleting it.
The document keeps its index entries and can be re-enabled at any time.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsDisable,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsEnableCmd)
	docsCmd.AddCommand(docsDisableCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in session %q. Use 'docchat upload' to add some.\n", sessionID)
		return nil
	}

	cmd.Printf("Documents in session %q:\n\n", sessionID)
	for _, doc := range docs {
		state := "active"
		if !doc.Active {
			state = "disabled"
		}
		cmd.Printf("  %s  %s (%d chunks, %d bytes, %s)\n",
			doc.ID, doc.Filename, doc.ChunkCount, doc.ByteSize, state)
	}
	return nil
}

func runDocsEnable(cmd *cobra.Command, args []string) error {
	return setDocumentActive(cmd, args[0], true)
}

func runDocsDisable(cmd *cobra.Command, args []string) error {
	return setDocumentActive(cmd, args[0], false)
}

func setDocumentActive(cmd *cobra.Command, documentID string, active bool) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.SetActive(context.Background(), sessionID, documentID, active); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if active {
		cmd.Printf("Document %s enabled.\n", documentID)
	} else {
		cmd.Printf("Document %s disabled. Re-enable with 'docchat docs enable %s'.\n", documentID, documentID)
	}
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	remaining, err := documentService.Delete(context.Background(), sessionID, args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document deleted. %d remaining in session %q.\n", remaining, sessionID)
	return nil
}
