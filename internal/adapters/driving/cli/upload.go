package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload and index documents",
	Long: `Extracts text from the given files, chunks and embeds it, and adds
the result to the session's searchable index.

Supported formats: PDF, DOCX, Markdown, HTML and plain text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	var failed int

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}

		receipt, err := ingestService.Upload(ctx, sessionID, &domain.RawUpload{
			Filename: filepath.Base(path),
			Content:  content,
		})
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}

		cmd.Printf("  %s: indexed (%d chunks, id %s)\n", path, receipt.ChunkCount, receipt.DocumentID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}
