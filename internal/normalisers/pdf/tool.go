package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers"
)

// Ensure ToolNormaliser implements the interface.
var _ driven.Normaliser = (*ToolNormaliser)(nil)

// CommandRunner executes an external command and returns its stdout.
// Extracted as an interface so tests can avoid requiring pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// ToolNormaliser extracts PDF text by shelling out to pdftotext.
// It is registered below the in-process parser and only runs when
// that parser fails.
type ToolNormaliser struct {
	runner CommandRunner
}

// NewTool creates a pdftotext-backed normaliser.
func NewTool() *ToolNormaliser {
	return &ToolNormaliser{runner: execRunner{}}
}

// NewToolWithRunner creates a pdftotext-backed normaliser with a custom runner.
func NewToolWithRunner(runner CommandRunner) *ToolNormaliser {
	return &ToolNormaliser{runner: runner}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *ToolNormaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *ToolNormaliser) Priority() int {
	return 5 // Fallback PDF strategy
}

// Normalise extracts text by writing the upload to a temp file and
// running pdftotext over it.
func (n *ToolNormaliser) Normalise(ctx context.Context, raw *domain.RawUpload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	tmp, err := os.CreateTemp("", "docchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	// "-" sends extracted text to stdout.
	out, err := n.runner.Run(ctx, "pdftotext", filepath.Clean(tmp.Name()), "-")
	if err != nil {
		return nil, fmt.Errorf("run pdftotext: %w", err)
	}

	text := normalisers.CleanText(string(out))
	if text == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Filename)
	}

	return &driven.NormaliseResult{Text: text}, nil
}
