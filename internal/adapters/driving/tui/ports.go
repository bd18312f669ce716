// Package tui provides the interactive chat terminal interface.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"errors"

	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions and manages conversation history.
	Chat driving.ChatService

	// Document manages the session's documents.
	Document driving.DocumentService

	// Ingest uploads new documents.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return errors.New("tui: ports not configured")
	}
	if p.Chat == nil {
		return errors.New("tui: chat service is required")
	}
	if p.Document == nil {
		return errors.New("tui: document service is required")
	}
	return nil
}
