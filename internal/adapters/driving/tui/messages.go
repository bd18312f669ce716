package tui

import (
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Messages flow through the Elm architecture: commands run the driving
// ports off the UI goroutine and deliver one of these back to Update.

// AnswerReceived carries a completed answer back to the model.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// HistoryLoaded carries the stored conversation at startup.
type HistoryLoaded struct {
	Messages []domain.ChatMessage
	Err      error
}

// StatsLoaded carries the session stats shown in the header.
type StatsLoaded struct {
	Stats *domain.SessionStats
	Err   error
}
