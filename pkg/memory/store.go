// Package memory provides the conversation history store the orchestrator
// reads before a turn and appends to after one. The store is append-only;
// saving the same pair twice is acceptable.
package memory

import (
	"context"
	"time"
)

// Message is one stored conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the conversation memory contract.
type Store interface {
	// GetHistory returns prior turns oldest-first, empty for an unknown
	// session.
	GetHistory(ctx context.Context, userID, sessionID string, limit int) ([]Message, error)

	// SaveHistory appends one user/assistant pair.
	SaveHistory(ctx context.Context, userID, sessionID, userMessage, assistantMessage string) error
}
