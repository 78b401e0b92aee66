package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_TURN_SAVED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type codes published on the bus.
const (
	TypeChatTurnSaved      = "CHAT_TURN_SAVED"
	TypeIngestionCompleted = "INGESTION_COMPLETED"
	TypeIngestionFailed    = "INGESTION_FAILED"
)

// BaseEvent is the common implementation behind the typed constructors.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewChatTurnSaved fires after one Q/A pair is persisted.
func NewChatTurnSaved(userID, sessionID string) Event {
	return BaseEvent{
		Type: TypeChatTurnSaved,
		Data: map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
		},
		OccurredAt: time.Now(),
	}
}

// NewIngestionCompleted fires when an ingestion job finishes successfully.
func NewIngestionCompleted(jobID, sessionID string, documents, chunks int) Event {
	return BaseEvent{
		Type: TypeIngestionCompleted,
		Data: map[string]interface{}{
			"job_id":     jobID,
			"session_id": sessionID,
			"documents":  documents,
			"chunks":     chunks,
		},
		OccurredAt: time.Now(),
	}
}

// NewIngestionFailed fires when an ingestion job ends without success.
func NewIngestionFailed(jobID, sessionID, reason string) Event {
	return BaseEvent{
		Type: TypeIngestionFailed,
		Data: map[string]interface{}{
			"job_id":     jobID,
			"session_id": sessionID,
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}
