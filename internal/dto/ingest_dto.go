package dto

import "lumir-agentic-be/pkg/ingest"

type IngestDocumentsRequest struct {
	SessionID   string   `json:"session_id" validate:"required"`
	DocumentIDs []string `json:"document_ids" validate:"required,min=1"`
}

type IngestDocumentsResponse struct {
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type IngestJobResponse struct {
	JobID     string         `json:"job_id"`
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	Result    *ingest.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// IngestJobMessage is the payload published to the ingest topic.
type IngestJobMessage struct {
	JobID       string   `json:"job_id"`
	SessionID   string   `json:"session_id"`
	DocumentIDs []string `json:"document_ids"`
}
