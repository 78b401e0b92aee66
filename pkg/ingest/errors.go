package ingest

import "fmt"

// ProcessingError marks a failure scoped to one document or stage. The
// pipeline records it and moves on to the next unit of work.
type ProcessingError struct {
	DocumentID string
	Stage      string
	Err        error
}

func (e *ProcessingError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("%s failed for document %s: %v", e.Stage, e.DocumentID, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func processingErr(documentID, stage string, err error) *ProcessingError {
	return &ProcessingError{DocumentID: documentID, Stage: stage, Err: err}
}

// ValidationError marks a caller contract violation. It fails the run
// immediately instead of degrading.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid pipeline input: " + e.Reason
}
