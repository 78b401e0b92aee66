package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"lumir-agentic-be/pkg/httpx"
)

// ChunkRecord is one embedded chunk ready for storage. ChunkID is derived
// deterministically so re-processing upserts instead of duplicating.
type ChunkRecord struct {
	ChunkID       string                 `json:"chunk_id"`
	DocumentID    string                 `json:"document_id"`
	DocumentTitle string                 `json:"document_title"`
	ChunkText     string                 `json:"chunk_text"`
	Vector        []float32              `json:"vector"`
	ChunkIndex    int                    `json:"chunk_index"`
	SessionID     string                 `json:"session_id"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// UploadResult summarizes one batched upload pass.
type UploadResult struct {
	Success           bool     `json:"success"`
	TotalChunks       int      `json:"total_chunks"`
	UploadedChunks    int      `json:"uploaded_chunks"`
	SuccessfulBatches int      `json:"successful_batches"`
	FailedBatches     int      `json:"failed_batches"`
	Errors            []string `json:"errors"`
}

// Uploader posts chunk batches to the chunk store.
type Uploader struct {
	baseURL string
	http    *httpx.Client
}

func NewUploader(baseURL string, client *httpx.Client) *Uploader {
	return &Uploader{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type uploadRequest struct {
	Chunks         []ChunkRecord `json:"chunks"`
	CollectionName string        `json:"collection_name"`
}

type uploadResponse struct {
	ChunksProcessed int `json:"chunks_processed"`
}

// UploadBatches posts chunks in groups of batchSize. A failed batch is
// recorded and the remaining batches still attempt; there is no early
// abort. Success means zero failed batches.
func (u *Uploader) UploadBatches(ctx context.Context, sessionID string, chunks []ChunkRecord, collection string, batchSize int) UploadResult {
	if batchSize <= 0 {
		batchSize = 8
	}

	result := UploadResult{TotalChunks: len(chunks)}
	endpoint := fmt.Sprintf("%s/api/v1/chunks/session/%s/chunks", u.baseURL, url.PathEscape(sessionID))

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batchNumber := start/batchSize + 1

		if err := u.uploadOne(ctx, endpoint, chunks[start:end], collection, &result); err != nil {
			result.FailedBatches++
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d failed: %v", batchNumber, err))
			continue
		}
		result.SuccessfulBatches++
	}

	result.Success = result.UploadedChunks > 0 && result.FailedBatches == 0
	return result
}

func (u *Uploader) uploadOne(ctx context.Context, endpoint string, batch []ChunkRecord, collection string, result *UploadResult) error {
	body, err := json.Marshal(uploadRequest{Chunks: batch, CollectionName: collection})
	if err != nil {
		return err
	}

	// Deterministic chunk ids make this POST safe to retry.
	resp, err := u.http.PostJSON(ctx, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Body was accepted; count the batch even if the ack is odd.
		result.UploadedChunks += len(batch)
		return nil
	}
	if parsed.ChunksProcessed > 0 {
		result.UploadedChunks += parsed.ChunksProcessed
	} else {
		result.UploadedChunks += len(batch)
	}
	return nil
}
