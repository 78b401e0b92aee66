package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lumir-agentic-be/pkg/httpx"
)

// DocumentMetadata is the document service's description of one stored file.
type DocumentMetadata struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

// DocumentAPI fetches document metadata and raw content from the document
// management service.
type DocumentAPI struct {
	baseURL      string
	http         *httpx.Client
	maxDownloads int
	backoff      time.Duration
}

func NewDocumentAPI(baseURL string, client *httpx.Client, maxDownloadRetries int) *DocumentAPI {
	if maxDownloadRetries <= 0 {
		maxDownloadRetries = 3
	}
	return &DocumentAPI{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         client,
		maxDownloads: maxDownloadRetries,
		backoff:      500 * time.Millisecond,
	}
}

type metadataResponse struct {
	Documents []DocumentMetadata `json:"documents"`
}

// GetMetadata looks up one document's stored metadata.
func (a *DocumentAPI) GetMetadata(ctx context.Context, documentID string) (*DocumentMetadata, error) {
	u := fmt.Sprintf("%s/api/v1/documents/?document_id=%s", a.baseURL, url.QueryEscape(documentID))
	resp, err := a.http.Get(ctx, u)
	if err != nil {
		return nil, processingErr(documentID, "metadata", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, processingErr(documentID, "metadata", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, processingErr(documentID, "metadata", err)
	}
	if len(parsed.Documents) == 0 {
		return nil, processingErr(documentID, "metadata", fmt.Errorf("document not found"))
	}
	return &parsed.Documents[0], nil
}

// Download fetches metadata, verifies the content type matches the stored
// filename's extension, then streams the bytes to a file under tempDir.
// Transient failures retry with linear backoff; a zero-byte file is
// rejected as corrupt.
func (a *DocumentAPI) Download(ctx context.Context, documentID, tempDir string) (string, *DocumentMetadata, error) {
	meta, err := a.GetMetadata(ctx, documentID)
	if err != nil {
		return "", nil, err
	}

	filename := meta.Filename
	if filename == "" {
		filename = "document_" + documentID
	}
	if meta.ContentType == "" || !strings.HasSuffix(filename, "."+meta.ContentType) {
		return "", nil, processingErr(documentID, "download",
			fmt.Errorf("content type %q inconsistent with filename %q", meta.ContentType, filename))
	}

	target := filepath.Join(tempDir, documentID+"_"+filename)
	downloadURL := fmt.Sprintf("%s/api/v1/documents/%s/download", a.baseURL, url.PathEscape(documentID))

	var lastErr error
	for attempt := 1; attempt <= a.maxDownloads; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", nil, processingErr(documentID, "download", ctx.Err())
			case <-time.After(a.backoff * time.Duration(attempt-1)):
			}
		}

		if err := a.downloadOnce(ctx, downloadURL, target); err != nil {
			lastErr = err
			continue
		}
		return target, meta, nil
	}

	return "", nil, processingErr(documentID, "download",
		fmt.Errorf("exhausted %d attempts: %w", a.maxDownloads, lastErr))
}

func (a *DocumentAPI) downloadOnce(ctx context.Context, downloadURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return err
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	if written == 0 {
		return fmt.Errorf("empty file downloaded")
	}
	return nil
}
