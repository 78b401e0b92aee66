package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lumir-agentic-be/internal/pkg/logger"
)

// Embedder turns chunk text into a vector. retrieval.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds everything one pipeline run needs.
type Config struct {
	DocumentAPIBase string
	ChunkAPIBase    string
	Collection      string
	ChunkSize       int
	ChunkOverlap    int
	BatchSize       int
	EmbedWorkers    int
}

func (c Config) validate() error {
	if c.DocumentAPIBase == "" {
		return &ValidationError{Reason: "document api base url is required"}
	}
	if c.ChunkAPIBase == "" {
		return &ValidationError{Reason: "chunk api base url is required"}
	}
	return nil
}

// Result is the outcome of one ProcessDocuments call.
type Result struct {
	Success            bool              `json:"success"`
	SessionID          string            `json:"session_id"`
	DocumentsRequested int               `json:"documents_requested"`
	DocumentsProcessed int               `json:"documents_processed"`
	DocumentsFailed    int               `json:"documents_failed"`
	TotalChunks        int               `json:"total_chunks"`
	UploadedChunks     int               `json:"uploaded_chunks"`
	Errors             []string          `json:"errors"`
	Timing             map[string]float64 `json:"timing"`
	Stats              PerformanceStats  `json:"performance_stats"`
}

// Pipeline ingests documents for a session: download, load, split, embed
// and upload. Each document is isolated so one bad file never sinks the run.
type Pipeline struct {
	cfg      Config
	docs     *DocumentAPI
	uploader *Uploader
	splitter *RecursiveSplitter
	embedder Embedder
	log      logger.ILogger
}

func NewPipeline(cfg Config, docs *DocumentAPI, uploader *Uploader, embedder Embedder, log logger.ILogger) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 100
	}
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = 4
	}
	return &Pipeline{
		cfg:      cfg,
		docs:     docs,
		uploader: uploader,
		splitter: NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder: embedder,
		log:      log,
	}, nil
}

// ValidateInputs normalizes the request before any network work: the
// session id must be set and document ids are trimmed and de-duplicated.
func ValidateInputs(sessionID string, documentIDs []string) ([]string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, &ValidationError{Reason: "session_id is required"}
	}
	seen := make(map[string]bool, len(documentIDs))
	cleaned := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		cleaned = append(cleaned, id)
	}
	if len(cleaned) == 0 {
		return nil, &ValidationError{Reason: "at least one document_id is required"}
	}
	return cleaned, nil
}

// ChunkID derives a stable id from the document, position and a text
// prefix, so the same content always maps to the same stored chunk. The
// prefix is cut at 50 characters, not bytes, so multi-byte text is never
// split mid-rune.
func ChunkID(documentID string, index int, text string) string {
	prefix := text
	if runes := []rune(prefix); len(runes) > 50 {
		prefix = string(runes[:50])
	}
	name := fmt.Sprintf("%s_%d_%s", documentID, index, prefix)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// ProcessDocuments runs the full pipeline for one session.
func (p *Pipeline) ProcessDocuments(ctx context.Context, sessionID string, documentIDs []string) Result {
	metrics := NewTimingMetrics()
	result := Result{SessionID: sessionID, DocumentsRequested: len(documentIDs)}

	metrics.Start(StageValidation)
	cleaned, err := ValidateInputs(sessionID, documentIDs)
	metrics.End(StageValidation)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Timing = metrics.Summary()
		return result
	}
	result.DocumentsRequested = len(cleaned)

	tempDir, err := os.MkdirTemp("", "ingest_"+sessionID+"_")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("temp dir: %v", err))
		result.Timing = metrics.Summary()
		return result
	}
	defer os.RemoveAll(tempDir)

	var allChunks []ChunkRecord
	var totalBytes int64

	for _, docID := range cleaned {
		chunks, size, err := p.processOne(ctx, sessionID, docID, tempDir, metrics)
		if err != nil {
			result.DocumentsFailed++
			result.Errors = append(result.Errors, err.Error())
			p.log.Warn("ingest", "document failed", map[string]interface{}{
				"document_id": docID,
				"error":       err.Error(),
			})
			continue
		}
		result.DocumentsProcessed++
		totalBytes += size
		allChunks = append(allChunks, chunks...)
	}

	result.TotalChunks = len(allChunks)

	if len(allChunks) > 0 {
		metrics.Start(StageUpload)
		upload := p.uploader.UploadBatches(ctx, sessionID, allChunks, p.cfg.Collection, p.cfg.BatchSize)
		metrics.End(StageUpload)

		result.UploadedChunks = upload.UploadedChunks
		result.Errors = append(result.Errors, upload.Errors...)
		result.Success = upload.Success && result.DocumentsProcessed > 0
	}

	metrics.Finish()
	result.Timing = metrics.Summary()
	result.Stats = computeStats(metrics, result.TotalChunks, result.DocumentsProcessed, totalBytes)
	return result
}

func (p *Pipeline) processOne(ctx context.Context, sessionID, docID, tempDir string, metrics *TimingMetrics) ([]ChunkRecord, int64, error) {
	metrics.Start(StageDownload)
	filePath, meta, err := p.docs.Download(ctx, docID, tempDir)
	metrics.End(StageDownload)
	if err != nil {
		return nil, 0, processingErr(docID, StageDownload, err)
	}

	metrics.Start(StageLoading)
	text, err := p.loadDocument(filePath, meta.ContentType)
	metrics.End(StageLoading)
	if err != nil {
		return nil, 0, processingErr(docID, StageLoading, err)
	}

	metrics.Start(StageChunking)
	parts := p.splitter.Split(text)
	metrics.End(StageChunking)
	if len(parts) == 0 {
		return nil, 0, processingErr(docID, StageChunking, fmt.Errorf("no chunks produced"))
	}

	metrics.Start(StageEmbedding)
	chunks := p.embedChunks(ctx, sessionID, docID, meta, parts)
	metrics.End(StageEmbedding)
	if len(chunks) == 0 {
		return nil, 0, processingErr(docID, StageEmbedding, fmt.Errorf("all %d chunks failed to embed", len(parts)))
	}

	return chunks, meta.FileSize, nil
}

func (p *Pipeline) loadDocument(filePath, contentType string) (string, error) {
	loader, err := GetLoader(contentType)
	if err != nil {
		return "", err
	}
	return loader.Load(filePath)
}

// embedChunks runs a bounded worker pool over the chunk texts. Output
// order follows chunk index regardless of which worker finishes first;
// a failed embedding drops only its own chunk.
func (p *Pipeline) embedChunks(ctx context.Context, sessionID, docID string, meta *DocumentMetadata, parts []string) []ChunkRecord {
	type slot struct {
		record ChunkRecord
		ok     bool
	}

	slots := make([]slot, len(parts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.EmbedWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vector, err := p.embedder.Embed(ctx, parts[i])
				if err != nil {
					p.log.Warn("ingest", "chunk embedding failed", map[string]interface{}{
						"document_id": docID,
						"chunk_index": i,
						"error":       err.Error(),
					})
					continue
				}
				slots[i] = slot{ok: true, record: ChunkRecord{
					ChunkID:       ChunkID(docID, i, parts[i]),
					DocumentID:    docID,
					DocumentTitle: meta.Filename,
					ChunkText:     parts[i],
					Vector:        vector,
					ChunkIndex:    i,
					SessionID:     sessionID,
					Metadata: map[string]interface{}{
						"chunk_length":      len(parts[i]),
						"original_filename": meta.Filename,
						"content_type":      meta.ContentType,
						"file_size":         meta.FileSize,
					},
				}}
			}
		}()
	}

	for i := range parts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	chunks := make([]ChunkRecord, 0, len(parts))
	for _, s := range slots {
		if s.ok {
			chunks = append(chunks, s.record)
		}
	}
	return chunks
}
