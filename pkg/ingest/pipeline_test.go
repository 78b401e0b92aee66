package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumir-agentic-be/internal/pkg/logger"
	"lumir-agentic-be/pkg/httpx"
)

func newTestHTTPClient() *httpx.Client {
	return httpx.New(httpx.ShortTimeouts(), httpx.WithRetries(0), httpx.WithBackoff(time.Millisecond))
}

type staticEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  map[int]bool
}

func (e *staticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	call := e.calls
	e.calls++
	e.mu.Unlock()
	if e.fail[call] {
		return nil, fmt.Errorf("embedding service unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func TestValidateInputs(t *testing.T) {
	cases := []struct {
		name      string
		sessionID string
		docIDs    []string
		want      []string
		wantErr   bool
	}{
		{"missing session", "", []string{"a"}, nil, true},
		{"blank session", "  ", []string{"a"}, nil, true},
		{"no documents", "s1", nil, nil, true},
		{"only blanks", "s1", []string{"", "  "}, nil, true},
		{"dedupe and trim", "s1", []string{" a ", "b", "a", "b "}, []string{"a", "b"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateInputs(tc.sessionID, tc.docIDs)
			if tc.wantErr {
				require.Error(t, err)
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestChunkIDDeterministic(t *testing.T) {
	a := ChunkID("doc-1", 0, "hello world")
	b := ChunkID("doc-1", 0, "hello world")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, ChunkID("doc-1", 1, "hello world"))
	assert.NotEqual(t, a, ChunkID("doc-2", 0, "hello world"))

	// Only the first 50 characters of the text participate.
	long := strings.Repeat("y", 60)
	assert.Equal(t, ChunkID("d", 0, long), ChunkID("d", 0, long[:50]+"zzz"))

	// The cut counts characters, not bytes: 60 two-byte runes share the
	// id of their first 50 runes, and differ once rune 50 changes.
	viet := strings.Repeat("đ", 60)
	head := strings.Repeat("đ", 50)
	assert.Equal(t, ChunkID("d", 0, viet), ChunkID("d", 0, head+"xxx"))
	assert.NotEqual(t, ChunkID("d", 0, viet), ChunkID("d", 0, head[:len(head)-len("đ")]+"a"+"đđđ"))
}

func TestUploaderBatchingWithOneFailedBatch(t *testing.T) {
	var mu sync.Mutex
	var batchSizes []int
	request := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chunks/session/sess-1/chunks", r.URL.Path)

		var req struct {
			Chunks         []ChunkRecord `json:"chunks"`
			CollectionName string        `json:"collection_name"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "documents", req.CollectionName)

		mu.Lock()
		request++
		current := request
		batchSizes = append(batchSizes, len(req.Chunks))
		mu.Unlock()

		if current == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"chunks_processed": len(req.Chunks)})
	}))
	defer srv.Close()

	chunks := make([]ChunkRecord, 17)
	for i := range chunks {
		chunks[i] = ChunkRecord{ChunkID: fmt.Sprintf("c%d", i), ChunkIndex: i}
	}

	u := NewUploader(srv.URL, newTestHTTPClient())
	result := u.UploadBatches(context.Background(), "sess-1", chunks, "documents", 8)

	assert.Equal(t, []int{8, 8, 1}, batchSizes)
	assert.False(t, result.Success)
	assert.Equal(t, 17, result.TotalChunks)
	assert.Equal(t, 9, result.UploadedChunks)
	assert.Equal(t, 2, result.SuccessfulBatches)
	assert.Equal(t, 1, result.FailedBatches)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "batch 2")
}

func TestUploaderEmptyInput(t *testing.T) {
	u := NewUploader("http://unused", newTestHTTPClient())
	result := u.UploadBatches(context.Background(), "sess-1", nil, "documents", 8)

	assert.False(t, result.Success)
	assert.Zero(t, result.TotalChunks)
	assert.Zero(t, result.FailedBatches)
}

// documentFixture is served by the fake document service below.
type documentFixture struct {
	filename     string
	contentType  string
	content      string
	failDownload bool
}

func newDocumentServer(t *testing.T, docs map[string]documentFixture) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/documents/" {
			doc, ok := docs[r.URL.Query().Get("document_id")]
			if !ok {
				json.NewEncoder(w).Encode(map[string]interface{}{"documents": []interface{}{}})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"documents": []map[string]interface{}{{
					"filename":     doc.filename,
					"content_type": doc.contentType,
					"file_size":    len(doc.content),
				}},
			})
			return
		}

		if strings.HasSuffix(r.URL.Path, "/download") {
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/documents/"), "/download")
			doc, ok := docs[id]
			if !ok || doc.failDownload {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(doc.content))
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
}

func newTestPipeline(t *testing.T, docSrv, chunkSrv *httptest.Server, embedder Embedder) *Pipeline {
	t.Helper()
	client := newTestHTTPClient()
	p, err := NewPipeline(Config{
		DocumentAPIBase: docSrv.URL,
		ChunkAPIBase:    chunkSrv.URL,
		Collection:      "documents",
		ChunkSize:       100,
		ChunkOverlap:    20,
		BatchSize:       8,
		EmbedWorkers:    2,
	}, NewDocumentAPI(docSrv.URL, client, 1), NewUploader(chunkSrv.URL, client), embedder, logger.NewNop())
	require.NoError(t, err)
	return p
}

func TestPipelineIsolatesFailedDocument(t *testing.T) {
	docSrv := newDocumentServer(t, map[string]documentFixture{
		"doc-1": {filename: "intro.txt", contentType: "txt", content: "The first document body with enough text to chunk."},
		"doc-2": {filename: "broken.txt", contentType: "txt", content: "never served", failDownload: true},
		"doc-3": {filename: "outro.txt", contentType: "txt", content: "The third document body, also present and readable."},
	})
	defer docSrv.Close()

	var uploaded []ChunkRecord
	var mu sync.Mutex
	chunkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Chunks []ChunkRecord `json:"chunks"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		uploaded = append(uploaded, req.Chunks...)
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]int{"chunks_processed": len(req.Chunks)})
	}))
	defer chunkSrv.Close()

	p := newTestPipeline(t, docSrv, chunkSrv, &staticEmbedder{})
	result := p.ProcessDocuments(context.Background(), "sess-1", []string{"doc-1", "doc-2", "doc-3"})

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.DocumentsRequested)
	assert.Equal(t, 2, result.DocumentsProcessed)
	assert.Equal(t, 1, result.DocumentsFailed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "doc-2")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, uploaded)
	for _, c := range uploaded {
		assert.NotEqual(t, "doc-2", c.DocumentID)
		assert.Equal(t, "sess-1", c.SessionID)
		assert.NotEmpty(t, c.ChunkID)
		assert.NotEmpty(t, c.Vector)
	}
}

func TestPipelineRejectsMismatchedContentType(t *testing.T) {
	docSrv := newDocumentServer(t, map[string]documentFixture{
		"doc-1": {filename: "report.pdf", contentType: "txt", content: "plain body"},
	})
	defer docSrv.Close()

	chunkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no upload expected")
	}))
	defer chunkSrv.Close()

	p := newTestPipeline(t, docSrv, chunkSrv, &staticEmbedder{})
	result := p.ProcessDocuments(context.Background(), "sess-1", []string{"doc-1"})

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.DocumentsFailed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "content type")
}

func TestPipelineDropsOnlyFailedChunks(t *testing.T) {
	// A body long enough to split into several chunks.
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Sentence number %d carries some unique content. ", i)
	}

	docSrv := newDocumentServer(t, map[string]documentFixture{
		"doc-1": {filename: "long.txt", contentType: "txt", content: b.String()},
	})
	defer docSrv.Close()

	var uploadedTotal int
	var mu sync.Mutex
	chunkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Chunks []ChunkRecord `json:"chunks"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		uploadedTotal += len(req.Chunks)
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]int{"chunks_processed": len(req.Chunks)})
	}))
	defer chunkSrv.Close()

	embedder := &staticEmbedder{fail: map[int]bool{0: true}}
	p := newTestPipeline(t, docSrv, chunkSrv, embedder)
	result := p.ProcessDocuments(context.Background(), "sess-1", []string{"doc-1"})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.DocumentsProcessed)
	assert.Greater(t, result.TotalChunks, 0)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, result.TotalChunks, uploadedTotal)

	// One embedding call failed, so one chunk was dropped.
	assert.Equal(t, embedder.calls-1, result.TotalChunks)
}

func TestPipelineTimingAndStats(t *testing.T) {
	docSrv := newDocumentServer(t, map[string]documentFixture{
		"doc-1": {filename: "notes.txt", contentType: "txt", content: "short but valid body text"},
	})
	defer docSrv.Close()

	chunkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"chunks_processed": 1})
	}))
	defer chunkSrv.Close()

	p := newTestPipeline(t, docSrv, chunkSrv, &staticEmbedder{})
	result := p.ProcessDocuments(context.Background(), "sess-1", []string{"doc-1"})

	require.True(t, result.Success)
	for _, stage := range []string{StageValidation, StageDownload, StageLoading, StageChunking, StageEmbedding, StageUpload, "total"} {
		_, ok := result.Timing[stage]
		assert.True(t, ok, "missing timing stage %q", stage)
	}
	assert.Greater(t, result.Stats.ChunksPerSecond, 0.0)
	assert.Greater(t, result.Stats.AverageChunksPerDoc, 0.0)
}
