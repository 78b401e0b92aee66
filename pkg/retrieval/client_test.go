package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lumir-agentic-be/internal/pkg/logger"
	"lumir-agentic-be/pkg/httpx"
)

func testClient(cfg Config) *Client {
	return NewClient(cfg, httpx.New(httpx.ShortTimeouts(), httpx.WithRetries(0), httpx.WithBackoff(time.Millisecond)), logger.NewNop())
}

func TestEmbedReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["text"] == "" || req["model_name"] == "" {
			t.Error("embed request missing text or model_name")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{{"emb": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	c := testClient(Config{EmbeddingURL: srv.URL, ModelName: "test-embed"})
	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3-dim vector, got %d", len(vec))
	}
}

func TestEmbedEmptyBodyIsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(Config{EmbeddingURL: srv.URL})
	_, err := c.Embed(context.Background(), "hello")
	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
}

func TestSearchDegradesToEmptyOnFailure(t *testing.T) {
	c := testClient(Config{SearchURL: "http://127.0.0.1:1/search"})
	items := c.Search(context.Background(), []float32{0.1}, "s1", 5, nil)
	if len(items) != 0 {
		t.Errorf("search failure must yield empty results, got %d", len(items))
	}
}

func TestSearchMapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"chunk_id":         "c1",
					"document_id":      "d1",
					"document_title":   "Handbook",
					"chunk_text":       "some retrieved passage",
					"similarity_score": 0.87,
				},
			},
		})
	}))
	defer srv.Close()

	c := testClient(Config{SearchURL: srv.URL})
	items := c.Search(context.Background(), []float32{0.1}, "s1", 5, nil)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ID != "c1" || items[0].Score != 0.87 {
		t.Errorf("bad mapping: %+v", items[0])
	}
	if items[0].Metadata["document_title"] != "Handbook" {
		t.Errorf("document title should land in metadata, got %v", items[0].Metadata)
	}
}

func TestRerankMismatchedScoresKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"scores": []float64{0.9}})
	}))
	defer srv.Close()

	c := testClient(Config{RerankURL: srv.URL, RerankEnabled: true})
	items := []ContextItem{
		{ID: "a", Text: "first passage text"},
		{ID: "b", Text: "second passage text"},
	}
	out := c.Rerank(context.Background(), "query", items)
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("mismatched score count must keep input order, got [%s %s]", out[0].ID, out[1].ID)
	}
}

func TestRerankSortsDescendingStable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"scores": []float64{0.2, 0.8, 0.8}})
	}))
	defer srv.Close()

	c := testClient(Config{RerankURL: srv.URL, RerankEnabled: true})
	items := []ContextItem{
		{ID: "a", Text: "first"},
		{ID: "b", Text: "second"},
		{ID: "c", Text: "third"},
	}
	out := c.Rerank(context.Background(), "query", items)
	if out[0].ID != "b" || out[1].ID != "c" || out[2].ID != "a" {
		t.Errorf("expected [b c a], got [%s %s %s]", out[0].ID, out[1].ID, out[2].ID)
	}
	if out[0].Score != 0.8 {
		t.Errorf("rerank score should replace item score, got %f", out[0].Score)
	}
}

func TestRerankDisabledIsPassthrough(t *testing.T) {
	c := testClient(Config{RerankEnabled: false})
	items := []ContextItem{{ID: "a"}, {ID: "b"}}
	out := c.Rerank(context.Background(), "query", items)
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Error("disabled reranker must not touch ordering")
	}
}
