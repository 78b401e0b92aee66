package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"lumir-agentic-be/internal/pkg/logger"
	"lumir-agentic-be/pkg/httpx"
)

// ContextItem is one retrieved and scored text unit used to ground generation.
type ContextItem struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Source   string                 `json:"source"`
}

// EmbeddingError signals an empty or malformed embedding response.
type EmbeddingError struct {
	Endpoint string
	Reason   string
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed against %s: %s", e.Endpoint, e.Reason)
}

// Config holds the remote service endpoints and knobs for one client.
type Config struct {
	EmbeddingURL  string
	SearchURL     string
	RerankURL     string
	ModelName     string
	Collection    string
	RerankEnabled bool
}

// Client talks to the embedding, vector search and rerank services.
// Retries live in the shared HTTP layer; this component only shapes
// requests and applies the degrade policies.
type Client struct {
	cfg  Config
	http *httpx.Client
	log  logger.ILogger
}

func NewClient(cfg Config, http *httpx.Client, log logger.ILogger) *Client {
	return &Client{cfg: cfg, http: http, log: log}
}

type embedRequest struct {
	Text      string `json:"text"`
	ModelName string `json:"model_name"`
}

type embedResponse struct {
	Results []struct {
		Emb []float32 `json:"emb"`
	} `json:"results"`
}

// Embed turns text into a vector. An empty or malformed response body is a
// hard failure since nothing downstream can work without the vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Text: text, ModelName: c.cfg.ModelName})
	if err != nil {
		return nil, err
	}

	resp, err := c.http.PostJSON(ctx, c.cfg.EmbeddingURL, body)
	if err != nil {
		return nil, &EmbeddingError{Endpoint: c.cfg.EmbeddingURL, Reason: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EmbeddingError{Endpoint: c.cfg.EmbeddingURL, Reason: err.Error()}
	}
	if len(raw) == 0 {
		return nil, &EmbeddingError{Endpoint: c.cfg.EmbeddingURL, Reason: "empty response body"}
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &EmbeddingError{Endpoint: c.cfg.EmbeddingURL, Reason: "malformed response: " + err.Error()}
	}
	if len(parsed.Results) == 0 || len(parsed.Results[0].Emb) == 0 {
		return nil, &EmbeddingError{Endpoint: c.cfg.EmbeddingURL, Reason: "no embedding in response"}
	}

	return parsed.Results[0].Emb, nil
}

type searchRequest struct {
	QueryVector    []float32              `json:"query_vector"`
	Limit          int                    `json:"limit"`
	Filters        map[string]interface{} `json:"filters,omitempty"`
	CollectionName string                 `json:"collection_name,omitempty"`
}

type searchResponse struct {
	Results []struct {
		ChunkID         string                 `json:"chunk_id"`
		DocumentID      string                 `json:"document_id"`
		DocumentTitle   string                 `json:"document_title"`
		ChunkText       string                 `json:"chunk_text"`
		SimilarityScore float64                `json:"similarity_score"`
		Metadata        map[string]interface{} `json:"metadata"`
	} `json:"results"`
}

// Search runs a similarity query. Any request-level failure degrades to an
// empty result set; callers treat empty as "no evidence found".
func (c *Client) Search(ctx context.Context, vector []float32, sessionID string, limit int, filters map[string]interface{}) []ContextItem {
	if filters == nil {
		filters = map[string]interface{}{}
	}
	if sessionID != "" {
		filters["session_id"] = sessionID
	}

	body, err := json.Marshal(searchRequest{
		QueryVector:    vector,
		Limit:          limit,
		Filters:        filters,
		CollectionName: c.cfg.Collection,
	})
	if err != nil {
		c.log.Warn("retrieval", "search request marshal failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	resp, err := c.http.PostJSON(ctx, c.cfg.SearchURL, body)
	if err != nil {
		c.log.Warn("retrieval", "search request failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	defer resp.Body.Close()

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Warn("retrieval", "search response decode failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	items := make([]ContextItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, ContextItem{
			ID:       r.ChunkID,
			Score:    r.SimilarityScore,
			Text:     r.ChunkText,
			Metadata: mergeDocMeta(r.Metadata, r.DocumentID, r.DocumentTitle),
			Source:   r.DocumentID,
		})
	}
	return items
}

func mergeDocMeta(meta map[string]interface{}, docID, docTitle string) map[string]interface{} {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	if docID != "" {
		meta["document_id"] = docID
	}
	if docTitle != "" {
		meta["document_title"] = docTitle
	}
	return meta
}

type rerankRequest struct {
	Query    string   `json:"query"`
	Contexts []string `json:"contexts"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// Rerank reorders items by reranker score, descending, with ties keeping
// the original input order. A disabled reranker or a score list whose length
// does not match the input leaves the ordering untouched.
func (c *Client) Rerank(ctx context.Context, query string, items []ContextItem) []ContextItem {
	if !c.cfg.RerankEnabled || len(items) == 0 {
		return items
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}

	body, err := json.Marshal(rerankRequest{Query: query, Contexts: texts})
	if err != nil {
		return items
	}

	resp, err := c.http.PostJSON(ctx, c.cfg.RerankURL, body)
	if err != nil {
		c.log.Warn("retrieval", "rerank request failed, keeping original order", map[string]interface{}{"error": err.Error()})
		return items
	}
	defer resp.Body.Close()

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Warn("retrieval", "rerank response decode failed, keeping original order", map[string]interface{}{"error": err.Error()})
		return items
	}

	// Score count must match the input exactly to be honored.
	if len(parsed.Scores) != len(items) {
		c.log.Warn("retrieval", "rerank score count mismatch, keeping original order", map[string]interface{}{
			"scores": len(parsed.Scores),
			"items":  len(items),
		})
		return items
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return parsed.Scores[idx[a]] > parsed.Scores[idx[b]]
	})

	ranked := make([]ContextItem, len(items))
	for pos, i := range idx {
		ranked[pos] = items[i]
		ranked[pos].Score = parsed.Scores[i]
	}
	return ranked
}
