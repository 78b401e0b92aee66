package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"lumir-agentic-be/pkg/retrieval"
)

// KnowledgeBaseSearch answers questions from the ingested document store:
// embed the question, run similarity search, optionally rerank, then filter
// and format through the assembler.
type KnowledgeBaseSearch struct {
	client    *retrieval.Client
	assembler *retrieval.Assembler
}

func NewKnowledgeBaseSearch(client *retrieval.Client, assembler *retrieval.Assembler) *KnowledgeBaseSearch {
	return &KnowledgeBaseSearch{client: client, assembler: assembler}
}

func (t *KnowledgeBaseSearch) Name() string { return "search_knowledge_base" }

func (t *KnowledgeBaseSearch) Description() string {
	return "Search the knowledge base for passages relevant to a question. Args: question (string), top_n (int), score_threshold (float)."
}

type kbSearchResult struct {
	Success bool                    `json:"success"`
	Count   int                     `json:"count"`
	Context string                  `json:"context"`
	Items   []retrieval.ContextItem `json:"items,omitempty"`
}

func (t *KnowledgeBaseSearch) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	question := stringArg(args, "question")
	if question == "" {
		return "", fmt.Errorf("search_knowledge_base requires a question argument")
	}
	topN := intArg(args, "top_n", 10)
	threshold := floatArg(args, "score_threshold", 0.3)
	sessionID := stringArg(args, "session_id")

	vector, err := t.client.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	raw := t.client.Search(ctx, vector, sessionID, topN, nil)
	raw = t.client.Rerank(ctx, question, raw)

	assembler := *t.assembler
	assembler.ScoreThreshold = threshold
	items, formatted := assembler.Select(raw, false)

	out, err := json.Marshal(kbSearchResult{
		Success: true,
		Count:   len(items),
		Context: formatted,
		Items:   items,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
