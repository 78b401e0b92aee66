package retrieval

import (
	"fmt"
	"sort"
	"strings"
)

const (
	minContextTextLen = 10
	topKDefault       = 5
	topKUploadMode    = 7
)

// Assembler filters and formats retrieved items into the prompt context block.
type Assembler struct {
	ScoreThreshold float64
}

func NewAssembler() *Assembler {
	return &Assembler{ScoreThreshold: 0}
}

// Select filters, ranks and truncates raw results, then renders the block
// that goes verbatim into the generation prompt. uploadMode widens the cut
// because session-scoped uploads tend to be small and highly relevant.
func (a *Assembler) Select(raw []ContextItem, uploadMode bool) ([]ContextItem, string) {
	kept := make([]ContextItem, 0, len(raw))
	for _, item := range raw {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		if item.Score < a.ScoreThreshold {
			continue
		}
		if len(text) < minContextTextLen {
			continue
		}
		kept = append(kept, item)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return len(kept[i].Text) > len(kept[j].Text)
	})

	topK := topKDefault
	if uploadMode {
		topK = topKUploadMode
	}
	if len(kept) > topK {
		kept = kept[:topK]
	}

	return kept, a.Format(kept)
}

// Format renders the selected items. Zero items renders to an empty string
// so the prompt builder can drop the section entirely.
func (a *Assembler) Format(items []ContextItem) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== REFERENCE INFORMATION ===\n")
	for i, item := range items {
		b.WriteString(fmt.Sprintf("\nContext %d (from %s):\n", i+1, documentLabel(item)))
		b.WriteString(strings.TrimSpace(item.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// documentLabel resolves a human-readable source name for one item.
func documentLabel(item ContextItem) string {
	for _, key := range []string{"filename", "doc_title", "document_title", "document_name"} {
		if v, ok := item.Metadata[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if item.Source != "" {
		return shortID(item.Source)
	}
	return shortID(item.ID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return "doc_" + id[:8]
	}
	if id == "" {
		return "unknown"
	}
	return "doc_" + id
}
