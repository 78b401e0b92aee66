package retrieval

import (
	"strings"
	"testing"
)

func TestSelectFiltersAndRanks(t *testing.T) {
	a := NewAssembler()

	raw := []ContextItem{
		{ID: "1", Score: 0.4, Text: "a relevant passage about indicators"},
		{ID: "2", Score: 0.9, Text: "the behavioral index explains decision style"},
		{ID: "3", Score: 0.8, Text: "tiny"},
		{ID: "4", Score: 0.7, Text: "   \t\n  "},
	}

	items, formatted := a.Select(raw, false)
	if len(items) != 2 {
		t.Fatalf("expected 2 surviving items, got %d", len(items))
	}
	if items[0].ID != "2" || items[1].ID != "1" {
		t.Errorf("expected score-descending order [2 1], got [%s %s]", items[0].ID, items[1].ID)
	}
	if !strings.Contains(formatted, "=== REFERENCE INFORMATION ===") {
		t.Error("missing reference header")
	}
	if !strings.Contains(formatted, "Context 1 (from") {
		t.Error("missing first context block")
	}
}

func TestSelectTopKDependsOnMode(t *testing.T) {
	a := NewAssembler()

	raw := make([]ContextItem, 10)
	for i := range raw {
		raw[i] = ContextItem{
			ID:    string(rune('a' + i)),
			Score: float64(10 - i),
			Text:  "context passage number with enough length",
		}
	}

	items, _ := a.Select(raw, false)
	if len(items) != 5 {
		t.Errorf("chat mode keeps 5, got %d", len(items))
	}

	items, _ = a.Select(raw, true)
	if len(items) != 7 {
		t.Errorf("upload mode keeps 7, got %d", len(items))
	}
}

func TestSelectTieBrokenByTextLength(t *testing.T) {
	a := NewAssembler()

	raw := []ContextItem{
		{ID: "short", Score: 0.5, Text: "short but valid text"},
		{ID: "long", Score: 0.5, Text: "a considerably longer passage that should win the tie break"},
	}

	items, _ := a.Select(raw, false)
	if items[0].ID != "long" {
		t.Errorf("equal scores should prefer longer text, got %s first", items[0].ID)
	}
}

func TestFormatEmptyYieldsEmptyString(t *testing.T) {
	a := NewAssembler()
	if got := a.Format(nil); got != "" {
		t.Errorf("empty selection must format to empty string, got %q", got)
	}
	if _, formatted := a.Select(nil, false); formatted != "" {
		t.Errorf("empty raw input must format to empty string, got %q", formatted)
	}
}

func TestDocumentLabelResolution(t *testing.T) {
	cases := []struct {
		name string
		item ContextItem
		want string
	}{
		{
			name: "filename wins",
			item: ContextItem{Metadata: map[string]interface{}{"filename": "report.pdf", "document_title": "Report"}},
			want: "report.pdf",
		},
		{
			name: "falls through to document_title",
			item: ContextItem{Metadata: map[string]interface{}{"document_title": "Quarterly Report"}},
			want: "Quarterly Report",
		},
		{
			name: "derived short id",
			item: ContextItem{Source: "0123456789abcdef", Metadata: map[string]interface{}{}},
			want: "doc_01234567",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := documentLabel(tc.item); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
