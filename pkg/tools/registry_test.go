package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type stubTool struct {
	name   string
	result string
	err    error
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Invoke(context.Context, map[string]interface{}) (string, error) {
	return s.result, s.err
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(&stubTool{name: "alpha", result: "a"}, &stubTool{name: "beta", result: "b"})

	got, err := r.Invoke(context.Background(), "beta", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "b" {
		t.Errorf("expected result b, got %q", got)
	}
}

func TestRegistryUnknownToolIsDescriptiveError(t *testing.T) {
	r := NewRegistry(&stubTool{name: "alpha"})

	_, err := r.Invoke(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(err.Error(), "missing") || !strings.Contains(err.Error(), "alpha") {
		t.Errorf("error should name the tool and the available set, got %q", err.Error())
	}
}

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(
		&stubTool{name: "c"},
		&stubTool{name: "a"},
		&stubTool{name: "b"},
	)

	names := r.Names()
	if names[0] != "c" || names[1] != "a" || names[2] != "b" {
		t.Errorf("expected registration order [c a b], got %v", names)
	}
}

func TestKeywordMappingKnownAndUnknown(t *testing.T) {
	tool := NewKeywordMapping()
	out, err := tool.Invoke(context.Background(), map[string]interface{}{
		"keyword": []interface{}{"TBI", "XYZ"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("result must be JSON: %v", err)
	}
	if _, ok := parsed["TBI"].([]interface{}); !ok {
		t.Errorf("known keyword should expand to a list, got %v", parsed["TBI"])
	}
	if parsed["XYZ"] != "not found" {
		t.Errorf("unknown keyword should map to \"not found\", got %v", parsed["XYZ"])
	}
}

func TestBehavioralIndexRequiresArgs(t *testing.T) {
	tool := NewBehavioralIndex()
	if _, err := tool.Invoke(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("missing args must error")
	}

	out, err := tool.Invoke(context.Background(), map[string]interface{}{
		"full_name":    "Nguyen Van An",
		"birthday":     "15/08/1995",
		"current_date": "01/06/2025",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "\"success\":true") {
		t.Errorf("expected success payload, got %s", out)
	}
}

func TestFormatTradingDataNested(t *testing.T) {
	out := FormatTradingData(map[string]interface{}{
		"summary": map[string]interface{}{
			"win_rate": 0.62,
		},
		"symbols": []interface{}{"XAUUSD", "EURUSD"},
	})

	if !strings.HasPrefix(out, "## TRADING DATA") {
		t.Errorf("missing heading: %s", out)
	}
	if !strings.Contains(out, "### summary") || !strings.Contains(out, "#### win_rate") {
		t.Errorf("nested keys should become deeper headings: %s", out)
	}
	if !strings.Contains(out, "- XAUUSD") {
		t.Errorf("scalar list entries should become bullets: %s", out)
	}
}
