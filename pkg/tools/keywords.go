package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// keywordMap holds the known indicator keywords and their expansions.
var keywordMap = map[string][]string{
	"TBI": {"TBI", "Trading Behavior Index"},
	"PPA": {"PPA", "Personal Psychological Assessment"},
}

// KeywordMapping resolves indicator abbreviations to their defined
// expansions. Unknown keywords map to "not found" rather than erroring.
type KeywordMapping struct{}

func NewKeywordMapping() *KeywordMapping { return &KeywordMapping{} }

func (t *KeywordMapping) Name() string { return "get_mapping_keyword" }

func (t *KeywordMapping) Description() string {
	return "Look up defined expansions for indicator keywords. Args: keyword (list of strings)."
}

func (t *KeywordMapping) Invoke(_ context.Context, args map[string]interface{}) (string, error) {
	keywords := stringSliceArg(args, "keyword")
	if len(keywords) == 0 {
		return "", fmt.Errorf("get_mapping_keyword requires a keyword list")
	}

	result := make(map[string]interface{}, len(keywords))
	for _, key := range keywords {
		if expansions, ok := keywordMap[key]; ok {
			result[key] = expansions
		} else {
			result[key] = "not found"
		}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
