package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"lumir-agentic-be/pkg/httpx"
)

// TradingAnalysis fetches analyzed trading data for an account and renders
// it as a markdown block the generation prompt can carry verbatim.
type TradingAnalysis struct {
	url  string
	http *httpx.Client
}

func NewTradingAnalysis(url string, client *httpx.Client) *TradingAnalysis {
	return &TradingAnalysis{url: url, http: client}
}

func (t *TradingAnalysis) Name() string { return "get_trading_analysis" }

func (t *TradingAnalysis) Description() string {
	return "Fetch and format detailed trading analysis for an account. Args: account_number (string)."
}

func (t *TradingAnalysis) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	account := stringArg(args, "account_number")
	if account == "" {
		return "", fmt.Errorf("get_trading_analysis requires an account_number")
	}

	payload, err := json.Marshal(map[string]string{
		"user_question":  fmt.Sprintf("Analyze trading data for account %s", account),
		"account_number": account,
	})
	if err != nil {
		return "", err
	}

	resp, err := t.http.PostJSON(ctx, t.url, payload)
	if err != nil {
		return "", fmt.Errorf("trading api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read trading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("trading api status %d: %s", resp.StatusCode, string(body))
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("trading response is not valid JSON: %w", err)
	}

	return FormatTradingData(data), nil
}

// FormatTradingData renders nested trading data as markdown headings and
// bullet lists, keys sorted for stable output.
func FormatTradingData(data interface{}) string {
	lines := []string{"## TRADING DATA"}
	formatTradingValue(data, 3, &lines)
	return strings.Join(lines, "\n\n")
}

func formatTradingValue(obj interface{}, level int, lines *[]string) {
	switch v := obj.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*lines = append(*lines, strings.Repeat("#", level)+" "+k)
			formatTradingValue(v[k], level+1, lines)
		}
	case []interface{}:
		for _, item := range v {
			switch item.(type) {
			case map[string]interface{}, []interface{}:
				formatTradingValue(item, level, lines)
			default:
				indent := ""
				if level >= 2 {
					indent = strings.Repeat("  ", level-2)
				}
				*lines = append(*lines, fmt.Sprintf("%s- %v", indent, item))
			}
		}
	default:
		*lines = append(*lines, fmt.Sprintf("%v", v))
	}
}
