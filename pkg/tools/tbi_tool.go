package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"lumir-agentic-be/pkg/tbi"
)

// BehavioralIndex exposes the deterministic indicator calculator as a tool.
type BehavioralIndex struct{}

func NewBehavioralIndex() *BehavioralIndex { return &BehavioralIndex{} }

func (t *BehavioralIndex) Name() string { return "calculate_tbi_indicators" }

func (t *BehavioralIndex) Description() string {
	return "Compute the trading behavior indicator set from a full name and birthday. Args: full_name (string), birthday (dd/mm/yyyy)."
}

func (t *BehavioralIndex) Invoke(_ context.Context, args map[string]interface{}) (string, error) {
	fullName := stringArg(args, "full_name")
	birthday := stringArg(args, "birthday")
	if fullName == "" || birthday == "" {
		return "", fmt.Errorf("calculate_tbi_indicators requires full_name and birthday")
	}

	calc, err := tbi.NewCalculator(birthday, fullName, stringArg(args, "current_date"))
	if err != nil {
		return "", fmt.Errorf("build calculator: %w", err)
	}

	out, err := json.Marshal(map[string]interface{}{
		"success": true,
		"data":    calc.Indicators(),
		"message": "TBI indicators calculated successfully",
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
