package factory

import (
	"fmt"

	"lumir-agentic-be/pkg/httpx"
	"lumir-agentic-be/pkg/llm"
	"lumir-agentic-be/pkg/llm/gateway"
	"lumir-agentic-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gateway":
		if baseURL == "" {
			return nil, fmt.Errorf("gateway provider requires a base url")
		}
		return gateway.NewGatewayProvider(baseURL, modelName, httpx.New(httpx.LongTimeouts())), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
