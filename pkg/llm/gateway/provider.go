package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"lumir-agentic-be/pkg/httpx"
	"lumir-agentic-be/pkg/llm"
)

// GatewayProvider speaks to an OpenAI-style generation gateway. Non-streaming
// responses carry {status, result: {content}}; a false status carries an
// error field instead. Streaming responses are chunked text fragments.
type GatewayProvider struct {
	BaseURL   string
	ModelName string
	Client    *httpx.Client
}

var _ llm.LLMProvider = &GatewayProvider{}

func NewGatewayProvider(baseURL, modelName string, client *httpx.Client) *GatewayProvider {
	if client == nil {
		client = httpx.New(httpx.LongTimeouts(), httpx.WithRetries(1), httpx.WithPoolSize(10))
	}
	return &GatewayProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client:    client,
	}
}

type gatewayRequest struct {
	Messages    []llm.Message `json:"messages"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type gatewayResponse struct {
	Status json.RawMessage `json:"status"`
	Result struct {
		Content string `json:"content"`
	} `json:"result"`
	Error string `json:"error"`
}

// statusOK tolerates both boolean and string status fields.
func (r *gatewayResponse) statusOK() bool {
	var b bool
	if err := json.Unmarshal(r.Status, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(r.Status, &s); err == nil {
		return s == "success" || s == "ok" || s == "true"
	}
	return false
}

func (p *GatewayProvider) buildRequest(history []llm.Message, stream bool, opts ...llm.Option) gatewayRequest {
	options := &llm.Options{
		Temperature: 0.7,
		MaxTokens:   2048,
		TopP:        0.9,
	}
	for _, opt := range opts {
		opt(options)
	}

	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	return gatewayRequest{
		Messages:    history,
		Model:       model,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		TopP:        options.TopP,
		Stream:      stream,
	}
}

func (p *GatewayProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	payload, err := json.Marshal(p.buildRequest(history, false, opts...))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := p.Client.PostJSON(ctx, p.BaseURL, payload)
	if err != nil {
		return "", fmt.Errorf("llm gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm gateway error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed gatewayResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if !parsed.statusOK() {
		if parsed.Error != "" {
			return "", fmt.Errorf("llm gateway rejected request: %s", parsed.Error)
		}
		return "", fmt.Errorf("llm gateway rejected request")
	}

	return parsed.Result.Content, nil
}

// ChatStream opens one streaming call and forwards raw text fragments as
// they arrive. Cancelling ctx closes the response body which releases the
// connection.
func (p *GatewayProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan string, <-chan error) {
	fragments := make(chan string)
	errCh := make(chan error, 1)

	payload, err := json.Marshal(p.buildRequest(history, true, opts...))
	if err != nil {
		errCh <- fmt.Errorf("marshal request: %w", err)
		close(fragments)
		close(errCh)
		return fragments, errCh
	}

	go func() {
		defer close(fragments)
		defer close(errCh)

		// Streaming calls are not replayed, one attempt only.
		resp, err := p.Client.PostJSONOnce(ctx, p.BaseURL, payload)
		if err != nil {
			errCh <- fmt.Errorf("llm gateway stream failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			errCh <- fmt.Errorf("llm gateway stream error: status %d, body: %s", resp.StatusCode, string(body))
			return
		}

		reader := bufio.NewReader(resp.Body)
		buf := make([]byte, 4096)
		for {
			n, err := reader.Read(buf)
			if n > 0 {
				select {
				case fragments <- string(buf[:n]):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					errCh <- fmt.Errorf("llm gateway stream read: %w", err)
				}
				return
			}
		}
	}()

	return fragments, errCh
}

func (p *GatewayProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
