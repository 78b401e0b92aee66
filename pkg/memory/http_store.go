package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lumir-agentic-be/pkg/httpx"
)

// HTTPStore talks to an external memory service exposing history/get and
// history/save endpoints.
type HTTPStore struct {
	getURL  string
	saveURL string
	http    *httpx.Client
}

func NewHTTPStore(getURL, saveURL string, client *httpx.Client) *HTTPStore {
	return &HTTPStore{getURL: getURL, saveURL: saveURL, http: client}
}

type historyGetRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit,omitempty"`
}

type historyGetResponse struct {
	History []struct {
		Role      string `json:"role"`
		Content   string `json:"content"`
		Timestamp string `json:"timestamp"`
	} `json:"history"`
}

func (s *HTTPStore) GetHistory(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	body, err := json.Marshal(historyGetRequest{UserID: userID, SessionID: sessionID, Limit: limit})
	if err != nil {
		return nil, err
	}

	resp, err := s.http.PostJSON(ctx, s.getURL, body)
	if err != nil {
		return nil, fmt.Errorf("memory get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("memory get status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed historyGetResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("memory get decode: %w", err)
	}

	out := make([]Message, 0, len(parsed.History))
	for _, h := range parsed.History {
		msg := Message{Role: h.Role, Content: h.Content}
		if ts, err := time.Parse(time.RFC3339, h.Timestamp); err == nil {
			msg.Timestamp = ts
		}
		out = append(out, msg)
	}
	return out, nil
}

type historySaveRequest struct {
	UserID           string `json:"user_id"`
	SessionID        string `json:"session_id"`
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
}

type historySaveResponse struct {
	Success bool `json:"success"`
}

func (s *HTTPStore) SaveHistory(ctx context.Context, userID, sessionID, userMessage, assistantMessage string) error {
	body, err := json.Marshal(historySaveRequest{
		UserID:           userID,
		SessionID:        sessionID,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	})
	if err != nil {
		return err
	}

	// Saves are append-only and duplicate-safe, so retrying is fine.
	resp, err := s.http.PostJSON(ctx, s.saveURL, body)
	if err != nil {
		return fmt.Errorf("memory save request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("memory save status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed historySaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("memory save decode: %w", err)
	}
	if !parsed.Success {
		return fmt.Errorf("memory save rejected")
	}
	return nil
}
