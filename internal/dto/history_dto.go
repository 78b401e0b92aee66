package dto

import "time"

type GetHistoryRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=200"`
}

type HistoryMessageDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type GetHistoryResponse struct {
	History []HistoryMessageDTO `json:"history"`
}

type SaveHistoryRequest struct {
	UserID           string `json:"user_id" validate:"required"`
	SessionID        string `json:"session_id" validate:"required"`
	UserMessage      string `json:"user_message" validate:"required"`
	AssistantMessage string `json:"assistant_message" validate:"required"`
}
