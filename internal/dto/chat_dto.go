package dto

// InvokeChatRequest is one conversation turn for either variant.
type InvokeChatRequest struct {
	UserQuestion string `json:"user_question" validate:"required"`
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	Language     string `json:"language"`
	Stream       bool   `json:"stream"`
}

type ToolCallDTO struct {
	ToolName string `json:"tool_name"`
	Result   string `json:"result"`
	Success  bool   `json:"success"`
}

type InvokeChatResponse struct {
	Response  string        `json:"response"`
	Language  string        `json:"language"`
	UseMemory bool          `json:"use_memory"`
	ToolCalls []ToolCallDTO `json:"tool_calls,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}
