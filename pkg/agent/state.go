package agent

import "time"

// Step names one node of the orchestration graph.
type Step string

const (
	StepMemoryDecision Step = "memory_decision"
	StepUseMemory      Step = "use_memory"
	StepAnalyze        Step = "analyze_user_question"
	StepSearchRetrieve Step = "search_retrieve"
	StepReasoning      Step = "reasoning_step"
	StepExecuteTools   Step = "execute_tools"
	StepGenerate       Step = "generate_response"
	StepDone           Step = "done"
)

// Variant selects which graph is walked for a turn.
type Variant string

const (
	// VariantChat walks memory decision, analysis, retrieval and tool
	// execution before generating inside the graph.
	VariantChat Variant = "chat"
	// VariantAgent collapses planning into a single reasoning step and
	// generates outside the graph so tokens can stream.
	VariantAgent Variant = "agent"
)

// HistoryMessage is one prior conversation turn.
type HistoryMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ToolCall records one tool invocation outcome. Appended to the state's
// call log and never mutated afterward.
type ToolCall struct {
	ToolName   string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters"`
	Result     string                 `json:"result"`
	Success    bool                   `json:"success"`
}

// ConversationState is the mutable record threaded through one graph run.
// It is local to its run; only the final Q/A pair outlives it.
type ConversationState struct {
	UserQuestion        string
	ConversationHistory []HistoryMessage
	MemoryConversation  []HistoryMessage
	UseMemory           bool
	MemoryContext       string
	Plan                string
	ToolResults         map[string]string
	ToolCalls           []ToolCall
	RetrievedContext    string
	FinalResponse       string
	CurrentStep         Step
	IsComplete          bool
	Language            string

	UserID    string
	SessionID string
}

// NewConversationState creates the per-request state with the entry step of
// the given variant.
func NewConversationState(variant Variant, question, userID, sessionID, language string) *ConversationState {
	entry := StepMemoryDecision
	if variant == VariantAgent {
		entry = StepReasoning
	}
	if language == "" {
		language = DetectLanguage(question)
	}
	return &ConversationState{
		UserQuestion: question,
		UserID:       userID,
		SessionID:    sessionID,
		Language:     language,
		ToolResults:  map[string]string{},
		CurrentStep:  entry,
	}
}

// Complete marks the terminal state. IsComplete is true iff a final
// response has been set.
func (s *ConversationState) Complete(response string) {
	s.FinalResponse = response
	s.IsComplete = response != ""
	s.CurrentStep = StepDone
}

// RecordToolCall appends one immutable invocation record and indexes its
// result by tool name.
func (s *ConversationState) RecordToolCall(call ToolCall) {
	s.ToolCalls = append(s.ToolCalls, call)
	s.ToolResults[call.ToolName] = call.Result
}
