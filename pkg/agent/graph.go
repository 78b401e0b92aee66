package agent

import (
	"context"
	"encoding/json"
	"strings"

	"lumir-agentic-be/internal/pkg/logger"
	"lumir-agentic-be/pkg/llm"
	"lumir-agentic-be/pkg/memory"
	"lumir-agentic-be/pkg/tools"
)

// ConfigurationError marks a caller contract violation: the orchestrator
// was asked to execute tools without a plan or without any registered
// tools. Unlike runtime failures this is never swallowed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "orchestrator misconfigured: " + e.Reason
}

// Request is one conversation turn to process.
type Request struct {
	Question  string
	UserID    string
	SessionID string
	Language  string
	History   []HistoryMessage
}

// Orchestrator walks the conversation graph for a turn. The chat variant
// runs memory decision, analysis, retrieval and tool execution before
// generating; the agent variant collapses planning into one reasoning
// step and always generates outside the graph.
type Orchestrator struct {
	variant      Variant
	provider     llm.LLMProvider
	memory       memory.Store
	registry     *tools.Registry
	log          logger.ILogger
	historyLimit int
}

func NewOrchestrator(variant Variant, provider llm.LLMProvider, store memory.Store, registry *tools.Registry, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		variant:      variant,
		provider:     provider,
		memory:       store,
		registry:     registry,
		log:          log,
		historyLimit: 20,
	}
}

// Run processes one turn synchronously and returns the terminal state.
// The state is created fresh per call; nothing is shared between turns.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*ConversationState, error) {
	state, err := o.runGraph(ctx, req)
	if err != nil {
		return nil, err
	}

	response, genErr := o.provider.Chat(ctx, GenerationMessages(state))
	if genErr != nil {
		o.log.Error("agent", "generation failed", map[string]interface{}{"error": genErr.Error()})
		response = FallbackResponse(state.Language)
	}
	state.Complete(response)
	return state, nil
}

// RunStream processes one turn in streaming mode: the whole graph minus
// generation runs first, then exactly one streaming call is opened. The
// returned state reflects everything before generation; fragments arrive
// on the text channel until generation finishes or ctx is cancelled.
func (o *Orchestrator) RunStream(ctx context.Context, req Request) (*ConversationState, <-chan string, <-chan error, error) {
	state, err := o.runGraph(ctx, req)
	if err != nil {
		return nil, nil, nil, err
	}

	textCh, errCh := o.provider.ChatStream(ctx, GenerationMessages(state))
	return state, textCh, errCh, nil
}

// runGraph executes every node except generation, in variant order.
func (o *Orchestrator) runGraph(ctx context.Context, req Request) (*ConversationState, error) {
	state := NewConversationState(o.variant, req.Question, req.UserID, req.SessionID, req.Language)
	state.ConversationHistory = req.History

	o.loadMemory(ctx, state)

	if o.variant == VariantAgent {
		o.reasoningNode(ctx, state)
	} else {
		o.memoryDecisionNode(ctx, state)
		if state.UseMemory {
			o.useMemoryNode(state)
		}
		o.analyzeNode(ctx, state)
		o.searchRetrieveNode(ctx, state)
	}

	if err := o.executeToolsNode(ctx, state); err != nil {
		return nil, err
	}
	state.CurrentStep = StepGenerate
	return state, nil
}

// loadMemory pulls prior turns for the session. Missing identifiers or a
// failing store leave the memory empty; the turn proceeds regardless.
func (o *Orchestrator) loadMemory(ctx context.Context, state *ConversationState) {
	if o.memory == nil || state.UserID == "" || state.SessionID == "" {
		return
	}
	history, err := o.memory.GetHistory(ctx, state.UserID, state.SessionID, o.historyLimit)
	if err != nil {
		o.log.Warn("agent", "memory load failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
		return
	}
	for _, m := range history {
		ts := m.Timestamp
		state.MemoryConversation = append(state.MemoryConversation, HistoryMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: &ts,
		})
	}
}

// memoryDecisionNode asks the model whether prior turns matter. Only the
// literal answer "true" opts in; anything else, including an oracle
// failure, proceeds without memory.
func (o *Orchestrator) memoryDecisionNode(ctx context.Context, state *ConversationState) {
	state.CurrentStep = StepMemoryDecision

	prompt := MemoryDecisionPrompt(state.UserQuestion, state.MemoryConversation)
	answer, err := o.provider.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		o.log.Warn("agent", "memory decision failed, defaulting to false", map[string]interface{}{"error": err.Error()})
		state.UseMemory = false
		state.CurrentStep = StepAnalyze
		return
	}

	state.UseMemory = strings.EqualFold(strings.TrimSpace(answer), "true")
	if state.UseMemory {
		state.CurrentStep = StepUseMemory
	} else {
		state.CurrentStep = StepAnalyze
	}
}

// useMemoryNode formats prior turns into the memory context and, when the
// request carried no history of its own, replays the stored turns into the
// conversation. This only runs after an affirmative memory decision; a
// declined decision keeps stored turns out of every later prompt. Never
// fails the pipeline; an empty memory yields an empty context.
func (o *Orchestrator) useMemoryNode(state *ConversationState) {
	state.CurrentStep = StepUseMemory
	state.MemoryContext = FormatHistory(state.MemoryConversation)
	if len(state.ConversationHistory) == 0 {
		state.ConversationHistory = state.MemoryConversation
	}
	state.CurrentStep = StepAnalyze
}

// analyzeNode produces the execution plan. On failure the plan degrades
// to a restated question so tool execution always has one.
func (o *Orchestrator) analyzeNode(ctx context.Context, state *ConversationState) {
	state.CurrentStep = StepAnalyze

	plan, err := o.provider.Generate(ctx, AnalyzePrompt(state.UserQuestion, FormatHistory(state.ConversationHistory)))
	if err != nil || strings.TrimSpace(plan) == "" {
		if err != nil {
			o.log.Warn("agent", "analysis failed, using fallback plan", map[string]interface{}{"error": err.Error()})
		}
		plan = FallbackPlan(state.UserQuestion)
	}
	state.Plan = plan
	state.CurrentStep = StepSearchRetrieve
}

// reasoningNode is the agent variant's single planning step.
func (o *Orchestrator) reasoningNode(ctx context.Context, state *ConversationState) {
	state.CurrentStep = StepReasoning

	reasoning, err := o.provider.Generate(ctx, ReasoningPrompt(state.UserQuestion, FormatHistory(state.ConversationHistory)))
	if err != nil || strings.TrimSpace(reasoning) == "" {
		if err != nil {
			o.log.Warn("agent", "reasoning failed, using question as plan", map[string]interface{}{"error": err.Error()})
		}
		reasoning = state.UserQuestion
	}
	state.Plan = reasoning
	state.CurrentStep = StepExecuteTools
}

// searchRetrieveNode always queries the knowledge base for the chat
// variant. A search failure becomes a failed tool call, never a crash.
func (o *Orchestrator) searchRetrieveNode(ctx context.Context, state *ConversationState) {
	state.CurrentStep = StepSearchRetrieve
	params := map[string]interface{}{"question": state.UserQuestion}

	result, err := o.registry.Invoke(ctx, "search_knowledge_base", params)
	call := ToolCall{ToolName: "search_knowledge_base", Parameters: params, Result: result, Success: err == nil}
	if err != nil {
		call.Result = "Search error: " + err.Error()
		o.log.Warn("agent", "knowledge base search failed", map[string]interface{}{"error": err.Error()})
	} else {
		state.RetrievedContext = extractContext(result)
	}
	state.RecordToolCall(call)
	state.CurrentStep = StepExecuteTools
}

// extractContext pulls the assembled context block out of the search
// tool's JSON result.
func extractContext(result string) string {
	var parsed struct {
		Context string `json:"context"`
	}
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		return ""
	}
	return parsed.Context
}

type requestedCall struct {
	Tool       string                 `json:"tool"`
	Parameters map[string]interface{} `json:"parameters"`
}

// executeToolsNode asks the model which tools the plan needs and runs
// them. A missing plan or empty registry is a programming error and
// fails loudly; individual tool failures are isolated to their own call.
func (o *Orchestrator) executeToolsNode(ctx context.Context, state *ConversationState) error {
	state.CurrentStep = StepExecuteTools

	if strings.TrimSpace(state.Plan) == "" {
		return &ConfigurationError{Reason: "execute_tools requires a plan"}
	}
	if o.registry == nil || o.registry.Len() == 0 {
		return &ConfigurationError{Reason: "execute_tools requires at least one registered tool"}
	}

	raw, err := o.provider.Generate(ctx, ToolSelectionPrompt(state.Plan, o.registry), llm.WithTemperature(0))
	if err != nil {
		o.log.Warn("agent", "tool selection failed, skipping tool execution", map[string]interface{}{"error": err.Error()})
		return nil
	}

	for _, req := range parseRequestedCalls(raw) {
		if req.Tool == "search_knowledge_base" && state.ToolResults["search_knowledge_base"] != "" {
			continue
		}
		call := ToolCall{ToolName: req.Tool, Parameters: req.Parameters}
		result, invokeErr := o.registry.Invoke(ctx, req.Tool, req.Parameters)
		if invokeErr != nil {
			call.Result = invokeErr.Error()
			call.Success = false
			o.log.Warn("agent", "tool call failed", map[string]interface{}{
				"tool":  req.Tool,
				"error": invokeErr.Error(),
			})
		} else {
			call.Result = result
			call.Success = true
		}
		state.RecordToolCall(call)
	}
	return nil
}

// parseRequestedCalls reads the model's tool selection reply. The JSON
// array may be wrapped in prose or a code fence; anything unparseable
// means no extra tool calls.
func parseRequestedCalls(raw string) []requestedCall {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}

	var calls []requestedCall
	if err := json.Unmarshal([]byte(raw[start:end+1]), &calls); err != nil {
		return nil
	}

	out := calls[:0]
	for _, c := range calls {
		if strings.TrimSpace(c.Tool) != "" {
			out = append(out, c)
		}
	}
	return out
}
