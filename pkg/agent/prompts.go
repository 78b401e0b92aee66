package agent

import (
	"fmt"
	"strings"

	"lumir-agentic-be/pkg/llm"
	"lumir-agentic-be/pkg/tools"
)

// FormatHistory renders prior turns as "role: content" lines. An empty
// history renders as the empty string.
func FormatHistory(history []HistoryMessage) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

// MemoryDecisionPrompt asks the model whether prior conversation turns
// are needed to answer the question. The model must answer with the
// single token true or false.
func MemoryDecisionPrompt(question string, memoryConversation []HistoryMessage) string {
	var b strings.Builder
	b.WriteString("You decide whether answering the user's question requires the prior conversation below.\n")
	b.WriteString("Answer with exactly one word: true or false. No punctuation, no explanation.\n")
	b.WriteString("Answer true only when the question refers back to something said earlier ")
	b.WriteString("(pronouns without a referent, follow-up questions, requests to continue or summarize).\n\n")

	b.WriteString("PRIOR CONVERSATION:\n")
	if formatted := FormatHistory(memoryConversation); formatted != "" {
		b.WriteString(formatted)
	} else {
		b.WriteString("(none)")
	}
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:")
	return b.String()
}

// AnalyzePrompt asks the model for a short execution plan.
func AnalyzePrompt(question, history string) string {
	var b strings.Builder
	b.WriteString("Analyze the user's question and write a short plan for answering it: ")
	b.WriteString("what information is needed, and which of it must come from the knowledge base, ")
	b.WriteString("behavioral index calculation, keyword mapping, or trading data.\n\n")
	if history != "" {
		b.WriteString("CONVERSATION SO FAR:\n")
		b.WriteString(history)
		b.WriteString("\n\n")
	}
	b.WriteString("QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nPLAN:")
	return b.String()
}

// FallbackPlan restates the question so tool execution always has
// something to act on.
func FallbackPlan(question string) string {
	return "Answer the user's question: " + question
}

// ReasoningPrompt is the agent variant's single planning step.
func ReasoningPrompt(question, history string) string {
	var b strings.Builder
	b.WriteString("Reason step by step about what the user needs and how to get it. ")
	b.WriteString("Name the data sources to consult and what to compute before answering.\n\n")
	if history != "" {
		b.WriteString("CONVERSATION SO FAR:\n")
		b.WriteString(history)
		b.WriteString("\n\n")
	}
	b.WriteString("QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nREASONING:")
	return b.String()
}

// ToolSelectionPrompt binds the registry's tools to the model and asks
// which to call. The expected reply is a JSON array of
// {"tool": name, "parameters": {...}} objects, possibly empty.
func ToolSelectionPrompt(plan string, reg *tools.Registry) string {
	var b strings.Builder
	b.WriteString("You have these tools:\n")
	b.WriteString(strings.Join(reg.Describe(), "\n"))
	b.WriteString("\n")
	b.WriteString("\nGiven the plan below, reply with a JSON array of tool calls, ")
	b.WriteString(`each {"tool": "<name>", "parameters": {...}}. `)
	b.WriteString("Reply with [] when no tool is needed. JSON only.\n\n")
	b.WriteString("PLAN:\n")
	b.WriteString(plan)
	return b.String()
}

// GenerationSystemPrompt is the system message for the final answer.
func GenerationSystemPrompt(state *ConversationState) string {
	var b strings.Builder
	b.WriteString("You are Lumir, a trading behavior assistant. Answer the user's question ")
	b.WriteString("using the reference material and tool results below. ")
	b.WriteString("Never invent facts that the references do not support.\n")

	if IsVietnamese(state.Language) {
		b.WriteString("Trả lời hoàn toàn bằng tiếng Việt, giọng thân thiện và chuyên nghiệp.\n")
	} else {
		b.WriteString("Answer entirely in English, in a friendly professional tone.\n")
	}

	if state.MemoryContext != "" {
		b.WriteString("\nEARLIER CONVERSATION:\n")
		b.WriteString(state.MemoryContext)
		b.WriteString("\n")
	}
	if state.RetrievedContext != "" {
		b.WriteString("\n")
		b.WriteString(state.RetrievedContext)
		b.WriteString("\n")
	}
	for _, call := range state.ToolCalls {
		if !call.Success || call.ToolName == "search_knowledge_base" {
			continue
		}
		fmt.Fprintf(&b, "\nTOOL RESULT (%s):\n%s\n", call.ToolName, call.Result)
	}
	return b.String()
}

// GenerationMessages assembles the chat transcript sent for the final
// answer: system prompt, prior turns, then the current question.
func GenerationMessages(state *ConversationState) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: GenerationSystemPrompt(state)}}
	for _, m := range state.ConversationHistory {
		role := m.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: state.UserQuestion})
	return msgs
}
