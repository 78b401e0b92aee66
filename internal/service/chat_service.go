package service

import (
	"context"
	"time"

	"lumir-agentic-be/internal/dto"
	"lumir-agentic-be/internal/pkg/logger"
	"lumir-agentic-be/pkg/agent"
	"lumir-agentic-be/pkg/events"
	"lumir-agentic-be/pkg/memory"
	"lumir-agentic-be/pkg/nats"
)

type IChatService interface {
	Invoke(ctx context.Context, variant agent.Variant, req *dto.InvokeChatRequest) (*dto.InvokeChatResponse, error)
	InvokeStream(ctx context.Context, variant agent.Variant, req *dto.InvokeChatRequest) (*agent.ConversationState, <-chan string, <-chan error, error)
	SaveTurn(ctx context.Context, userID, sessionID, question, answer string)
	GetHistory(ctx context.Context, req *dto.GetHistoryRequest) (*dto.GetHistoryResponse, error)
	SaveHistory(ctx context.Context, req *dto.SaveHistoryRequest) error
}

type chatService struct {
	chatOrchestrator  *agent.Orchestrator
	agentOrchestrator *agent.Orchestrator
	memory            memory.Store
	publisher         *nats.Publisher
	log               logger.ILogger
}

func NewChatService(chatOrch, agentOrch *agent.Orchestrator, store memory.Store, publisher *nats.Publisher, log logger.ILogger) IChatService {
	return &chatService{
		chatOrchestrator:  chatOrch,
		agentOrchestrator: agentOrch,
		memory:            store,
		publisher:         publisher,
		log:               log,
	}
}

func (s *chatService) orchestrator(variant agent.Variant) *agent.Orchestrator {
	if variant == agent.VariantAgent {
		return s.agentOrchestrator
	}
	return s.chatOrchestrator
}

func (s *chatService) Invoke(ctx context.Context, variant agent.Variant, req *dto.InvokeChatRequest) (*dto.InvokeChatResponse, error) {
	state, err := s.orchestrator(variant).Run(ctx, agent.Request{
		Question:  req.UserQuestion,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Language:  req.Language,
	})
	if err != nil {
		return nil, err
	}

	s.SaveTurn(ctx, req.UserID, req.SessionID, req.UserQuestion, state.FinalResponse)

	res := &dto.InvokeChatResponse{
		Response:  state.FinalResponse,
		Language:  state.Language,
		UseMemory: state.UseMemory,
		SessionID: req.SessionID,
	}
	for _, c := range state.ToolCalls {
		res.ToolCalls = append(res.ToolCalls, dto.ToolCallDTO{
			ToolName: c.ToolName,
			Result:   c.Result,
			Success:  c.Success,
		})
	}
	return res, nil
}

func (s *chatService) InvokeStream(ctx context.Context, variant agent.Variant, req *dto.InvokeChatRequest) (*agent.ConversationState, <-chan string, <-chan error, error) {
	return s.orchestrator(variant).RunStream(ctx, agent.Request{
		Question:  req.UserQuestion,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Language:  req.Language,
	})
}

// SaveTurn persists one finished Q/A pair and announces it on the bus.
// Persistence failures are logged, never surfaced: the user already has
// their answer.
func (s *chatService) SaveTurn(ctx context.Context, userID, sessionID, question, answer string) {
	if s.memory == nil || userID == "" || sessionID == "" || answer == "" {
		return
	}

	if err := s.memory.SaveHistory(ctx, userID, sessionID, question, answer); err != nil {
		s.log.Error("chat", "failed to save conversation turn", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}

	if s.publisher != nil {
		event := events.NewChatTurnSaved(userID, sessionID)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("chat", "failed to publish chat turn event", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
}

func (s *chatService) GetHistory(ctx context.Context, req *dto.GetHistoryRequest) (*dto.GetHistoryResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	history, err := s.memory.GetHistory(ctx, req.UserID, req.SessionID, limit)
	if err != nil {
		return nil, err
	}

	res := &dto.GetHistoryResponse{History: make([]dto.HistoryMessageDTO, 0, len(history))}
	for _, m := range history {
		ts := m.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		res.History = append(res.History, dto.HistoryMessageDTO{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: ts,
		})
	}
	return res, nil
}

func (s *chatService) SaveHistory(ctx context.Context, req *dto.SaveHistoryRequest) error {
	return s.memory.SaveHistory(ctx, req.UserID, req.SessionID, req.UserMessage, req.AssistantMessage)
}
