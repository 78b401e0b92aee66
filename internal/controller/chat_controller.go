package controller

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"lumir-agentic-be/internal/dto"
	"lumir-agentic-be/internal/pkg/logger"
	"lumir-agentic-be/internal/pkg/serverutils"
	"lumir-agentic-be/internal/service"
	"lumir-agentic-be/pkg/agent"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	InvokeChat(ctx *fiber.Ctx) error
	InvokeAgent(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	log         logger.ILogger
}

func NewChatController(chatService service.IChatService, log logger.ILogger) IChatController {
	return &chatController{chatService: chatService, log: log}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	chat := r.Group("/chat/v1")
	chat.Post("invoke", c.InvokeChat)

	ag := r.Group("/agent/v1")
	ag.Post("invoke", c.InvokeAgent)
}

func (c *chatController) InvokeChat(ctx *fiber.Ctx) error {
	return c.invoke(ctx, agent.VariantChat)
}

func (c *chatController) InvokeAgent(ctx *fiber.Ctx) error {
	return c.invoke(ctx, agent.VariantAgent)
}

func (c *chatController) invoke(ctx *fiber.Ctx, variant agent.Variant) error {
	var req dto.InvokeChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The agent variant always streams; the chat variant streams on request.
	if req.Stream || variant == agent.VariantAgent {
		return c.stream(ctx, variant, &req)
	}

	res, err := c.chatService.Invoke(ctx.Context(), variant, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success invoke", res))
}

// stream forwards generation fragments as they arrive. The client closing
// the connection cancels the request context and the upstream call.
func (c *chatController) stream(ctx *fiber.Ctx, variant agent.Variant, req *dto.InvokeChatRequest) error {
	reqCtx := ctx.Context()

	state, textCh, errCh, err := c.chatService.InvokeStream(reqCtx, variant, req)
	if err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/plain; charset=utf-8")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		var full strings.Builder
		for fragment := range textCh {
			full.WriteString(fragment)
			if _, err := w.WriteString(fragment); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}

		if streamErr := <-errCh; streamErr != nil {
			c.log.Error("chat", "stream aborted", map[string]interface{}{"error": streamErr.Error()})
			fmt.Fprint(w, agent.FallbackResponse(state.Language))
			w.Flush()
			return
		}

		response := full.String()
		state.Complete(response)
		c.chatService.SaveTurn(reqCtx, req.UserID, req.SessionID, req.UserQuestion, response)
	})
	return nil
}
