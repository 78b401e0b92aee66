package controller

import (
	"github.com/gofiber/fiber/v2"

	"lumir-agentic-be/internal/dto"
	"lumir-agentic-be/internal/pkg/serverutils"
	"lumir-agentic-be/internal/service"
)

type IHistoryController interface {
	RegisterRoutes(r fiber.Router)
	Get(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
}

type historyController struct {
	chatService service.IChatService
}

func NewHistoryController(chatService service.IChatService) IHistoryController {
	return &historyController{chatService: chatService}
}

func (c *historyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/history/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("get", c.Get)
	h.Post("save", c.Save)
}

func (c *historyController) Get(ctx *fiber.Ctx) error {
	var req dto.GetHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.GetHistory(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *historyController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.chatService.SaveHistory(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success save history", nil))
}
