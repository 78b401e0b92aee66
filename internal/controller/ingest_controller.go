package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lumir-agentic-be/internal/dto"
	"lumir-agentic-be/internal/pkg/serverutils"
	"lumir-agentic-be/internal/service"
	"lumir-agentic-be/pkg/ingest"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	IngestDocuments(ctx *fiber.Ctx) error
	GetJob(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{ingestService: ingestService}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("documents", c.IngestDocuments)
	h.Get("jobs/:id", c.GetJob)
}

func (c *ingestController) IngestDocuments(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.Enqueue(ctx.Context(), &req)
	if err != nil {
		var inputErr *ingest.ValidationError
		if errors.As(err, &inputErr) {
			return fiber.NewError(fiber.StatusBadRequest, inputErr.Error())
		}
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Ingestion job accepted", res))
}

func (c *ingestController) GetJob(ctx *fiber.Ctx) error {
	jobID := ctx.Params("id")

	res := c.ingestService.GetJob(jobID)
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "job not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get job", res))
}
