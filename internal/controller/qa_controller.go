package controller

import (
	"errors"

	"docqa-be/internal/dto"
	"docqa-be/internal/pkg/serverutils"
	"docqa-be/internal/repository/contract"
	"docqa-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQAController interface {
	RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler)
	Ask(ctx *fiber.Ctx) error
	ShowRecord(ctx *fiber.Ctx) error
}

type qaController struct {
	qaService service.IQAService
}

func NewQAController(qaService service.IQAService) IQAController {
	return &qaController{
		qaService: qaService,
	}
}

func (c *qaController) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	h := r.Group("/v1/doc-qa")
	h.Use(authMiddleware)
	h.Post("", c.Ask)
	h.Get(":request_id", c.ShowRecord)
}

func (c *qaController) Ask(ctx *fiber.Ctx) error {
	var req dto.DocQARequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// A verified token wins over the body.
	if uid := serverutils.UserID(ctx); uid != "" {
		req.UserID = uid
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.qaService.Ask(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *qaController) ShowRecord(ctx *fiber.Ctx) error {
	rec, err := c.qaService.GetRecord(ctx.UserContext(), ctx.Params("request_id"))
	if errors.Is(err, contract.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Request not found")
	}
	if err != nil {
		return err
	}
	// Token users only see their own requests.
	if uid := serverutils.UserID(ctx); uid != "" && rec.UserID != uid {
		return fiber.NewError(fiber.StatusNotFound, "Request not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show request", rec))
}
