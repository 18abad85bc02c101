package controller

import (
	"docqa-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Ping(ctx *fiber.Ctx) error
}

type healthController struct{}

func NewHealthController() IHealthController {
	return &healthController{}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/ping", c.Ping)
}

func (c *healthController) Ping(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.PingResponse{ResponseCode: fiber.StatusOK, ResponseDesc: "Alive!"})
}
