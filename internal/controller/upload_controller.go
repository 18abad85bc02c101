package controller

import (
	"docqa-be/internal/dto"
	"docqa-be/internal/pkg/logger"
	"docqa-be/internal/pkg/serverutils"
	"docqa-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router)
	UploadFile(ctx *fiber.Ctx) error
}

type uploadController struct {
	uploadService service.IUploadService
	logger        logger.ILogger
}

func NewUploadController(uploadService service.IUploadService, log logger.ILogger) IUploadController {
	return &uploadController{
		uploadService: uploadService,
		logger:        log,
	}
}

func (c *uploadController) RegisterRoutes(r fiber.Router) {
	r.Post("/uploadfile", c.UploadFile)
}

func (c *uploadController) UploadFile(ctx *fiber.Ctx) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Form field 'file' is required")
	}

	path, err := c.uploadService.Save(ctx.UserContext(), fh)
	if err != nil {
		c.logger.Error("UploadController", "File saving failed", map[string]interface{}{
			"file_name": fh.Filename,
			"error":     err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			serverutils.ErrorResponse(fiber.StatusInternalServerError, "File saving failed"),
		)
	}

	return ctx.JSON(dto.UploadFileResponse{Message: "File saved successfully", FilePath: path})
}
