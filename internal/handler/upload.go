package handler

import (
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/imgcrush/api/internal/service"
	"github.com/imgcrush/api/pkg/response"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

type UploadHandler struct {
	service   *service.IngestService
	validator *validator.Validate
}

func NewUploadHandler(svc *service.IngestService, v *validator.Validate) *UploadHandler {
	return &UploadHandler{
		service:   svc,
		validator: v,
	}
}

// Upload handles POST /api/upload. It accepts a multipart CSV file
// and an optional webhook_url form field, and answers with the
// request ID before any processing happens.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}
	if file.Size > maxUploadSize {
		return response.ValidationError(c, "File size exceeds 10MB limit", map[string]interface{}{
			"maxSize":  maxUploadSize,
			"fileSize": file.Size,
		})
	}

	webhookURL := c.FormValue("webhook_url")
	if webhookURL != "" {
		if err := h.validator.Var(webhookURL, "url"); err != nil {
			return response.ValidationError(c, "Invalid webhook_url", nil)
		}
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file")
	}

	result, err := h.service.SubmitCSV(c.Context(), file.Filename, string(content), webhookURL)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFormat) {
			return response.ValidationError(c, "Invalid file format", nil)
		}
		if errors.Is(err, service.ErrInvalidHeaders) {
			return response.ValidationError(c, "Invalid CSV headers", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}
