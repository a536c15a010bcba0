package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/imgcrush/api/internal/service"
	"github.com/imgcrush/api/internal/store"
	"github.com/imgcrush/api/pkg/response"
)

type StatusHandler struct {
	service *service.IngestService
}

func NewStatusHandler(svc *service.IngestService) *StatusHandler {
	return &StatusHandler{service: svc}
}

// Status handles GET /api/status/:requestId.
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	requestID := c.Params("requestId")
	if requestID == "" {
		return response.ValidationError(c, "Request ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Request not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
