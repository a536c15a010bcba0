package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/imgcrush/api/internal/service"
	"github.com/imgcrush/api/internal/store"
	"github.com/imgcrush/api/pkg/response"
)

type ExportHandler struct {
	service *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export handles GET /api/export/:requestId. The output CSV is sent
// as a download attachment.
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	requestID := c.Params("requestId")
	if requestID == "" {
		return response.ValidationError(c, "Request ID is required", nil)
	}

	data, err := h.service.BuildCSV(c.Context(), requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "No products found for the given request")
		}
		return response.ServiceError(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=output_%s.csv`, requestID))
	return c.Send(data)
}
