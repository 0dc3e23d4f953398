package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// writeError traduce un error del motor a su status HTTP y cuerpo estable.
//   - INVALID_INPUT      → 400
//   - NOT_FOUND          → 404
//   - INSUFFICIENT_STOCK → 409 (details: size, requested, available)
//   - STORAGE_ERROR      → 503
//   - resto              → 500
func writeError(c *fiber.Ctx, err error) error {
	code := domain.ErrorCode(err)
	body := dto.ErrorResponse{Code: code, Message: err.Error()}

	status := fiber.StatusInternalServerError
	switch code {
	case domain.CodeInvalidInput:
		status = fiber.StatusBadRequest
	case domain.CodeNotFound:
		status = fiber.StatusNotFound
	case domain.CodeInsufficientStock:
		status = fiber.StatusConflict
		var ise *domain.InsufficientStockError
		if errors.As(err, &ise) {
			body.Details = map[string]any{
				"size":      ise.Size,
				"requested": ise.Requested,
				"available": ise.Available,
			}
		}
	case domain.CodeStorage:
		status = fiber.StatusServiceUnavailable
		body.Message = "almacenamiento no disponible, reintente"
	default:
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
