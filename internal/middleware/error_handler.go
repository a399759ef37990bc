package middleware

import (
	"errors"

	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// statusForCode maps stable core error codes to HTTP statuses.
var statusForCode = map[string]int{
	"INSUFFICIENT_BALANCE": fiber.StatusConflict,
	"INVALID_TRANSITION":   fiber.StatusConflict,
	"CONFLICT":             fiber.StatusConflict,
	"NOT_FOUND":            fiber.StatusNotFound,
	"VALIDATION_FAILED":    fiber.StatusUnprocessableEntity,
	"PERMISSION_DENIED":    fiber.StatusForbidden,
}

// ErrorHandler is the global error handler. Core errors carry a code that
// maps to a status; everything else is a 500 without internals leaked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var coreErr *domain.Error
	if errors.As(err, &coreErr) {
		status, ok := statusForCode[coreErr.Code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return response.Error(c, coreErr.Message, status, map[string]interface{}{
			"code": coreErr.Code,
		})
	}
	if e, ok := err.(*fiber.Error); ok {
		return response.Error(c, e.Message, e.Code, nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
