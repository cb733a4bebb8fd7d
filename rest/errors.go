package rest

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrorResponse is the uniform failure body every endpoint returns.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// statusFor maps a structured error onto an HTTP status.
func statusFor(err error) int {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return fiber.StatusInternalServerError
	}

	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		if rich.Code == goerrors.CodeForbidden {
			return fiber.StatusForbidden
		}
		return fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// NewErrorHandler builds the fiber error handler. Internal error text
// is suppressed unless debug is on; domain errors pass through.
func NewErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := statusFor(err)

		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		message := err.Error()
		code := ""

		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			message = rich.Message
			code = rich.TextCode
		}

		if status >= fiber.StatusInternalServerError && !debug {
			message = "internal server error"
			code = ""
		}

		return c.Status(status).JSON(ErrorResponse{
			Success: false,
			Error:   message,
			Code:    code,
		})
	}
}
