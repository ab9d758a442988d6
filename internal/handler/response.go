package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/QuocDL/bitis-be/internal/service"
)

// envelope is the uniform response body: data carries the payload, message a
// human-readable outcome, status the HTTP code and success its boolean twin.
type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Success bool   `json:"success"`
}

func respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(envelope{
		Data:    data,
		Message: message,
		Status:  status,
		Success: status < 400,
	})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return respond(c, status, nil, message)
}

// respondServiceError maps service sentinel errors to HTTP responses. Unknown
// errors are logged and hidden behind a 500.
func respondServiceError(c *fiber.Ctx, err error) error {
	var ruleErr *service.RuleError
	if errors.As(err, &ruleErr) {
		return respondError(c, fiber.StatusBadRequest, ruleErr.Msg)
	}

	switch {
	case errors.Is(err, service.ErrVoucherNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrCatalogItemNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return respondError(c, fiber.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrVoucherNameExists),
		errors.Is(err, service.ErrVoucherCodeExists),
		errors.Is(err, service.ErrCatalogNameExists),
		errors.Is(err, service.ErrEmailExists):
		return respondError(c, fiber.StatusConflict, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		return respondError(c, fiber.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrAccountInactive):
		return respondError(c, fiber.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrVoucherExpired),
		errors.Is(err, service.ErrVoucherInactive),
		errors.Is(err, service.ErrVoucherNewUserOnly),
		errors.Is(err, service.ErrOrderBelowMinimum),
		errors.Is(err, service.ErrUsageExhausted),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidRequest):
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
	return respondError(c, fiber.StatusInternalServerError, "internal server error")
}

// formatValidationError converts validator errors into a single field-level
// message.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "min":
				return "invalid request: " + field + " is below minimum length"
			case "email":
				return "invalid request: " + field + " must be a valid email"
			case "gte":
				return "invalid request: " + field + " is too small"
			case "oneof":
				return "invalid request: " + field + " has an unsupported value"
			}
			return "invalid request: " + field + " is invalid"
		}
	}
	return "invalid request"
}
