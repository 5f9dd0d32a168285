package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// StatusMapper resolves domain errors to a status code. It reports false for
// errors it does not know.
type StatusMapper func(err error) (int, bool)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// envelope. Unknown errors become 500.
func ErrorHandlerMiddleware(mappers ...StatusMapper) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).
				JSON(ErrorResponseWithData(fiber.StatusBadRequest, "Validation failed", verr.Fields))
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
		}

		for _, m := range mappers {
			if code, ok := m(err); ok {
				return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
			}
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
