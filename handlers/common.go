package handlers

import (
	"errors"

	"greened-backend/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Routers are the three mount points: public, user (/s) and admin (/s/admin).
type Routers struct {
	Public  fiber.Router
	Secured fiber.Router
	Admin   fiber.Router
}

var validate = validator.New()

// parseBody decodes the JSON body into dst and runs its validate tags. An
// empty body leaves dst at its zero value.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return err
		}
	}
	return validate.Struct(dst)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
		"cause": err.Error(),
	})
}

// respondError maps service errors to status codes.
func respondError(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrLockTimeout):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, services.ErrNoResponder):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}
