package handlers

import (
	"errors"

	"bonus-hunt-service/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors to HTTP responses. Every body carries a human-readable "error".
func respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": verr.Error(),
			"field": verr.Field,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNoSession):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrGuessesClosed):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNoActiveHunt), errors.Is(err, services.ErrHuntNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrGuessConflict),
		errors.Is(err, services.ErrActivationConflict),
		errors.Is(err, services.ErrNoEndingBalance):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrArchiveDisabled):
		status = fiber.StatusServiceUnavailable
	}

	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{
			"error": "something went wrong, please try again",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string, cause error) error {
	body := fiber.Map{"error": msg}
	if cause != nil {
		body["cause"] = cause.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
