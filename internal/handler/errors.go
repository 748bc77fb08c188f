package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/onlytraining/trainsync/internal/domain"
)

// errorResponse maps domain errors to HTTP status codes.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrWorkoutNotFound),
		errors.Is(err, domain.ErrWorkoutItemNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionItemNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrSessionActive),
		errors.Is(err, domain.ErrOperationInFlight):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrWorkoutHasNoItems):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOffline):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
