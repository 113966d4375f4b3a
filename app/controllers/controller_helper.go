package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/smartscan-app/smartscan/internal/pkg/apperrors"
)

// respondError maps a service error onto its HTTP status and a
// {"detail": ...} body.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"detail": apperrors.Message(err),
	})
}

func badRequest(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": detail})
}
