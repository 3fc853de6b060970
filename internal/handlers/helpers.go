package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ngocminh/workpoint-api/internal/services"
)

// serviceError translates a typed service rejection into the wire format.
func serviceError(c *fiber.Ctx, err error) error {
	se := services.AsError(err)
	return c.Status(se.HTTPStatus()).JSON(fiber.Map{
		"error": se.PublicMessage(),
	})
}
