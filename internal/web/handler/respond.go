package handler

import (
	"github.com/gofiber/fiber/v2"
)

// JSON writes {"message": msg} merged with extra.
func JSON(c *fiber.Ctx, status int, msg string, extra fiber.Map) error {
	body := fiber.Map{"message": msg}
	for k, v := range extra {
		body[k] = v
	}

	return c.Status(status).JSON(body)
}
