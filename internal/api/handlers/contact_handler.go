package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/portfolio/backend/internal/portfolio"
)

type ContactHandler struct {
	portfolio *portfolio.Service
}

func NewContactHandler(svc *portfolio.Service) *ContactHandler {
	return &ContactHandler{portfolio: svc}
}

func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var form portfolio.ContactForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	saved, err := form.Submit(c.UserContext(), h.portfolio)
	if errors.Is(err, portfolio.ErrIncompleteMessage) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name, email and message are required",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send message.",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":        saved.ID,
		"timestamp": saved.Timestamp,
	})
}
