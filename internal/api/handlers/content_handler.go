package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/portfolio/backend/internal/portfolio"
)

type ContentHandler struct {
	portfolio *portfolio.Service
}

func NewContentHandler(svc *portfolio.Service) *ContentHandler {
	return &ContentHandler{portfolio: svc}
}

// GetSection serves one public view. Read failures come back as the empty
// view, not an error.
func (h *ContentHandler) GetSection(c *fiber.Ctx) error {
	section, err := h.portfolio.Section(c.UserContext(), c.Params("section"))
	if errors.Is(err, portfolio.ErrUnknownSection) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown section",
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(section)
}

// GetAll serves every public view in page order.
func (h *ContentHandler) GetAll(c *fiber.Ctx) error {
	sections := make([]portfolio.Section, 0, len(portfolio.SectionNames))
	for _, name := range portfolio.SectionNames {
		section, err := h.portfolio.Section(c.UserContext(), name)
		if err != nil {
			return err
		}
		sections = append(sections, section)
	}

	resp := fiber.Map{"sections": sections}
	if profile, ok := h.portfolio.Profile(c.UserContext()); ok {
		resp["profile"] = profile
	}
	return c.JSON(resp)
}

func (h *ContentHandler) GetProfile(c *fiber.Ctx) error {
	profile, ok := h.portfolio.Profile(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}

	return c.JSON(profile)
}
