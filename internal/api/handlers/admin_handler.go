package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/auth"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/internal/storage/models"
	"github.com/portfolio/backend/pkg/logger"
)

type AdminHandler struct {
	portfolio *portfolio.Service
	auth      auth.Authenticator
}

func NewAdminHandler(svc *portfolio.Service, authenticator auth.Authenticator) *AdminHandler {
	return &AdminHandler{portfolio: svc, auth: authenticator}
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := auth.Check(h.auth, req.Username, req.Password); err != nil {
		logger.Warn("Admin login rejected", zap.String("username", req.Username), zap.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	logger.Info("Admin logged in", zap.String("username", req.Username))
	return c.JSON(fiber.Map{
		"authenticated": true,
	})
}

func (h *AdminHandler) List(c *fiber.Ctx) error {
	collection := c.Params("collection")
	items, err := h.portfolio.ListRecords(c.UserContext(), collection)
	if err != nil {
		return h.storeError(c, err, "load", collection)
	}
	return c.JSON(items)
}

func (h *AdminHandler) Create(c *fiber.Ctx) error {
	collection := c.Params("collection")
	item, err := h.portfolio.CreateRecord(c.UserContext(), collection, c.Body())
	if err != nil {
		return h.storeError(c, err, "add", collection)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *AdminHandler) Update(c *fiber.Ctx) error {
	collection := c.Params("collection")
	item, err := h.portfolio.UpdateRecord(c.UserContext(), collection, c.Params("id"), c.Body())
	if err != nil {
		return h.storeError(c, err, "update", collection)
	}
	return c.JSON(item)
}

func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	collection := c.Params("collection")
	if err := h.portfolio.DeleteRecord(c.UserContext(), collection, c.Params("id")); err != nil {
		return h.storeError(c, err, "delete", collection)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AdminHandler) GetProfile(c *fiber.Ctx) error {
	profile, ok := h.portfolio.Profile(c.UserContext())
	if !ok {
		return c.JSON(models.Profile{})
	}
	return c.JSON(profile)
}

func (h *AdminHandler) SaveProfile(c *fiber.Ctx) error {
	var profile models.Profile
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	saved, err := h.portfolio.SaveProfile(c.UserContext(), profile)
	if err != nil {
		return h.storeError(c, err, "save", models.CollectionProfile)
	}
	return c.JSON(saved)
}

func (h *AdminHandler) BulkAddSkills(c *fiber.Ctx) error {
	var req struct {
		Names    string `json:"names"`
		Category string `json:"category"`
		Level    int    `json:"level"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(portfolio.SplitNames(req.Names)) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one name is required",
		})
	}

	created, err := h.portfolio.BulkAddSkills(c.UserContext(), req.Names, req.Category, req.Level)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to add skills.",
			"created": created,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"created": created,
		"count":   len(created),
	})
}

func (h *AdminHandler) BulkAddTechnologies(c *fiber.Ctx) error {
	var req struct {
		Names       string `json:"names"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(portfolio.SplitNames(req.Names)) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one name is required",
		})
	}

	created, err := h.portfolio.BulkAddTechnologies(c.UserContext(), req.Names, req.Category, req.Description)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to add technologies.",
			"created": created,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"created": created,
		"count":   len(created),
	})
}

// storeError turns a service error into the dashboard's alert text.
func (h *AdminHandler) storeError(c *fiber.Ctx, err error, verb, collection string) error {
	entity := h.portfolio.EntityName(collection)

	switch {
	case errors.Is(err, portfolio.ErrUnknownSection):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown collection",
		})
	case errors.Is(err, portfolio.ErrInvalidRecord):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("%s not found", capitalize(entity)),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fmt.Sprintf("Failed to %s %s.", verb, entity),
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
