package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/llm"
	"github.com/portfolio/backend/pkg/circuitbreaker"
	"github.com/portfolio/backend/pkg/logger"
)

// Generator is the reply source behind the chat endpoints.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// ChatHandler relays already formatted prompts to the inference API, keeping
// the API key on the server.
type ChatHandler struct {
	generator Generator
}

func NewChatHandler(generator Generator) *ChatHandler {
	return &ChatHandler{generator: generator}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	response, err := h.generator.Generate(c.UserContext(), llm.Request{Prompt: req.Prompt, Raw: true})
	if err != nil {
		return chatError(c, err)
	}

	return c.JSON(fiber.Map{
		"response": response,
	})
}

func (h *ChatHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Backend server is running",
	})
}

// chatError maps generation failures to the relay's response contract:
// upstream statuses are mirrored, everything else gets a fixed status.
func chatError(c *fiber.Ctx, err error) error {
	var upErr *llm.UpstreamError

	switch {
	case errors.Is(err, llm.ErrEmptyPrompt):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Prompt is required",
		})

	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Error("Inference API key is not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Inference API key is not configured",
		})

	case errors.As(err, &upErr):
		return c.Status(upErr.StatusCode).JSON(fiber.Map{
			"error":   fmt.Sprintf("Inference API error: %d", upErr.StatusCode),
			"details": upErr.Details,
		})

	case errors.Is(err, llm.ErrInvalidResponse), errors.Is(err, llm.ErrUnexpectedShape):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Invalid response format from inference API",
		})

	case errors.Is(err, llm.ErrNetwork):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Network error contacting inference API",
			"details": err.Error(),
		})

	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Inference API is temporarily unavailable",
		})

	case errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "Inference API timed out",
		})
	}

	logger.Error("Chat relay failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal server error",
		"details": err.Error(),
	})
}
