package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/http/dto"
	"github.com/sbt-migration/backend/internal/middleware"
	"github.com/sbt-migration/backend/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
	log  *zap.Logger
}

func NewChatHandler(chat *services.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

// Chat runs one rate-limited chat turn.
// POST /api/v1/chat
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "message is required"})
	}

	reply, err := h.chat.Send(c.Context(), middleware.GetWallet(c), req.Message, req.History)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoToken):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Cannot message"})
		case errors.Is(err, services.ErrChatLimited):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:             "Cannot message",
				RemainingCooldown: &reply.RemainingCooldown,
			})
		default:
			h.log.Error("chat failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(dto.ChatResponse{
		Reply:             reply.Reply,
		RemainingCooldown: reply.RemainingCooldown,
		RemainingInputs:   reply.RemainingMessages,
	})
}

// Cooldown reports the caller's chat allowance without consuming it.
// GET /api/v1/chat/cooldown
func (h *ChatHandler) Cooldown(c *fiber.Ctx) error {
	remaining, cooldown, err := h.chat.Status(c.Context(), middleware.GetWallet(c))
	if err != nil {
		h.log.Error("chat status failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.ChatCooldownResponse{
		RemainingCooldown: cooldown,
		RemainingMessages: remaining,
	})
}
