package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/http/dto"
	"github.com/sbt-migration/backend/internal/middleware"
	"github.com/sbt-migration/backend/internal/models"
	"github.com/sbt-migration/backend/internal/services"
)

type MessageHandler struct {
	messages *services.MessageService
	log      *zap.Logger
}

func NewMessageHandler(messages *services.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

// Messages returns the decrypted messages on the caller's token.
// GET /api/v1/messages?tokenId=
func (h *MessageHandler) Messages(c *fiber.Ctx) error {
	tokenID, err := strconv.ParseUint(c.Query("tokenId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "tokenId is required"})
	}

	msgs, err := h.messages.Messages(c.Context(), middleware.GetWallet(c), tokenID)
	if err != nil {
		if errors.Is(err, services.ErrNotTokenOwner) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("messages lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if msgs == nil {
		msgs = []models.DecryptedMessage{}
	}
	return c.JSON(dto.MessagesResponse{Messages: msgs})
}
