package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/http/dto"
	"github.com/sbt-migration/backend/internal/middleware"
	"github.com/sbt-migration/backend/internal/services"
)

type SignatureHandler struct {
	migration *services.MigrationService
	messages  *services.MessageService
	log       *zap.Logger
}

func NewSignatureHandler(migration *services.MigrationService, messages *services.MessageService, log *zap.Logger) *SignatureHandler {
	return &SignatureHandler{migration: migration, messages: messages, log: log}
}

// Take issues the EIP-712 pre-approval for the caller to mint the migration
// token.
// GET /api/v1/signature/take
func (h *SignatureHandler) Take(c *fiber.Ctx) error {
	result, err := h.migration.TakeSignature(c.Context(), middleware.GetWallet(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyMigrated), errors.Is(err, services.ErrNotEligible):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		default:
			h.log.Error("take signature failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
	}
	return c.JSON(result)
}

// MintMessage encrypts a message, stores it, and signs its hash for minting.
// POST /api/v1/signature/mint-message
func (h *SignatureHandler) MintMessage(c *fiber.Ctx) error {
	var req dto.MintMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "message is required"})
	}

	result, err := h.messages.RequestMintSignature(c.Context(), middleware.GetWallet(c), req.TokenID, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrNotTokenOwner) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("mint message signature failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(result)
}
