package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/http/dto"
	"github.com/sbt-migration/backend/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// GetAuthMessage issues the sign-in challenge.
// GET /api/v1/auth/message/:wallet?uri=
func (h *AuthHandler) GetAuthMessage(c *fiber.Ctx) error {
	message, err := h.auth.Challenge(c.Context(), c.Params("wallet"), c.Query("uri"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidAddress) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet address"})
		}
		h.log.Error("challenge issue failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.AuthMessageResponse{AuthMessage: message})
}

// CreateSession verifies the signed challenge and opens a session.
// POST /api/v1/auth/session/:wallet
func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" || req.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "message and signature are required"})
	}

	token, err := h.auth.Authenticate(c.Context(), c.Params("wallet"), req.Message, req.Signature)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "signature verification failed"})
		}
		h.log.Error("authentication failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SessionResponse{SessionID: token})
}
