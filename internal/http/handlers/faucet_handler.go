package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/http/dto"
	"github.com/sbt-migration/backend/internal/middleware"
	"github.com/sbt-migration/backend/internal/services"
)

// SignatureVerifier authenticates queue webhook deliveries.
type SignatureVerifier interface {
	VerifySignature(signature string, body []byte, expectedURL string) error
}

type FaucetHandler struct {
	faucet     *services.FaucetService
	verifier   SignatureVerifier
	webhookURL string
	log        *zap.Logger
}

func NewFaucetHandler(faucet *services.FaucetService, verifier SignatureVerifier, webhookURL string, log *zap.Logger) *FaucetHandler {
	return &FaucetHandler{faucet: faucet, verifier: verifier, webhookURL: webhookURL, log: log}
}

// Cooldown reports seconds until the caller may claim.
// GET /api/v1/faucet/cooldown
func (h *FaucetHandler) Cooldown(c *fiber.Ctx) error {
	remaining, err := h.faucet.Cooldown(c.Context(), middleware.GetWallet(c))
	if err != nil {
		if errors.Is(err, services.ErrNotAllowlisted) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "NOT_ALLOWLISTED"})
		}
		h.log.Error("cooldown lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.CooldownResponse{NextClaimIn: remaining})
}

// Claim validates eligibility and enqueues the native-coin mint.
// POST /api/v1/faucet/claim
func (h *FaucetHandler) Claim(c *fiber.Ctx) error {
	next, err := h.faucet.Claim(c.Context(), middleware.GetWallet(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAllowlisted):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "NOT_ALLOWLISTED"})
		case errors.Is(err, services.ErrClaimCooldown):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Cannot claim", NextClaimIn: &next})
		default:
			h.log.Error("claim failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
	}
	return c.JSON(dto.CooldownResponse{NextClaimIn: next})
}

// ProcessClaim is the queue-triggered webhook that performs the mint. The
// delivery signature is checked before the body is trusted.
// POST /api/v1/faucet/claim/process
func (h *FaucetHandler) ProcessClaim(c *fiber.Ctx) error {
	body := c.Body()
	if err := h.verifier.VerifySignature(c.Get("Upstash-Signature"), body, h.webhookURL); err != nil {
		h.log.Warn("webhook signature rejected", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid signature"})
	}

	var payload services.ClaimPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.WalletAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid payload"})
	}

	if err := h.faucet.ProcessClaim(c.Context(), payload.WalletAddress); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "mint failed"})
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
