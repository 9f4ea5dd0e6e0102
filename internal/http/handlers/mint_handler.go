package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/http/dto"
	"github.com/sbt-migration/backend/internal/middleware"
	"github.com/sbt-migration/backend/internal/models"
	"github.com/sbt-migration/backend/internal/repositories"
)

type MintHandler struct {
	mints *repositories.MintRepo
	log   *zap.Logger
}

func NewMintHandler(mints *repositories.MintRepo, log *zap.Logger) *MintHandler {
	return &MintHandler{mints: mints, log: log}
}

// MyMints returns the caller's mint history, newest first.
// GET /api/v1/mints
func (h *MintHandler) MyMints(c *fiber.Ctx) error {
	records, err := h.mints.ListByWallet(c.Context(), middleware.GetWallet(c), c.QueryInt("limit", 50))
	if err != nil {
		h.log.Error("mint history lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if records == nil {
		records = []models.MintRecord{}
	}
	return c.JSON(dto.MintsResponse{Mints: records})
}
