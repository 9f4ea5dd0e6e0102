package handlers

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/http/dto"
	"github.com/sbt-migration/backend/internal/models"
	"github.com/sbt-migration/backend/internal/repositories"
)

type AdminHandler struct {
	wallets *repositories.WalletRepo
	mints   *repositories.MintRepo
	audit   *repositories.AuditRepo
	log     *zap.Logger
}

func NewAdminHandler(wallets *repositories.WalletRepo, mints *repositories.MintRepo, audit *repositories.AuditRepo, log *zap.Logger) *AdminHandler {
	return &AdminHandler{wallets: wallets, mints: mints, audit: audit, log: log}
}

// AddToAllowlist enables the faucet for a batch of wallets, creating records
// where needed.
// POST /api/v1/admin/allowlist
func (h *AdminHandler) AddToAllowlist(c *fiber.Ctx) error {
	var req dto.AllowlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Wallets) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "wallets are required"})
	}

	var added []string
	for _, wallet := range req.Wallets {
		if !common.IsHexAddress(wallet) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet address: " + wallet})
		}
		lower := strings.ToLower(common.HexToAddress(wallet).Hex())

		rec, err := h.wallets.Get(c.Context(), lower)
		if err != nil {
			h.log.Error("allowlist read failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
		if rec == nil {
			rec = models.NewWalletRecord(time.Now().Unix())
		}
		rec.FaucetEnabled = true
		if err := h.wallets.Set(c.Context(), lower, rec); err != nil {
			h.log.Error("allowlist write failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
		added = append(added, lower)
	}

	_ = h.audit.Log(c.Context(), models.AuditLog{
		ActorType:  models.ActorAdmin,
		Action:     "allowlist_added",
		EntityType: "wallet",
		Meta:       map[string]any{"wallets": added},
	})
	return c.JSON(dto.AllowlistResponse{Wallets: added})
}

// RemoveFromAllowlist disables the faucet for one wallet. The record stays so
// chat counters survive.
// DELETE /api/v1/admin/allowlist/:wallet
func (h *AdminHandler) RemoveFromAllowlist(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !common.IsHexAddress(wallet) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet address"})
	}
	lower := strings.ToLower(common.HexToAddress(wallet).Hex())

	_, err := h.wallets.Update(c.Context(), lower, func(w *models.WalletRecord) error {
		w.FaucetEnabled = false
		return nil
	})
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "wallet not found"})
		}
		h.log.Error("allowlist remove failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	_ = h.audit.Log(c.Context(), models.AuditLog{
		ActorType:  models.ActorAdmin,
		Action:     "allowlist_removed",
		EntityType: "wallet",
		EntityID:   &lower,
	})
	return c.JSON(dto.SuccessResponse{Success: true})
}

// ListAllowlist returns every wallet with a record.
// GET /api/v1/admin/allowlist
func (h *AdminHandler) ListAllowlist(c *fiber.Ctx) error {
	wallets, err := h.wallets.List(c.Context())
	if err != nil {
		h.log.Error("allowlist list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if wallets == nil {
		wallets = []string{}
	}
	return c.JSON(dto.AllowlistResponse{Wallets: wallets})
}

// Mints serves the archive: by reference, by UTC day, or the most recent.
// GET /api/v1/admin/mints?date=2026-01-02&ref=MINT-ABC123
func (h *AdminHandler) Mints(c *fiber.Ctx) error {
	ctx := c.Context()

	if ref := c.Query("ref"); ref != "" {
		rec, err := h.mints.GetByReference(ctx, ref)
		if err != nil {
			if err == pgx.ErrNoRows {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "reference not found"})
			}
			h.log.Error("mint lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
		return c.JSON(dto.MintsResponse{Mints: []models.MintRecord{*rec}})
	}

	var (
		records []models.MintRecord
		err     error
	)
	if date := c.Query("date"); date != "" {
		day, parseErr := time.Parse("2006-01-02", date)
		if parseErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid date, want YYYY-MM-DD"})
		}
		records, err = h.mints.ListByDate(ctx, day)
	} else {
		records, err = h.mints.ListRecent(ctx, c.QueryInt("limit", 100))
	}
	if err != nil {
		h.log.Error("mint archive query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if records == nil {
		records = []models.MintRecord{}
	}
	return c.JSON(dto.MintsResponse{Mints: records})
}
