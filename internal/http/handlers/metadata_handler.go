package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/http/dto"
)

type MetadataHandler struct {
	cfg *config.Config
}

func NewMetadataHandler(cfg *config.Config) *MetadataHandler {
	return &MetadataHandler{cfg: cfg}
}

// Metadata serves the public ERC-721 metadata document for a token.
// GET /api/v1/metadata/:tokenId
func (h *MetadataHandler) Metadata(c *fiber.Ctx) error {
	tokenID, err := strconv.ParseUint(c.Params("tokenId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid token id"})
	}

	base := strings.TrimSuffix(h.cfg.MetadataBaseURL, "/")
	return c.JSON(dto.TokenMetadata{
		Name:        fmt.Sprintf("Migration Badge #%d", tokenID),
		Description: "Soulbound badge minted through the migration service.",
		Image:       fmt.Sprintf("%s/%d.png", base, tokenID),
	})
}
