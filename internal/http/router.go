package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/http/handlers"
	"github.com/sbt-migration/backend/internal/middleware"
	"github.com/sbt-migration/backend/internal/services"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	sessions *services.SessionService,
	authHandler *handlers.AuthHandler,
	signatureHandler *handlers.SignatureHandler,
	faucetHandler *handlers.FaucetHandler,
	chatHandler *handlers.ChatHandler,
	messageHandler *handlers.MessageHandler,
	mintHandler *handlers.MintHandler,
	metadataHandler *handlers.MetadataHandler,
	adminHandler *handlers.AdminHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID, " + middleware.SessionHeader,
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Queue webhook: authenticated by the delivery signature, not a session,
	// and exempt from the IP rate limit so queue retries are never throttled.
	api.Post("/faucet/claim/process", faucetHandler.ProcessClaim)

	// Rate-limited public endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Auth (public)
	api.Get("/auth/message/:wallet", authHandler.GetAuthMessage)
	api.Post("/auth/session/:wallet", authHandler.CreateSession)

	// Metadata (public)
	api.Get("/metadata/:tokenId", metadataHandler.Metadata)

	// Session-protected endpoints
	protected := api.Group("", middleware.SessionMiddleware(sessions, log))

	protected.Get("/signature/take", signatureHandler.Take)
	protected.Post("/signature/mint-message", signatureHandler.MintMessage)

	protected.Get("/faucet/cooldown", faucetHandler.Cooldown)
	protected.Post("/faucet/claim", faucetHandler.Claim)

	protected.Post("/chat", chatHandler.Chat)
	protected.Get("/chat/cooldown", chatHandler.Cooldown)

	protected.Get("/messages", messageHandler.Messages)
	protected.Get("/mints", mintHandler.MyMints)

	// Operator endpoints
	admin := api.Group("/admin", middleware.AdminMiddleware(cfg))
	admin.Post("/allowlist", adminHandler.AddToAllowlist)
	admin.Get("/allowlist", adminHandler.ListAllowlist)
	admin.Delete("/allowlist/:wallet", adminHandler.RemoveFromAllowlist)
	admin.Get("/mints", adminHandler.Mints)
}
