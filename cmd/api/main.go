package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/crypto"
	"github.com/sbt-migration/backend/internal/db"
	"github.com/sbt-migration/backend/internal/eth"
	apphttp "github.com/sbt-migration/backend/internal/http"
	"github.com/sbt-migration/backend/internal/http/handlers"
	"github.com/sbt-migration/backend/internal/repositories"
	"github.com/sbt-migration/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Chain clients
	target, err := eth.NewClient(ctx, cfg.Target, log)
	if err != nil {
		log.Fatal("failed to connect to target chain", zap.Error(err))
	}
	defer target.Close()

	source, err := eth.NewClient(ctx, cfg.Source, log)
	if err != nil {
		log.Fatal("failed to connect to source chain", zap.Error(err))
	}
	defer source.Close()

	box, err := crypto.NewMessageBox(cfg.MessageEncryptionKey)
	if err != nil {
		log.Fatal("invalid message encryption key", zap.Error(err))
	}

	// Repositories
	walletRepo := repositories.NewWalletRepo(rdb)
	sessionRepo := repositories.NewSessionRepo(rdb)
	messageRepo := repositories.NewMessageRepo(rdb)
	nonceRepo := repositories.NewNonceRepo(pool)
	mintRepo := repositories.NewMintRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	queueClient := services.NewQueueClient(cfg, log)
	llmClient := services.NewLLMClient(cfg, log)
	sessionService := services.NewSessionService(sessionRepo, cfg, log)
	authService := services.NewAuthService(nonceRepo, walletRepo, sessionService, auditRepo, target, cfg, log)
	faucetService := services.NewFaucetService(walletRepo, mintRepo, auditRepo, source, target, queueClient, cfg, log)
	chatService := services.NewChatService(walletRepo, target, llmClient, cfg, log)
	migrationService := services.NewMigrationService(target, source, mintRepo, auditRepo, cfg, log)
	messageService := services.NewMessageService(messageRepo, mintRepo, target, box, auditRepo, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	signatureHandler := handlers.NewSignatureHandler(migrationService, messageService, log)
	faucetHandler := handlers.NewFaucetHandler(faucetService, queueClient, cfg.ClaimWebhookURL, log)
	chatHandler := handlers.NewChatHandler(chatService, log)
	messageHandler := handlers.NewMessageHandler(messageService, log)
	mintHandler := handlers.NewMintHandler(mintRepo, log)
	metadataHandler := handlers.NewMetadataHandler(cfg)
	adminHandler := handlers.NewAdminHandler(walletRepo, mintRepo, auditRepo, log)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, sessionService,
		authHandler, signatureHandler, faucetHandler, chatHandler,
		messageHandler, mintHandler, metadataHandler, adminHandler)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
