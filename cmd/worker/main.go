package main

import (
	"context"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/db"
	"github.com/sbt-migration/backend/internal/eth"
	"github.com/sbt-migration/backend/internal/models"
	"github.com/sbt-migration/backend/internal/repositories"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	target, err := eth.NewClient(ctx, cfg.Target, log)
	if err != nil {
		log.Fatal("failed to connect to target chain", zap.Error(err))
	}
	defer target.Close()

	// Repos
	nonceRepo := repositories.NewNonceRepo(pool)
	mintRepo := repositories.NewMintRepo(pool)
	messageRepo := repositories.NewMessageRepo(rdb)

	log.Info("worker started")

	// Run jobs on tickers
	purgeTicker := time.NewTicker(10 * time.Minute)
	reconcileTicker := time.NewTicker(1 * time.Minute)
	defer purgeTicker.Stop()
	defer reconcileTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-purgeTicker.C:
			runNoncePurge(ctx, nonceRepo, log)
		case <-reconcileTicker.C:
			runTakeReconciliation(ctx, mintRepo, target, cfg, log)
			runMessageReconciliation(ctx, mintRepo, messageRepo, target, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runNoncePurge(ctx context.Context, nonceRepo *repositories.NonceRepo, log *zap.Logger) {
	purged, err := nonceRepo.PurgeExpired(ctx)
	if err != nil {
		log.Error("failed to purge nonces", zap.Error(err))
		return
	}
	if purged > 0 {
		log.Info("purged expired nonces", zap.Int64("count", purged))
	}
}

// runTakeReconciliation flips take records once the wallet's migration token
// shows up on-chain. Take signatures are submitted by the wallet itself, so
// the backend only learns about the mint by looking.
func runTakeReconciliation(ctx context.Context, mintRepo *repositories.MintRepo, target *eth.Client, cfg *config.Config, log *zap.Logger) {
	records, err := mintRepo.ListUnminted(ctx, models.MintKindTake, 100)
	if err != nil {
		log.Error("failed to list unminted takes", zap.Error(err))
		return
	}

	contract := common.HexToAddress(cfg.Target.SBTContract)
	for _, rec := range records {
		balance, err := target.BalanceOf(ctx, contract, common.HexToAddress(rec.WalletAddress))
		if err != nil {
			log.Warn("take reconciliation balance check failed",
				zap.String("reference", rec.Reference), zap.Error(err))
			continue
		}
		if balance.Sign() == 0 {
			continue
		}
		if err := mintRepo.MarkMinted(ctx, rec.ID); err != nil {
			log.Error("failed to mark take minted", zap.String("reference", rec.Reference), zap.Error(err))
			continue
		}
		log.Info("take reconciled", zap.String("reference", rec.Reference), zap.String("wallet", rec.WalletAddress))
	}
}

// runMessageReconciliation flips message records once their hash appears in
// the token's on-chain message list, both in the archive and in the encrypted
// message store.
func runMessageReconciliation(ctx context.Context, mintRepo *repositories.MintRepo, messageRepo *repositories.MessageRepo, target *eth.Client, cfg *config.Config, log *zap.Logger) {
	records, err := mintRepo.ListUnminted(ctx, models.MintKindMessage, 100)
	if err != nil {
		log.Error("failed to list unminted messages", zap.Error(err))
		return
	}

	contract := common.HexToAddress(cfg.Target.SBTContract)
	for _, rec := range records {
		if rec.MessageHash == nil || rec.TokenID == nil {
			continue
		}

		hashes, err := target.MessageHashes(ctx, contract, big.NewInt(*rec.TokenID))
		if err != nil {
			log.Warn("message reconciliation lookup failed",
				zap.String("reference", rec.Reference), zap.Error(err))
			continue
		}

		if !containsHash(hashes, *rec.MessageHash) {
			continue
		}

		if err := mintRepo.MarkMinted(ctx, rec.ID); err != nil {
			log.Error("failed to mark message minted", zap.String("reference", rec.Reference), zap.Error(err))
			continue
		}

		stored, err := messageRepo.Get(ctx, *rec.MessageHash)
		if err != nil || stored == nil {
			continue
		}
		stored.Minted = true
		stored.MintedAt = time.Now().Unix()
		if err := messageRepo.Set(ctx, *rec.MessageHash, stored); err != nil {
			log.Error("failed to update message record", zap.String("hash", *rec.MessageHash), zap.Error(err))
		}

		log.Info("message reconciled", zap.String("reference", rec.Reference), zap.String("hash", *rec.MessageHash))
	}
}

func containsHash(hashes []common.Hash, hex string) bool {
	want := common.HexToHash(hex)
	for _, h := range hashes {
		if h == want {
			return true
		}
	}
	return false
}
