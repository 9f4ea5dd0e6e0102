package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/models"
	"github.com/sbt-migration/backend/internal/repositories"
)

// ClaimPayload is the queue message carrying one faucet claim from the API
// to the webhook processor.
type ClaimPayload struct {
	WalletAddress string `json:"walletAddress"`
}

// FaucetService gates native-coin claims behind the allowlist, the legacy
// badge balance, and a per-wallet cooldown. Claims are stamped optimistically
// and processed asynchronously; a failed mint rolls the cooldown back.
type FaucetService struct {
	wallets WalletStore
	mints   MintArchive
	audit   Auditor
	source  ChainReader
	target  ChainWriter
	queue   Enqueuer
	cfg     *config.Config
	log     *zap.Logger
}

func NewFaucetService(wallets WalletStore, mints MintArchive, audit Auditor, source ChainReader, target ChainWriter, queue Enqueuer, cfg *config.Config, log *zap.Logger) *FaucetService {
	return &FaucetService{
		wallets: wallets,
		mints:   mints,
		audit:   audit,
		source:  source,
		target:  target,
		queue:   queue,
		cfg:     cfg,
		log:     log,
	}
}

// Cooldown returns seconds until the wallet may claim again. Zero means a
// claim is permitted now.
func (s *FaucetService) Cooldown(ctx context.Context, walletAddress string) (int64, error) {
	rec, err := s.wallets.Get(ctx, strings.ToLower(walletAddress))
	if err != nil {
		return 0, err
	}
	if rec == nil || !rec.FaucetEnabled {
		return 0, ErrNotAllowlisted
	}
	return rec.RemainingClaimCooldown(time.Now().Unix(), s.cfg.FaucetCooldownSeconds), nil
}

// Claim validates eligibility, stamps the cooldown, and enqueues the mint.
// On cooldown it returns the remaining seconds with ErrClaimCooldown; on
// success it returns the full cooldown as the next-claim hint.
func (s *FaucetService) Claim(ctx context.Context, walletAddress string) (int64, error) {
	lower := strings.ToLower(walletAddress)

	rec, err := s.wallets.Get(ctx, lower)
	if err != nil {
		return 0, err
	}
	if rec == nil || !rec.FaucetEnabled {
		return 0, ErrNotAllowlisted
	}

	balance, err := s.source.BalanceOf(ctx, common.HexToAddress(s.cfg.Source.BadgeContract), common.HexToAddress(walletAddress))
	if err != nil {
		return 0, fmt.Errorf("badge balance: %w", err)
	}
	if balance.Sign() == 0 {
		return 0, ErrNotAllowlisted
	}

	// Stamp before enqueueing. The conditional re-check inside Update closes
	// the race between two concurrent claims for the same wallet.
	var remaining int64
	_, err = s.wallets.Update(ctx, lower, func(w *models.WalletRecord) error {
		now := time.Now().Unix()
		if !w.CanClaim(now, s.cfg.FaucetCooldownSeconds) {
			remaining = w.RemainingClaimCooldown(now, s.cfg.FaucetCooldownSeconds)
			return ErrClaimCooldown
		}
		w.MarkClaimed(now)
		return nil
	})
	if err != nil {
		return remaining, err
	}

	if err := s.queue.Enqueue(ctx, s.cfg.ClaimWebhookURL, ClaimPayload{WalletAddress: lower}); err != nil {
		s.rollbackCooldown(ctx, lower)
		return 0, fmt.Errorf("enqueue claim: %w", err)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorWallet: &lower,
		ActorType:   models.ActorWallet,
		Action:      "faucet_claim_enqueued",
		EntityType:  "faucet_claim",
	})
	return s.cfg.FaucetCooldownSeconds, nil
}

// ProcessClaim performs the actual native-coin mint. Called from the queue
// webhook; a failed mint rolls the cooldown back so the wallet can retry
// immediately.
func (s *FaucetService) ProcessClaim(ctx context.Context, walletAddress string) error {
	lower := strings.ToLower(walletAddress)

	amount, ok := new(big.Int).SetString(s.cfg.FaucetAmountWei, 10)
	if !ok {
		return fmt.Errorf("invalid faucet amount %q", s.cfg.FaucetAmountWei)
	}

	txHash, err := s.target.MintNativeCoin(ctx,
		s.cfg.FaucetPrivateKey,
		common.HexToAddress(s.cfg.Target.FaucetContract),
		common.HexToAddress(walletAddress),
		amount,
	)
	if err != nil {
		s.log.Error("faucet mint failed", zap.String("wallet", lower), zap.Error(err))
		s.rollbackCooldown(ctx, lower)
		_ = s.audit.Log(ctx, models.AuditLog{
			ActorWallet: &lower,
			ActorType:   models.ActorQueue,
			Action:      "faucet_claim_failed",
			EntityType:  "faucet_claim",
			Meta:        map[string]string{"error": err.Error()},
		})
		return err
	}

	tx := txHash.Hex()
	now := time.Now()
	if err := s.mints.Insert(ctx, &models.MintRecord{
		Reference:     repositories.NewReference(),
		WalletAddress: lower,
		Kind:          models.MintKindFaucet,
		TxHash:        &tx,
		Minted:        true,
		MintedAt:      &now,
	}); err != nil {
		s.log.Error("mint record insert failed", zap.String("tx", tx), zap.Error(err))
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorWallet: &lower,
		ActorType:   models.ActorQueue,
		Action:      "faucet_claim_processed",
		EntityType:  "faucet_claim",
		EntityID:    &tx,
	})
	return nil
}

func (s *FaucetService) rollbackCooldown(ctx context.Context, lower string) {
	_, err := s.wallets.Update(ctx, lower, func(w *models.WalletRecord) error {
		w.RollbackClaim(time.Now().Unix(), s.cfg.FaucetCooldownSeconds)
		return nil
	})
	if err != nil {
		s.log.Error("cooldown rollback failed", zap.String("wallet", lower), zap.Error(err))
	}
}
