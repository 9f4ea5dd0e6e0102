package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/eth"
	"github.com/sbt-migration/backend/internal/models"
	"github.com/sbt-migration/backend/internal/repositories"
)

// TakeSignatureResult is everything a client needs to submit the take
// transaction itself.
type TakeSignatureResult struct {
	Signature string `json:"signature"`
	From      string `json:"from"`
	Contract  string `json:"contract"`
	ChainID   int64  `json:"chainId"`
}

// MigrationService issues take signatures: the backend's pre-approval for a
// wallet to mint the migration token. Eligibility is checked on both chains
// at issuance time; the contract enforces it again on-chain.
type MigrationService struct {
	target ChainReader
	source ChainReader
	mints  MintArchive
	audit  Auditor
	cfg    *config.Config
	log    *zap.Logger
}

func NewMigrationService(target, source ChainReader, mints MintArchive, audit Auditor, cfg *config.Config, log *zap.Logger) *MigrationService {
	return &MigrationService{target: target, source: source, mints: mints, audit: audit, cfg: cfg, log: log}
}

// TakeSignature checks that the wallet holds the legacy badge and not yet the
// migration token, then signs the take agreement for it.
func (s *MigrationService) TakeSignature(ctx context.Context, walletAddress string) (*TakeSignatureResult, error) {
	lower := strings.ToLower(walletAddress)
	recipient := common.HexToAddress(walletAddress)

	targetBalance, err := s.target.BalanceOf(ctx, common.HexToAddress(s.cfg.Target.SBTContract), recipient)
	if err != nil {
		return nil, fmt.Errorf("target balance: %w", err)
	}
	if targetBalance.Sign() > 0 {
		return nil, ErrAlreadyMigrated
	}

	sourceBalance, err := s.source.BalanceOf(ctx, common.HexToAddress(s.cfg.Source.BadgeContract), recipient)
	if err != nil {
		return nil, fmt.Errorf("source balance: %w", err)
	}
	if sourceBalance.Sign() == 0 {
		return nil, ErrNotEligible
	}

	sig, from, err := eth.SignTake(s.cfg.TakePrivateKey, s.cfg.Target, recipient)
	if err != nil {
		return nil, err
	}

	if err := s.mints.Insert(ctx, &models.MintRecord{
		Reference:     repositories.NewReference(),
		WalletAddress: lower,
		Kind:          models.MintKindTake,
	}); err != nil {
		s.log.Error("take record insert failed", zap.String("wallet", lower), zap.Error(err))
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorWallet: &lower,
		ActorType:   models.ActorWallet,
		Action:      "take_signature_issued",
		EntityType:  "take",
	})

	return &TakeSignatureResult{
		Signature: sig,
		From:      from.Hex(),
		Contract:  s.cfg.Target.SBTContract,
		ChainID:   s.cfg.Target.ChainID,
	}, nil
}
