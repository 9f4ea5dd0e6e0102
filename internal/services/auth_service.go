package services

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/eth"
	"github.com/sbt-migration/backend/internal/models"
)

// AuthService runs the sign-in-with-Ethereum handshake: challenge issuance
// backed by single-use nonces, then signature verification and session
// issuance. Contract wallets are supported through the EIP-1271 verifier.
type AuthService struct {
	nonces   NonceStore
	wallets  WalletStore
	sessions *SessionService
	audit    Auditor
	verifier eth.ContractVerifier
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthService(nonces NonceStore, wallets WalletStore, sessions *SessionService, audit Auditor, verifier eth.ContractVerifier, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		nonces:   nonces,
		wallets:  wallets,
		sessions: sessions,
		audit:    audit,
		verifier: verifier,
		cfg:      cfg,
		log:      log,
	}
}

// Challenge issues a sign-in message bound to a fresh nonce. The nonce is
// persisted with the requesting wallet so a challenge cannot be replayed or
// redeemed by a different address.
func (s *AuthService) Challenge(ctx context.Context, walletAddress, uri string) (string, error) {
	if !common.IsHexAddress(walletAddress) {
		return "", ErrInvalidAddress
	}
	address := common.HexToAddress(walletAddress)
	lower := strings.ToLower(address.Hex())

	nonce, err := s.nonces.Create(ctx, &lower, s.cfg.NonceTTL)
	if err != nil {
		return "", err
	}

	if uri == "" {
		uri = "https://" + s.cfg.SiweDomain
	}
	return eth.BuildAuthMessage(address, s.cfg.Target.ChainID, s.cfg.SiweDomain, uri, nonce.Nonce), nil
}

// Authenticate verifies a signed challenge and returns a session token. The
// nonce is consumed before signature verification, so a failed attempt still
// burns it. All failure modes collapse to ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, walletAddress, message, signature string) (string, error) {
	if !common.IsHexAddress(walletAddress) {
		return "", ErrUnauthorized
	}
	address := common.HexToAddress(walletAddress)
	lower := strings.ToLower(address.Hex())

	parsed, err := eth.ParseAuthMessage(message)
	if err != nil {
		return "", ErrUnauthorized
	}

	nonce, err := s.nonces.Consume(ctx, parsed.Nonce)
	if err != nil {
		s.log.Warn("nonce consume failed", zap.String("wallet", lower))
		return "", ErrUnauthorized
	}
	if nonce.WalletAddress != nil && *nonce.WalletAddress != lower {
		return "", ErrUnauthorized
	}

	ok, err := eth.VerifyAuthSignature(ctx, s.verifier, address, message, signature, s.cfg.SiweAllowedDomains)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnauthorized
	}

	token, err := s.sessions.Issue(ctx, lower)
	if err != nil {
		return "", err
	}

	if err := s.ensureWalletRecord(ctx, lower); err != nil {
		s.log.Warn("wallet record init failed", zap.String("wallet", lower), zap.Error(err))
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorWallet: &lower,
		ActorType:   models.ActorWallet,
		Action:      "session_issued",
		EntityType:  "session",
	})
	return token, nil
}

// ensureWalletRecord lazily creates the per-wallet counter record on first
// sign-in. Existing records are left untouched.
func (s *AuthService) ensureWalletRecord(ctx context.Context, lower string) error {
	rec, err := s.wallets.Get(ctx, lower)
	if err != nil {
		return err
	}
	if rec != nil {
		return nil
	}
	return s.wallets.Set(ctx, lower, models.NewWalletRecord(time.Now().Unix()))
}
