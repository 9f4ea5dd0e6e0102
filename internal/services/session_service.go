package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/models"
)

// SessionService issues and validates opaque session tokens. A token carries
// no claims; everything lives server-side in redis.
type SessionService struct {
	sessions SessionStore
	cfg      *config.Config
	log      *zap.Logger
}

func NewSessionService(sessions SessionStore, cfg *config.Config, log *zap.Logger) *SessionService {
	return &SessionService{sessions: sessions, cfg: cfg, log: log}
}

// Issue creates a fresh session for the wallet and returns its token.
func (s *SessionService) Issue(ctx context.Context, walletAddress string) (string, error) {
	id := uuid.New().String()
	now := time.Now().Unix()

	rec := &models.SessionRecord{
		WalletAddress: strings.ToLower(walletAddress),
		IssuedAt:      now,
		ExpiresAt:     now + int64(s.cfg.SessionTTL.Seconds()),
	}
	if err := s.sessions.Set(ctx, id, rec, s.cfg.SessionTTL); err != nil {
		return "", err
	}

	s.log.Info("session issued", zap.String("wallet", rec.WalletAddress))
	return id, nil
}

// Validate resolves a token to its wallet address. Unknown tokens are
// ErrUnauthorized; known-but-expired tokens are ErrSessionExpired so the
// client can distinguish "sign in" from "sign in again".
func (s *SessionService) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	rec, err := s.sessions.Get(ctx, token)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrUnauthorized
	}
	if rec.Expired(time.Now().Unix()) {
		return "", ErrSessionExpired
	}
	return rec.WalletAddress, nil
}

// Revoke drops a session immediately.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}
