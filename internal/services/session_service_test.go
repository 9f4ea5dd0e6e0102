package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/models"
)

func sessionFixture() (*SessionService, *fakeSessionStore) {
	store := newFakeSessionStore()
	cfg := &config.Config{SessionTTL: time.Hour}
	return NewSessionService(store, cfg, zap.NewNop()), store
}

func TestSession_IssueAndValidate(t *testing.T) {
	svc, _ := sessionFixture()
	ctx := context.Background()

	token, err := svc.Issue(ctx, testWallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	wallet, err := svc.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if wallet != strings.ToLower(testWallet) {
		t.Fatalf("wallet = %q, want lower-cased address", wallet)
	}
}

func TestSession_UnknownToken(t *testing.T) {
	svc, _ := sessionFixture()

	if _, err := svc.Validate(context.Background(), "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Validate(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token: got %v, want ErrUnauthorized", err)
	}
}

func TestSession_Expired(t *testing.T) {
	svc, store := sessionFixture()
	ctx := context.Background()

	now := time.Now().Unix()
	_ = store.Set(ctx, "stale", &models.SessionRecord{
		WalletAddress: strings.ToLower(testWallet),
		IssuedAt:      now - 7200,
		ExpiresAt:     now - 3600,
	}, time.Hour)

	if _, err := svc.Validate(ctx, "stale"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}
}

func TestSession_Revoke(t *testing.T) {
	svc, _ := sessionFixture()
	ctx := context.Background()

	token, _ := svc.Issue(ctx, testWallet)
	if err := svc.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized after revoke", err)
	}
}
