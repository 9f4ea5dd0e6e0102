package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/models"
)

func chatFixture(llm *fakeLLM) (*ChatService, *fakeWalletStore, *fakeChain) {
	cfg := &config.Config{
		Target:              config.Network{SBTContract: "0x1111111111111111111111111111111111111111"},
		ChatLimit:           5,
		ChatCooldownSeconds: 86400,
	}
	wallets := newFakeWalletStore()
	chain := newFakeChain()
	svc := NewChatService(wallets, chain, llm, cfg, zap.NewNop())
	return svc, wallets, chain
}

func grantToken(chain *fakeChain) {
	chain.setBalance(common.HexToAddress("0x1111111111111111111111111111111111111111"), common.HexToAddress(testWallet), 1)
}

func TestSend_RequiresToken(t *testing.T) {
	svc, _, _ := chatFixture(&fakeLLM{reply: "hello"})

	_, err := svc.Send(context.Background(), testWallet, "hi", nil)
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("got %v, want ErrNoToken", err)
	}
}

func TestSend_ConsumesQuota(t *testing.T) {
	llm := &fakeLLM{reply: "greetings"}
	svc, wallets, chain := chatFixture(llm)
	grantToken(chain)
	ctx := context.Background()

	out, err := svc.Send(ctx, testWallet, "hi", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Reply != "greetings" {
		t.Fatalf("reply = %q", out.Reply)
	}
	if out.RemainingMessages != 4 {
		t.Fatalf("remaining = %d, want 4", out.RemainingMessages)
	}

	rec, _ := wallets.Get(ctx, strings.ToLower(testWallet))
	if rec.MessageCount != 1 {
		t.Fatalf("count = %d, want 1", rec.MessageCount)
	}
}

func TestSend_LimitReached(t *testing.T) {
	svc, wallets, chain := chatFixture(&fakeLLM{reply: "x"})
	grantToken(chain)
	ctx := context.Background()

	rec := models.NewWalletRecord(time.Now().Unix())
	rec.MessageCount = 5
	_ = wallets.Set(ctx, strings.ToLower(testWallet), rec)

	out, err := svc.Send(ctx, testWallet, "hi", nil)
	if !errors.Is(err, ErrChatLimited) {
		t.Fatalf("got %v, want ErrChatLimited", err)
	}
	if out.RemainingCooldown <= 0 {
		t.Fatalf("remaining cooldown = %d, want > 0", out.RemainingCooldown)
	}
}

func TestSend_ElapsedWindowResets(t *testing.T) {
	svc, wallets, chain := chatFixture(&fakeLLM{reply: "fresh"})
	grantToken(chain)
	ctx := context.Background()

	rec := models.NewWalletRecord(time.Now().Unix() - 90000)
	rec.MessageCount = 5
	_ = wallets.Set(ctx, strings.ToLower(testWallet), rec)

	out, err := svc.Send(ctx, testWallet, "hi", nil)
	if err != nil {
		t.Fatalf("send after elapsed window: %v", err)
	}
	if out.RemainingMessages != 4 {
		t.Fatalf("remaining = %d, want 4 after reset", out.RemainingMessages)
	}

	stored, _ := wallets.Get(ctx, strings.ToLower(testWallet))
	if stored.MessageCount != 1 {
		t.Fatalf("count = %d, want 1 after reset", stored.MessageCount)
	}
}

func TestSend_LLMFailureIsFree(t *testing.T) {
	llm := &fakeLLM{err: errors.New("upstream down")}
	svc, wallets, chain := chatFixture(llm)
	grantToken(chain)
	ctx := context.Background()

	out, err := svc.Send(ctx, testWallet, "hi", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Reply != fallbackReply {
		t.Fatalf("reply = %q, want fallback", out.Reply)
	}

	rec, _ := wallets.Get(ctx, strings.ToLower(testWallet))
	if rec.MessageCount != 0 {
		t.Fatalf("count = %d, fallback must not consume quota", rec.MessageCount)
	}
}

func TestStatus(t *testing.T) {
	svc, wallets, _ := chatFixture(&fakeLLM{})
	ctx := context.Background()

	// No record yet: full allowance.
	remaining, cooldown, err := svc.Status(ctx, testWallet)
	if err != nil || remaining != 5 || cooldown != 0 {
		t.Fatalf("fresh: remaining=%d cooldown=%d err=%v", remaining, cooldown, err)
	}

	rec := models.NewWalletRecord(time.Now().Unix())
	rec.MessageCount = 3
	_ = wallets.Set(ctx, strings.ToLower(testWallet), rec)

	remaining, cooldown, err = svc.Status(ctx, testWallet)
	if err != nil || remaining != 2 {
		t.Fatalf("partial: remaining=%d err=%v", remaining, err)
	}
	if cooldown <= 0 {
		t.Fatalf("cooldown = %d, want > 0 inside window", cooldown)
	}
}
