package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/models"
)

// ChatMessage is one prior turn of the conversation, client-supplied.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the outcome of one send: the reply plus the wallet's updated
// allowance so clients can render the remaining quota without a second call.
type ChatReply struct {
	Reply             string
	RemainingMessages int
	RemainingCooldown int64
}

// fallbackReply is returned when the language model is unreachable. The send
// still succeeds but does not consume quota.
const fallbackReply = "I seem to have lost my train of thought. Give me a moment and ask again."

// ChatService rate-limits LLM chat per wallet: a fixed number of messages per
// cooldown window, gated on holding the migration token. Quota is consumed
// only when a real reply comes back.
type ChatService struct {
	wallets WalletStore
	target  ChainReader
	llm     Completer
	cfg     *config.Config
	log     *zap.Logger
}

func NewChatService(wallets WalletStore, target ChainReader, llm Completer, cfg *config.Config, log *zap.Logger) *ChatService {
	return &ChatService{wallets: wallets, target: target, llm: llm, cfg: cfg, log: log}
}

// Status reports the wallet's current allowance without mutating anything.
// A wallet with no record yet has the full allowance.
func (s *ChatService) Status(ctx context.Context, walletAddress string) (remainingMessages int, remainingCooldown int64, err error) {
	rec, err := s.wallets.Get(ctx, strings.ToLower(walletAddress))
	if err != nil {
		return 0, 0, err
	}
	if rec == nil {
		return s.cfg.ChatLimit, 0, nil
	}
	now := time.Now().Unix()
	return rec.RemainingMessages(now, s.cfg.ChatLimit, s.cfg.ChatCooldownSeconds),
		rec.RemainingChatCooldown(now, s.cfg.ChatCooldownSeconds), nil
}

// Send runs one chat turn. The token-holding check and the quota gate happen
// before the model call; the counter increments only after a real reply, so
// fallback replies are free.
func (s *ChatService) Send(ctx context.Context, walletAddress, prompt string, history []ChatMessage) (*ChatReply, error) {
	lower := strings.ToLower(walletAddress)

	balance, err := s.target.BalanceOf(ctx, common.HexToAddress(s.cfg.Target.SBTContract), common.HexToAddress(walletAddress))
	if err != nil {
		return nil, fmt.Errorf("token balance: %w", err)
	}
	if balance.Sign() == 0 {
		return nil, ErrNoToken
	}

	if err := s.ensureRecord(ctx, lower); err != nil {
		return nil, err
	}

	// Gate and lazily reset under the CAS update. The increment happens in a
	// second update after the model call so an upstream failure never burns
	// quota.
	var blocked int64
	_, err = s.wallets.Update(ctx, lower, func(w *models.WalletRecord) error {
		now := time.Now().Unix()
		if !w.CanMessage(now, s.cfg.ChatLimit, s.cfg.ChatCooldownSeconds) {
			blocked = w.RemainingChatCooldown(now, s.cfg.ChatCooldownSeconds)
			return ErrChatLimited
		}
		w.ResetIfElapsed(now, s.cfg.ChatCooldownSeconds)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChatLimited) {
			return &ChatReply{RemainingCooldown: blocked}, err
		}
		return nil, err
	}

	reply, llmErr := s.llm.Complete(ctx, prompt, history)
	if llmErr != nil {
		s.log.Warn("llm call failed", zap.String("wallet", lower), zap.Error(llmErr))
		rec, err := s.wallets.Get(ctx, lower)
		if err != nil || rec == nil {
			return &ChatReply{Reply: fallbackReply}, nil
		}
		now := time.Now().Unix()
		return &ChatReply{
			Reply:             fallbackReply,
			RemainingMessages: rec.RemainingMessages(now, s.cfg.ChatLimit, s.cfg.ChatCooldownSeconds),
			RemainingCooldown: rec.RemainingChatCooldown(now, s.cfg.ChatCooldownSeconds),
		}, nil
	}

	rec, err := s.wallets.Update(ctx, lower, func(w *models.WalletRecord) error {
		w.MessageCount++
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	return &ChatReply{
		Reply:             reply,
		RemainingMessages: rec.RemainingMessages(now, s.cfg.ChatLimit, s.cfg.ChatCooldownSeconds),
		RemainingCooldown: rec.RemainingChatCooldown(now, s.cfg.ChatCooldownSeconds),
	}, nil
}

func (s *ChatService) ensureRecord(ctx context.Context, lower string) error {
	rec, err := s.wallets.Get(ctx, lower)
	if err != nil {
		return err
	}
	if rec != nil {
		return nil
	}
	return s.wallets.Set(ctx, lower, models.NewWalletRecord(time.Now().Unix()))
}
