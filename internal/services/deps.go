package services

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/sbt-migration/backend/internal/models"
)

// Narrow views of the repositories and clients the services depend on.
// Concrete implementations live in internal/repositories and internal/eth;
// tests substitute in-memory fakes.

type WalletStore interface {
	Get(ctx context.Context, address string) (*models.WalletRecord, error)
	Set(ctx context.Context, address string, rec *models.WalletRecord) error
	Update(ctx context.Context, address string, fn func(*models.WalletRecord) error) (*models.WalletRecord, error)
}

type SessionStore interface {
	Set(ctx context.Context, id string, rec *models.SessionRecord, lifetime time.Duration) error
	Get(ctx context.Context, id string) (*models.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

type MessageStore interface {
	Set(ctx context.Context, hash string, rec *models.MessageRecord) error
	Get(ctx context.Context, hash string) (*models.MessageRecord, error)
}

type NonceStore interface {
	Create(ctx context.Context, walletAddress *string, ttl time.Duration) (*models.AuthNonce, error)
	Consume(ctx context.Context, nonce string) (*models.AuthNonce, error)
}

type MintArchive interface {
	Insert(ctx context.Context, rec *models.MintRecord) error
	MarkMinted(ctx context.Context, id uuid.UUID) error
}

type Auditor interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// ChainReader covers the eth_call surface of internal/eth.Client.
type ChainReader interface {
	BalanceOf(ctx context.Context, contract, owner common.Address) (*big.Int, error)
	OwnerOf(ctx context.Context, contract common.Address, tokenID *big.Int) (common.Address, error)
	MessageHashes(ctx context.Context, contract common.Address, tokenID *big.Int) ([]common.Hash, error)
}

// ChainWriter submits faucet mints.
type ChainWriter interface {
	MintNativeCoin(ctx context.Context, privKeyHex string, faucet, recipient common.Address, amount *big.Int) (common.Hash, error)
}

// Completer produces a chat reply for a prompt plus prior turns.
type Completer interface {
	Complete(ctx context.Context, prompt string, history []ChatMessage) (string, error)
}

// Enqueuer hands a payload to the delivery queue for webhook dispatch.
type Enqueuer interface {
	Enqueue(ctx context.Context, webhookURL string, payload any) error
}
