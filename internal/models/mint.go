package models

import (
	"time"

	"github.com/google/uuid"
)

// Mint record kinds.
const (
	MintKindFaucet  = "faucet"  // native coin claim processed by the queue
	MintKindTake    = "take"    // take-signature issued for the SBT migration
	MintKindMessage = "message" // mint-message signature issued for a chat message
)

// MintRecord is the durable archive row written whenever the backend
// authorizes or performs a mint. Message records start unminted and are
// reconciled against the chain by the worker.
type MintRecord struct {
	ID            uuid.UUID  `json:"id"`
	Reference     string     `json:"reference"`
	WalletAddress string     `json:"wallet_address"`
	Kind          string     `json:"kind"`
	TxHash        *string    `json:"tx_hash,omitempty"`
	MessageHash   *string    `json:"message_hash,omitempty"`
	TokenID       *int64     `json:"token_id,omitempty"`
	Minted        bool       `json:"minted"`
	MintedAt      *time.Time `json:"minted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
