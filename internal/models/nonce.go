package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthNonce is a single-use challenge nonce. Issued per auth-message request,
// consumed exactly once during signature verification; reuse or expiry fails
// the whole authentication.
type AuthNonce struct {
	ID            uuid.UUID `json:"id"`
	Nonce         string    `json:"nonce"`
	WalletAddress *string   `json:"-"`
	CreatedAt     time.Time `json:"-"`
	ExpiresAt     time.Time `json:"-"`
	Used          bool      `json:"-"`
}
