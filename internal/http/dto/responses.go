package dto

import "github.com/sbt-migration/backend/internal/models"

// ErrorResponse carries the machine-readable error code plus the optional
// countdown hints clients render (nextClaimIn / remainingCooldown).
type ErrorResponse struct {
	Error             string `json:"error"`
	NextClaimIn       *int64 `json:"nextClaimIn,omitempty"`
	RemainingCooldown *int64 `json:"remainingCooldown,omitempty"`
	RequestID         string `json:"request_id,omitempty"`
}

type AuthMessageResponse struct {
	AuthMessage string `json:"authMessage"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
}

type CooldownResponse struct {
	NextClaimIn int64 `json:"nextClaimIn"`
}

type ChatResponse struct {
	Reply             string `json:"reply"`
	RemainingCooldown int64  `json:"remainingCooldown"`
	RemainingInputs   int    `json:"remainingInputs"`
}

type ChatCooldownResponse struct {
	RemainingCooldown int64 `json:"remainingCooldown"`
	RemainingMessages int   `json:"remainingMessages"`
}

type MessagesResponse struct {
	Messages []models.DecryptedMessage `json:"messages"`
}

type MintsResponse struct {
	Mints []models.MintRecord `json:"mints"`
}

type AllowlistResponse struct {
	Wallets []string `json:"wallets"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// TokenMetadata is the public ERC-721 metadata document.
type TokenMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}
