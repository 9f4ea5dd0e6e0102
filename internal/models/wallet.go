package models

// WalletRecord tracks per-wallet faucet and chat state. Keyed by the
// lower-cased wallet address; created lazily on first authentication.
type WalletRecord struct {
	LastMessageReset int64  `json:"last_message_reset"` // epoch seconds
	MessageCount     int    `json:"message_count"`
	FaucetEnabled    bool   `json:"faucet_enabled"`
	LastClaimed      *int64 `json:"last_claimed,omitempty"` // epoch seconds, nil = never claimed
}

// NewWalletRecord returns the defaults written on first authentication.
// FaucetEnabled stays false until an operator allowlists the wallet.
func NewWalletRecord(now int64) *WalletRecord {
	return &WalletRecord{
		LastMessageReset: now,
		MessageCount:     0,
		FaucetEnabled:    false,
	}
}

// RemainingClaimCooldown returns seconds until the next faucet claim is
// permitted. An absent timestamp means no cooldown; negative remainders
// clamp to zero.
func (w *WalletRecord) RemainingClaimCooldown(now, cooldownSeconds int64) int64 {
	if w.LastClaimed == nil {
		return 0
	}
	remaining := *w.LastClaimed + cooldownSeconds - now
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanClaim reports whether the claim window has elapsed. The allowlist and
// on-chain balance checks are the caller's responsibility.
func (w *WalletRecord) CanClaim(now, cooldownSeconds int64) bool {
	return w.RemainingClaimCooldown(now, cooldownSeconds) <= 0
}

// MarkClaimed stamps an optimistic claim at now.
func (w *WalletRecord) MarkClaimed(now int64) {
	w.LastClaimed = &now
}

// RollbackClaim expires the cooldown immediately so a failed downstream mint
// does not leave the wallet waiting out a full window.
func (w *WalletRecord) RollbackClaim(now, cooldownSeconds int64) {
	expired := now - cooldownSeconds
	w.LastClaimed = &expired
}

// RemainingChatCooldown returns seconds until the message counter resets.
func (w *WalletRecord) RemainingChatCooldown(now, cooldownSeconds int64) int64 {
	remaining := w.LastMessageReset + cooldownSeconds - now
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanMessage reports whether a chat send is permitted: either the counter is
// under the limit, or the cooldown window has elapsed.
func (w *WalletRecord) CanMessage(now int64, limit int, cooldownSeconds int64) bool {
	if w.MessageCount < limit {
		return true
	}
	return w.RemainingChatCooldown(now, cooldownSeconds) <= 0
}

// ResetIfElapsed resets the counter when the window has elapsed. Returns true
// if a reset happened. Callers must persist the record afterwards.
func (w *WalletRecord) ResetIfElapsed(now, cooldownSeconds int64) bool {
	if w.RemainingChatCooldown(now, cooldownSeconds) > 0 {
		return false
	}
	w.MessageCount = 0
	w.LastMessageReset = now
	return true
}

// RemainingMessages returns how many chat sends remain in the current window.
// An elapsed window counts as a full allowance even before the lazy reset.
func (w *WalletRecord) RemainingMessages(now int64, limit int, cooldownSeconds int64) int {
	if w.RemainingChatCooldown(now, cooldownSeconds) <= 0 {
		return limit
	}
	remaining := limit - w.MessageCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
