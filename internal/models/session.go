package models

// SessionRecord is the value stored under an opaque session id. IssuedAt and
// ExpiresAt are the metadata written alongside the wallet binding; expiry is
// soft, checked on every read rather than actively purged.
type SessionRecord struct {
	WalletAddress string `json:"wallet_address"`
	IssuedAt      int64  `json:"issued_at"`
	ExpiresAt     int64  `json:"expires_at"`
}

// Expired reports whether the session lifetime has elapsed. A session is
// valid iff it exists in the store and ExpiresAt >= now.
func (s *SessionRecord) Expired(now int64) bool {
	return s.ExpiresAt < now
}
