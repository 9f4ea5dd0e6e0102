package services

import "errors"

// Domain errors the HTTP layer maps to status codes and machine-readable
// bodies. Cooldown errors travel with a remaining-seconds value returned
// alongside them.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")

	ErrInvalidAddress = errors.New("invalid wallet address")

	ErrNotAllowlisted = errors.New("wallet is not allowlisted")
	ErrClaimCooldown  = errors.New("claim cooldown active")

	ErrNoToken     = errors.New("wallet holds no migration token")
	ErrChatLimited = errors.New("message limit reached")

	ErrAlreadyMigrated = errors.New("wallet already holds the migration token")
	ErrNotEligible     = errors.New("wallet holds no badge on the source chain")

	ErrNotTokenOwner = errors.New("wallet does not own the token")

	ErrWalletNotFound = errors.New("wallet record not found")
)
