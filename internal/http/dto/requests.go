package dto

import "github.com/sbt-migration/backend/internal/services"

type CreateSessionRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type ChatRequest struct {
	Message string                 `json:"message"`
	History []services.ChatMessage `json:"history,omitempty"`
}

type MintMessageRequest struct {
	TokenID uint64 `json:"tokenId"`
	Message string `json:"message"`
}

type AllowlistRequest struct {
	Wallets []string `json:"wallets"`
}
