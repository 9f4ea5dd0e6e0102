package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actor types.
const (
	ActorWallet = "wallet"
	ActorAdmin  = "admin"
	ActorSystem = "system"
	ActorQueue  = "queue"
)

type AuditLog struct {
	ID          uuid.UUID `json:"id"`
	ActorWallet *string   `json:"actor_wallet,omitempty"`
	ActorType   string    `json:"actor_type"` // wallet/admin/system/queue
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type"`
	EntityID    *string   `json:"entity_id,omitempty"`
	Meta        any       `json:"meta,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
