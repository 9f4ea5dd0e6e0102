package models

// MessageRecord holds one encrypted chat message keyed by its on-chain
// content hash. Owner must equal the session wallet that requested the mint
// signature; the equality is re-checked at read time.
type MessageRecord struct {
	EncryptedMessage string `json:"encrypted_message"`
	IV               string `json:"iv"`
	Owner            string `json:"owner"`
	TokenID          uint64 `json:"token_id"`
	Minted           bool   `json:"minted"`
	MintedAt         int64  `json:"minted_at,omitempty"`
}

// DecryptedMessage is the read-side view returned to the token owner.
type DecryptedMessage struct {
	Message  string `json:"message"`
	MintedAt int64  `json:"mintedAt,omitempty"`
}
