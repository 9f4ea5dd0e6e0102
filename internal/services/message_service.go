package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/crypto"
	"github.com/sbt-migration/backend/internal/eth"
	"github.com/sbt-migration/backend/internal/models"
	"github.com/sbt-migration/backend/internal/repositories"
)

// MintMessageResult carries the signature a client submits to mint a message
// hash onto its token, plus the hash itself for later retrieval.
type MintMessageResult struct {
	Signature   string `json:"signature"`
	MessageHash string `json:"messageHash"`
	Contract    string `json:"contract"`
	ChainID     int64  `json:"chainId"`
}

// MessageService encrypts chat messages at rest and signs their hashes for
// on-chain minting. Only the content hash ever reaches the chain; plaintext
// is recoverable solely through the backend by the token owner.
type MessageService struct {
	messages MessageStore
	mints    MintArchive
	target   ChainReader
	box      *crypto.MessageBox
	audit    Auditor
	cfg      *config.Config
	log      *zap.Logger
}

func NewMessageService(messages MessageStore, mints MintArchive, target ChainReader, box *crypto.MessageBox, audit Auditor, cfg *config.Config, log *zap.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		mints:    mints,
		target:   target,
		box:      box,
		audit:    audit,
		cfg:      cfg,
		log:      log,
	}
}

// RequestMintSignature hashes and encrypts a message for the caller's token
// and returns the mint-message signature. The hash binds the owner, the
// message, and the current epoch second, so identical texts mint distinct
// hashes across requests.
func (s *MessageService) RequestMintSignature(ctx context.Context, walletAddress string, tokenID uint64, message string) (*MintMessageResult, error) {
	lower := strings.ToLower(walletAddress)
	owner := common.HexToAddress(walletAddress)
	contract := common.HexToAddress(s.cfg.Target.SBTContract)
	id := new(big.Int).SetUint64(tokenID)

	onChainOwner, err := s.target.OwnerOf(ctx, contract, id)
	if err != nil {
		return nil, fmt.Errorf("ownerOf: %w", err)
	}
	if onChainOwner != owner {
		return nil, ErrNotTokenOwner
	}

	epoch := time.Now().Unix()
	hash := eth.ChatMessageHash(owner, message, epoch)

	ciphertext, iv, err := s.box.Encrypt(message)
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}

	if err := s.messages.Set(ctx, hash.Hex(), &models.MessageRecord{
		EncryptedMessage: ciphertext,
		IV:               iv,
		Owner:            lower,
		TokenID:          tokenID,
	}); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	sig, err := eth.SignMintMessage(s.cfg.MessagePrivateKey, s.cfg.Target, owner, id, hash)
	if err != nil {
		return nil, err
	}

	hashHex := hash.Hex()
	tokenIndex := int64(tokenID)
	if err := s.mints.Insert(ctx, &models.MintRecord{
		Reference:     repositories.NewReference(),
		WalletAddress: lower,
		Kind:          models.MintKindMessage,
		MessageHash:   &hashHex,
		TokenID:       &tokenIndex,
	}); err != nil {
		s.log.Error("message record insert failed", zap.String("hash", hashHex), zap.Error(err))
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorWallet: &lower,
		ActorType:   models.ActorWallet,
		Action:      "mint_message_signature_issued",
		EntityType:  "message",
		EntityID:    &hashHex,
	})

	return &MintMessageResult{
		Signature:   sig,
		MessageHash: hashHex,
		Contract:    s.cfg.Target.SBTContract,
		ChainID:     s.cfg.Target.ChainID,
	}, nil
}

// Messages returns the decrypted messages minted onto a token, readable only
// by its current owner. Hashes with no stored record, or stored for a
// different owner, are skipped; records that fail to decrypt fall back to
// their ciphertext rather than hiding the entry.
func (s *MessageService) Messages(ctx context.Context, walletAddress string, tokenID uint64) ([]models.DecryptedMessage, error) {
	lower := strings.ToLower(walletAddress)
	owner := common.HexToAddress(walletAddress)
	contract := common.HexToAddress(s.cfg.Target.SBTContract)
	id := new(big.Int).SetUint64(tokenID)

	onChainOwner, err := s.target.OwnerOf(ctx, contract, id)
	if err != nil {
		return nil, fmt.Errorf("ownerOf: %w", err)
	}
	if onChainOwner != owner {
		return nil, ErrNotTokenOwner
	}

	hashes, err := s.target.MessageHashes(ctx, contract, id)
	if err != nil {
		return nil, fmt.Errorf("getMessages: %w", err)
	}

	out := make([]models.DecryptedMessage, 0, len(hashes))
	for _, h := range hashes {
		rec, err := s.messages.Get(ctx, h.Hex())
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.Owner != lower {
			continue
		}
		plain, err := s.box.Decrypt(rec.EncryptedMessage, rec.IV)
		if err != nil {
			s.log.Warn("message decrypt failed", zap.String("hash", h.Hex()), zap.Error(err))
			plain = rec.EncryptedMessage
		}
		out = append(out, models.DecryptedMessage{Message: plain, MintedAt: rec.MintedAt})
	}
	return out, nil
}
