package repositories

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/sbt-migration/backend/internal/models"
)

const messageKeyPrefix = "message:"

// MessageRepo stores encrypted MessageRecords keyed by the on-chain content
// hash (0x-prefixed, lower-cased).
type MessageRepo struct {
	rdb *redis.Client
}

func NewMessageRepo(rdb *redis.Client) *MessageRepo {
	return &MessageRepo{rdb: rdb}
}

func messageKey(hash string) string {
	return messageKeyPrefix + strings.ToLower(hash)
}

func (r *MessageRepo) Set(ctx context.Context, hash string, rec *models.MessageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, messageKey(hash), data, 0).Err()
}

// Get returns nil, nil for unknown hashes.
func (r *MessageRepo) Get(ctx context.Context, hash string) (*models.MessageRecord, error) {
	data, err := r.rdb.Get(ctx, messageKey(hash)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.MessageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListUnminted returns hash → record for messages not yet observed on-chain.
// The worker walks this set and flips records once the hash shows up in the
// token's message list.
func (r *MessageRepo) ListUnminted(ctx context.Context) (map[string]*models.MessageRecord, error) {
	out := make(map[string]*models.MessageRecord)
	iter := r.rdb.Scan(ctx, 0, messageKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec models.MessageRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if !rec.Minted {
			out[strings.TrimPrefix(key, messageKeyPrefix)] = &rec
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
