package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sbt-migration/backend/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionRepo stores SessionRecords under opaque ids. Expiry is soft
// (checked on read); the redis TTL is set to twice the session lifetime
// purely as garbage collection.
type SessionRepo struct {
	rdb *redis.Client
}

func NewSessionRepo(rdb *redis.Client) *SessionRepo {
	return &SessionRepo{rdb: rdb}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *SessionRepo) Set(ctx context.Context, id string, rec *models.SessionRecord, lifetime time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(id), data, 2*lifetime).Err()
}

// Get returns nil, nil for unknown session ids.
func (r *SessionRepo) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	data, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}
