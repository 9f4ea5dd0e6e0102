package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/sbt-migration/backend/internal/models"
)

const (
	walletKeyPrefix = "wallet:"
	maxCASRetries   = 5
)

var ErrWalletNotFound = errors.New("wallet record not found")

// WalletRepo stores one WalletRecord per wallet in its own redis namespace,
// keyed by the lower-cased address. Records live until an admin removes them.
type WalletRepo struct {
	rdb *redis.Client
}

func NewWalletRepo(rdb *redis.Client) *WalletRepo {
	return &WalletRepo{rdb: rdb}
}

func walletKey(address string) string {
	return walletKeyPrefix + strings.ToLower(address)
}

// Get returns nil, nil when no record exists for the address.
func (r *WalletRepo) Get(ctx context.Context, address string) (*models.WalletRecord, error) {
	data, err := r.rdb.Get(ctx, walletKey(address)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.WalletRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *WalletRepo) Set(ctx context.Context, address string, rec *models.WalletRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, walletKey(address), data, 0).Err()
}

func (r *WalletRepo) Delete(ctx context.Context, address string) error {
	return r.rdb.Del(ctx, walletKey(address)).Err()
}

// List returns all wallet addresses with a record (the allowlist view).
func (r *WalletRepo) List(ctx context.Context) ([]string, error) {
	var addresses []string
	iter := r.rdb.Scan(ctx, 0, walletKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		addresses = append(addresses, strings.TrimPrefix(iter.Val(), walletKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return addresses, nil
}

// Update applies fn to the stored record under an optimistic WATCH/MULTI
// compare-and-swap, so two concurrent cooldown checks cannot both commit a
// stale counter. Returns ErrWalletNotFound when no record exists.
func (r *WalletRepo) Update(ctx context.Context, address string, fn func(*models.WalletRecord) error) (*models.WalletRecord, error) {
	key := walletKey(address)
	var updated *models.WalletRecord

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrWalletNotFound
		}
		if err != nil {
			return err
		}

		var rec models.WalletRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}

		buf, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)
			return nil
		})
		if err == nil {
			updated = &rec
		}
		return err
	}

	for i := 0; i < maxCASRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // concurrent write, retry with fresh state
		}
		return nil, err
	}
	return nil, redis.TxFailedErr
}
