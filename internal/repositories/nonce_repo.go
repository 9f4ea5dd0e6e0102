package repositories

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sbt-migration/backend/internal/models"
)

// NonceRepo issues and consumes single-use auth challenge nonces. The
// consume is a conditional UPDATE, so a nonce can be spent at most once even
// under concurrent authentication attempts.
type NonceRepo struct {
	pool *pgxpool.Pool
}

func NewNonceRepo(pool *pgxpool.Pool) *NonceRepo {
	return &NonceRepo{pool: pool}
}

func (r *NonceRepo) Create(ctx context.Context, walletAddress *string, ttl time.Duration) (*models.AuthNonce, error) {
	n := &models.AuthNonce{
		Nonce:         generateNonce(16),
		WalletAddress: walletAddress,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO auth_nonces (nonce, wallet_address, expires_at)
		VALUES ($1, $2, now() + $3::interval)
		RETURNING id, created_at, expires_at
	`, n.Nonce, walletAddress, ttl.String()).Scan(&n.ID, &n.CreatedAt, &n.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Consume marks a nonce used. Unknown, expired, or already-used nonces
// return an error (pgx.ErrNoRows), failing the authentication closed.
func (r *NonceRepo) Consume(ctx context.Context, nonce string) (*models.AuthNonce, error) {
	var n models.AuthNonce
	err := r.pool.QueryRow(ctx, `
		UPDATE auth_nonces
		SET used = true
		WHERE nonce = $1 AND used = false AND expires_at > now()
		RETURNING id, nonce, wallet_address, created_at, expires_at, used
	`, nonce).Scan(&n.ID, &n.Nonce, &n.WalletAddress, &n.CreatedAt, &n.ExpiresAt, &n.Used)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// PurgeExpired deletes nonces past their TTL; run periodically by the worker.
func (r *NonceRepo) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_nonces WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func generateNonce(bytes int) string {
	b := make([]byte, bytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
