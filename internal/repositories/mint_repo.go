package repositories

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sbt-migration/backend/internal/models"
)

const selectMint = `
	SELECT id, reference, wallet_address, kind, tx_hash, message_hash, token_id, minted, minted_at, created_at
	FROM mint_records`

// MintRepo is the durable archive of everything the backend authorized or
// minted: faucet claims, take signatures, message-mint signatures.
type MintRepo struct {
	pool *pgxpool.Pool
}

func NewMintRepo(pool *pgxpool.Pool) *MintRepo {
	return &MintRepo{pool: pool}
}

// NewReference generates the human-readable archive reference.
func NewReference() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return "MINT-" + strings.ToUpper(hex.EncodeToString(b))
}

func (r *MintRepo) Insert(ctx context.Context, rec *models.MintRecord) error {
	if rec.Reference == "" {
		rec.Reference = NewReference()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO mint_records (reference, wallet_address, kind, tx_hash, message_hash, token_id, minted, minted_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, rec.Reference, rec.WalletAddress, rec.Kind, rec.TxHash, rec.MessageHash,
		rec.TokenID, rec.Minted, rec.MintedAt,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *MintRepo) GetByReference(ctx context.Context, reference string) (*models.MintRecord, error) {
	var m models.MintRecord
	err := r.pool.QueryRow(ctx, selectMint+` WHERE reference = $1`, reference).Scan(
		&m.ID, &m.Reference, &m.WalletAddress, &m.Kind, &m.TxHash,
		&m.MessageHash, &m.TokenID, &m.Minted, &m.MintedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MintRepo) ListByWallet(ctx context.Context, walletAddress string, limit int) ([]models.MintRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, selectMint+`
		WHERE wallet_address = lower($1)
		ORDER BY created_at DESC LIMIT $2
	`, walletAddress, limit)
	if err != nil {
		return nil, err
	}
	return collectMints(rows)
}

// ListByDate returns records created on a given UTC day (the daily index).
func (r *MintRepo) ListByDate(ctx context.Context, day time.Time) ([]models.MintRecord, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	rows, err := r.pool.Query(ctx, selectMint+`
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
	`, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	return collectMints(rows)
}

func (r *MintRepo) ListRecent(ctx context.Context, limit int) ([]models.MintRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, selectMint+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectMints(rows)
}

func (r *MintRepo) MarkMinted(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE mint_records SET minted = true, minted_at = now()
		WHERE id = $1 AND minted = false
	`, id)
	return err
}

// ListUnminted returns records of one kind awaiting on-chain confirmation,
// oldest first, for the worker's reconciliation pass.
func (r *MintRepo) ListUnminted(ctx context.Context, kind string, limit int) ([]models.MintRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, selectMint+`
		WHERE kind = $1 AND minted = false
		ORDER BY created_at ASC LIMIT $2
	`, kind, limit)
	if err != nil {
		return nil, err
	}
	return collectMints(rows)
}

func collectMints(rows pgx.Rows) ([]models.MintRecord, error) {
	defer rows.Close()

	var out []models.MintRecord
	for rows.Next() {
		var m models.MintRecord
		if err := rows.Scan(&m.ID, &m.Reference, &m.WalletAddress, &m.Kind, &m.TxHash,
			&m.MessageHash, &m.TokenID, &m.Minted, &m.MintedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
