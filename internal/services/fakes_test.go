package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/sbt-migration/backend/internal/models"
)

type fakeWalletStore struct {
	mu   sync.Mutex
	recs map[string]models.WalletRecord
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{recs: make(map[string]models.WalletRecord)}
}

func (f *fakeWalletStore) Get(_ context.Context, address string) (*models.WalletRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[address]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeWalletStore) Set(_ context.Context, address string, rec *models.WalletRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[address] = *rec
	return nil
}

func (f *fakeWalletStore) Update(_ context.Context, address string, fn func(*models.WalletRecord) error) (*models.WalletRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[address]
	if !ok {
		return nil, ErrWalletNotFound
	}
	if err := fn(&rec); err != nil {
		return nil, err
	}
	f.recs[address] = rec
	return &rec, nil
}

type fakeSessionStore struct {
	mu   sync.Mutex
	recs map[string]models.SessionRecord
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{recs: make(map[string]models.SessionRecord)}
}

func (f *fakeSessionStore) Set(_ context.Context, id string, rec *models.SessionRecord, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[id] = *rec
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (*models.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, id)
	return nil
}

// fakeChain serves reads and writes for both networks in tests. Balances are
// keyed by contract plus owner.
type fakeChain struct {
	balances map[string]*big.Int
	owners   map[uint64]common.Address
	hashes   []common.Hash
	mintErr  error
	minted   []common.Address
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances: make(map[string]*big.Int),
		owners:   make(map[uint64]common.Address),
	}
}

func balanceKey(contract, owner common.Address) string {
	return contract.Hex() + "/" + owner.Hex()
}

func (f *fakeChain) setBalance(contract, owner common.Address, n int64) {
	f.balances[balanceKey(contract, owner)] = big.NewInt(n)
}

func (f *fakeChain) BalanceOf(_ context.Context, contract, owner common.Address) (*big.Int, error) {
	if b, ok := f.balances[balanceKey(contract, owner)]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) OwnerOf(_ context.Context, _ common.Address, tokenID *big.Int) (common.Address, error) {
	return f.owners[tokenID.Uint64()], nil
}

func (f *fakeChain) MessageHashes(_ context.Context, _ common.Address, _ *big.Int) ([]common.Hash, error) {
	return f.hashes, nil
}

func (f *fakeChain) MintNativeCoin(_ context.Context, _ string, _, recipient common.Address, _ *big.Int) (common.Hash, error) {
	if f.mintErr != nil {
		return common.Hash{}, f.mintErr
	}
	f.minted = append(f.minted, recipient)
	return common.HexToHash("0xdeadbeef"), nil
}

type fakeQueue struct {
	payloads []any
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, _ string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeArchive struct {
	records []models.MintRecord
}

func (f *fakeArchive) Insert(_ context.Context, rec *models.MintRecord) error {
	rec.ID = uuid.New()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeArchive) MarkMinted(_ context.Context, id uuid.UUID) error {
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].Minted = true
		}
	}
	return nil
}

type fakeAuditor struct {
	entries []models.AuditLog
}

func (f *fakeAuditor) Log(_ context.Context, entry models.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, _ string, _ []ChatMessage) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.reply == "" {
		return "", fmt.Errorf("no reply configured")
	}
	return f.reply, nil
}
