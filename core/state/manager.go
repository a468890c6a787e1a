package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"credpool/core/types"
	"credpool/native/deposit"
	"credpool/native/loan"
	"credpool/native/policy"
	"credpool/storage"
)

var errReadOnly = errors.New("state: write attempted inside read-only view")

// Manager serializes every ledger mutation behind a single lock and provides
// consistent snapshots to queries. Mutations run against an overlay
// transaction whose writes land on the backing store as one atomic batch only
// when the operation succeeds; any error discards the overlay, so a failed
// operation leaves no trace.
type Manager struct {
	mu sync.RWMutex
	db storage.Database
}

// NewManager constructs a manager over the supplied store.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Mutate runs fn against a writable transaction under the global write lock.
// The overlay commits only when fn returns nil.
func (m *Manager) Mutate(fn func(*Txn) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn := &Txn{db: m.db, overlay: make(map[string][]byte)}
	if err := fn(txn); err != nil {
		return err
	}
	if len(txn.overlay) == 0 {
		return nil
	}
	batch := new(storage.Batch)
	for key, value := range txn.overlay {
		batch.Put([]byte(key), value)
	}
	if err := m.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}

// View runs fn against a read-only transaction under the read lock. Queries
// observe committed state only; in-flight mutations are never visible.
func (m *Manager) View(fn func(*Txn) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txn := &Txn{db: m.db, readOnly: true}
	return fn(txn)
}

// Txn is a single-operation window onto ledger state. Reads fall through the
// overlay to committed state; writes buffer in the overlay until commit.
type Txn struct {
	db       storage.Database
	overlay  map[string][]byte
	readOnly bool
}

func (t *Txn) kvGet(key []byte, out interface{}) (bool, error) {
	if t.overlay != nil {
		if raw, ok := t.overlay[string(key)]; ok {
			if err := rlp.DecodeBytes(raw, out); err != nil {
				return false, fmt.Errorf("state: decode %q: %w", key, err)
			}
			return true, nil
		}
	}
	ok, err := t.db.Has(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	raw, err := t.db.Get(key)
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (t *Txn) kvPut(key []byte, value interface{}) error {
	if t.readOnly {
		return errReadOnly
	}
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	if t.overlay == nil {
		t.overlay = make(map[string][]byte)
	}
	t.overlay[string(key)] = raw
	return nil
}

// GetAccount loads a payout account, returning nil when absent.
func (t *Txn) GetAccount(addr [20]byte) (*types.Account, error) {
	var account types.Account
	ok, err := t.kvGet(accountKey(addr), &account)
	if err != nil || !ok {
		return nil, err
	}
	account.EnsureDefaults()
	return &account, nil
}

// PutAccount stores a payout account.
func (t *Txn) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return nil
	}
	account.EnsureDefaults()
	return t.kvPut(accountKey(addr), account)
}

// GetLender loads a lender's deposit ledger record, returning nil when the
// lender has never deposited.
func (t *Txn) GetLender(addr [20]byte) (*deposit.LenderAccount, error) {
	var lender deposit.LenderAccount
	ok, err := t.kvGet(lenderKey(addr), &lender)
	if err != nil || !ok {
		return nil, err
	}
	lender.EnsureDefaults()
	return &lender, nil
}

// PutLender stores a lender record keyed by its address.
func (t *Txn) PutLender(lender *deposit.LenderAccount) error {
	if lender == nil {
		return nil
	}
	lender.EnsureDefaults()
	return t.kvPut(lenderKey(lender.Address), lender)
}

// GetLoan loads the borrower's loan record, returning nil when none exists.
func (t *Txn) GetLoan(addr [20]byte) (*loan.Loan, error) {
	var record loan.Loan
	ok, err := t.kvGet(loanKey(addr), &record)
	if err != nil || !ok {
		return nil, err
	}
	record.EnsureDefaults()
	return &record, nil
}

// PutLoan stores the borrower's loan record.
func (t *Txn) PutLoan(record *loan.Loan) error {
	if record == nil {
		return nil
	}
	record.EnsureDefaults()
	return t.kvPut(loanKey(record.Borrower), record)
}

// IsBanned reports the ban flag for the address.
func (t *Txn) IsBanned(addr [20]byte) (bool, error) {
	var banned bool
	ok, err := t.kvGet(banKey(addr), &banned)
	if err != nil || !ok {
		return false, err
	}
	return banned, nil
}

// SetBanned stores the ban flag for the address.
func (t *Txn) SetBanned(addr [20]byte, banned bool) error {
	return t.kvPut(banKey(addr), banned)
}

// GetPool loads the global pool record, returning nil when unset.
func (t *Txn) GetPool() (*types.Pool, error) {
	var pool types.Pool
	ok, err := t.kvGet(poolKey, &pool)
	if err != nil || !ok {
		return nil, err
	}
	pool.EnsureDefaults()
	return &pool, nil
}

// PutPool stores the global pool record.
func (t *Txn) PutPool(pool *types.Pool) error {
	if pool == nil {
		return nil
	}
	pool.EnsureDefaults()
	return t.kvPut(poolKey, pool)
}

// GetPolicy loads the admin policy record, returning nil when unset.
func (t *Txn) GetPolicy() (*policy.Policy, error) {
	var record policy.Policy
	ok, err := t.kvGet(policyKey, &record)
	if err != nil || !ok {
		return nil, err
	}
	return &record, nil
}

// PutPolicy stores the admin policy record.
func (t *Txn) PutPolicy(record *policy.Policy) error {
	if record == nil {
		return nil
	}
	return t.kvPut(policyKey, record)
}
