package deposit

import (
	"errors"
	"math/big"

	"credpool/core/events"
	"credpool/core/types"
)

var (
	errNilState            = errors.New("deposit engine: state not configured")
	errInvalidAmount       = errors.New("deposit engine: amount must be positive and within range")
	errValueMismatch       = errors.New("deposit engine: declared amount does not match transferred value")
	errLocked              = errors.New("deposit engine: entry still inside lock period")
	errInsufficientBalance = errors.New("deposit engine: insufficient unlocked balance")
	errLiquidityLow        = errors.New("deposit engine: pool liquidity too low")
	errTransferFailed      = errors.New("deposit engine: value transfer failed")
)

// maxAmountWei bounds deposit and withdrawal amounts to the 128-bit range.
var maxAmountWei = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// ErrInvalidAmount and friends expose the engine failure modes to callers.
var (
	ErrInvalidAmount       = errInvalidAmount
	ErrValueMismatch       = errValueMismatch
	ErrLocked              = errLocked
	ErrInsufficientBalance = errInsufficientBalance
	ErrLiquidityLow        = errLiquidityLow
	ErrTransferFailed      = errTransferFailed
)

type engineState interface {
	GetLender(addr [20]byte) (*LenderAccount, error)
	PutLender(account *LenderAccount) error
	GetPool() (*types.Pool, error)
	PutPool(pool *types.Pool) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Transferor moves value out of the pool towards an external destination. A
// returned error vetoes the whole operation: ledger mutations made alongside
// the transfer are rolled back by the caller's transaction scope.
type Transferor interface {
	Transfer(to [20]byte, amount *big.Int) error
}

// Engine orchestrates the deposit ledger: time-locked FIFO entries per lender
// plus the pool's net-deposit accounting.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	transfer Transferor
}

// NewEngine constructs a deposit engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetTransferor configures the outbound value hook invoked on withdrawals.
func (e *Engine) SetTransferor(t Transferor) { e.transfer = t }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Deposit appends a new entry to the owner's queue. The declared amount must
// match the value physically moved into the pool by the caller. Entries are
// never merged: each deposit is a distinct unlock-eligible unit.
func (e *Engine) Deposit(owner [20]byte, amount, value *big.Int, now uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 || amount.Cmp(maxAmountWei) > 0 {
		return errInvalidAmount
	}
	if value == nil || value.Cmp(amount) != 0 {
		return errValueMismatch
	}

	lender, err := e.ensureLender(owner)
	if err != nil {
		return err
	}
	pool, err := e.loadPool()
	if err != nil {
		return err
	}

	lender.Entries = append(lender.Entries, Entry{
		AmountWei: new(big.Int).Set(amount),
		Timestamp: now,
	})
	lender.TotalDepositedWei = new(big.Int).Add(lender.TotalDepositedWei, amount)

	pool.NetDepositsWei = new(big.Int).Add(pool.NetDepositsWei, amount)
	pool.LiquidityWei = new(big.Int).Add(pool.LiquidityWei, amount)

	if err := e.state.PutLender(lender); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}

	e.emit(events.DepositMade{
		Lender:     owner,
		Amount:     new(big.Int).Set(amount),
		EntryIndex: uint64(len(lender.Entries) - 1),
		Timestamp:  now,
	})
	return nil
}

// Withdraw consumes the owner's entries in FIFO order starting at the cursor.
// Every touched entry must be outside the lock window; the pool must hold the
// full amount in physical liquidity before value leaves.
func (e *Engine) Withdraw(owner [20]byte, amount *big.Int, now, lockSeconds uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}

	lender, err := e.ensureLender(owner)
	if err != nil {
		return err
	}

	cursor := lender.NextWithdrawalIndex
	remaining := new(big.Int).Set(amount)
	for remaining.Sign() > 0 {
		if cursor >= uint64(len(lender.Entries)) {
			return errInsufficientBalance
		}
		entry := &lender.Entries[cursor]
		if entry.AmountWei == nil || entry.AmountWei.Sign() == 0 {
			cursor++
			continue
		}
		if now < entry.Timestamp+lockSeconds {
			return errLocked
		}
		if entry.AmountWei.Cmp(remaining) > 0 {
			entry.AmountWei = new(big.Int).Sub(entry.AmountWei, remaining)
			remaining.SetInt64(0)
			break
		}
		remaining.Sub(remaining, entry.AmountWei)
		entry.AmountWei = big.NewInt(0)
		cursor++
	}
	lender.NextWithdrawalIndex = cursor

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if pool.LiquidityWei.Cmp(amount) < 0 {
		return errLiquidityLow
	}

	lender.TotalWithdrawnWei = new(big.Int).Add(lender.TotalWithdrawnWei, amount)
	pool.NetDepositsWei = new(big.Int).Sub(pool.NetDepositsWei, amount)
	pool.LiquidityWei = new(big.Int).Sub(pool.LiquidityWei, amount)

	if err := e.payOut(owner, amount); err != nil {
		return err
	}

	if err := e.state.PutLender(lender); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}

	e.emit(events.WithdrawalMade{
		Lender:    owner,
		Amount:    new(big.Int).Set(amount),
		Timestamp: now,
	})
	return nil
}

// PreviewWithdraw sums the amounts already unlocked at the supplied instant,
// walking from the cursor and stopping at the first still-locked entry with a
// nonzero amount. Zeroed entries are transparently skipped; they are never a
// lock-check subject. The query does not mutate state.
func (e *Engine) PreviewWithdraw(owner [20]byte, now, lockSeconds uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	lender, err := e.state.GetLender(owner)
	if err != nil {
		return nil, err
	}
	unlocked := big.NewInt(0)
	if lender == nil {
		return unlocked, nil
	}
	for i := lender.NextWithdrawalIndex; i < uint64(len(lender.Entries)); i++ {
		entry := lender.Entries[i]
		if entry.AmountWei == nil || entry.AmountWei.Sign() == 0 {
			continue
		}
		if now < entry.Timestamp+lockSeconds {
			break
		}
		unlocked.Add(unlocked, entry.AmountWei)
	}
	return unlocked, nil
}

// BalanceOf reports totalDeposited - totalWithdrawn for the owner.
func (e *Engine) BalanceOf(owner [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	lender, err := e.state.GetLender(owner)
	if err != nil {
		return nil, err
	}
	if lender == nil {
		return big.NewInt(0), nil
	}
	return lender.BalanceWei(), nil
}

// Lender returns a deep copy of the owner's ledger record for query surfaces.
func (e *Engine) Lender(owner [20]byte) (*LenderAccount, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	lender, err := e.state.GetLender(owner)
	if err != nil {
		return nil, err
	}
	return lender.Clone(), nil
}

func (e *Engine) ensureLender(addr [20]byte) (*LenderAccount, error) {
	lender, err := e.state.GetLender(addr)
	if err != nil {
		return nil, err
	}
	if lender == nil {
		lender = &LenderAccount{Address: addr}
	}
	lender.EnsureDefaults()
	return lender, nil
}

func (e *Engine) loadPool() (*types.Pool, error) {
	pool, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = types.NewPool()
	}
	pool.EnsureDefaults()
	return pool, nil
}

// payOut credits the recipient's payout account and invokes the outbound
// transfer hook. A hook failure aborts the operation so the caller's
// transaction scope discards every ledger mutation made alongside it.
func (e *Engine) payOut(to [20]byte, amount *big.Int) error {
	account, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	if account == nil {
		account = types.NewAccount()
	}
	account.EnsureDefaults()
	account.BalanceWei = new(big.Int).Add(account.BalanceWei, amount)
	if err := e.state.PutAccount(to, account); err != nil {
		return err
	}
	if e.transfer != nil {
		if err := e.transfer.Transfer(to, amount); err != nil {
			return errTransferFailed
		}
	}
	return nil
}
