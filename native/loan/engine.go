package loan

import (
	"errors"
	"math/big"

	"credpool/core/events"
	"credpool/core/types"
	"credpool/native/credit"
)

var (
	errNilState                = errors.New("loan engine: state not configured")
	errNilOracle               = errors.New("loan engine: score oracle not configured")
	errInvalidAmount           = errors.New("loan engine: amount must be positive and within range")
	errInvalidTerm             = errors.New("loan engine: term must be positive")
	errValueMismatch           = errors.New("loan engine: declared amount does not match transferred value")
	errBorrowerBanned          = errors.New("loan engine: borrower is banned")
	errUnpaidLoanExists        = errors.New("loan engine: unpaid loan exists")
	errNoActiveLoan            = errors.New("loan engine: no active loan")
	errRepayExceedsOutstanding = errors.New("loan engine: repayment exceeds outstanding")
	errLiquidityLow            = errors.New("loan engine: pool liquidity too low")
	errNoCredential            = errors.New("loan engine: borrower holds no credential")
	errInvalidScore            = errors.New("loan engine: score is not valid")
	errScoreTooLow             = errors.New("loan engine: score below borrow threshold")
	errNotBanned               = errors.New("loan engine: borrower is not banned")
	errTransferFailed          = errors.New("loan engine: value transfer failed")
)

// Exported aliases for callers translating engine failures.
var (
	ErrInvalidAmount           = errInvalidAmount
	ErrInvalidTerm             = errInvalidTerm
	ErrValueMismatch           = errValueMismatch
	ErrBorrowerBanned          = errBorrowerBanned
	ErrUnpaidLoanExists        = errUnpaidLoanExists
	ErrNoActiveLoan            = errNoActiveLoan
	ErrRepayExceedsOutstanding = errRepayExceedsOutstanding
	ErrLiquidityLow            = errLiquidityLow
	ErrNoCredential            = errNoCredential
	ErrInvalidScore            = errInvalidScore
	ErrScoreTooLow             = errScoreTooLow
	ErrNotBanned               = errNotBanned
	ErrTransferFailed          = errTransferFailed
)

var maxAmountWei = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

type engineState interface {
	GetLoan(addr [20]byte) (*Loan, error)
	PutLoan(loan *Loan) error
	IsBanned(addr [20]byte) (bool, error)
	SetBanned(addr [20]byte, banned bool) error
	GetPool() (*types.Pool, error)
	PutPool(pool *types.Pool) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Transferor moves disbursed principal out of the pool. A returned error
// vetoes the operation and the surrounding transaction scope rolls back.
type Transferor interface {
	Transfer(to [20]byte, amount *big.Int) error
}

// BorrowPolicy carries the policy snapshot applied to a loan open.
type BorrowPolicy struct {
	// CheckOracle gates the credential and score checks; false when the
	// authority has set the oracle to the zero sentinel.
	CheckOracle bool
	MinScore    uint64
}

// Engine drives the per-borrower loan state machine and the ban registry.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	oracle   credit.Oracle
	interest *InterestModel
	transfer Transferor
}

// NewEngine constructs a loan engine with a no-op emitter and zero-interest
// model.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		interest: NewInterestModel(0),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetOracle injects the score oracle capability consulted on loan opens.
func (e *Engine) SetOracle(oracle credit.Oracle) { e.oracle = oracle }

// SetInterestModel configures the accrual stub.
func (e *Engine) SetInterestModel(model *InterestModel) {
	if model == nil {
		e.interest = NewInterestModel(0)
		return
	}
	e.interest = model.Clone()
}

// SetTransferor configures the outbound value hook invoked on disbursement.
func (e *Engine) SetTransferor(t Transferor) { e.transfer = t }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// OpenLoan disburses principal to the borrower after ban, oracle and
// liquidity checks pass. A fully repaid prior loan never blocks a new one.
func (e *Engine) OpenLoan(borrower [20]byte, principal *big.Int, termSeconds, now uint64, policy BorrowPolicy) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	banned, err := e.state.IsBanned(borrower)
	if err != nil {
		return err
	}
	if banned {
		return errBorrowerBanned
	}
	if principal == nil || principal.Sign() <= 0 || principal.Cmp(maxAmountWei) > 0 {
		return errInvalidAmount
	}
	if termSeconds == 0 {
		return errInvalidTerm
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if pool.LiquidityWei.Cmp(principal) < 0 {
		return errLiquidityLow
	}

	if policy.CheckOracle {
		if e.oracle == nil {
			return errNilOracle
		}
		held, err := e.oracle.HasCredential(borrower)
		if err != nil {
			return err
		}
		if !held {
			return errNoCredential
		}
		score, err := e.oracle.GetScore(borrower)
		if err != nil {
			return err
		}
		if !score.Valid {
			return errInvalidScore
		}
		if score.Value < policy.MinScore {
			return errScoreTooLow
		}
	}

	existing, err := e.state.GetLoan(borrower)
	if err != nil {
		return err
	}
	if existing.Open() {
		return errUnpaidLoanExists
	}

	loan := &Loan{
		Borrower:       borrower,
		PrincipalWei:   new(big.Int).Set(principal),
		OutstandingWei: new(big.Int).Set(principal),
		StartTime:      now,
		DueTime:        now + termSeconds,
		Active:         true,
	}

	pool.LiquidityWei = new(big.Int).Sub(pool.LiquidityWei, principal)
	pool.LoansOutstandingWei = new(big.Int).Add(pool.LoansOutstandingWei, principal)

	if err := e.payOut(borrower, principal); err != nil {
		return err
	}
	if err := e.state.PutLoan(loan); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}

	e.emit(events.LoanOpened{
		Borrower:  borrower,
		Principal: new(big.Int).Set(principal),
		StartTime: now,
		DueTime:   loan.DueTime,
	})
	return nil
}

// Repay applies a payment against the borrower's active loan. The declared
// amount must match the value physically moved back into the pool. Reaching
// zero outstanding marks the loan inactive and reusable.
func (e *Engine) Repay(borrower [20]byte, amount, value *big.Int, now uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	loan, err := e.state.GetLoan(borrower)
	if err != nil {
		return err
	}
	if loan == nil || !loan.Active {
		return errNoActiveLoan
	}
	loan.EnsureDefaults()
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	if amount.Cmp(loan.OutstandingWei) > 0 {
		return errRepayExceedsOutstanding
	}
	if value == nil || value.Cmp(amount) != 0 {
		return errValueMismatch
	}

	pool, err := e.loadPool()
	if err != nil {
		return err
	}

	loan.OutstandingWei = new(big.Int).Sub(loan.OutstandingWei, amount)
	if loan.OutstandingWei.Sign() == 0 {
		loan.Active = false
	}

	pool.LiquidityWei = new(big.Int).Add(pool.LiquidityWei, amount)
	pool.LoansOutstandingWei = new(big.Int).Sub(pool.LoansOutstandingWei, amount)

	if err := e.state.PutLoan(loan); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}

	e.emit(events.LoanRepaid{
		Borrower:    borrower,
		Amount:      new(big.Int).Set(amount),
		Outstanding: new(big.Int).Set(loan.OutstandingWei),
		Timestamp:   now,
	})
	return nil
}

// CheckDefaultAndBan flags the borrower when their loan is overdue with
// outstanding principal. The check is idempotent and permissionless: calling
// it again after the ban is set has no effect and emits nothing. The returned
// bool reports whether a ban was applied by this call.
func (e *Engine) CheckDefaultAndBan(borrower [20]byte, now uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	loan, err := e.state.GetLoan(borrower)
	if err != nil {
		return false, err
	}
	if !loan.Overdue(now) {
		return false, nil
	}
	banned, err := e.state.IsBanned(borrower)
	if err != nil {
		return false, err
	}
	if banned {
		return false, nil
	}
	if err := e.state.SetBanned(borrower, true); err != nil {
		return false, err
	}
	e.emit(events.BorrowerBanned{
		Borrower:    borrower,
		Outstanding: new(big.Int).Set(loan.OutstandingWei),
		DueTime:     loan.DueTime,
		Timestamp:   now,
	})
	return true, nil
}

// Unban lifts the borrower's ban. Authorization is enforced by the caller;
// the engine only rejects unbanning an account that is not banned.
func (e *Engine) Unban(authority, borrower [20]byte, now uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	banned, err := e.state.IsBanned(borrower)
	if err != nil {
		return err
	}
	if !banned {
		return errNotBanned
	}
	if err := e.state.SetBanned(borrower, false); err != nil {
		return err
	}
	e.emit(events.BorrowerUnbanned{
		Borrower:  borrower,
		Authority: authority,
		Timestamp: now,
	})
	return nil
}

// IsBanned reports the borrower's ban flag.
func (e *Engine) IsBanned(borrower [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.IsBanned(borrower)
}

// Loan returns a deep copy of the borrower's loan record, or nil when the
// borrower never opened one.
func (e *Engine) Loan(borrower [20]byte) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, err := e.state.GetLoan(borrower)
	if err != nil {
		return nil, err
	}
	return loan.Clone(), nil
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
