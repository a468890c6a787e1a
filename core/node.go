package core

import (
	"errors"
	"math/big"
	"time"

	"credpool/core/events"
	"credpool/core/state"
	"credpool/core/types"
	"credpool/native/credit"
	"credpool/native/deposit"
	"credpool/native/loan"
	"credpool/native/policy"
	"credpool/observability"
)

// ErrUnauthorized marks privileged operations invoked by a caller other than
// the configured authority.
var ErrUnauthorized = errors.New("core: caller is not the pool authority")

// Node is the single authoritative ledger process. Every mutation is applied
// through the state manager's transaction scope, so operations are totally
// ordered and all-or-nothing; events reach the audit log only after commit.
type Node struct {
	state     *state.Manager
	log       *events.Log
	oracle    credit.Oracle
	interest  *loan.InterestModel
	transfer  loan.Transferor
	authority [20]byte
	nowFn     func() uint64
}

// NewNode constructs a node bound to the state manager, owned by the supplied
// authority address.
func NewNode(manager *state.Manager, authority [20]byte) *Node {
	return &Node{
		state:     manager,
		log:       events.NewLog(),
		interest:  loan.NewInterestModel(0),
		authority: authority,
		nowFn:     func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetOracle injects the score oracle consulted when policy enables gating.
func (n *Node) SetOracle(oracle credit.Oracle) { n.oracle = oracle }

// SetTransferor installs the outbound value hook applied to withdrawals and
// loan disbursements.
func (n *Node) SetTransferor(t loan.Transferor) { n.transfer = t }

// SetNowFunc overrides the wall clock. Primarily intended for tests to
// provide deterministic timestamps.
func (n *Node) SetNowFunc(now func() uint64) {
	if now == nil {
		n.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	n.nowFn = now
}

// EventLog exposes the append-only audit trail.
func (n *Node) EventLog() *events.Log { return n.log }

// Authority returns the configured admin address.
func (n *Node) Authority() [20]byte { return n.authority }

func (n *Node) now() uint64 { return n.nowFn() }

func (n *Node) guardAuthority(caller [20]byte) error {
	if caller != n.authority {
		return ErrUnauthorized
	}
	return nil
}

// mutate runs fn inside a state transaction and publishes collected events
// only after the transaction commits.
func (n *Node) mutate(op string, fn func(txn *state.Txn, collector *events.Collector) error) error {
	collector := new(events.Collector)
	var pool *types.Pool
	err := n.state.Mutate(func(txn *state.Txn) error {
		if err := fn(txn, collector); err != nil {
			return err
		}
		stored, err := txn.GetPool()
		if err != nil {
			return err
		}
		pool = stored
		return nil
	})
	observability.Ledger().ObserveOperation(op, err)
	if err != nil {
		return err
	}
	if pool != nil {
		observability.Ledger().RecordPool(pool.NetDepositsWei, pool.LiquidityWei, pool.LoansOutstandingWei)
	}
	for _, evt := range collector.Drain() {
		n.log.Emit(evt)
	}
	return nil
}

func (n *Node) depositEngine(txn *state.Txn, collector *events.Collector) *deposit.Engine {
	eng := deposit.NewEngine()
	eng.SetState(txn)
	if collector != nil {
		eng.SetEmitter(collector)
	}
	if n.transfer != nil {
		eng.SetTransferor(transferAdapter{inner: n.transfer})
	}
	return eng
}

func (n *Node) loanEngine(txn *state.Txn, collector *events.Collector) *loan.Engine {
	eng := loan.NewEngine()
	eng.SetState(txn)
	if collector != nil {
		eng.SetEmitter(collector)
	}
	eng.SetOracle(n.oracle)
	eng.SetInterestModel(n.interest)
	eng.SetTransferor(n.transfer)
	return eng
}

func (n *Node) policyEngine(txn *state.Txn, collector *events.Collector) *policy.Engine {
	eng := policy.NewEngine()
	eng.SetState(txn)
	if collector != nil {
		eng.SetEmitter(collector)
	}
	return eng
}

// transferAdapter bridges the loan-package Transferor to the deposit engine's
// identically shaped hook.
type transferAdapter struct {
	inner loan.Transferor
}

func (a transferAdapter) Transfer(to [20]byte, amount *big.Int) error {
	return a.inner.Transfer(to, amount)
}

// SeedPolicy writes the genesis policy record when none exists yet. Called at
// boot with configuration defaults; an already-initialised ledger is left
// untouched.
func (n *Node) SeedPolicy(genesis *policy.Policy) error {
	if genesis == nil {
		return nil
	}
	return n.state.Mutate(func(txn *state.Txn) error {
		current, err := txn.GetPolicy()
		if err != nil {
			return err
		}
		if current != nil {
			return nil
		}
		return txn.PutPolicy(genesis.Clone())
	})
}

// Deposit appends a time-locked entry to the owner's FIFO queue.
func (n *Node) Deposit(owner [20]byte, amount, value *big.Int) error {
	now := n.now()
	return n.mutate("deposit", func(txn *state.Txn, collector *events.Collector) error {
		return n.depositEngine(txn, collector).Deposit(owner, amount, value, now)
	})
}

// Withdraw consumes unlocked entries FIFO and pays the owner out of the pool.
func (n *Node) Withdraw(owner [20]byte, amount *big.Int) error {
	now := n.now()
	return n.mutate("withdraw", func(txn *state.Txn, collector *events.Collector) error {
		current, err := n.policyEngine(txn, nil).Policy()
		if err != nil {
			return err
		}
		return n.depositEngine(txn, collector).Withdraw(owner, amount, now, current.DepositLockSeconds)
	})
}

// PreviewWithdraw reports the amount withdrawable at this instant.
func (n *Node) PreviewWithdraw(owner [20]byte) (*big.Int, error) {
	now := n.now()
	var unlocked *big.Int
	err := n.state.View(func(txn *state.Txn) error {
		current, err := n.policyEngine(txn, nil).Policy()
		if err != nil {
			return err
		}
		unlocked, err = n.depositEngine(txn, nil).PreviewWithdraw(owner, now, current.DepositLockSeconds)
		return err
	})
	return unlocked, err
}

// BalanceOf reports the owner's net deposited balance.
func (n *Node) BalanceOf(owner [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := n.state.View(func(txn *state.Txn) error {
		var viewErr error
		balance, viewErr = n.depositEngine(txn, nil).BalanceOf(owner)
		return viewErr
	})
	return balance, err
}

// Lender returns the owner's full deposit ledger record.
func (n *Node) Lender(owner [20]byte) (*deposit.LenderAccount, error) {
	var lender *deposit.LenderAccount
	err := n.state.View(func(txn *state.Txn) error {
		var viewErr error
		lender, viewErr = n.depositEngine(txn, nil).Lender(owner)
		return viewErr
	})
	return lender, err
}

// OpenLoan disburses principal to the borrower under the current policy.
func (n *Node) OpenLoan(borrower [20]byte, principal *big.Int, termSeconds uint64) error {
	now := n.now()
	return n.mutate("openLoan", func(txn *state.Txn, collector *events.Collector) error {
		current, err := n.policyEngine(txn, nil).Policy()
		if err != nil {
			return err
		}
		borrowPolicy := loan.BorrowPolicy{
			CheckOracle: current.OracleEnabled(),
			MinScore:    current.MinScoreToBorrow,
		}
		return n.loanEngine(txn, collector).OpenLoan(borrower, principal, termSeconds, now, borrowPolicy)
	})
}

// Repay applies a payment against the borrower's active loan.
func (n *Node) Repay(borrower [20]byte, amount, value *big.Int) error {
	now := n.now()
	return n.mutate("repay", func(txn *state.Txn, collector *events.Collector) error {
		return n.loanEngine(txn, collector).Repay(borrower, amount, value, now)
	})
}

// CheckDefault runs permissionless default detection for the borrower and
// reports whether a ban was applied by this call.
func (n *Node) CheckDefault(borrower [20]byte) (bool, error) {
	now := n.now()
	var banned bool
	err := n.mutate("checkDefault", func(txn *state.Txn, collector *events.Collector) error {
		var opErr error
		banned, opErr = n.loanEngine(txn, collector).CheckDefaultAndBan(borrower, now)
		return opErr
	})
	if err == nil && banned {
		observability.Ledger().RecordBan()
	}
	return banned, err
}

// Unban lifts a borrower's ban. Authority only.
func (n *Node) Unban(caller, borrower [20]byte) error {
	if err := n.guardAuthority(caller); err != nil {
		return err
	}
	now := n.now()
	return n.mutate("unban", func(txn *state.Txn, collector *events.Collector) error {
		return n.loanEngine(txn, collector).Unban(caller, borrower, now)
	})
}

// IsBanned reports the borrower's ban flag.
func (n *Node) IsBanned(borrower [20]byte) (bool, error) {
	var banned bool
	err := n.state.View(func(txn *state.Txn) error {
		var viewErr error
		banned, viewErr = n.loanEngine(txn, nil).IsBanned(borrower)
		return viewErr
	})
	return banned, err
}

// Loan returns the borrower's loan record, or nil when none was ever opened.
func (n *Node) Loan(borrower [20]byte) (*loan.Loan, error) {
	var record *loan.Loan
	err := n.state.View(func(txn *state.Txn) error {
		var viewErr error
		record, viewErr = n.loanEngine(txn, nil).Loan(borrower)
		return viewErr
	})
	return record, err
}

// SetOraclePolicy overwrites the oracle address. Authority only; the zero
// address disables credential gating.
func (n *Node) SetOraclePolicy(caller, oracle [20]byte) error {
	if err := n.guardAuthority(caller); err != nil {
		return err
	}
	now := n.now()
	return n.mutate("setOracle", func(txn *state.Txn, collector *events.Collector) error {
		return n.policyEngine(txn, collector).SetOracle(caller, oracle, now)
	})
}

// SetMinScore overwrites the borrow score threshold. Authority only.
func (n *Node) SetMinScore(caller [20]byte, minScore uint64) error {
	if err := n.guardAuthority(caller); err != nil {
		return err
	}
	now := n.now()
	return n.mutate("setMinScore", func(txn *state.Txn, collector *events.Collector) error {
		return n.policyEngine(txn, collector).SetMinScore(caller, minScore, now)
	})
}

// SetDepositLock overwrites the deposit lock duration. Authority only.
func (n *Node) SetDepositLock(caller [20]byte, lockSeconds uint64) error {
	if err := n.guardAuthority(caller); err != nil {
		return err
	}
	now := n.now()
	return n.mutate("setDepositLock", func(txn *state.Txn, collector *events.Collector) error {
		return n.policyEngine(txn, collector).SetDepositLock(caller, lockSeconds, now)
	})
}

// Policy returns the current admin policy record.
func (n *Node) Policy() (*policy.Policy, error) {
	var current *policy.Policy
	err := n.state.View(func(txn *state.Txn) error {
		var viewErr error
		current, viewErr = n.policyEngine(txn, nil).Policy()
		return viewErr
	})
	return current, err
}

// PoolStats returns the pool's accounting snapshot.
func (n *Node) PoolStats() (*types.Pool, error) {
	var pool *types.Pool
	err := n.state.View(func(txn *state.Txn) error {
		stored, viewErr := txn.GetPool()
		if viewErr != nil {
			return viewErr
		}
		if stored == nil {
			stored = types.NewPool()
		}
		pool = stored.Clone()
		return nil
	})
	return pool, err
}

// PayoutBalance reports the value credited to the address by withdrawals and
// loan disbursements.
func (n *Node) PayoutBalance(addr [20]byte) (*big.Int, error) {
	balance := big.NewInt(0)
	err := n.state.View(func(txn *state.Txn) error {
		account, viewErr := txn.GetAccount(addr)
		if viewErr != nil {
			return viewErr
		}
		if account != nil && account.BalanceWei != nil {
			balance = new(big.Int).Set(account.BalanceWei)
		}
		return nil
	})
	return balance, err
}

// Events returns audit-log entries starting at the given sequence.
func (n *Node) Events(from uint64, limit int) []events.Entry {
	return n.log.Entries(from, limit)
}
