package loan

import (
	"errors"
	"math/big"
	"testing"

	"credpool/core/events"
	"credpool/core/types"
	"credpool/native/credit"
)

type mockEngineState struct {
	loans    map[[20]byte]*Loan
	bans     map[[20]byte]bool
	accounts map[[20]byte]*types.Account
	pool     *types.Pool
}

func newMockEngineState(liquidity int64) *mockEngineState {
	pool := types.NewPool()
	pool.LiquidityWei = big.NewInt(liquidity)
	return &mockEngineState{
		loans:    make(map[[20]byte]*Loan),
		bans:     make(map[[20]byte]bool),
		accounts: make(map[[20]byte]*types.Account),
		pool:     pool,
	}
}

func (m *mockEngineState) GetLoan(addr [20]byte) (*Loan, error) {
	if record, ok := m.loans[addr]; ok {
		return record.Clone(), nil
	}
	return nil, nil
}

func (m *mockEngineState) PutLoan(record *Loan) error {
	m.loans[record.Borrower] = record
	return nil
}

func (m *mockEngineState) IsBanned(addr [20]byte) (bool, error) {
	return m.bans[addr], nil
}

func (m *mockEngineState) SetBanned(addr [20]byte, banned bool) error {
	m.bans[addr] = banned
	return nil
}

func (m *mockEngineState) GetPool() (*types.Pool, error) {
	return m.pool.Clone(), nil
}

func (m *mockEngineState) PutPool(pool *types.Pool) error {
	m.pool = pool
	return nil
}

func (m *mockEngineState) GetAccount(addr [20]byte) (*types.Account, error) {
	if account, ok := m.accounts[addr]; ok {
		return account.Clone(), nil
	}
	return nil, nil
}

func (m *mockEngineState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account
	return nil
}

func makeAddress(suffix byte) [20]byte {
	var addr [20]byte
	addr[len(addr)-1] = suffix
	return addr
}

func newTestEngine(state *mockEngineState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	return engine
}

func TestOpenLoanDisbursesPrincipal(t *testing.T) {
	state := newMockEngineState(10_000)
	engine := newTestEngine(state)
	borrower := makeAddress(0x01)

	if err := engine.OpenLoan(borrower, big.NewInt(500), 3600, 100, BorrowPolicy{}); err != nil {
		t.Fatalf("open loan: %v", err)
	}

	record := state.loans[borrower]
	if record.PrincipalWei.Cmp(big.NewInt(500)) != 0 || record.OutstandingWei.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected loan amounts: %+v", record)
	}
	if record.StartTime != 100 || record.DueTime != 3700 || !record.Active {
		t.Fatalf("unexpected loan schedule: %+v", record)
	}
	if state.pool.LiquidityWei.Cmp(big.NewInt(9_500)) != 0 {
		t.Fatalf("liquidity should drop by principal, got %s", state.pool.LiquidityWei)
	}
	if state.pool.LoansOutstandingWei.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("outstanding aggregate should track principal, got %s", state.pool.LoansOutstandingWei)
	}
	if state.accounts[borrower].BalanceWei.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("borrower payout should hold principal, got %s", state.accounts[borrower].BalanceWei)
	}
	// Disbursement does not touch the net-deposit counter.
	if state.pool.NetDepositsWei.Sign() != 0 {
		t.Fatalf("net deposits must be unchanged by loans, got %s", state.pool.NetDepositsWei)
	}
}

func TestOpenLoanValidation(t *testing.T) {
	state := newMockEngineState(1_000)
	engine := newTestEngine(state)
	borrower := makeAddress(0x02)

	if err := engine.OpenLoan(borrower, big.NewInt(0), 3600, 0, BorrowPolicy{}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := engine.OpenLoan(borrower, big.NewInt(100), 0, 0, BorrowPolicy{}); !errors.Is(err, ErrInvalidTerm) {
		t.Fatalf("expected ErrInvalidTerm, got %v", err)
	}
	if err := engine.OpenLoan(borrower, big.NewInt(2_000), 3600, 0, BorrowPolicy{}); !errors.Is(err, ErrLiquidityLow) {
		t.Fatalf("expected ErrLiquidityLow, got %v", err)
	}

	state.bans[borrower] = true
	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 0, BorrowPolicy{}); !errors.Is(err, ErrBorrowerBanned) {
		t.Fatalf("expected ErrBorrowerBanned, got %v", err)
	}
}

func TestOpenLoanBlocksWhileOutstanding(t *testing.T) {
	state := newMockEngineState(10_000)
	engine := newTestEngine(state)
	borrower := makeAddress(0x03)

	if err := engine.OpenLoan(borrower, big.NewInt(500), 3600, 0, BorrowPolicy{}); err != nil {
		t.Fatalf("open loan: %v", err)
	}
	if err := engine.OpenLoan(borrower, big.NewInt(500), 3600, 10, BorrowPolicy{}); !errors.Is(err, ErrUnpaidLoanExists) {
		t.Fatalf("expected ErrUnpaidLoanExists, got %v", err)
	}

	// Full repayment clears eligibility and the same record backs a new loan.
	if err := engine.Repay(borrower, big.NewInt(500), big.NewInt(500), 100); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if err := engine.OpenLoan(borrower, big.NewInt(700), 1800, 200, BorrowPolicy{}); err != nil {
		t.Fatalf("reopen after full repayment: %v", err)
	}
	record := state.loans[borrower]
	if record.PrincipalWei.Cmp(big.NewInt(700)) != 0 || record.DueTime != 2000 {
		t.Fatalf("unexpected reopened loan: %+v", record)
	}
}

func TestOpenLoanOracleGating(t *testing.T) {
	state := newMockEngineState(10_000)
	engine := newTestEngine(state)
	borrower := makeAddress(0x04)
	gate := BorrowPolicy{CheckOracle: true, MinScore: 600}

	oracle := credit.NewMemoryOracle()
	engine.SetOracle(oracle)

	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 0, gate); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}

	oracle.SetCredential(borrower, true)
	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 0, gate); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("expected ErrInvalidScore, got %v", err)
	}

	oracle.SetScore(borrower, credit.Score{Value: 550, IssuedAt: 1, Valid: true})
	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 0, gate); !errors.Is(err, ErrScoreTooLow) {
		t.Fatalf("expected ErrScoreTooLow, got %v", err)
	}

	oracle.SetScore(borrower, credit.Score{Value: 650, IssuedAt: 2, Valid: true})
	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 0, gate); err != nil {
		t.Fatalf("open loan after score update: %v", err)
	}
}

func TestRepaySchedule(t *testing.T) {
	state := newMockEngineState(10_000)
	engine := newTestEngine(state)
	borrower := makeAddress(0x05)

	if err := engine.OpenLoan(borrower, big.NewInt(500), 3600, 0, BorrowPolicy{}); err != nil {
		t.Fatalf("open loan: %v", err)
	}

	if err := engine.Repay(borrower, big.NewInt(300), big.NewInt(300), 1000); err != nil {
		t.Fatalf("first repay: %v", err)
	}
	record := state.loans[borrower]
	if record.OutstandingWei.Cmp(big.NewInt(200)) != 0 || !record.Active {
		t.Fatalf("expected outstanding=200 active=true, got %+v", record)
	}

	if err := engine.Repay(borrower, big.NewInt(200), big.NewInt(200), 2000); err != nil {
		t.Fatalf("final repay: %v", err)
	}
	record = state.loans[borrower]
	if record.OutstandingWei.Sign() != 0 || record.Active {
		t.Fatalf("expected outstanding=0 active=false, got %+v", record)
	}
	if state.pool.LiquidityWei.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("liquidity should be restored, got %s", state.pool.LiquidityWei)
	}
	if state.pool.LoansOutstandingWei.Sign() != 0 {
		t.Fatalf("outstanding aggregate should be cleared, got %s", state.pool.LoansOutstandingWei)
	}
}

func TestRepayValidation(t *testing.T) {
	state := newMockEngineState(10_000)
	engine := newTestEngine(state)
	borrower := makeAddress(0x06)

	if err := engine.Repay(borrower, big.NewInt(100), big.NewInt(100), 0); !errors.Is(err, ErrNoActiveLoan) {
		t.Fatalf("expected ErrNoActiveLoan, got %v", err)
	}

	if err := engine.OpenLoan(borrower, big.NewInt(500), 3600, 0, BorrowPolicy{}); err != nil {
		t.Fatalf("open loan: %v", err)
	}
	if err := engine.Repay(borrower, big.NewInt(0), big.NewInt(0), 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := engine.Repay(borrower, big.NewInt(600), big.NewInt(600), 0); !errors.Is(err, ErrRepayExceedsOutstanding) {
		t.Fatalf("expected ErrRepayExceedsOutstanding, got %v", err)
	}
	if err := engine.Repay(borrower, big.NewInt(100), big.NewInt(90), 0); !errors.Is(err, ErrValueMismatch) {
		t.Fatalf("expected ErrValueMismatch, got %v", err)
	}
}

func TestCheckDefaultAndBanIsIdempotent(t *testing.T) {
	state := newMockEngineState(10_000)
	engine := newTestEngine(state)
	collector := new(events.Collector)
	engine.SetEmitter(collector)
	borrower := makeAddress(0x07)

	if err := engine.OpenLoan(borrower, big.NewInt(500), 3600, 0, BorrowPolicy{}); err != nil {
		t.Fatalf("open loan: %v", err)
	}
	collector.Drain()

	// Not yet overdue.
	banned, err := engine.CheckDefaultAndBan(borrower, 3600)
	if err != nil || banned {
		t.Fatalf("loan due exactly now must not default: banned=%v err=%v", banned, err)
	}

	banned, err = engine.CheckDefaultAndBan(borrower, 3601)
	if err != nil {
		t.Fatalf("default check: %v", err)
	}
	if !banned || !state.bans[borrower] {
		t.Fatalf("expected borrower banned at t=3601")
	}
	if drained := collector.Drain(); len(drained) != 1 || drained[0].EventType() != events.TypeBorrowerBanned {
		t.Fatalf("expected exactly one ban event, got %v", drained)
	}

	// Second invocation is a no-op and emits nothing.
	banned, err = engine.CheckDefaultAndBan(borrower, 4000)
	if err != nil || banned {
		t.Fatalf("repeat default check must be a no-op: banned=%v err=%v", banned, err)
	}
	if drained := collector.Drain(); len(drained) != 0 {
		t.Fatalf("repeat default check must not emit, got %v", drained)
	}

	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 5000, BorrowPolicy{}); !errors.Is(err, ErrBorrowerBanned) {
		t.Fatalf("expected ErrBorrowerBanned after default, got %v", err)
	}
}

func TestUnbanRestoresBorrowing(t *testing.T) {
	state := newMockEngineState(10_000)
	engine := newTestEngine(state)
	borrower := makeAddress(0x08)
	authority := makeAddress(0xFF)

	if err := engine.Unban(authority, borrower, 0); !errors.Is(err, ErrNotBanned) {
		t.Fatalf("expected ErrNotBanned, got %v", err)
	}

	if err := engine.OpenLoan(borrower, big.NewInt(500), 3600, 0, BorrowPolicy{}); err != nil {
		t.Fatalf("open loan: %v", err)
	}
	if _, err := engine.CheckDefaultAndBan(borrower, 4000); err != nil {
		t.Fatalf("default check: %v", err)
	}
	if err := engine.Unban(authority, borrower, 5000); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if state.bans[borrower] {
		t.Fatalf("ban flag should be cleared")
	}

	// The defaulted loan still carries outstanding principal, so a new loan
	// stays blocked until it is repaid.
	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 6000, BorrowPolicy{}); !errors.Is(err, ErrUnpaidLoanExists) {
		t.Fatalf("expected ErrUnpaidLoanExists after unban, got %v", err)
	}
	if err := engine.Repay(borrower, big.NewInt(500), big.NewInt(500), 6100); err != nil {
		t.Fatalf("repay defaulted loan: %v", err)
	}
	if err := engine.OpenLoan(borrower, big.NewInt(100), 3600, 6200, BorrowPolicy{}); err != nil {
		t.Fatalf("open loan after unban and repayment: %v", err)
	}
}
