package loan

import "math/big"

// Loan is the single credit-line record a borrower may hold. The record is
// reusable: once outstanding reaches zero the same slot backs the next loan.
type Loan struct {
	Borrower       [20]byte
	PrincipalWei   *big.Int
	OutstandingWei *big.Int
	StartTime      uint64
	DueTime        uint64
	Active         bool
}

// EnsureDefaults populates nil amounts so codec handling is safe.
func (l *Loan) EnsureDefaults() {
	if l == nil {
		return
	}
	if l.PrincipalWei == nil {
		l.PrincipalWei = big.NewInt(0)
	}
	if l.OutstandingWei == nil {
		l.OutstandingWei = big.NewInt(0)
	}
}

// Clone returns a deep copy of the loan record.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := &Loan{
		Borrower:       l.Borrower,
		StartTime:      l.StartTime,
		DueTime:        l.DueTime,
		Active:         l.Active,
		PrincipalWei:   big.NewInt(0),
		OutstandingWei: big.NewInt(0),
	}
	if l.PrincipalWei != nil {
		clone.PrincipalWei = new(big.Int).Set(l.PrincipalWei)
	}
	if l.OutstandingWei != nil {
		clone.OutstandingWei = new(big.Int).Set(l.OutstandingWei)
	}
	return clone
}

// Open reports whether the record blocks a new loan: an active loan with
// nonzero outstanding. Full repayment clears eligibility regardless of the
// literal Active flag.
func (l *Loan) Open() bool {
	if l == nil || !l.Active {
		return false
	}
	return l.OutstandingWei != nil && l.OutstandingWei.Sign() > 0
}

// Overdue reports whether the loan has passed its due time while still
// carrying outstanding principal.
func (l *Loan) Overdue(now uint64) bool {
	return l.Open() && now > l.DueTime
}
