package loan

import "math/big"

// InterestModel is a placeholder for future accrual math. Loans currently
// carry no interest: outstanding equals principal minus repayments.
type InterestModel struct {
	// AprBps is retained for configuration plumbing but unused by Accrued.
	AprBps uint64
}

// NewInterestModel constructs the stub model.
func NewInterestModel(aprBps uint64) *InterestModel {
	return &InterestModel{AprBps: aprBps}
}

// Clone returns a copy of the model.
func (m *InterestModel) Clone() *InterestModel {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Accrued returns the interest accumulated on the outstanding balance between
// start and now. The stub always returns zero.
func (m *InterestModel) Accrued(outstanding *big.Int, start, now uint64) *big.Int {
	return big.NewInt(0)
}
