package types

import "math/big"

// Pool captures the global accounting figures for the shared liquidity pool.
// NetDepositsWei tracks lender contributions (deposits minus withdrawals) and
// moves independently of LiquidityWei, which reflects the value physically held
// by the ledger and also absorbs loan outflows and repayments.
type Pool struct {
	NetDepositsWei      *big.Int
	LiquidityWei        *big.Int
	LoansOutstandingWei *big.Int
}

// NewPool returns a pool with zeroed counters.
func NewPool() *Pool {
	return &Pool{
		NetDepositsWei:      big.NewInt(0),
		LiquidityWei:        big.NewInt(0),
		LoansOutstandingWei: big.NewInt(0),
	}
}

// EnsureDefaults populates nil counters so codec handling is safe.
func (p *Pool) EnsureDefaults() {
	if p == nil {
		return
	}
	if p.NetDepositsWei == nil {
		p.NetDepositsWei = big.NewInt(0)
	}
	if p.LiquidityWei == nil {
		p.LiquidityWei = big.NewInt(0)
	}
	if p.LoansOutstandingWei == nil {
		p.LoansOutstandingWei = big.NewInt(0)
	}
}

// Clone returns a deep copy of the pool record.
func (p *Pool) Clone() *Pool {
	clone := NewPool()
	if p == nil {
		return clone
	}
	if p.NetDepositsWei != nil {
		clone.NetDepositsWei = new(big.Int).Set(p.NetDepositsWei)
	}
	if p.LiquidityWei != nil {
		clone.LiquidityWei = new(big.Int).Set(p.LiquidityWei)
	}
	if p.LoansOutstandingWei != nil {
		clone.LoansOutstandingWei = new(big.Int).Set(p.LoansOutstandingWei)
	}
	return clone
}
