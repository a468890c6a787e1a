package types

import "math/big"

// Account represents a value-holding participant on the ledger. Balances are
// denominated in wei and stored as big integers to preserve exact arithmetic.
type Account struct {
	BalanceWei *big.Int
}

// NewAccount returns an account with a zeroed balance.
func NewAccount() *Account {
	return &Account{BalanceWei: big.NewInt(0)}
}

// EnsureDefaults populates nil balance fields so codec handling is safe.
func (a *Account) EnsureDefaults() {
	if a == nil {
		return
	}
	if a.BalanceWei == nil {
		a.BalanceWei = big.NewInt(0)
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return NewAccount()
	}
	clone := &Account{BalanceWei: big.NewInt(0)}
	if a.BalanceWei != nil {
		clone.BalanceWei = new(big.Int).Set(a.BalanceWei)
	}
	return clone
}
