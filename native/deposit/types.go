package deposit

import "math/big"

// Entry is a single deposit appended to a lender's withdrawal queue. Entries
// are immutable in timestamp; the amount only ever decreases as withdrawals
// consume the queue in FIFO order. Fully consumed entries are zeroed, never
// deleted, so the history remains replayable.
type Entry struct {
	// AmountWei is the remaining principal of this deposit.
	AmountWei *big.Int
	// Timestamp records the deposit instant and anchors the lock window.
	Timestamp uint64
}

// LenderAccount owns the ordered deposit queue for a single lender. The
// cursor marks the first entry that has not been fully consumed; everything
// before it is zeroed.
type LenderAccount struct {
	Address [20]byte
	Entries []Entry
	// NextWithdrawalIndex is the FIFO cursor into Entries.
	NextWithdrawalIndex uint64
	TotalDepositedWei   *big.Int
	TotalWithdrawnWei   *big.Int
}

// EnsureDefaults populates nil amounts so codec handling is safe.
func (a *LenderAccount) EnsureDefaults() {
	if a == nil {
		return
	}
	if a.TotalDepositedWei == nil {
		a.TotalDepositedWei = big.NewInt(0)
	}
	if a.TotalWithdrawnWei == nil {
		a.TotalWithdrawnWei = big.NewInt(0)
	}
	for i := range a.Entries {
		if a.Entries[i].AmountWei == nil {
			a.Entries[i].AmountWei = big.NewInt(0)
		}
	}
}

// Clone returns a deep copy of the lender account.
func (a *LenderAccount) Clone() *LenderAccount {
	if a == nil {
		return nil
	}
	clone := &LenderAccount{
		Address:             a.Address,
		NextWithdrawalIndex: a.NextWithdrawalIndex,
		TotalDepositedWei:   big.NewInt(0),
		TotalWithdrawnWei:   big.NewInt(0),
	}
	if a.TotalDepositedWei != nil {
		clone.TotalDepositedWei = new(big.Int).Set(a.TotalDepositedWei)
	}
	if a.TotalWithdrawnWei != nil {
		clone.TotalWithdrawnWei = new(big.Int).Set(a.TotalWithdrawnWei)
	}
	if len(a.Entries) > 0 {
		clone.Entries = make([]Entry, len(a.Entries))
		for i, entry := range a.Entries {
			clone.Entries[i] = Entry{Timestamp: entry.Timestamp, AmountWei: big.NewInt(0)}
			if entry.AmountWei != nil {
				clone.Entries[i].AmountWei = new(big.Int).Set(entry.AmountWei)
			}
		}
	}
	return clone
}

// RemainingWei sums the unconsumed amounts across all entries. The ledger
// invariant ties this to TotalDepositedWei - TotalWithdrawnWei.
func (a *LenderAccount) RemainingWei() *big.Int {
	total := big.NewInt(0)
	if a == nil {
		return total
	}
	for _, entry := range a.Entries {
		if entry.AmountWei != nil {
			total.Add(total, entry.AmountWei)
		}
	}
	return total
}

// BalanceWei reports the lender's net position: deposits minus withdrawals.
func (a *LenderAccount) BalanceWei() *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	deposited := big.NewInt(0)
	if a.TotalDepositedWei != nil {
		deposited = deposited.Set(a.TotalDepositedWei)
	}
	if a.TotalWithdrawnWei != nil {
		deposited.Sub(deposited, a.TotalWithdrawnWei)
	}
	return deposited
}
