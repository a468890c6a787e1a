package events

import (
	"math/big"
	"strconv"

	"credpool/core/types"
)

const (
	// TypeDepositMade is emitted when a lender adds liquidity to the pool.
	TypeDepositMade = "deposit.made"
	// TypeWithdrawalMade is emitted when a lender withdraws unlocked funds.
	TypeWithdrawalMade = "deposit.withdrawn"
)

// DepositMade captures a new deposit entry appended to a lender's queue.
type DepositMade struct {
	Lender     [20]byte
	Amount     *big.Int
	EntryIndex uint64
	Timestamp  uint64
}

// EventType satisfies the Event interface.
func (DepositMade) EventType() string { return TypeDepositMade }

// Event converts the structured payload into a broadcastable event.
func (e DepositMade) Event() *types.Event {
	return &types.Event{
		Type: TypeDepositMade,
		Attributes: map[string]string{
			"lender":     formatAddress(e.Lender),
			"amount":     formatAmount(e.Amount),
			"entryIndex": strconv.FormatUint(e.EntryIndex, 10),
			"timestamp":  strconv.FormatUint(e.Timestamp, 10),
		},
	}
}

// WithdrawalMade captures a completed FIFO withdrawal.
type WithdrawalMade struct {
	Lender    [20]byte
	Amount    *big.Int
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (WithdrawalMade) EventType() string { return TypeWithdrawalMade }

// Event converts the structured payload into a broadcastable event.
func (e WithdrawalMade) Event() *types.Event {
	return &types.Event{
		Type: TypeWithdrawalMade,
		Attributes: map[string]string{
			"lender":    formatAddress(e.Lender),
			"amount":    formatAmount(e.Amount),
			"timestamp": strconv.FormatUint(e.Timestamp, 10),
		},
	}
}
