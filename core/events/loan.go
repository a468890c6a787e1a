package events

import (
	"math/big"
	"strconv"

	"credpool/core/types"
)

const (
	// TypeLoanOpened is emitted when principal is disbursed to a borrower.
	TypeLoanOpened = "loan.opened"
	// TypeLoanRepaid is emitted on every repayment, carrying the remaining
	// outstanding balance.
	TypeLoanRepaid = "loan.repaid"
	// TypeBorrowerBanned is emitted when default detection flags a borrower.
	TypeBorrowerBanned = "loan.borrowerBanned"
	// TypeBorrowerUnbanned is emitted when the authority lifts a ban.
	TypeBorrowerUnbanned = "loan.borrowerUnbanned"
)

// LoanOpened captures a newly disbursed loan.
type LoanOpened struct {
	Borrower  [20]byte
	Principal *big.Int
	StartTime uint64
	DueTime   uint64
}

// EventType satisfies the Event interface.
func (LoanOpened) EventType() string { return TypeLoanOpened }

// Event converts the structured payload into a broadcastable event.
func (e LoanOpened) Event() *types.Event {
	return &types.Event{
		Type: TypeLoanOpened,
		Attributes: map[string]string{
			"borrower":  formatAddress(e.Borrower),
			"principal": formatAmount(e.Principal),
			"startTime": strconv.FormatUint(e.StartTime, 10),
			"dueTime":   strconv.FormatUint(e.DueTime, 10),
		},
	}
}

// LoanRepaid captures a repayment applied against an active loan.
type LoanRepaid struct {
	Borrower    [20]byte
	Amount      *big.Int
	Outstanding *big.Int
	Timestamp   uint64
}

// EventType satisfies the Event interface.
func (LoanRepaid) EventType() string { return TypeLoanRepaid }

// Event converts the structured payload into a broadcastable event.
func (e LoanRepaid) Event() *types.Event {
	return &types.Event{
		Type: TypeLoanRepaid,
		Attributes: map[string]string{
			"borrower":    formatAddress(e.Borrower),
			"amount":      formatAmount(e.Amount),
			"outstanding": formatAmount(e.Outstanding),
			"timestamp":   strconv.FormatUint(e.Timestamp, 10),
		},
	}
}

// BorrowerBanned captures an automatic ban triggered by default detection.
type BorrowerBanned struct {
	Borrower    [20]byte
	Outstanding *big.Int
	DueTime     uint64
	Timestamp   uint64
}

// EventType satisfies the Event interface.
func (BorrowerBanned) EventType() string { return TypeBorrowerBanned }

// Event converts the structured payload into a broadcastable event.
func (e BorrowerBanned) Event() *types.Event {
	return &types.Event{
		Type: TypeBorrowerBanned,
		Attributes: map[string]string{
			"borrower":    formatAddress(e.Borrower),
			"outstanding": formatAmount(e.Outstanding),
			"dueTime":     strconv.FormatUint(e.DueTime, 10),
			"timestamp":   strconv.FormatUint(e.Timestamp, 10),
		},
	}
}

// BorrowerUnbanned captures an administrative ban reversal.
type BorrowerUnbanned struct {
	Borrower  [20]byte
	Authority [20]byte
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (BorrowerUnbanned) EventType() string { return TypeBorrowerUnbanned }

// Event converts the structured payload into a broadcastable event.
func (e BorrowerUnbanned) Event() *types.Event {
	attrs := map[string]string{
		"borrower":  formatAddress(e.Borrower),
		"timestamp": strconv.FormatUint(e.Timestamp, 10),
	}
	if !zeroAddress(e.Authority) {
		attrs["authority"] = formatAddress(e.Authority)
	}
	return &types.Event{Type: TypeBorrowerUnbanned, Attributes: attrs}
}
