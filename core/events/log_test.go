package events

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogAppendsInSequence(t *testing.T) {
	log := NewLog()
	lender := [20]byte{0x01}

	log.Emit(DepositMade{Lender: lender, Amount: big.NewInt(100), EntryIndex: 0, Timestamp: 10})
	log.Emit(WithdrawalMade{Lender: lender, Amount: big.NewInt(40), Timestamp: 120})

	entries := log.Entries(0, 0)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(0), entries[0].Sequence)
	require.Equal(t, uint64(1), entries[1].Sequence)
	require.Equal(t, TypeDepositMade, entries[0].Event.Type)
	require.Equal(t, TypeWithdrawalMade, entries[1].Event.Type)
	require.NotEmpty(t, entries[0].ID)
	require.NotEqual(t, entries[0].ID, entries[1].ID)
	require.Equal(t, "100", entries[0].Event.Attributes["amount"])
}

func TestLogEntriesPagination(t *testing.T) {
	log := NewLog()
	for i := 0; i < 5; i++ {
		log.Emit(DepositMade{Lender: [20]byte{byte(i)}, Amount: big.NewInt(int64(i))})
	}

	page := log.Entries(2, 2)
	require.Len(t, page, 2)
	require.Equal(t, uint64(2), page[0].Sequence)
	require.Equal(t, uint64(3), page[1].Sequence)

	require.Nil(t, log.Entries(10, 0))
	require.Equal(t, 5, log.Len())
}

func TestCollectorBuffersUntilDrain(t *testing.T) {
	collector := new(Collector)
	collector.Emit(LoanOpened{Borrower: [20]byte{0xAA}, Principal: big.NewInt(500), StartTime: 0, DueTime: 3600})
	collector.Emit(nil)

	drained := collector.Drain()
	require.Len(t, drained, 1)
	require.Equal(t, TypeLoanOpened, drained[0].EventType())
	require.Empty(t, collector.Drain())
}
