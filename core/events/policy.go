package events

import (
	"strconv"

	"credpool/core/types"
)

const (
	// TypeOracleUpdated is emitted when the authority changes the score oracle.
	TypeOracleUpdated = "policy.oracleUpdated"
	// TypeMinScoreUpdated is emitted when the borrow threshold changes.
	TypeMinScoreUpdated = "policy.minScoreUpdated"
	// TypeDepositLockUpdated is emitted when the lock duration changes.
	TypeDepositLockUpdated = "policy.depositLockUpdated"
)

// OracleUpdated captures an oracle address change. A zero address disables
// credential gating for subsequent loan opens.
type OracleUpdated struct {
	Authority [20]byte
	Oracle    [20]byte
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (OracleUpdated) EventType() string { return TypeOracleUpdated }

// Event converts the structured payload into a broadcastable event.
func (e OracleUpdated) Event() *types.Event {
	attrs := map[string]string{
		"authority": formatAddress(e.Authority),
		"timestamp": strconv.FormatUint(e.Timestamp, 10),
	}
	if zeroAddress(e.Oracle) {
		attrs["oracle"] = "disabled"
	} else {
		attrs["oracle"] = formatAddress(e.Oracle)
	}
	return &types.Event{Type: TypeOracleUpdated, Attributes: attrs}
}

// MinScoreUpdated captures a change to the minimum score required to borrow.
type MinScoreUpdated struct {
	Authority [20]byte
	MinScore  uint64
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (MinScoreUpdated) EventType() string { return TypeMinScoreUpdated }

// Event converts the structured payload into a broadcastable event.
func (e MinScoreUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeMinScoreUpdated,
		Attributes: map[string]string{
			"authority": formatAddress(e.Authority),
			"minScore":  strconv.FormatUint(e.MinScore, 10),
			"timestamp": strconv.FormatUint(e.Timestamp, 10),
		},
	}
}

// DepositLockUpdated captures a change to the deposit lock duration.
type DepositLockUpdated struct {
	Authority   [20]byte
	LockSeconds uint64
	Timestamp   uint64
}

// EventType satisfies the Event interface.
func (DepositLockUpdated) EventType() string { return TypeDepositLockUpdated }

// Event converts the structured payload into a broadcastable event.
func (e DepositLockUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeDepositLockUpdated,
		Attributes: map[string]string{
			"authority":   formatAddress(e.Authority),
			"lockSeconds": strconv.FormatUint(e.LockSeconds, 10),
			"timestamp":   strconv.FormatUint(e.Timestamp, 10),
		},
	}
}
