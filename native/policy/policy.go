package policy

import (
	"errors"

	"credpool/core/events"
)

var errNilState = errors.New("policy engine: state not configured")

// Policy is the single mutable configuration record governing lending
// activity. A zero OracleAddress disables credential gating entirely.
type Policy struct {
	OracleAddress      [20]byte
	MinScoreToBorrow   uint64
	DepositLockSeconds uint64
}

// Clone returns a copy of the policy record.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// OracleEnabled reports whether credential gating applies to loan opens.
func (p *Policy) OracleEnabled() bool {
	return p != nil && p.OracleAddress != ([20]byte{})
}

type engineState interface {
	GetPolicy() (*Policy, error)
	PutPolicy(policy *Policy) error
}

// Engine owns the policy record. Every setter is an unconditional overwrite
// and emits a change event; authorization is enforced by the caller before
// the engine is reached.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a policy engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Policy returns the current record, defaulting to a zero policy when none
// has been persisted yet.
func (e *Engine) Policy() (*Policy, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	current, err := e.state.GetPolicy()
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &Policy{}
	}
	return current, nil
}

// SetOracle overwrites the oracle address. The zero address disables
// credential gating for subsequent loan opens.
func (e *Engine) SetOracle(authority, oracle [20]byte, now uint64) error {
	current, err := e.Policy()
	if err != nil {
		return err
	}
	current.OracleAddress = oracle
	if err := e.state.PutPolicy(current); err != nil {
		return err
	}
	e.emit(events.OracleUpdated{Authority: authority, Oracle: oracle, Timestamp: now})
	return nil
}

// SetMinScore overwrites the minimum score required to borrow.
func (e *Engine) SetMinScore(authority [20]byte, minScore, now uint64) error {
	current, err := e.Policy()
	if err != nil {
		return err
	}
	current.MinScoreToBorrow = minScore
	if err := e.state.PutPolicy(current); err != nil {
		return err
	}
	e.emit(events.MinScoreUpdated{Authority: authority, MinScore: minScore, Timestamp: now})
	return nil
}

// SetDepositLock overwrites the deposit lock duration.
func (e *Engine) SetDepositLock(authority [20]byte, lockSeconds, now uint64) error {
	current, err := e.Policy()
	if err != nil {
		return err
	}
	current.DepositLockSeconds = lockSeconds
	if err := e.state.PutPolicy(current); err != nil {
		return err
	}
	e.emit(events.DepositLockUpdated{Authority: authority, LockSeconds: lockSeconds, Timestamp: now})
	return nil
}
