package policy

import (
	"testing"

	"credpool/core/events"
)

type mockEngineState struct {
	record *Policy
}

func (m *mockEngineState) GetPolicy() (*Policy, error) {
	return m.record.Clone(), nil
}

func (m *mockEngineState) PutPolicy(record *Policy) error {
	m.record = record
	return nil
}

func TestSettersOverwriteAndEmit(t *testing.T) {
	state := &mockEngineState{}
	engine := NewEngine()
	engine.SetState(state)
	collector := new(events.Collector)
	engine.SetEmitter(collector)

	authority := [20]byte{0xAA}
	oracle := [20]byte{0x0B}

	if err := engine.SetOracle(authority, oracle, 10); err != nil {
		t.Fatalf("set oracle: %v", err)
	}
	if err := engine.SetMinScore(authority, 600, 20); err != nil {
		t.Fatalf("set min score: %v", err)
	}
	if err := engine.SetDepositLock(authority, 86_400, 30); err != nil {
		t.Fatalf("set deposit lock: %v", err)
	}

	if state.record.OracleAddress != oracle {
		t.Fatalf("oracle not persisted: %x", state.record.OracleAddress)
	}
	if state.record.MinScoreToBorrow != 600 || state.record.DepositLockSeconds != 86_400 {
		t.Fatalf("unexpected policy: %+v", state.record)
	}
	if !state.record.OracleEnabled() {
		t.Fatalf("oracle gating should be enabled")
	}

	drained := collector.Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 change events, got %d", len(drained))
	}
	wantTypes := []string{events.TypeOracleUpdated, events.TypeMinScoreUpdated, events.TypeDepositLockUpdated}
	for i, want := range wantTypes {
		if drained[i].EventType() != want {
			t.Fatalf("event %d: got %s want %s", i, drained[i].EventType(), want)
		}
	}
}

func TestZeroOracleDisablesGating(t *testing.T) {
	state := &mockEngineState{record: &Policy{OracleAddress: [20]byte{0x01}, MinScoreToBorrow: 500}}
	engine := NewEngine()
	engine.SetState(state)

	if err := engine.SetOracle([20]byte{0xAA}, [20]byte{}, 40); err != nil {
		t.Fatalf("set oracle: %v", err)
	}
	if state.record.OracleEnabled() {
		t.Fatalf("zero oracle address must disable gating")
	}
	// Other fields survive the overwrite.
	if state.record.MinScoreToBorrow != 500 {
		t.Fatalf("min score should be untouched, got %d", state.record.MinScoreToBorrow)
	}
}
