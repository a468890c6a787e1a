package events

import (
	"sync"

	"github.com/google/uuid"

	"credpool/core/types"
)

// payload is satisfied by event types that can render a broadcastable form.
type payload interface {
	Event() *types.Event
}

// Entry is a single record in the append-only audit log.
type Entry struct {
	Sequence uint64       `json:"sequence"`
	ID       string       `json:"id"`
	Event    *types.Event `json:"event"`
}

// Log is an append-only audit trail of committed state transitions. Entries
// are never removed; consumers replay by sequence number.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	nextSeq uint64
}

// NewLog constructs an empty audit log.
func NewLog() *Log {
	return &Log{}
}

// Emit implements the Emitter interface, appending the rendered event.
func (l *Log) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	rendered, ok := evt.(payload)
	if !ok {
		return
	}
	event := rendered.Event()
	if event == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Sequence: l.nextSeq,
		ID:       uuid.NewString(),
		Event:    event,
	})
	l.nextSeq++
}

// Entries returns up to limit entries starting at the given sequence number.
// A limit of zero returns everything from the offset.
func (l *Log) Entries(from uint64, limit int) []Entry {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if from >= uint64(len(l.entries)) {
		return nil
	}
	slice := l.entries[from:]
	if limit > 0 && limit < len(slice) {
		slice = slice[:limit]
	}
	out := make([]Entry, len(slice))
	copy(out, slice)
	return out
}

// Len reports the number of committed entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
