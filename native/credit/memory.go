package credit

import "sync"

// MemoryOracle is an in-process Oracle implementation backed by maps. It
// serves local development and test doubles; production deployments inject a
// client for the real credential authority.
type MemoryOracle struct {
	mu          sync.RWMutex
	credentials map[[20]byte]bool
	scores      map[[20]byte]Score
}

// NewMemoryOracle constructs an empty oracle.
func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{
		credentials: make(map[[20]byte]bool),
		scores:      make(map[[20]byte]Score),
	}
}

// SetCredential records whether the subject holds a credential.
func (o *MemoryOracle) SetCredential(subject [20]byte, held bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.credentials[subject] = held
}

// SetScore records the subject's score.
func (o *MemoryOracle) SetScore(subject [20]byte, score Score) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scores[subject] = score
}

// HasCredential implements the Oracle interface.
func (o *MemoryOracle) HasCredential(subject [20]byte) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.credentials[subject], nil
}

// GetScore implements the Oracle interface.
func (o *MemoryOracle) GetScore(subject [20]byte) (Score, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.scores[subject], nil
}
