package credit

// Score is the creditworthiness answer reported by an oracle for a subject.
type Score struct {
	Value    uint64
	IssuedAt uint64
	Valid    bool
}

// Oracle is the external read-only authority answering credential and
// creditworthiness queries. The ledger never mutates oracle state; it is
// injected as a capability so deployments can point at any provider and tests
// can substitute doubles.
type Oracle interface {
	HasCredential(subject [20]byte) (bool, error)
	GetScore(subject [20]byte) (Score, error)
}
