package cart

import "sync"

// Sessions maps session ids to their ledgers. Each session owns exactly one
// ledger, created empty on first use and discarded on checkout or logout.
// Ledgers are ephemeral; nothing here survives a process restart.
type Sessions struct {
	mu      sync.RWMutex
	ledgers map[string]*Ledger
}

// NewSessions creates an empty session registry
func NewSessions() *Sessions {
	return &Sessions{
		ledgers: make(map[string]*Ledger),
	}
}

// Get returns the ledger for the session, creating it if absent
func (s *Sessions) Get(sessionID string) *Ledger {
	s.mu.RLock()
	ledger, ok := s.ledgers[sessionID]
	s.mu.RUnlock()
	if ok {
		return ledger
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger, ok := s.ledgers[sessionID]; ok {
		return ledger
	}
	ledger = NewLedger()
	s.ledgers[sessionID] = ledger
	return ledger
}

// Drop discards the session's ledger. Safe to call for unknown sessions.
func (s *Sessions) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ledgers, sessionID)
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ledgers)
}
