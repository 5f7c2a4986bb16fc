package state

import (
	"sync"
	"time"
)

// historyRingBufferSize bounds the number of settled trades kept in memory.
const historyRingBufferSize = 200

// PollStatus describes the outcome of the most recent overview fetch. When a
// poll fails the previous snapshot is retained and LastError carries the
// user-visible message until the next success clears it.
type PollStatus struct {
	LastSuccess time.Time `json:"lastSuccess"`
	LastError   string    `json:"lastError,omitempty"`
}

// Store is the in-memory cache for account state: balances, open positions,
// settled-trade history and the optional server-computed margin figures.
// It is the single owner of that state; all getters hand out copies.
type Store struct {
	mu sync.RWMutex

	balance       Balance
	openPositions []Position
	history       []SettledTrade
	margin        ServerMargin
	status        PollStatus
	populated     bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// ApplyOverview replaces balances, open positions, history and server margin
// figures wholesale from a fully received overview response. Partial updates
// are never merged in; last writer wins.
func (s *Store) ApplyOverview(ov Overview, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balance = ov.Balance

	s.openPositions = make([]Position, len(ov.OpenPositions))
	copy(s.openPositions, ov.OpenPositions)

	history := make([]SettledTrade, len(ov.History))
	copy(history, ov.History)
	if len(history) > historyRingBufferSize {
		// History arrives oldest-first; keep the newest entries.
		history = history[len(history)-historyRingBufferSize:]
	}
	s.history = history

	s.margin = ov.Margin
	s.status = PollStatus{LastSuccess: at}
	s.populated = true
}

// SetPollError records a failed overview fetch. State from the prior
// successful poll is retained untouched.
func (s *Store) SetPollError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastError = msg
}

// Balance returns the last server-reported balance.
func (s *Store) Balance() Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// OpenPositions returns a copy of the open position list.
func (s *Store) OpenPositions() []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Position, len(s.openPositions))
	copy(out, s.openPositions)
	return out
}

// OpenBinaryPositions returns a copy of the open positions that are binary
// options.
func (s *Store) OpenBinaryPositions() []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Position, 0, len(s.openPositions))
	for _, p := range s.openPositions {
		if p.Side.IsBinary() {
			out = append(out, p)
		}
	}
	return out
}

// History returns a copy of the recent settled trades.
func (s *Store) History() []SettledTrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SettledTrade, len(s.history))
	copy(out, s.history)
	return out
}

// ServerMargin returns the server-computed margin figures from the last
// overview, if any were supplied.
func (s *Store) ServerMargin() ServerMargin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.margin
}

// Status returns the current poll status.
func (s *Store) Status() PollStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Populated reports whether at least one overview has been applied.
func (s *Store) Populated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.populated
}
