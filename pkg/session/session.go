// Package session tracks per-session conversation history as a sliding
// window of completed exchanges.
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Exchange is one completed query/answer turn.
type Exchange struct {
	Query  string
	Answer string
}

// Store keeps rolling conversation history per session id. Once a session
// holds MaxHistory exchanges, recording a new one evicts the oldest.
// Sessions live for the process lifetime; there is no expiry.
//
// Store is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string][]Exchange
	maxHistory int
}

func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &Store{
		sessions:   make(map[string][]Exchange),
		maxHistory: maxHistory,
	}
}

// Create registers a new session and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = nil
	s.mu.Unlock()
	return id
}

// AddExchange records one completed turn, evicting the oldest once the
// window is full. Unknown ids start a fresh history, so callers may bring
// their own identifiers.
func (s *Store) AddExchange(id, query, answer string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[id], Exchange{Query: query, Answer: answer})
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	s.sessions[id] = history
}

// History renders a session's exchanges as a plain-text block for prompt
// embedding, oldest first. Unknown or empty sessions render as "".
func (s *Store) History(id string) string {
	s.mu.RLock()
	history := s.sessions[id]
	s.mu.RUnlock()

	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for i, exchange := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("User: ")
		b.WriteString(exchange.Query)
		b.WriteString("\nAssistant: ")
		b.WriteString(exchange.Answer)
	}
	return b.String()
}

// Exchanges returns a copy of a session's recorded turns, oldest first.
func (s *Store) Exchanges(id string) []Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[id]
	if len(history) == 0 {
		return nil
	}
	out := make([]Exchange, len(history))
	copy(out, history)
	return out
}

// Clear drops a session's history. The id stays usable afterwards.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
