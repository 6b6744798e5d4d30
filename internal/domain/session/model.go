// Package session owns the registry of live conversation sessions: creation,
// lookup, per-session mutation locking, bounded conversation memory, and
// least-recently-used eviction. It is the only mutable shared state in the
// sanitization subsystem.
package session

import (
	"fmt"
	"time"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/identity"
	"github.com/lithammer/shortuuid/v4"
)

// Scope distinguishes single-shot from conversational sessions in the id
// scheme, so the two caller populations can never collide on an identifier.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeChat   Scope = "chat"
)

// Turn is one conversation entry. Text is always the sanitized form; raw
// untokenized input must never reach a Turn, or context replay would leak the
// values the tokens exist to hide.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the per-session unit of mutation. The registry hands it out; the
// caller must hold the session lock (Registry.Acquire) across any mutation.
type State struct {
	ID           string
	Scope        Scope
	Persons      map[int]*identity.Person
	TurnCounter  int
	CreatedAt    time.Time
	LastAccessed time.Time

	history       []Turn // retained window, oldest first
	totalMessages int    // all messages ever appended, including aged-out ones
	window        int
	nextPersonID  int

	lock chan struct{} // capacity 1, see Registry.Acquire
}

func newState(id string, scope Scope, window int, now time.Time) *State {
	return &State{
		ID:           id,
		Scope:        scope,
		Persons:      make(map[int]*identity.Person),
		CreatedAt:    now,
		LastAccessed: now,
		window:       window,
		nextPersonID: 1,
		lock:         make(chan struct{}, 1),
	}
}

// NextPersonID allocates the next dense, 1-based person ordinal. Ordinals are
// never reused or renumbered within a session.
func (s *State) NextPersonID() int {
	id := s.nextPersonID
	s.nextPersonID++
	return id
}

// NextTurn advances the turn counter, once per processed turn.
func (s *State) NextTurn() int {
	s.TurnCounter++
	return s.TurnCounter
}

// NewID generates a session identifier of the form <scope>_<timestamp>_<random>.
func NewID(scope Scope) string {
	return fmt.Sprintf("%s_%d_%s", scope, time.Now().Unix(), shortuuid.New())
}
