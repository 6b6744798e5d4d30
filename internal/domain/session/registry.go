package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config bounds the registry.
type Config struct {
	// Capacity is the maximum number of live sessions before LRU eviction.
	Capacity int
	// HistoryWindow is the number of conversation turns retained per session.
	HistoryWindow int
	// LockWait bounds how long Acquire blocks on a contended session.
	LockWait time.Duration
}

// DefaultConfig returns the contract defaults: 100 live sessions, a 10-turn
// window, and a 5 second lock wait.
func DefaultConfig() Config {
	return Config{
		Capacity:      100,
		HistoryWindow: 10,
		LockWait:      5 * time.Second,
	}
}

// Registry maps session ids to session state. It is safe for concurrent use:
// the registry mutex guards only the map, while each State carries its own
// single-slot lock so turns for the same session serialize and turns for
// different sessions proceed independently.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*State

	cfg    Config
	logger *slog.Logger
	clock  func() time.Time
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the time source, for tests that need deterministic
// last-accessed ordering.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// NewRegistry creates a session registry.
func NewRegistry(cfg Config, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultConfig().HistoryWindow
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = DefaultConfig().LockWait
	}
	r := &Registry{
		sessions: make(map[string]*State),
		cfg:      cfg,
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the session for id, touching its last-accessed time.
// An empty or unknown id allocates a fresh session under a freshly generated
// identifier; created reports that case so callers can detect unexpected
// session loss after eviction.
func (r *Registry) GetOrCreate(id string, scope Scope) (st *State, created bool) {
	now := r.clock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if st, ok := r.sessions[id]; ok {
			st.LastAccessed = now
			return st, false
		}
	}

	st = newState(NewID(scope), scope, r.cfg.HistoryWindow, now)
	r.sessions[st.ID] = st
	r.logger.Debug("session created", "session_id", st.ID, "scope", scope)
	return st, true
}

// Get returns the session for id if present, touching its last-accessed time.
func (r *Registry) Get(id string) (*State, bool) {
	now := r.clock()

	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.sessions[id]
	if ok {
		st.LastAccessed = now
	}
	return st, ok
}

// Touch refreshes the last-accessed time for id.
func (r *Registry) Touch(id string) {
	now := r.clock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.sessions[id]; ok {
		st.LastAccessed = now
	}
}

// Acquire takes the session's exclusive mutation slot. The wait is bounded by
// the configured LockWait and by ctx; a stuck caller cannot wedge a session
// indefinitely. The returned release function must be called exactly once.
func (r *Registry) Acquire(ctx context.Context, st *State) (release func(), err error) {
	timer := time.NewTimer(r.cfg.LockWait)
	defer timer.Stop()

	select {
	case st.lock <- struct{}{}:
		return func() { <-st.lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrSessionBusy
	}
}

// EvictIfOverCapacity removes least-recently-accessed sessions until the
// registry is back at capacity, never removing exclude (the session currently
// being written). Victims are unmapped under the registry lock, then scrubbed
// under their own session lock, so a victim mid-write is erased only after
// its writer finishes. Returns the evicted ids.
func (r *Registry) EvictIfOverCapacity(exclude string) []string {
	r.mu.Lock()

	var evicted []string
	var victims []*State
	for len(r.sessions) > r.cfg.Capacity {
		victim := ""
		var oldest time.Time
		for id, st := range r.sessions {
			if id == exclude {
				continue
			}
			if victim == "" || st.LastAccessed.Before(oldest) {
				victim = id
				oldest = st.LastAccessed
			}
		}
		if victim == "" {
			break
		}
		victims = append(victims, r.sessions[victim])
		delete(r.sessions, victim)
		evicted = append(evicted, victim)
	}
	r.mu.Unlock()

	for _, st := range victims {
		r.scrub(st)
		r.logger.Info("session evicted", "session_id", st.ID)
	}
	return evicted
}

// Delete erases a session and everything it holds. Unknown ids are a no-op:
// erasure is idempotent and always succeeds. The id unmaps immediately; the
// scrub waits for any in-flight writer, so on return no projection can
// reconstruct a value.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	st, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	r.scrub(st)
	r.logger.Info("session erased", "session_id", id)
	return true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// scrub empties an already-unmapped state so a stale pointer cannot
// reconstruct any value. It takes the state's session lock: a writer holding
// the lock finishes its turn first, keeping mutation of Persons and history
// single-threaded. Callers must not hold the registry mutex.
func (r *Registry) scrub(st *State) {
	st.lock <- struct{}{}
	defer func() { <-st.lock }()

	for id := range st.Persons {
		delete(st.Persons, id)
	}
	st.history = nil
}
