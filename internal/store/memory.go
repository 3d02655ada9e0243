// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Holds live game sessions for the HTTP layer; finished daily results are
// persisted separately in sqlite (internal/daily).
//
// Characteristics:
//   - Sessions keyed by ID in a map guarded by an RWMutex.
//   - Each session has its own mutex; Update runs fn under it, so actions on
//     one session are applied one at a time while other sessions proceed.
//   - Daily sessions are indexed by owner and date so a returning player
//     resumes the same board.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/lettergrid/apps/go-server/internal/game"
	"github.com/robalobadob/lettergrid/apps/go-server/internal/letters"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("store: session not found")

// Session is one player's game: the reducer state plus the letter bag that
// feeds its trades.
type Session struct {
	ID     string
	UserID string // empty for guests
	AnonID string // guest cookie value when UserID is empty
	Mode   game.Phase
	Date   string // UTC date key for daily sessions
	State  game.State
	Bag    *letters.Bag
}

// Owner returns the identity the session belongs to.
func (s *Session) Owner() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.AnonID
}

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save inserts or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get returns a copy of the session.
	Get(ctx context.Context, id string) (Session, error)

	// Update runs fn with exclusive access to the session. Changes fn makes
	// to *Session are kept unless it returns an error.
	Update(ctx context.Context, id string, fn func(*Session) error) error

	// Daily finds the owner's session for a date key.
	Daily(ctx context.Context, owner, date string) (Session, error)
}

type entry struct {
	mu   sync.Mutex
	sess Session
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex      // guards both maps
	sessions map[string]*entry // keyed by Session.ID
	daily    map[string]string // owner|date -> Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		sessions: make(map[string]*entry),
		daily:    make(map[string]string),
	}
}

func dailyKey(owner, date string) string { return owner + "|" + date }

// Save adds or replaces the session.
func (m *memory) Save(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[s.ID]; ok {
		e.mu.Lock()
		e.sess = *s
		e.mu.Unlock()
	} else {
		m.sessions[s.ID] = &entry{sess: *s}
	}
	if s.Mode == game.PhaseDaily && s.Date != "" {
		m.daily[dailyKey(s.Owner(), s.Date)] = s.ID
	}
	return nil
}

func (m *memory) lookup(id string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	return e, ok
}

// Get looks up a session by ID.
func (m *memory) Get(ctx context.Context, id string) (Session, error) {
	e, ok := m.lookup(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess, nil
}

// Update serialises fn against other updates of the same session.
func (m *memory) Update(ctx context.Context, id string, fn func(*Session) error) error {
	e, ok := m.lookup(id)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	next := e.sess
	if err := fn(&next); err != nil {
		return err
	}
	e.sess = next
	return nil
}

// Daily looks up the owner's session for date.
func (m *memory) Daily(ctx context.Context, owner, date string) (Session, error) {
	m.mu.RLock()
	id, ok := m.daily[dailyKey(owner, date)]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	return m.Get(ctx, id)
}
