package orchestrator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
)

// Session is the engine-owned mutable state of one play session. Only the
// Engine writes to it; everything else reads through accessors.
type Session struct {
	// transitioning guards transitions and loads. At most one holder.
	transitioning atomic.Bool

	mu          sync.RWMutex
	mode        mode.Mode
	state       gamestate.GameState
	initialized bool
	shutdown    bool
	lastSave    time.Time
	// crisisFrom is the mode a crisis interrupted.
	crisisFrom mode.Mode
}

func newSession(now time.Time) *Session {
	st := gamestate.New(now)
	return &Session{mode: st.Mode, state: st}
}

// Mode returns the current mode.
func (s *Session) Mode() mode.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Transitioning reports whether a transition or load is in flight.
func (s *Session) Transitioning() bool {
	return s.transitioning.Load()
}

// State returns the last snapshot the engine recorded.
func (s *Session) State() gamestate.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdown
}

func (s *Session) setMode(m mode.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// commit records a completed switch to m in the snapshot.
func (s *Session) commit(m mode.Mode, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.state.Mode = m
	s.state.Timestamp = at
}

func (s *Session) replaceState(gs gamestate.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = gs
}
