// Package collab defines the capability interfaces a collaborator may
// implement and resolves them once, when the collaborator is registered.
//
// A collaborator only implements the capabilities it needs. Callers check
// the resolved Handle fields instead of probing the collaborator at call
// time.
package collab

import (
	"context"

	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/room"
)

// Collaborator is any subsystem wired into the engine.
type Collaborator interface {
	Name() string
}

// ModeHooks is implemented by collaborators that set up or tear down work
// when a mode is entered or left.
type ModeHooks interface {
	InitForMode(ctx context.Context, m mode.Mode) error
	CleanupForMode(ctx context.Context, m mode.Mode) error
}

// HealthProbe is a boolean self-check.
type HealthProbe interface {
	IsHealthy() bool
}

// SafeModeRecoverer is the single recovery action a collaborator offers.
type SafeModeRecoverer interface {
	EnableSafeMode() error
}

// StateParticipant contributes to and restores from the session snapshot.
type StateParticipant interface {
	CaptureState(gs *gamestate.GameState)
	RestoreState(gs gamestate.GameState) error
}

// AccessibilityAware reacts to accessibility setting changes.
type AccessibilityAware interface {
	ApplyAccessibilitySettings(s room.AccessibilitySettings)
}

// Pausable stops and restarts time-driven work.
type Pausable interface {
	Pause()
	Resume()
}

// Resizable reacts to viewport size changes.
type Resizable interface {
	Resize(width, height int)
}

// Handle is a collaborator with its capabilities resolved. A nil field
// means the capability is absent.
type Handle struct {
	Name string
	Impl Collaborator

	Hooks         ModeHooks
	Probe         HealthProbe
	Recoverer     SafeModeRecoverer
	State         StateParticipant
	Accessibility AccessibilityAware
	Pauser        Pausable
	Resizer       Resizable
}

// Resolve inspects c once and records which capabilities it has.
func Resolve(c Collaborator) Handle {
	h := Handle{Name: c.Name(), Impl: c}
	h.Hooks, _ = c.(ModeHooks)
	h.Probe, _ = c.(HealthProbe)
	h.Recoverer, _ = c.(SafeModeRecoverer)
	h.State, _ = c.(StateParticipant)
	h.Accessibility, _ = c.(AccessibilityAware)
	h.Pauser, _ = c.(Pausable)
	h.Resizer, _ = c.(Resizable)
	return h
}

// Capabilities lists the names of the capabilities present on h.
func (h Handle) Capabilities() []string {
	var caps []string
	if h.Hooks != nil {
		caps = append(caps, "mode-hooks")
	}
	if h.Probe != nil {
		caps = append(caps, "health-probe")
	}
	if h.Recoverer != nil {
		caps = append(caps, "safe-mode")
	}
	if h.State != nil {
		caps = append(caps, "state")
	}
	if h.Accessibility != nil {
		caps = append(caps, "accessibility")
	}
	if h.Pauser != nil {
		caps = append(caps, "pause")
	}
	if h.Resizer != nil {
		caps = append(caps, "resize")
	}
	return caps
}

// Set is an ordered collection of resolved collaborators.
type Set struct {
	handles []Handle
	byName  map[string]int
}

// NewSet resolves every collaborator, keeping registration order. Later
// collaborators with a duplicate name replace earlier ones in place.
func NewSet(cs ...Collaborator) *Set {
	s := &Set{byName: make(map[string]int)}
	for _, c := range cs {
		if c == nil {
			continue
		}
		h := Resolve(c)
		if i, ok := s.byName[h.Name]; ok {
			s.handles[i] = h
			continue
		}
		s.byName[h.Name] = len(s.handles)
		s.handles = append(s.handles, h)
	}
	return s
}

// All returns every handle in registration order.
func (s *Set) All() []Handle {
	return append([]Handle(nil), s.handles...)
}

// Get returns the handle registered under name.
func (s *Set) Get(name string) (Handle, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Handle{}, false
	}
	return s.handles[i], true
}
