// Package accessibility owns the player's accessibility preferences.
package accessibility

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/room"
)

// Text scale bounds.
const (
	MinTextScale = 0.5
	MaxTextScale = 3.0
)

// ErrInvalidSettings is returned for settings outside the supported range.
var ErrInvalidSettings = eris.New("invalid accessibility settings")

// Manager holds the current settings and announces changes.
type Manager struct {
	mu       sync.Mutex
	settings room.AccessibilitySettings

	pub events.Publisher
	log zerolog.Logger
}

// NewManager creates a manager with default settings.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		settings: room.DefaultAccessibility(),
		pub:      events.Discard,
		log:      log.With().Str("component", "accessibility").Logger(),
	}
}

func (m *Manager) Name() string { return "accessibility" }

// Connect sets the publisher events are sent through.
func (m *Manager) Connect(p events.Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pub = p
}

// Settings returns the current settings.
func (m *Manager) Settings() room.AccessibilitySettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Update replaces the settings and publishes accessibilityChanged.
func (m *Manager) Update(ctx context.Context, s room.AccessibilitySettings) error {
	if err := validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	m.settings = s
	pub := m.pub
	m.mu.Unlock()

	m.log.Debug().
		Bool("high_contrast", s.HighContrast).
		Bool("reduced_motion", s.ReducedMotion).
		Bool("captions", s.Captions).
		Float64("text_scale", s.TextScale).
		Msg("accessibility settings changed")
	pub.Publish(ctx, events.AccessibilityChangedEvent{Settings: s})
	return nil
}

// Toggle flips one boolean preference by name ("contrast", "motion",
// "captions") and publishes the result.
func (m *Manager) Toggle(ctx context.Context, what string) error {
	s := m.Settings()
	switch what {
	case "contrast":
		s.HighContrast = !s.HighContrast
	case "motion":
		s.ReducedMotion = !s.ReducedMotion
	case "captions":
		s.Captions = !s.Captions
	default:
		return eris.Wrapf(ErrInvalidSettings, "unknown preference %q", what)
	}
	return m.Update(ctx, s)
}

func (m *Manager) CaptureState(gs *gamestate.GameState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs.Settings.Accessibility = m.settings
}

// RestoreState adopts saved settings without publishing. The caller
// re-applies them to the other collaborators.
func (m *Manager) RestoreState(gs gamestate.GameState) error {
	s := gs.Settings.Accessibility
	if s.TextScale == 0 {
		s.TextScale = 1
	}
	if err := validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

func validate(s room.AccessibilitySettings) error {
	if s.TextScale < MinTextScale || s.TextScale > MaxTextScale {
		return eris.Wrapf(ErrInvalidSettings, "text scale %.2f outside [%.1f, %.1f]", s.TextScale, MinTextScale, MaxTextScale)
	}
	return nil
}
