// Package hud keeps the heads-up display state: the visible panel, the
// notification queue and the current tutorial or crisis banner. Rendering
// it is the TUI's job.
package hud

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/room"
)

// Panel is the overlay shown on top of the room.
type Panel string

const (
	PanelNone     Panel = ""
	PanelMenu     Panel = "menu"
	PanelTutorial Panel = "tutorial"
	PanelScenario Panel = "scenario"
	PanelCrisis   Panel = "crisis"
	PanelWorkshop Panel = "workshop"
	PanelHelp     Panel = "help"
)

// Level is a notification severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// Notification is one toast.
type Notification struct {
	Text  string
	Level Level
	At    time.Time
}

const maxNotifications = 6

// Minimum terminal sizes for the full and the compact layout.
const (
	MinWidth         = 60
	MinHeight        = 16
	MinCompactWidth  = 30
	MinCompactHeight = 8
)

// TutorialBanner is the hint shown while the tutorial runs.
type TutorialBanner struct {
	Step  int
	Total int
	Title string
	Hint  string
}

// HUD is the heads-up display collaborator.
type HUD struct {
	mu            sync.Mutex
	panel         Panel
	previous      Panel
	notifications []Notification
	tutorial      *TutorialBanner
	crisis        *room.Crisis
	width         int
	height        int
	compact       bool
	access        room.AccessibilitySettings
	now           func() time.Time

	log zerolog.Logger
}

// New creates a HUD with no panel and an unknown size.
func New(log zerolog.Logger) *HUD {
	return &HUD{
		access: room.DefaultAccessibility(),
		now:    time.Now,
		log:    log.With().Str("component", "hud").Logger(),
	}
}

func (h *HUD) Name() string { return "hud" }

// Notify queues a toast, dropping the oldest when the queue is full.
func (h *HUD) Notify(text string, level Level) {
	if text == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, Notification{Text: text, Level: level, At: h.now()})
	if len(h.notifications) > maxNotifications {
		h.notifications = h.notifications[len(h.notifications)-maxNotifications:]
	}
}

// Notifications returns queued toasts, oldest first.
func (h *HUD) Notifications() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.notifications)
}

// Dismiss drops the oldest toast.
func (h *HUD) Dismiss() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notifications) > 0 {
		h.notifications = h.notifications[1:]
	}
}

// Panel returns the visible panel.
func (h *HUD) Panel() Panel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.panel
}

// ShowMenu shows the main menu panel.
func (h *HUD) ShowMenu() { h.ShowPanel(PanelMenu) }

// ShowPanel replaces the visible panel.
func (h *HUD) ShowPanel(p Panel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panel = p
}

// ToggleHelp shows help, or restores the panel help replaced.
func (h *HUD) ToggleHelp() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panel == PanelHelp {
		h.panel = h.previous
		return
	}
	h.previous = h.panel
	h.panel = PanelHelp
}

// ShowTutorialStep updates the tutorial banner.
func (h *HUD) ShowTutorialStep(_ context.Context, ev events.TutorialStepEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tutorial = &TutorialBanner{Step: ev.Step, Total: ev.Total, Title: ev.Title, Hint: ev.Hint}
	return nil
}

// Tutorial returns the tutorial banner, or nil.
func (h *HUD) Tutorial() *TutorialBanner {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tutorial == nil {
		return nil
	}
	b := *h.tutorial
	return &b
}

// ShowCrisis raises the crisis banner.
func (h *HUD) ShowCrisis(_ context.Context, ev events.CrisisDetectedEvent) error {
	h.mu.Lock()
	c := ev.Crisis
	h.crisis = &c
	h.mu.Unlock()
	h.Notify("Crisis: "+c.Cause, LevelWarning)
	return nil
}

// ClearCrisis drops the crisis banner.
func (h *HUD) ClearCrisis(_ context.Context, ev events.CrisisResolvedEvent) error {
	h.mu.Lock()
	h.crisis = nil
	h.mu.Unlock()
	h.Notify("Crisis resolved", LevelSuccess)
	return nil
}

// Crisis returns the active crisis banner, or nil.
func (h *HUD) Crisis() *room.Crisis {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.crisis == nil {
		return nil
	}
	c := *h.crisis
	return &c
}

func (h *HUD) InitForMode(_ context.Context, m mode.Mode) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panel = panelFor(m)
	if m != mode.Tutorial {
		h.tutorial = nil
	}
	return nil
}

func (h *HUD) CleanupForMode(_ context.Context, m mode.Mode) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panel = PanelNone
	if m == mode.Tutorial {
		h.tutorial = nil
	}
	return nil
}

func panelFor(m mode.Mode) Panel {
	switch m {
	case mode.MainMenu:
		return PanelMenu
	case mode.Tutorial:
		return PanelTutorial
	case mode.Scenario:
		return PanelScenario
	case mode.CrisisManagement:
		return PanelCrisis
	case mode.DeviceCreation:
		return PanelWorkshop
	default:
		return PanelNone
	}
}

// Resize records the terminal size.
func (h *HUD) Resize(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
}

// Size returns the last recorded terminal size.
func (h *HUD) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// Compact reports whether the HUD has fallen back to the compact layout.
func (h *HUD) Compact() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compact
}

// IsHealthy is false when the terminal is too small for the current layout.
// An unknown size counts as healthy.
func (h *HUD) IsHealthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.width == 0 && h.height == 0 {
		return true
	}
	if h.compact {
		return h.width >= MinCompactWidth && h.height >= MinCompactHeight
	}
	return h.width >= MinWidth && h.height >= MinHeight
}

// EnableSafeMode switches to the compact layout.
func (h *HUD) EnableSafeMode() error {
	h.mu.Lock()
	h.compact = true
	h.mu.Unlock()
	h.log.Info().Msg("hud switched to compact layout")
	h.Notify("Safe mode enabled: some features are disabled", LevelWarning)
	return nil
}

func (h *HUD) ApplyAccessibilitySettings(s room.AccessibilitySettings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.access = s
}

// Accessibility returns the settings last applied.
func (h *HUD) Accessibility() room.AccessibilitySettings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.access
}

// Animated reports whether transitions may animate.
func (h *HUD) Animated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.access.ReducedMotion && !h.compact
}
