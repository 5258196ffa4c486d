// Package room holds the domain types shared by the game's collaborators:
// devices, their personalities, the room environment and the things that
// happen between devices.
package room

import "time"

// Grid bounds of the room floor.
const (
	Width  = 8
	Height = 6
)

// Kind identifies what a device physically is.
type Kind string

const (
	KindThermostat Kind = "thermostat"
	KindSpeaker    Kind = "speaker"
	KindLamp       Kind = "lamp"
	KindFridge     Kind = "fridge"
	KindVacuum     Kind = "vacuum"
	KindCamera     Kind = "camera"
)

// AllKinds returns every device kind in workshop order.
func AllKinds() []Kind {
	return []Kind{KindThermostat, KindSpeaker, KindLamp, KindFridge, KindVacuum, KindCamera}
}

// Icon returns the display icon for the device kind.
func (k Kind) Icon() string {
	switch k {
	case KindThermostat:
		return "🌡"
	case KindSpeaker:
		return "🔊"
	case KindLamp:
		return "💡"
	case KindFridge:
		return "🧊"
	case KindVacuum:
		return "🧹"
	case KindCamera:
		return "📷"
	default:
		return "◇"
	}
}

// Personality traits are in [0, 1].
type Personality struct {
	Helpfulness  float64 `json:"helpfulness"`
	Stubbornness float64 `json:"stubbornness"`
	Curiosity    float64 `json:"curiosity"`
	Temper       float64 `json:"temper"`
}

// Position is a cell on the room grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether p lies on the room floor.
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < Width && p.Y >= 0 && p.Y < Height
}

// Distance is the Chebyshev distance between two cells.
func (p Position) Distance(o Position) int {
	dx, dy := p.X-o.X, p.Y-o.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

// Device is a personality-driven smart device.
type Device struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Kind        Kind        `json:"kind"`
	Personality Personality `json:"personality"`
	Position    Position    `json:"position"`
	Placed      bool        `json:"placed"`
	// Mood in [-1, 1]; negative is grumpy.
	Mood float64 `json:"mood"`
}

// Environment is the shared room state devices act on.
type Environment struct {
	Temperature float64 `json:"temperature"`
	Noise       float64 `json:"noise"`
	Light       float64 `json:"light"`
	// Tension in [0, 1] accumulates from conflicts; crises start from it.
	Tension float64 `json:"tension"`
}

// DefaultEnvironment is the room at session start.
func DefaultEnvironment() Environment {
	return Environment{Temperature: 21, Noise: 0.2, Light: 0.6}
}

// InteractionKind says whether two devices helped or fought each other.
type InteractionKind string

const (
	Cooperation InteractionKind = "cooperation"
	Conflict    InteractionKind = "conflict"
)

// Interaction is one exchange between two devices during a tick.
type Interaction struct {
	DeviceA   string          `json:"device_a"`
	DeviceB   string          `json:"device_b"`
	Kind      InteractionKind `json:"kind"`
	Intensity float64         `json:"intensity"`
}

// Crisis is a room-wide problem the player has to resolve.
type Crisis struct {
	ID         string    `json:"id"`
	Cause      string    `json:"cause"`
	Severity   float64   `json:"severity"`
	DeviceIDs  []string  `json:"device_ids"`
	DetectedAt time.Time `json:"detected_at"`
}

// StoryMoment is a bit of narrative generated by the simulation.
type StoryMoment struct {
	Text     string   `json:"text"`
	Devices  []string `json:"devices"`
	Positive bool     `json:"positive"`
}

// AccessibilitySettings are the player's accessibility preferences.
type AccessibilitySettings struct {
	HighContrast  bool    `json:"high_contrast"`
	ReducedMotion bool    `json:"reduced_motion"`
	Captions      bool    `json:"captions"`
	TextScale     float64 `json:"text_scale"`
}

// DefaultAccessibility returns settings with no adjustments.
func DefaultAccessibility() AccessibilitySettings {
	return AccessibilitySettings{TextScale: 1}
}
