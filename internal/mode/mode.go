package mode

import (
	"fmt"
	"strings"
)

// Mode is one of the mutually exclusive high-level game states.
type Mode string

const (
	MainMenu         Mode = "MAIN_MENU"
	Tutorial         Mode = "TUTORIAL"
	Scenario         Mode = "SCENARIO"
	FreePlay         Mode = "FREE_PLAY"
	CrisisManagement Mode = "CRISIS_MANAGEMENT"
	DeviceCreation   Mode = "DEVICE_CREATION"
	RoomDesign       Mode = "ROOM_DESIGN"
)

// All returns every mode in menu order.
func All() []Mode {
	return []Mode{MainMenu, Tutorial, Scenario, FreePlay, CrisisManagement, DeviceCreation, RoomDesign}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, known := range All() {
		if m == known {
			return true
		}
	}
	return false
}

// Live reports whether the room simulation runs in m.
func (m Mode) Live() bool {
	switch m {
	case FreePlay, Scenario, Tutorial, CrisisManagement:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable label for the mode.
func (m Mode) DisplayName() string {
	switch m {
	case MainMenu:
		return "Main Menu"
	case Tutorial:
		return "Tutorial"
	case Scenario:
		return "Scenario"
	case FreePlay:
		return "Free Play"
	case CrisisManagement:
		return "Crisis!"
	case DeviceCreation:
		return "Device Workshop"
	case RoomDesign:
		return "Room Design"
	default:
		return string(m)
	}
}

// Parse accepts either the canonical tag ("FREE_PLAY") or a lowercase,
// dash-separated form ("free-play").
func Parse(s string) (Mode, error) {
	norm := Mode(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !norm.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return norm, nil
}

// Style is the cosmetic style of a transition. It never affects correctness.
type Style string

const (
	Smooth  Style = "smooth"
	Instant Style = "instant"
)
