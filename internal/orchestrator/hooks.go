package orchestrator

import "github.com/abhisek/smartroom/internal/mode"

// HookTable maps a mode to the collaborators whose InitForMode and
// CleanupForMode run when it is entered or left, in order. A mode with no
// entry has nothing to set up or tear down.
type HookTable map[mode.Mode][]string

// DefaultHookTable wires the standard collaborators.
func DefaultHookTable() HookTable {
	play := []string{"simulation", "hud", "audio"}
	return HookTable{
		mode.MainMenu:         {"hud"},
		mode.Tutorial:         {"simulation", "tutorial", "hud", "audio"},
		mode.Scenario:         {"simulation", "scenario", "hud", "audio"},
		mode.FreePlay:         play,
		mode.CrisisManagement: play,
		mode.DeviceCreation:   play,
		mode.RoomDesign:       play,
	}
}

// With returns a copy of t with name appended to the hook list of each mode
// in modes.
func (t HookTable) With(name string, modes ...mode.Mode) HookTable {
	out := make(HookTable, len(t))
	for m, names := range t {
		out[m] = append([]string(nil), names...)
	}
	for _, m := range modes {
		out[m] = append(out[m], name)
	}
	return out
}
