// Package roomview is the screen for every mode that shows the room:
// tutorial, scenario, free play, crisis management and room design.
package roomview

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/room"
	"github.com/abhisek/smartroom/internal/screen"
	"github.com/abhisek/smartroom/internal/screens/builder"
	"github.com/abhisek/smartroom/internal/simulation"
	"github.com/abhisek/smartroom/internal/ui/layout"
	"github.com/abhisek/smartroom/internal/workshop"
)

// RoomScreen draws the room and takes the player's room actions.
type RoomScreen struct {
	ctx       context.Context
	engine    *orchestrator.Engine
	mode      mode.Mode
	threshold float64

	cursor room.Position
	form   *builder.Form
	status string
}

var (
	_ screen.Screen          = (*RoomScreen)(nil)
	_ screen.InputCapturer   = (*RoomScreen)(nil)
	_ screen.KeyHintProvider = (*RoomScreen)(nil)
)

// New creates the room screen for m. threshold is the tension at which the
// room falls into crisis; the tension meter turns red there.
func New(ctx context.Context, e *orchestrator.Engine, m mode.Mode, threshold float64) *RoomScreen {
	return &RoomScreen{ctx: ctx, engine: e, mode: m, threshold: threshold}
}

func (s *RoomScreen) Init() tea.Cmd {
	return nil
}

func (s *RoomScreen) Title() string {
	return s.mode.DisplayName()
}

// CapturingInput is true while the build form is open.
func (s *RoomScreen) CapturingInput() bool {
	return s.form != nil
}

func (s *RoomScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case builder.BuiltMsg:
		s.form = nil
		s.status = msg.Device.Name + " is ready. Move the cursor and press Enter to place it."
		return s, nil
	case builder.CancelledMsg:
		s.form = nil
		s.status = ""
		return s, nil
	}

	if s.form != nil {
		f, cmd := s.form.Update(msg)
		s.form = &f
		return s, cmd
	}

	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}

	c := s.engine.Collaborators()
	switch kmsg.String() {
	case "up", "k":
		s.move(0, -1)
	case "down", "j":
		s.move(0, 1)
	case "left", "h":
		s.move(-1, 0)
	case "right", "l":
		s.move(1, 0)
	case "enter", "p":
		s.place()
	case "b":
		if s.mode == mode.CrisisManagement {
			s.status = "No building during a crisis."
			return s, nil
		}
		f := builder.NewForm(s.ctx, s.engine)
		s.form = &f
		s.status = ""
		return s, f.Init()
	case "n":
		if s.mode == mode.Tutorial {
			_ = s.engine.AdvanceTutorial(s.ctx)
		}
	case "r":
		if s.mode == mode.CrisisManagement {
			if _, err := s.engine.ResolveCrisis(s.ctx); err != nil {
				s.status = "Nothing to resolve."
			}
		}
	case "x":
		if c.HUD != nil {
			c.HUD.Dismiss()
		}
	case "m":
		if c.Audio != nil {
			if c.Audio.ToggleMute() {
				s.status = "Sound off."
			} else {
				s.status = "Sound on."
			}
		}
	case "C":
		_ = s.engine.ToggleAccessibility(s.ctx, "captions")
	case "M":
		_ = s.engine.ToggleAccessibility(s.ctx, "motion")
	case "H":
		_ = s.engine.ToggleAccessibility(s.ctx, "contrast")
	}
	return s, nil
}

func (s *RoomScreen) move(dx, dy int) {
	next := room.Position{X: s.cursor.X + dx, Y: s.cursor.Y + dy}
	if next.InBounds() {
		s.cursor = next
	}
}

// place puts the oldest unplaced device under the cursor.
func (s *RoomScreen) place() {
	sim := s.engine.Collaborators().Simulation
	if sim == nil {
		return
	}
	var pending *room.Device
	for _, d := range sim.Devices() {
		if !d.Placed {
			pending = &d
			break
		}
	}
	if pending == nil {
		s.status = "Nothing to place. Press b to build a device."
		return
	}

	_, err := s.engine.PlaceDevice(s.ctx, pending.ID, s.cursor)
	switch {
	case err == nil:
		s.status = pending.Name + " placed."
	case errors.Is(err, workshop.ErrOccupied):
		s.status = "That spot is taken."
	case errors.Is(err, simulation.ErrRoomFull):
		s.status = "The room is full."
	default:
		s.status = "Could not place " + pending.Name + "."
	}
}

func (s *RoomScreen) KeyHints() []layout.KeyHint {
	if s.form != nil {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Build"},
			{Key: "Esc", Description: "Close"},
		}
	}
	hints := []layout.KeyHint{{Key: "←↑↓→", Description: "Move"}, {Key: "Enter", Description: "Place"}}
	switch s.mode {
	case mode.Tutorial:
		hints = append(hints, layout.KeyHint{Key: "n", Description: "Next"}, layout.KeyHint{Key: "b", Description: "Build"})
	case mode.CrisisManagement:
		hints = []layout.KeyHint{{Key: "r", Description: "Resolve"}}
	default:
		hints = append(hints, layout.KeyHint{Key: "b", Description: "Build"})
	}
	return append(hints,
		layout.KeyHint{Key: "?", Description: "Help"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}
