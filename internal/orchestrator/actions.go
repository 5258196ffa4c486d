package orchestrator

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/abhisek/smartroom/internal/recovery"
	"github.com/abhisek/smartroom/internal/room"
	"github.com/abhisek/smartroom/internal/simulation"
	"github.com/abhisek/smartroom/internal/workshop"
)

// ErrUnavailable is returned by an action whose collaborator is not wired.
var ErrUnavailable = eris.New("collaborator not available")

// CreateDevice builds a device in the workshop. The device reaches the
// room through the deviceCreated fan-out.
func (e *Engine) CreateDevice(ctx context.Context, spec workshop.DeviceSpec) (room.Device, error) {
	if e.c.Workshop == nil {
		return room.Device{}, eris.Wrap(ErrUnavailable, "workshop")
	}
	if e.c.Simulation != nil && e.c.Simulation.Full() {
		return room.Device{}, simulation.ErrRoomFull
	}
	var d room.Device
	err := e.act(e.c.Workshop.Name(), func() error {
		var err error
		d, err = e.c.Workshop.CreateDevice(ctx, spec)
		return err
	})
	return d, err
}

// PlaceDevice moves a built device to pos.
func (e *Engine) PlaceDevice(ctx context.Context, id string, pos room.Position) (room.Device, error) {
	if e.c.Workshop == nil {
		return room.Device{}, eris.Wrap(ErrUnavailable, "workshop")
	}
	var d room.Device
	err := e.act(e.c.Workshop.Name(), func() error {
		var err error
		d, err = e.c.Workshop.PlaceDevice(ctx, id, pos)
		return err
	})
	return d, err
}

// PlaceNext places a built device on the first free cell.
func (e *Engine) PlaceNext(ctx context.Context, id string) (room.Device, error) {
	if e.c.Workshop == nil {
		return room.Device{}, eris.Wrap(ErrUnavailable, "workshop")
	}
	pos, ok := e.c.Workshop.FreeCell()
	if !ok {
		return room.Device{}, simulation.ErrRoomFull
	}
	return e.PlaceDevice(ctx, id, pos)
}

// ResolveCrisis ends the active crisis. Leaving CRISIS_MANAGEMENT happens
// in the crisisResolved fan-out.
func (e *Engine) ResolveCrisis(ctx context.Context) (room.Crisis, error) {
	if e.c.Simulation == nil {
		return room.Crisis{}, eris.Wrap(ErrUnavailable, "simulation")
	}
	var c room.Crisis
	err := e.act(e.c.Simulation.Name(), func() error {
		var err error
		c, err = e.c.Simulation.ResolveCrisis(ctx)
		return err
	})
	return c, err
}

// AdvanceTutorial completes the current manual tutorial step.
func (e *Engine) AdvanceTutorial(ctx context.Context) error {
	if e.c.Tutorial == nil {
		return eris.Wrap(ErrUnavailable, "tutorial")
	}
	return e.act(e.c.Tutorial.Name(), func() error {
		e.c.Tutorial.Advance(ctx)
		return nil
	})
}

// UpdateAccessibility replaces the accessibility settings.
func (e *Engine) UpdateAccessibility(ctx context.Context, s room.AccessibilitySettings) error {
	if e.c.Accessibility == nil {
		return eris.Wrap(ErrUnavailable, "accessibility")
	}
	return e.act(e.c.Accessibility.Name(), func() error {
		return e.c.Accessibility.Update(ctx, s)
	})
}

// ToggleAccessibility flips one accessibility preference by name.
func (e *Engine) ToggleAccessibility(ctx context.Context, what string) error {
	if e.c.Accessibility == nil {
		return eris.Wrap(ErrUnavailable, "accessibility")
	}
	return e.act(e.c.Accessibility.Name(), func() error {
		return e.c.Accessibility.Toggle(ctx, what)
	})
}

// SelectScenario picks the scenario SCENARIO mode will run.
func (e *Engine) SelectScenario(id string) error {
	if e.c.Scenario == nil {
		return eris.Wrap(ErrUnavailable, "scenario")
	}
	return e.act(e.c.Scenario.Name(), func() error {
		return e.c.Scenario.Select(id)
	})
}

// act runs a player action. Errors are returned as they are; a panic is
// routed as GLOBAL_ERROR and returned as an error.
func (e *Engine) act(src string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = eris.New(fmt.Sprintf("panic: %v", p))
			e.registry.Handle(recovery.NewError(recovery.GlobalError, src, err))
		}
	}()
	return fn()
}
