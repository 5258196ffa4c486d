package orchestrator

import (
	"context"

	"github.com/abhisek/smartroom/internal/achievements"
	"github.com/abhisek/smartroom/internal/audio"
	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/hud"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/recovery"
	"github.com/abhisek/smartroom/internal/room"
	"github.com/abhisek/smartroom/internal/scenario"
	"github.com/abhisek/smartroom/internal/tutorial"
)

// Subscriber names of the engine's own mode-switch subscribers.
const (
	subEnterCrisis   = "orchestrator.EnterCrisis"
	subLeaveCrisis   = "orchestrator.LeaveCrisis"
	subTutorialDone  = "orchestrator.TutorialComplete"
	subScenarioDone  = "orchestrator.ScenarioComplete"
	subApplySettings = ".ApplyAccessibilitySettings"
)

// StandardRoutes is the fan-out table of the event bridge. Subscribers run
// in the order listed. A mode-switch subscriber always comes first, so
// later subscribers see the new mode.
func StandardRoutes(e *Engine) events.Table {
	c := e.c
	sim, tut, sc, ach, au, h := c.Simulation != nil, c.Tutorial != nil, c.Scenario != nil,
		c.Achievements != nil, c.Audio != nil, c.HUD != nil

	play := func(cue audio.Cue) func() error {
		return func() error { return c.Audio.Play(cue) }
	}

	return events.Table{
		events.DeviceCreated: {
			events.On("simulation.AddDevice", sim, recovery.SimulationError,
				func(_ context.Context, ev events.DeviceCreatedEvent) error {
					return c.Simulation.AddDevice(ev.Device)
				}),
			events.On("tutorial.Observe", tut, recovery.GlobalError,
				func(ctx context.Context, _ events.DeviceCreatedEvent) error {
					c.Tutorial.Observe(ctx, tutorial.TriggerDeviceCreated)
					return nil
				}),
			events.On("scenario.Record", sc, recovery.GlobalError,
				func(ctx context.Context, _ events.DeviceCreatedEvent) error {
					c.Scenario.Record(ctx, scenario.CounterDevicesCreated, 1)
					return nil
				}),
			events.On("achievements.DeviceCreated", ach, recovery.GlobalError,
				func(ctx context.Context, _ events.DeviceCreatedEvent) error {
					c.Achievements.DeviceCreated(ctx)
					return nil
				}),
			events.On("audio.Play", au, recovery.AudioError,
				func(context.Context, events.DeviceCreatedEvent) error { return play(audio.CueDeviceCreated)() }),
			events.On("hud.Notify", h, recovery.RenderingError,
				func(_ context.Context, ev events.DeviceCreatedEvent) error {
					c.HUD.Notify(ev.Device.Name+" was built", hud.LevelInfo)
					return nil
				}),
		},

		events.DevicePlaced: {
			events.On("simulation.PlaceDevice", sim, recovery.SimulationError,
				func(_ context.Context, ev events.DevicePlacedEvent) error {
					return c.Simulation.PlaceDevice(ev.Device)
				}),
			events.On("tutorial.Observe", tut, recovery.GlobalError,
				func(ctx context.Context, _ events.DevicePlacedEvent) error {
					c.Tutorial.Observe(ctx, tutorial.TriggerDevicePlaced)
					return nil
				}),
			events.On("scenario.Record", sc, recovery.GlobalError,
				func(ctx context.Context, _ events.DevicePlacedEvent) error {
					c.Scenario.Record(ctx, scenario.CounterDevicesPlaced, 1)
					return nil
				}),
			events.On("achievements.DevicePlaced", ach, recovery.GlobalError,
				func(ctx context.Context, _ events.DevicePlacedEvent) error {
					c.Achievements.DevicePlaced(ctx)
					return nil
				}),
			events.On("audio.Play", au, recovery.AudioError,
				func(context.Context, events.DevicePlacedEvent) error { return play(audio.CueDevicePlaced)() }),
		},

		events.InteractionDetected: {
			events.On("tutorial.Observe", tut, recovery.GlobalError,
				func(ctx context.Context, _ events.InteractionDetectedEvent) error {
					c.Tutorial.Observe(ctx, tutorial.TriggerInteraction)
					return nil
				}),
			events.On("scenario.Record", sc, recovery.GlobalError,
				func(ctx context.Context, ev events.InteractionDetectedEvent) error {
					if ev.Interaction.Kind == room.Cooperation {
						c.Scenario.Record(ctx, scenario.CounterCooperations, 1)
					}
					return nil
				}),
		},

		events.CrisisDetected: {
			events.On(subEnterCrisis, true, recovery.GlobalError,
				func(ctx context.Context, _ events.CrisisDetectedEvent) error {
					e.enterCrisis(ctx)
					return nil
				}),
			events.On("hud.ShowCrisis", h, recovery.RenderingError,
				func(ctx context.Context, ev events.CrisisDetectedEvent) error {
					return c.HUD.ShowCrisis(ctx, ev)
				}),
			events.On("audio.Play", au, recovery.AudioError,
				func(context.Context, events.CrisisDetectedEvent) error { return play(audio.CueCrisisAlarm)() }),
		},

		events.CrisisResolved: {
			events.On(subLeaveCrisis, true, recovery.GlobalError,
				func(ctx context.Context, _ events.CrisisResolvedEvent) error {
					e.leaveCrisis(ctx)
					return nil
				}),
			events.On("scenario.Record", sc, recovery.GlobalError,
				func(ctx context.Context, _ events.CrisisResolvedEvent) error {
					c.Scenario.Record(ctx, scenario.CounterCrisesResolved, 1)
					return nil
				}),
			events.On("achievements.CrisisResolved", ach, recovery.GlobalError,
				func(ctx context.Context, _ events.CrisisResolvedEvent) error {
					c.Achievements.CrisisResolved(ctx)
					return nil
				}),
			events.On("hud.ClearCrisis", h, recovery.RenderingError,
				func(ctx context.Context, ev events.CrisisResolvedEvent) error {
					return c.HUD.ClearCrisis(ctx, ev)
				}),
			events.On("audio.Play", au, recovery.AudioError,
				func(context.Context, events.CrisisResolvedEvent) error { return play(audio.CueCrisisResolved)() }),
		},

		events.StoryMoment: {
			events.On("achievements.StoryMoment", ach, recovery.GlobalError,
				func(ctx context.Context, _ events.StoryMomentEvent) error {
					c.Achievements.StoryMoment(ctx)
					return nil
				}),
			events.On("hud.Notify", h, recovery.RenderingError,
				func(_ context.Context, ev events.StoryMomentEvent) error {
					level := hud.LevelInfo
					if !ev.Moment.Positive {
						level = hud.LevelWarning
					}
					c.HUD.Notify(ev.Moment.Text, level)
					return nil
				}),
			events.On("audio.Play", au, recovery.AudioError,
				func(_ context.Context, ev events.StoryMomentEvent) error {
					if ev.Moment.Positive {
						return play(audio.CueStoryGood)()
					}
					return play(audio.CueStoryBad)()
				}),
		},

		events.TutorialStep: {
			events.On("hud.ShowTutorialStep", h, recovery.RenderingError,
				func(ctx context.Context, ev events.TutorialStepEvent) error {
					return c.HUD.ShowTutorialStep(ctx, ev)
				}),
			events.On("audio.Play", au, recovery.AudioError,
				func(context.Context, events.TutorialStepEvent) error { return play(audio.CueTutorialStep)() }),
		},

		events.TutorialComplete: {
			events.On(subTutorialDone, true, recovery.GlobalError,
				func(ctx context.Context, _ events.TutorialCompleteEvent) error {
					e.switchAfter(ctx, events.TutorialComplete, mode.FreePlay)
					return nil
				}),
			events.On("achievements.Unlock", ach, recovery.GlobalError,
				func(ctx context.Context, _ events.TutorialCompleteEvent) error {
					c.Achievements.Unlock(ctx, achievements.Graduate)
					return nil
				}),
			events.On("hud.Notify", h, recovery.RenderingError,
				func(context.Context, events.TutorialCompleteEvent) error {
					c.HUD.Notify("Tutorial complete! The room is yours.", hud.LevelSuccess)
					return nil
				}),
		},

		events.ScenarioComplete: {
			events.On(subScenarioDone, true, recovery.GlobalError,
				func(ctx context.Context, _ events.ScenarioCompleteEvent) error {
					e.switchAfter(ctx, events.ScenarioComplete, mode.MainMenu)
					return nil
				}),
			events.On("achievements.Unlock", ach, recovery.GlobalError,
				func(ctx context.Context, _ events.ScenarioCompleteEvent) error {
					c.Achievements.Unlock(ctx, achievements.ScenarioChampion)
					return nil
				}),
			events.On("hud.Notify", h, recovery.RenderingError,
				func(_ context.Context, ev events.ScenarioCompleteEvent) error {
					c.HUD.Notify("Scenario complete: "+ev.Title, hud.LevelSuccess)
					return nil
				}),
		},

		events.AchievementUnlocked: {
			events.On("hud.Notify", h, recovery.RenderingError,
				func(_ context.Context, ev events.AchievementUnlockedEvent) error {
					id := achievements.ID(ev.Achievement.ID)
					c.HUD.Notify(id.Icon()+" "+id.DisplayName(), hud.LevelSuccess)
					return nil
				}),
			events.On("audio.Play", au, recovery.AudioError,
				func(context.Context, events.AchievementUnlockedEvent) error { return play(audio.CueAchievement)() }),
		},

		events.AccessibilityChanged: e.accessibilityRoutes(),
	}
}

// accessibilityRoutes fans settings out to every collaborator that can
// apply them, in registration order.
func (e *Engine) accessibilityRoutes() []events.Subscriber {
	var subs []events.Subscriber
	for _, h := range e.set.All() {
		if h.Accessibility == nil {
			continue
		}
		aware := h.Accessibility
		subs = append(subs, events.On(h.Name+subApplySettings, true, recovery.RenderingError,
			func(_ context.Context, ev events.AccessibilityChangedEvent) error {
				aware.ApplyAccessibilitySettings(ev.Settings)
				return nil
			}))
	}
	return subs
}

// enterCrisis switches to CRISIS_MANAGEMENT and remembers the mode the
// crisis interrupted.
func (e *Engine) enterCrisis(ctx context.Context) {
	from := e.Mode()
	if from == mode.CrisisManagement {
		return
	}
	t := e.TransitionToMode(ctx, mode.CrisisManagement, mode.Instant)
	if t.Skipped || t.Failed {
		return
	}
	e.session.mu.Lock()
	e.session.crisisFrom = from
	e.session.mu.Unlock()
}

// leaveCrisis goes back to the scenario a crisis interrupted, or to free
// play otherwise. It does nothing once the session has left crisis mode.
func (e *Engine) leaveCrisis(ctx context.Context) {
	if e.Mode() != mode.CrisisManagement {
		return
	}
	e.session.mu.Lock()
	from := e.session.crisisFrom
	e.session.crisisFrom = ""
	e.session.mu.Unlock()

	target := mode.FreePlay
	if from == mode.Scenario {
		target = mode.Scenario
	}
	e.TransitionToMode(ctx, target, mode.Smooth)
}

func (e *Engine) switchAfter(ctx context.Context, ev events.Name, target mode.Mode) {
	t := e.TransitionToMode(ctx, target, mode.Smooth)
	if t.Skipped {
		e.log.Warn().Str("event", string(ev)).Str("to", string(target)).Msg("automatic transition dropped")
	}
}
