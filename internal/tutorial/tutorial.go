// Package tutorial walks a new player through building their first room.
package tutorial

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
)

// Trigger is what completes a step.
type Trigger string

const (
	TriggerManual        Trigger = "manual"
	TriggerDeviceCreated Trigger = "device-created"
	TriggerDevicePlaced  Trigger = "device-placed"
	TriggerInteraction   Trigger = "interaction"
)

// Step is one tutorial step.
type Step struct {
	Title   string
	Hint    string
	Trigger Trigger
}

// DefaultSteps is the built-in tutorial.
func DefaultSteps() []Step {
	return []Step{
		{Title: "Welcome", Hint: "Smart devices have personalities. Press enter to continue.", Trigger: TriggerManual},
		{Title: "Build a device", Hint: "Open the workshop and build your first device.", Trigger: TriggerDeviceCreated},
		{Title: "Place it", Hint: "Put the device somewhere in the room.", Trigger: TriggerDevicePlaced},
		{Title: "Watch them talk", Hint: "Devices near each other interact. Watch what happens.", Trigger: TriggerInteraction},
		{Title: "You're ready", Hint: "Keep an eye on tension. Press enter to finish.", Trigger: TriggerManual},
	}
}

// Tutorial is the tutorial collaborator.
type Tutorial struct {
	mu        sync.Mutex
	steps     []Step
	current   int
	completed bool
	active    bool

	pub events.Publisher
	log zerolog.Logger
}

// New creates a tutorial over steps. An empty list uses DefaultSteps.
func New(steps []Step, log zerolog.Logger) *Tutorial {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	return &Tutorial{
		steps: steps,
		pub:   events.Discard,
		log:   log.With().Str("component", "tutorial").Logger(),
	}
}

func (t *Tutorial) Name() string { return "tutorial" }

// Connect sets the publisher events are sent through.
func (t *Tutorial) Connect(p events.Publisher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pub = p
}

// Current returns the active step and its index.
func (t *Tutorial) Current() (Step, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed || t.current >= len(t.steps) {
		return Step{}, t.current, false
	}
	return t.steps[t.current], t.current, true
}

// Total returns the number of steps.
func (t *Tutorial) Total() int { return len(t.steps) }

// Completed reports whether the player finished the tutorial.
func (t *Tutorial) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Advance completes the current manual step.
func (t *Tutorial) Advance(ctx context.Context) {
	t.complete(ctx, TriggerManual)
}

// Observe completes the current step if it waits for trigger.
func (t *Tutorial) Observe(ctx context.Context, trigger Trigger) {
	t.complete(ctx, trigger)
}

func (t *Tutorial) complete(ctx context.Context, trigger Trigger) {
	t.mu.Lock()
	if !t.active || t.completed || t.current >= len(t.steps) || t.steps[t.current].Trigger != trigger {
		t.mu.Unlock()
		return
	}
	t.current++
	var ev events.Event
	if t.current >= len(t.steps) {
		t.completed = true
		t.active = false
		ev = events.TutorialCompleteEvent{}
	} else {
		next := t.steps[t.current]
		ev = events.TutorialStepEvent{Step: t.current, Total: len(t.steps), Title: next.Title, Hint: next.Hint}
	}
	pub := t.pub
	t.mu.Unlock()

	t.log.Debug().Str("event", string(ev.EventName())).Msg("tutorial progressed")
	pub.Publish(ctx, ev)
}

// InitForMode starts (or restarts) the tutorial when its mode is entered.
func (t *Tutorial) InitForMode(ctx context.Context, m mode.Mode) error {
	if m != mode.Tutorial {
		return nil
	}
	t.mu.Lock()
	if t.completed || t.current >= len(t.steps) {
		t.current = 0
		t.completed = false
	}
	t.active = true
	step := t.steps[t.current]
	ev := events.TutorialStepEvent{Step: t.current, Total: len(t.steps), Title: step.Title, Hint: step.Hint}
	pub := t.pub
	t.mu.Unlock()

	pub.Publish(ctx, ev)
	return nil
}

// CleanupForMode stops reacting to triggers once the tutorial mode is left.
func (t *Tutorial) CleanupForMode(_ context.Context, m mode.Mode) error {
	if m != mode.Tutorial {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	return nil
}

func (t *Tutorial) CaptureState(gs *gamestate.GameState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	gs.TutorialProgress = gamestate.TutorialProgress{Step: t.current, Completed: t.completed}
}

func (t *Tutorial) RestoreState(gs gamestate.GameState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = min(max(gs.TutorialProgress.Step, 0), len(t.steps))
	t.completed = gs.TutorialProgress.Completed
	t.active = false
	return nil
}
