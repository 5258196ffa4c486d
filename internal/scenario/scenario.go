// Package scenario runs goal-driven challenges on top of the room.
package scenario

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
)

// Counters tracked by objectives.
const (
	CounterDevicesCreated = "devices_created"
	CounterDevicesPlaced  = "devices_placed"
	CounterCooperations   = "cooperations"
	CounterCrisesResolved = "crises_resolved"
)

var ErrUnknownScenario = eris.New("unknown scenario")

// Objective is met once Counter reaches Target.
type Objective struct {
	Counter string
	Target  int
	Label   string
}

// Scenario is one challenge.
type Scenario struct {
	ID         string
	Title      string
	Brief      string
	Objectives []Objective
}

// DefaultCatalog is the built-in scenario list.
func DefaultCatalog() []Scenario {
	return []Scenario{
		{
			ID: "housewarming", Title: "Housewarming",
			Brief: "Furnish the room with three devices.",
			Objectives: []Objective{
				{Counter: CounterDevicesPlaced, Target: 3, Label: "Place 3 devices"},
			},
		},
		{
			ID: "peacekeeper", Title: "Peacekeeper",
			Brief: "Keep the peace: get devices to cooperate and calm a crisis.",
			Objectives: []Objective{
				{Counter: CounterCooperations, Target: 5, Label: "5 cooperations"},
				{Counter: CounterCrisesResolved, Target: 1, Label: "Resolve a crisis"},
			},
		},
	}
}

// Runner is the scenario collaborator.
type Runner struct {
	mu        sync.Mutex
	catalog   []Scenario
	activeID  string
	counters  map[string]int
	completed []string
	running   bool

	pub events.Publisher
	log zerolog.Logger
}

// New creates a runner over catalog.
func New(catalog []Scenario, log zerolog.Logger) *Runner {
	return &Runner{
		catalog:  catalog,
		counters: make(map[string]int),
		pub:      events.Discard,
		log:      log.With().Str("component", "scenario").Logger(),
	}
}

func (r *Runner) Name() string { return "scenario" }

// Connect sets the publisher events are sent through.
func (r *Runner) Connect(p events.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pub = p
}

// Catalog returns the available scenarios.
func (r *Runner) Catalog() []Scenario {
	return slices.Clone(r.catalog)
}

// Select makes id the active scenario and resets its counters.
func (r *Runner) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.find(id); !ok {
		return eris.Wrapf(ErrUnknownScenario, "scenario %q", id)
	}
	r.activeID = id
	r.counters = make(map[string]int)
	return nil
}

// Active returns the selected scenario.
func (r *Runner) Active() (Scenario, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(r.activeID)
}

// Counter returns the current value of a counter.
func (r *Runner) Counter(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Completed returns the IDs of finished scenarios in completion order.
func (r *Runner) Completed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.completed)
}

// Record adds n to counter while a scenario is running and completes the
// scenario once every objective is met.
func (r *Runner) Record(ctx context.Context, counter string, n int) {
	r.mu.Lock()
	sc, ok := r.find(r.activeID)
	if !r.running || !ok {
		r.mu.Unlock()
		return
	}
	r.counters[counter] += n
	for _, obj := range sc.Objectives {
		if r.counters[obj.Counter] < obj.Target {
			r.mu.Unlock()
			return
		}
	}
	r.running = false
	if !slices.Contains(r.completed, sc.ID) {
		r.completed = append(r.completed, sc.ID)
	}
	r.activeID = ""
	pub := r.pub
	r.mu.Unlock()

	r.log.Info().Str("scenario", sc.ID).Msg("scenario complete")
	pub.Publish(ctx, events.ScenarioCompleteEvent{ScenarioID: sc.ID, Title: sc.Title})
}

// InitForMode starts the selected scenario, or the first unfinished one.
func (r *Runner) InitForMode(_ context.Context, m mode.Mode) error {
	if m != mode.Scenario {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.catalog) == 0 {
		return eris.New("scenario catalog is empty")
	}
	if _, ok := r.find(r.activeID); !ok {
		r.activeID = r.catalog[0].ID
		for _, sc := range r.catalog {
			if !slices.Contains(r.completed, sc.ID) {
				r.activeID = sc.ID
				break
			}
		}
		r.counters = make(map[string]int)
	}
	r.running = true
	return nil
}

// CleanupForMode pauses counting; progress is kept for the next visit.
func (r *Runner) CleanupForMode(_ context.Context, m mode.Mode) error {
	if m != mode.Scenario {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	return nil
}

func (r *Runner) CaptureState(gs *gamestate.GameState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gs.ScenarioProgress = gamestate.ScenarioProgress{
		ActiveID:  r.activeID,
		Counters:  maps.Clone(r.counters),
		Completed: slices.Clone(r.completed),
	}
}

func (r *Runner) RestoreState(gs gamestate.GameState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := gs.ScenarioProgress
	if p.ActiveID != "" {
		if _, ok := r.find(p.ActiveID); !ok {
			return eris.Wrapf(ErrUnknownScenario, "restoring scenario %q", p.ActiveID)
		}
	}
	r.activeID = p.ActiveID
	r.counters = maps.Clone(p.Counters)
	if r.counters == nil {
		r.counters = make(map[string]int)
	}
	r.completed = slices.Clone(p.Completed)
	r.running = false
	return nil
}

func (r *Runner) find(id string) (Scenario, bool) {
	for _, sc := range r.catalog {
		if sc.ID == id {
			return sc, true
		}
	}
	return Scenario{}, false
}
