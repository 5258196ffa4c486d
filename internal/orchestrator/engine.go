// Package orchestrator is the mode state machine. It sequences collaborator
// setup and teardown on every mode switch, wires the event bridge and routes
// every fault it catches through the recovery registry.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/accessibility"
	"github.com/abhisek/smartroom/internal/achievements"
	"github.com/abhisek/smartroom/internal/audio"
	"github.com/abhisek/smartroom/internal/collab"
	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/health"
	"github.com/abhisek/smartroom/internal/hud"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/recovery"
	"github.com/abhisek/smartroom/internal/room"
	"github.com/abhisek/smartroom/internal/safemode"
	"github.com/abhisek/smartroom/internal/scenario"
	"github.com/abhisek/smartroom/internal/simulation"
	"github.com/abhisek/smartroom/internal/store"
	"github.com/abhisek/smartroom/internal/tutorial"
	"github.com/abhisek/smartroom/internal/workshop"
)

var (
	// ErrBusy is returned when a load or restore is requested while a
	// transition is in flight.
	ErrBusy = eris.New("transition in progress")

	// ErrNoPersistence is returned by Save and Load without a save backend.
	ErrNoPersistence = eris.New("no save backend configured")
)

// source tags faults the engine itself catches.
const source = "orchestrator"

// Collaborators are the subsystems the event bridge knows by type. Any of
// them may be nil; their subscribers are then skipped.
type Collaborators struct {
	Simulation    *simulation.Simulator
	Workshop      *workshop.Workshop
	Tutorial      *tutorial.Tutorial
	Scenario      *scenario.Runner
	Achievements  *achievements.Service
	Audio         *audio.Player
	Accessibility *accessibility.Manager
	HUD           *hud.HUD
}

// NewCollaborators builds the standard collaborator set.
func NewCollaborators(sim simulation.Config, sink audio.Sink, log zerolog.Logger) Collaborators {
	return Collaborators{
		Simulation:    simulation.New(sim, log),
		Workshop:      workshop.New(log),
		Tutorial:      tutorial.New(nil, log),
		Scenario:      scenario.New(scenario.DefaultCatalog(), log),
		Achievements:  achievements.NewService(log),
		Audio:         audio.NewPlayer(sink, log),
		Accessibility: accessibility.NewManager(log),
		HUD:           hud.New(log),
	}
}

func (c Collaborators) list() []collab.Collaborator {
	var out []collab.Collaborator
	if c.Simulation != nil {
		out = append(out, c.Simulation)
	}
	if c.Workshop != nil {
		out = append(out, c.Workshop)
	}
	if c.Tutorial != nil {
		out = append(out, c.Tutorial)
	}
	if c.Scenario != nil {
		out = append(out, c.Scenario)
	}
	if c.Achievements != nil {
		out = append(out, c.Achievements)
	}
	if c.Audio != nil {
		out = append(out, c.Audio)
	}
	if c.Accessibility != nil {
		out = append(out, c.Accessibility)
	}
	if c.HUD != nil {
		out = append(out, c.HUD)
	}
	return out
}

// Options configure an Engine.
type Options struct {
	Collaborators Collaborators
	// Extra collaborators are registered after the standard ones. They take
	// part in mode hooks (when named in Hooks), health checks, safe mode,
	// snapshots and accessibility changes.
	Extra []collab.Collaborator
	// Hooks defaults to DefaultHookTable.
	Hooks HookTable

	Saves         store.SaveRepo
	SaveRetention int

	// HealthInterval is the period of the health loop. Zero disables it.
	HealthInterval time.Duration

	Now func() time.Time
	Log zerolog.Logger
}

// Transition is the outcome of one TransitionToMode call.
type Transition struct {
	From  mode.Mode
	To    mode.Mode
	Style mode.Style
	// Skipped is set when another transition was in flight.
	Skipped bool
	// Failed is set when the target could not be entered and the engine
	// rolled back to From.
	Failed   bool
	Recovery *recovery.Result
}

// SystemHealth is a point-in-time read of the session.
type SystemHealth struct {
	Initialized     bool
	CurrentMode     mode.Mode
	IsTransitioning bool
	SafeModeEnabled bool
	SafeModeReason  string
	DeviceCount     int
	LastSaveTime    time.Time
}

// Engine is the mode orchestration engine.
type Engine struct {
	session  *Session
	c        Collaborators
	set      *collab.Set
	hooks    HookTable
	safe     *safemode.Controller
	registry *recovery.Registry
	bus      *events.Bus
	monitor  *health.Monitor
	clock    *gamestate.Clock
	now      func() time.Time

	saves          store.SaveRepo
	retention      int
	healthInterval time.Duration

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	goMu         sync.Mutex
	shutdownOnce sync.Once

	log zerolog.Logger
}

// New builds an engine around the given collaborators. The session starts
// in MAIN_MENU; call Initialize to enter it.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = DefaultHookTable()
	}

	safe := safemode.New(opts.Log)
	registry := recovery.NewRegistry(safe, opts.Log)
	defaults := recovery.Defaults{}
	if opts.Collaborators.Simulation != nil {
		defaults.Simulation = opts.Collaborators.Simulation
	}
	recovery.RegisterDefaults(registry, defaults)

	clock := gamestate.NewClock(now)
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		session:        newSession(clock.Next()),
		c:              opts.Collaborators,
		set:            collab.NewSet(append(opts.Collaborators.list(), opts.Extra...)...),
		hooks:          hooks,
		safe:           safe,
		registry:       registry,
		clock:          clock,
		now:            now,
		saves:          opts.Saves,
		retention:      opts.SaveRetention,
		healthInterval: opts.HealthInterval,
		ctx:            ctx,
		cancel:         cancel,
		log:            opts.Log.With().Str("component", source).Logger(),
	}

	registry.SetContextFunc(e.handlerContext)
	registry.OnResult(e.surface)
	safe.OnEnable(e.degrade)
	e.monitor = health.NewMonitor(e.set.All(), safe, registry, opts.Log)
	e.bus = events.NewBus(StandardRoutes(e), registry, opts.Log)
	e.connect()
	return e
}

// publisherSink is implemented by collaborators that publish events.
type publisherSink interface {
	Connect(p events.Publisher)
}

func (e *Engine) connect() {
	for _, h := range e.set.All() {
		if p, ok := h.Impl.(publisherSink); ok {
			p.Connect(e.bus)
		}
	}
}

// Initialize applies the current accessibility settings, enters MAIN_MENU
// and starts the health loop. A failure is routed as
// SYSTEM_INITIALIZATION_FAILED and the session continues in safe mode.
func (e *Engine) Initialize(ctx context.Context) error {
	if !e.session.transitioning.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.session.transitioning.Store(false)

	e.session.mu.Lock()
	if e.session.initialized {
		e.session.mu.Unlock()
		return nil
	}
	e.session.initialized = true
	e.session.mu.Unlock()

	settings := room.DefaultAccessibility()
	if e.c.Accessibility != nil {
		settings = e.c.Accessibility.Settings()
	}
	e.applyAccessibility(settings)

	if e.healthInterval > 0 {
		e.Go("health-monitor", func(ctx context.Context) error {
			e.monitor.Run(ctx, e.healthInterval)
			return nil
		})
	}

	if err := e.runHooks(ctx, phaseInit, mode.MainMenu); err != nil {
		e.registry.Handle(recovery.NewError(recovery.SystemInitializationFailed, source, err))
		return err
	}
	e.session.commit(mode.MainMenu, e.clock.Next())
	e.log.Info().Int("collaborators", len(e.set.All())).Msg("engine initialized")
	return nil
}

// TransitionToMode switches to target. A request made while another
// transition is in flight is dropped. On return the engine is either in
// target, or back in the mode it started from with MODE_TRANSITION_FAILED
// routed exactly once.
func (e *Engine) TransitionToMode(ctx context.Context, target mode.Mode, style mode.Style) Transition {
	from := e.session.Mode()
	if !target.Valid() {
		res := e.registry.Handle(recovery.NewError(recovery.ModeTransitionFailed, source, eris.Errorf("unknown mode %q", target)))
		return Transition{From: from, To: target, Style: style, Failed: true, Recovery: &res}
	}
	if e.session.closed() {
		return Transition{From: from, To: target, Style: style, Skipped: true}
	}
	if !e.session.transitioning.CompareAndSwap(false, true) {
		e.log.Debug().Str("to", string(target)).Msg("transition in flight, request dropped")
		return Transition{From: from, To: target, Style: style, Skipped: true}
	}
	defer e.session.transitioning.Store(false)
	return e.transition(ctx, target, style)
}

// transition runs with the transitioning flag held.
func (e *Engine) transition(ctx context.Context, target mode.Mode, style mode.Style) (t Transition) {
	from := e.session.Mode()
	t = Transition{From: from, To: target, Style: style}
	defer func() {
		if p := recover(); p != nil {
			t = e.rollback(ctx, t, eris.New(fmt.Sprintf("panic: %v", p)))
		}
	}()

	// Partial cleanup is acceptable; runHooks already logged each failure.
	_ = e.runHooks(ctx, phaseCleanup, from)
	e.session.setMode(target)
	if err := e.runHooks(ctx, phaseInit, target); err != nil {
		return e.rollback(ctx, t, err)
	}
	e.session.commit(target, e.clock.Next())

	e.log.Info().Str("from", string(from)).Str("to", string(target)).Str("style", string(style)).Msg("mode changed")
	return t
}

// rollback routes the failure and returns to t.From: the partially entered
// target is cleaned up and the original mode is initialized again.
func (e *Engine) rollback(ctx context.Context, t Transition, cause error) Transition {
	res := e.registry.Handle(recovery.NewError(recovery.ModeTransitionFailed, source,
		eris.Wrapf(cause, "transition %s -> %s", t.From, t.To)))

	_ = e.runHooks(ctx, phaseCleanup, t.To)
	e.session.setMode(t.From)
	if err := e.runHooks(ctx, phaseInit, t.From); err != nil {
		e.log.Error().Err(err).Str("mode", string(t.From)).Msg("rollback could not fully re-enter mode")
	}

	t.Failed = true
	t.Recovery = &res
	return t
}

type phase string

const (
	phaseInit    phase = "init"
	phaseCleanup phase = "cleanup"
)

// runHooks calls the hook for m on every collaborator the table lists, in
// order. Every hook runs even when an earlier one fails.
func (e *Engine) runHooks(ctx context.Context, ph phase, m mode.Mode) error {
	var errs []error
	for _, name := range e.hooks[m] {
		h, ok := e.set.Get(name)
		if !ok || h.Hooks == nil {
			continue
		}
		err := guard(func() error {
			if ph == phaseInit {
				return h.Hooks.InitForMode(ctx, m)
			}
			return h.Hooks.CleanupForMode(ctx, m)
		})
		if err != nil {
			e.log.Warn().Err(err).
				Str("collaborator", name).
				Str("mode", string(m)).
				Str("phase", string(ph)).
				Msg("mode hook failed")
			errs = append(errs, eris.Wrapf(err, "%s %s %s", name, ph, m))
		}
	}
	return errors.Join(errs...)
}

// Capture records and returns a snapshot of the session.
func (e *Engine) Capture() gamestate.GameState {
	gs := e.collect()
	e.session.replaceState(gs)
	return gs
}

func (e *Engine) collect() gamestate.GameState {
	gs := gamestate.New(time.Time{})
	gs.Mode = e.session.Mode()
	for _, h := range e.set.All() {
		if h.State == nil {
			continue
		}
		if err := guard(func() error { h.State.CaptureState(&gs); return nil }); err != nil {
			e.registry.Handle(recovery.NewError(recovery.GlobalError, h.Name, err))
		}
	}
	gs.Timestamp = e.clock.Next()
	return gs
}

// Restore replaces the session with gs and enters its mode. When any
// collaborator rejects gs, the previous state is put back and an error is
// returned.
func (e *Engine) Restore(ctx context.Context, gs gamestate.GameState) error {
	if !e.session.transitioning.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.session.transitioning.Store(false)
	return e.restore(ctx, gs)
}

func (e *Engine) restore(ctx context.Context, gs gamestate.GameState) error {
	if !gs.Mode.Valid() {
		return eris.Errorf("snapshot has unknown mode %q", gs.Mode)
	}
	prev := e.session.State()
	backup := e.collect()
	if err := e.apply(gs); err != nil {
		e.putBack(backup, prev)
		return err
	}

	e.clock.Observe(gs.Timestamp)
	current := gs
	current.Mode = e.session.Mode()
	e.session.replaceState(current)
	if t := e.transition(ctx, gs.Mode, mode.Instant); t.Failed {
		// The transition already rolled back to t.From.
		e.putBack(backup, prev)
		return eris.Errorf("enter saved mode %s", gs.Mode)
	}
	return nil
}

// putBack hands the pre-restore state back to the collaborators and the
// session.
func (e *Engine) putBack(backup, prev gamestate.GameState) {
	if err := e.apply(backup); err != nil {
		e.log.Error().Err(err).Msg("could not put back previous state")
	}
	e.session.replaceState(prev)
}

func (e *Engine) apply(gs gamestate.GameState) error {
	var errs []error
	for _, h := range e.set.All() {
		if h.State == nil {
			continue
		}
		if err := guard(func() error { return h.State.RestoreState(gs) }); err != nil {
			errs = append(errs, eris.Wrapf(err, "restore %s", h.Name))
		}
	}
	if e.c.Workshop != nil {
		e.c.Workshop.Adopt(gs.Devices)
	}
	e.applyAccessibility(gs.Settings.Accessibility)
	return errors.Join(errs...)
}

// Save captures the session and writes it. Failures are routed as
// SAVE_FAILED; the in-memory session is untouched either way.
func (e *Engine) Save(ctx context.Context, label string) (store.Metadata, error) {
	if e.saves == nil {
		e.registry.Handle(recovery.NewError(recovery.SaveFailed, source, ErrNoPersistence))
		return store.Metadata{}, ErrNoPersistence
	}
	gs := e.Capture()

	var meta store.Metadata
	err := guard(func() error {
		var err error
		meta, err = e.saves.Save(ctx, gs, label)
		return err
	})
	if err != nil {
		e.registry.Handle(recovery.NewError(recovery.SaveFailed, "store", err))
		return store.Metadata{}, err
	}

	e.session.mu.Lock()
	e.session.lastSave = e.now()
	e.session.mu.Unlock()
	e.log.Info().Str("save", meta.ID).Str("label", label).Msg("game saved")

	if e.retention > 0 {
		if n, err := e.saves.Prune(ctx, e.retention); err != nil {
			e.log.Warn().Err(err).Msg("prune old saves")
		} else if n > 0 {
			e.log.Debug().Int("pruned", n).Msg("pruned old saves")
		}
	}
	return meta, nil
}

// Load replaces the session with a stored save. It shares the transition
// guard, so it is refused with ErrBusy while a transition runs. Failures
// are routed as LOAD_FAILED and leave the session as it was.
func (e *Engine) Load(ctx context.Context, id string) error {
	if e.saves == nil {
		e.registry.Handle(recovery.NewError(recovery.LoadFailed, source, ErrNoPersistence))
		return ErrNoPersistence
	}
	if !e.session.transitioning.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.session.transitioning.Store(false)

	var gs gamestate.GameState
	err := guard(func() error {
		var err error
		gs, _, err = e.saves.Load(ctx, id)
		return err
	})
	if err == nil {
		err = e.restore(ctx, gs)
	}
	if err != nil {
		e.registry.Handle(recovery.NewError(recovery.LoadFailed, "store", err))
		return err
	}
	e.log.Info().Str("save", id).Str("mode", string(gs.Mode)).Msg("game loaded")
	return nil
}

// LoadLatest loads the newest save.
func (e *Engine) LoadLatest(ctx context.Context) (store.Metadata, error) {
	if e.saves == nil {
		return store.Metadata{}, ErrNoPersistence
	}
	saves, err := e.saves.List(ctx)
	if err != nil {
		return store.Metadata{}, eris.Wrap(err, "list saves")
	}
	if len(saves) == 0 {
		return store.Metadata{}, store.ErrNotFound
	}
	return saves[0], e.Load(ctx, saves[0].ID)
}

// Tick advances the simulation once unless it is paused. A simulation
// fault is routed as SIMULATION_ERROR.
func (e *Engine) Tick(ctx context.Context) (simulation.TickReport, error) {
	sim := e.c.Simulation
	if sim == nil || sim.Paused() {
		return simulation.TickReport{}, nil
	}
	var rep simulation.TickReport
	err := guard(func() error {
		var err error
		rep, err = sim.Tick(ctx)
		return err
	})
	if err != nil {
		e.registry.Handle(recovery.NewError(recovery.SimulationError, sim.Name(), err))
		return rep, err
	}
	return rep, nil
}

// PerformHealthCheck runs one health check now.
func (e *Engine) PerformHealthCheck(ctx context.Context) health.Report {
	return e.monitor.PerformHealthCheck(ctx)
}

// Go runs fn in the background. An error or panic from fn that nobody
// waits for is routed as UNHANDLED_PROMISE_REJECTION. fn's context is
// cancelled by Shutdown; once Shutdown has begun, Go starts nothing.
func (e *Engine) Go(name string, fn func(ctx context.Context) error) {
	e.goMu.Lock()
	defer e.goMu.Unlock()
	if e.ctx.Err() != nil {
		e.log.Debug().Str("task", name).Msg("engine shut down, task not started")
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		err := guard(func() error { return fn(e.ctx) })
		if err != nil && !errors.Is(err, context.Canceled) {
			e.registry.Handle(recovery.NewError(recovery.UnhandledPromiseRejection, name, err))
		}
	}()
}

// SystemHealth reads the session.
func (e *Engine) SystemHealth() SystemHealth {
	e.session.mu.RLock()
	h := SystemHealth{
		Initialized:  e.session.initialized,
		CurrentMode:  e.session.mode,
		DeviceCount:  len(e.session.state.Devices),
		LastSaveTime: e.session.lastSave,
	}
	e.session.mu.RUnlock()

	h.IsTransitioning = e.session.Transitioning()
	h.SafeModeEnabled = e.safe.IsEnabled()
	h.SafeModeReason = e.safe.Reason()
	if e.c.Simulation != nil {
		h.DeviceCount = len(e.c.Simulation.Devices())
	}
	return h
}

// Shutdown stops background tasks and tears down the current mode. Calls
// after the first do nothing.
func (e *Engine) Shutdown(ctx context.Context) error {
	var err error
	e.shutdownOnce.Do(func() {
		e.goMu.Lock()
		e.cancel()
		e.goMu.Unlock()
		done := make(chan struct{})
		go func() {
			e.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = eris.Wrap(ctx.Err(), "wait for background tasks")
		}

		e.session.mu.Lock()
		e.session.shutdown = true
		e.session.mu.Unlock()
		_ = e.runHooks(ctx, phaseCleanup, e.session.Mode())
		e.log.Info().Msg("engine shut down")
	})
	return err
}

// Done is closed once Shutdown has been called.
func (e *Engine) Done() <-chan struct{} {
	return e.ctx.Done()
}

// Mode returns the current mode.
func (e *Engine) Mode() mode.Mode { return e.session.Mode() }

// Session exposes the read side of the session.
func (e *Engine) Session() *Session { return e.session }

// Saves returns the save backend, or nil.
func (e *Engine) Saves() store.SaveRepo { return e.saves }

// Registry returns the recovery registry, e.g. to register extra handlers.
func (e *Engine) Registry() *recovery.Registry { return e.registry }

// SafeMode returns the safe mode controller.
func (e *Engine) SafeMode() *safemode.Controller { return e.safe }

// Bus returns the event bus.
func (e *Engine) Bus() *events.Bus { return e.bus }

// Collaborators returns the typed collaborators.
func (e *Engine) Collaborators() Collaborators { return e.c }

// handlerContext describes the session to recovery handlers.
func (e *Engine) handlerContext() recovery.HandlerContext {
	return recovery.HandlerContext{Mode: e.session.Mode(), At: e.now()}
}

// surface shows a result's user message on the HUD.
func (e *Engine) surface(_ *recovery.IntegrationError, res recovery.Result) {
	if res.UserMessage == "" || e.c.HUD == nil {
		return
	}
	level := hud.LevelWarning
	if res.SafeModeRequired || !res.Handled {
		level = hud.LevelError
	}
	e.c.HUD.Notify(res.UserMessage, level)
}

// degrade runs every collaborator's safe mode action once safe mode is on.
func (e *Engine) degrade(reason string) {
	e.log.Warn().Str("reason", reason).Msg("safe mode enabled")
	for _, h := range e.set.All() {
		if h.Recoverer == nil {
			continue
		}
		if err := guard(h.Recoverer.EnableSafeMode); err != nil {
			e.log.Error().Err(err).Str("collaborator", h.Name).Msg("safe mode action failed")
		}
	}
}

func (e *Engine) applyAccessibility(s room.AccessibilitySettings) {
	for _, h := range e.set.All() {
		if h.Accessibility == nil {
			continue
		}
		err := guard(func() error { h.Accessibility.ApplyAccessibilitySettings(s); return nil })
		if err != nil {
			e.registry.Handle(recovery.NewError(recovery.RenderingError, h.Name, err))
		}
	}
}

// guard converts a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = eris.New(fmt.Sprintf("panic: %v", p))
		}
	}()
	return fn()
}
