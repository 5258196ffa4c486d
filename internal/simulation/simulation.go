// Package simulation runs the room: devices interact according to their
// personalities, tension builds from conflicts and crises break out when it
// crosses a threshold.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/room"
)

var (
	ErrNoActiveCrisis  = eris.New("no active crisis")
	ErrDuplicateDevice = eris.New("device already in room")
	ErrUnknownDevice   = eris.New("unknown device")
	ErrRoomFull        = eris.New("room is full")
)

// Config tunes the simulation.
type Config struct {
	// CrisisThreshold is the tension at which a crisis starts.
	CrisisThreshold float64
	// InteractionRange is the grid distance within which devices interact.
	InteractionRange int
	// MaxDevices caps the room. SafeModeMaxDevices applies in safe mode.
	MaxDevices         int
	SafeModeMaxDevices int
	Seed               uint64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CrisisThreshold:    0.7,
		InteractionRange:   2,
		MaxDevices:         12,
		SafeModeMaxDevices: 6,
		Seed:               uint64(time.Now().UnixNano()),
	}
}

// TickReport summarizes one tick.
type TickReport struct {
	Interactions []room.Interaction
	Crisis       *room.Crisis
	Tension      float64
}

// Simulator is the simulation collaborator.
type Simulator struct {
	mu       sync.Mutex
	cfg      Config
	devices  []room.Device
	env      room.Environment
	crisis   *room.Crisis
	paused   bool
	halted   bool
	safeMode bool
	faulted  error
	rng      *rand.Rand
	now      func() time.Time

	pub events.Publisher
	log zerolog.Logger
}

// New creates an empty, paused room.
func New(cfg Config, log zerolog.Logger) *Simulator {
	return &Simulator{
		cfg:    cfg,
		env:    room.DefaultEnvironment(),
		paused: true,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		now:    time.Now,
		pub:    events.Discard,
		log:    log.With().Str("component", "simulation").Logger(),
	}
}

func (s *Simulator) Name() string { return "simulation" }

// Connect sets the publisher events are sent through.
func (s *Simulator) Connect(p events.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pub = p
}

// AddDevice puts a newly created device into the room.
func (s *Simulator) AddDevice(d room.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(d.ID) >= 0 {
		return eris.Wrapf(ErrDuplicateDevice, "device %s", d.ID)
	}
	if len(s.devices) >= s.capacity() {
		return eris.Wrapf(ErrRoomFull, "capacity %d", s.capacity())
	}
	s.devices = append(s.devices, d)
	return nil
}

// Full reports whether the room has no space for another device.
func (s *Simulator) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices) >= s.capacity()
}

// PlaceDevice records a device's new grid position.
func (s *Simulator) PlaceDevice(d room.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(d.ID)
	if i < 0 {
		return eris.Wrapf(ErrUnknownDevice, "device %s", d.ID)
	}
	s.devices[i].Position = d.Position
	s.devices[i].Placed = true
	return nil
}

// Devices returns a copy of the devices in the room.
func (s *Simulator) Devices() []room.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]room.Device(nil), s.devices...)
}

// Device returns the device with id.
func (s *Simulator) Device(id string) (room.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return room.Device{}, false
	}
	return s.devices[i], true
}

// Environment returns the current room environment.
func (s *Simulator) Environment() room.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

// ActiveCrisis returns the crisis in progress, if any.
func (s *Simulator) ActiveCrisis() (room.Crisis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crisis == nil {
		return room.Crisis{}, false
	}
	return *s.crisis, true
}

// Tick advances the room by one step. Events produced by the tick are
// published after the simulator's lock is released, because subscribers
// may call back into it.
func (s *Simulator) Tick(ctx context.Context) (TickReport, error) {
	s.mu.Lock()
	if s.paused || s.halted {
		report := TickReport{Tension: s.env.Tension}
		s.mu.Unlock()
		return report, nil
	}
	if s.faulted != nil {
		err := s.faulted
		s.mu.Unlock()
		return TickReport{}, err
	}

	var out []events.Event
	report := TickReport{}
	scale := 1.0
	if s.safeMode {
		scale = 0.5
	}

	conflicted := map[string]bool{}
	placed := s.placedIndexes()
	for i := 0; i < len(placed); i++ {
		for j := i + 1; j < len(placed); j++ {
			a, b := &s.devices[placed[i]], &s.devices[placed[j]]
			if a.Position.Distance(b.Position) > s.cfg.InteractionRange {
				continue
			}
			in := s.interact(a, b)
			report.Interactions = append(report.Interactions, in)
			out = append(out, events.InteractionDetectedEvent{Interaction: in})

			switch in.Kind {
			case room.Conflict:
				s.env.Tension += 0.15 * in.Intensity * scale
				s.env.Noise = clamp(s.env.Noise+0.05*in.Intensity, 0, 1)
				conflicted[a.ID], conflicted[b.ID] = true, true
				if in.Intensity > 0.75 {
					out = append(out, events.StoryMomentEvent{Moment: room.StoryMoment{
						Text:    fmt.Sprintf("%s and %s are arguing loudly.", a.Name, b.Name),
						Devices: []string{a.ID, b.ID},
					}})
				}
			case room.Cooperation:
				s.env.Tension -= 0.05 * in.Intensity * scale
				if in.Intensity > 0.75 {
					out = append(out, events.StoryMomentEvent{Moment: room.StoryMoment{
						Text:     fmt.Sprintf("%s and %s teamed up!", a.Name, b.Name),
						Devices:  []string{a.ID, b.ID},
						Positive: true,
					}})
				}
			}
		}
	}
	if len(conflicted) == 0 {
		s.env.Tension *= 0.95
	}
	s.env.Tension = clamp(s.env.Tension, 0, 1)

	if err := s.checkFinite(); err != nil {
		s.faulted = err
		s.mu.Unlock()
		return report, err
	}

	if s.crisis == nil && s.env.Tension >= s.cfg.CrisisThreshold {
		ids := make([]string, 0, len(conflicted))
		for _, d := range s.devices {
			if conflicted[d.ID] {
				ids = append(ids, d.ID)
			}
		}
		c := s.startCrisis("Tension boiled over", s.env.Tension, ids)
		report.Crisis = &c
		out = append(out, events.CrisisDetectedEvent{Crisis: c})
	}
	report.Tension = s.env.Tension
	pub := s.pub
	s.mu.Unlock()

	for _, ev := range out {
		pub.Publish(ctx, ev)
	}
	return report, nil
}

// RaiseCrisis starts a crisis directly, as scripted scenarios do. It is a
// no-op returning the existing crisis when one is already active.
func (s *Simulator) RaiseCrisis(ctx context.Context, cause string, severity float64, deviceIDs ...string) room.Crisis {
	s.mu.Lock()
	if s.crisis != nil {
		c := *s.crisis
		s.mu.Unlock()
		return c
	}
	severity = clamp(severity, 0, 1)
	s.env.Tension = math.Max(s.env.Tension, severity)
	c := s.startCrisis(cause, severity, deviceIDs)
	pub := s.pub
	s.mu.Unlock()

	pub.Publish(ctx, events.CrisisDetectedEvent{Crisis: c})
	return c
}

// ResolveCrisis ends the active crisis, calming the room and the devices
// involved.
func (s *Simulator) ResolveCrisis(ctx context.Context) (room.Crisis, error) {
	s.mu.Lock()
	if s.crisis == nil {
		s.mu.Unlock()
		return room.Crisis{}, ErrNoActiveCrisis
	}
	c := *s.crisis
	s.crisis = nil
	s.env.Tension = c.Severity * 0.3
	s.env.Noise = clamp(s.env.Noise-0.2, 0, 1)
	for _, id := range c.DeviceIDs {
		if i := s.indexOf(id); i >= 0 {
			s.devices[i].Mood = clamp(s.devices[i].Mood+0.3, -1, 1)
		}
	}
	pub := s.pub
	s.mu.Unlock()

	s.log.Info().Str("crisis", c.ID).Msg("crisis resolved")
	pub.Publish(ctx, events.CrisisResolvedEvent{Crisis: c, Resolved: true})
	return c, nil
}

// Pause stops ticks from changing the room.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume lets ticks change the room again. It does not lift a Halt.
func (s *Simulator) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// Halt stops ticks after a fault. Only entering a mode lifts it.
func (s *Simulator) Halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
}

// Halted reports whether a fault stopped the room.
func (s *Simulator) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Paused reports whether ticks are suspended.
func (s *Simulator) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused || s.halted
}

// InitForMode runs the room in play modes and freezes it while the player
// is building or in the menu.
func (s *Simulator) InitForMode(_ context.Context, m mode.Mode) error {
	s.mu.Lock()
	s.halted = false
	s.mu.Unlock()
	if m.Live() {
		s.Resume()
	} else {
		s.Pause()
	}
	return nil
}

// CleanupForMode pauses the room between modes.
func (s *Simulator) CleanupForMode(_ context.Context, _ mode.Mode) error {
	s.Pause()
	return nil
}

// IsHealthy is false once the simulation produced a non-finite value or
// holds more devices than it may.
func (s *Simulator) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faulted == nil && len(s.devices) <= s.capacity()
}

// EnableSafeMode halves tick effects, drops devices over the safe-mode cap
// and clears a numeric fault by resetting the environment.
func (s *Simulator) EnableSafeMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safeMode = true
	if s.faulted != nil {
		s.env = room.DefaultEnvironment()
		s.crisis = nil
		s.faulted = nil
	}
	if limit := s.capacity(); len(s.devices) > limit {
		s.log.Warn().Int("dropped", len(s.devices)-limit).Msg("safe mode: dropping devices over capacity")
		s.devices = s.devices[:limit]
	}
	return nil
}

func (s *Simulator) CaptureState(gs *gamestate.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs.Devices = append([]room.Device{}, s.devices...)
	gs.Environment = s.env
}

func (s *Simulator) RestoreState(gs gamestate.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append([]room.Device{}, gs.Devices...)
	s.env = gs.Environment
	s.crisis = nil
	s.faulted = nil
	return nil
}

// interact decides how two nearby devices get along this tick.
func (s *Simulator) interact(a, b *room.Device) room.Interaction {
	friction := (a.Personality.Temper+b.Personality.Temper)/2 +
		a.Personality.Stubbornness*b.Personality.Stubbornness -
		(a.Mood+b.Mood)/4
	goodwill := (a.Personality.Helpfulness+b.Personality.Helpfulness)/2 +
		(a.Personality.Curiosity+b.Personality.Curiosity)/4
	roll := s.rng.Float64()*0.4 - 0.2

	in := room.Interaction{DeviceA: a.ID, DeviceB: b.ID}
	if friction+roll > goodwill {
		in.Kind = room.Conflict
		in.Intensity = clamp(friction-goodwill+0.5+roll, 0.05, 1)
		a.Mood = clamp(a.Mood-0.1*in.Intensity, -1, 1)
		b.Mood = clamp(b.Mood-0.1*in.Intensity, -1, 1)
	} else {
		in.Kind = room.Cooperation
		in.Intensity = clamp(goodwill-friction+0.5-roll, 0.05, 1)
		a.Mood = clamp(a.Mood+0.05*in.Intensity, -1, 1)
		b.Mood = clamp(b.Mood+0.05*in.Intensity, -1, 1)
	}
	return in
}

func (s *Simulator) startCrisis(cause string, severity float64, ids []string) room.Crisis {
	c := room.Crisis{
		ID:         uuid.NewString(),
		Cause:      cause,
		Severity:   severity,
		DeviceIDs:  append([]string(nil), ids...),
		DetectedAt: s.now(),
	}
	s.crisis = &c
	s.log.Info().Str("crisis", c.ID).Float64("severity", severity).Msg("crisis detected")
	return c
}

func (s *Simulator) checkFinite() error {
	for _, v := range []float64{s.env.Tension, s.env.Noise, s.env.Temperature, s.env.Light} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("environment has non-finite value %v", v)
		}
	}
	return nil
}

func (s *Simulator) placedIndexes() []int {
	var idx []int
	for i, d := range s.devices {
		if d.Placed {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s *Simulator) indexOf(id string) int {
	for i, d := range s.devices {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *Simulator) capacity() int {
	if s.safeMode && s.cfg.SafeModeMaxDevices > 0 {
		return s.cfg.SafeModeMaxDevices
	}
	return s.cfg.MaxDevices
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
