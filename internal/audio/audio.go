// Package audio chooses which sound cues and music play. Producing the
// actual waveform is left to a Sink.
package audio

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/room"
)

// Cue is a short sound effect.
type Cue string

const (
	CueDeviceCreated  Cue = "device-created"
	CueDevicePlaced   Cue = "device-placed"
	CueCrisisAlarm    Cue = "crisis-alarm"
	CueCrisisResolved Cue = "crisis-resolved"
	CueAchievement    Cue = "achievement"
	CueTutorialStep   Cue = "tutorial-step"
	CueStoryGood      Cue = "story-good"
	CueStoryBad       Cue = "story-bad"
)

// Caption returns the text shown instead of, or alongside, the cue.
func (c Cue) Caption() string {
	switch c {
	case CueDeviceCreated:
		return "[whirr of a new device]"
	case CueDevicePlaced:
		return "[soft thunk]"
	case CueCrisisAlarm:
		return "[alarm blaring]"
	case CueCrisisResolved:
		return "[calm chime]"
	case CueAchievement:
		return "[fanfare]"
	case CueTutorialStep:
		return "[gentle ping]"
	case CueStoryGood:
		return "[happy beeps]"
	case CueStoryBad:
		return "[angry buzzing]"
	default:
		return "[sound]"
	}
}

// Track is a music loop.
type Track string

const (
	TrackNone   Track = ""
	TrackMenu   Track = "menu"
	TrackCalm   Track = "calm"
	TrackTense  Track = "tense"
	TrackStudio Track = "studio"
)

func trackFor(m mode.Mode) Track {
	switch m {
	case mode.MainMenu:
		return TrackMenu
	case mode.CrisisManagement:
		return TrackTense
	case mode.DeviceCreation, mode.RoomDesign:
		return TrackStudio
	default:
		return TrackCalm
	}
}

// Sink renders cues and music. Errors from it surface as audio faults.
type Sink interface {
	PlayCue(c Cue, volume float64) error
	PlayTrack(t Track, volume float64) error
}

// NopSink accepts everything and plays nothing.
type NopSink struct{}

func (NopSink) PlayCue(Cue, float64) error     { return nil }
func (NopSink) PlayTrack(Track, float64) error { return nil }

// failureLimit is how many consecutive sink failures make audio unhealthy.
const failureLimit = 3

// maxCaptions bounds the caption history.
const maxCaptions = 5

// Player is the audio collaborator.
type Player struct {
	mu       sync.Mutex
	sink     Sink
	volume   float64
	muted    bool
	safeMode bool
	captions bool
	track    Track
	history  []Cue
	caption  []string
	failures int

	log zerolog.Logger
}

// NewPlayer creates a player writing to sink. A nil sink plays nothing.
func NewPlayer(sink Sink, log zerolog.Logger) *Player {
	if sink == nil {
		sink = NopSink{}
	}
	return &Player{
		sink:   sink,
		volume: 0.8,
		log:    log.With().Str("component", "audio").Logger(),
	}
}

func (p *Player) Name() string { return "audio" }

// Play plays cue unless audio is muted or in safe mode.
func (p *Player) Play(c Cue) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, c)
	if p.captions {
		p.caption = append(p.caption, c.Caption())
		if len(p.caption) > maxCaptions {
			p.caption = p.caption[len(p.caption)-maxCaptions:]
		}
	}
	if p.silent() {
		return nil
	}
	if err := p.sink.PlayCue(c, p.volume); err != nil {
		p.failures++
		return eris.Wrapf(err, "play cue %s", c)
	}
	p.failures = 0
	return nil
}

// History returns every cue requested, played or not.
func (p *Player) History() []Cue {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Cue(nil), p.history...)
}

// Captions returns recent captions when captions are enabled.
func (p *Player) Captions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.caption...)
}

// Track returns the current music track.
func (p *Player) Track() Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// SetVolume sets the volume, clamped to [0, 1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(v, 0), 1)
}

// ToggleMute flips mute and returns the new state.
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = !p.muted
	return p.muted
}

// Muted reports whether sound is off, by choice or by safe mode.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.silent()
}

func (p *Player) InitForMode(_ context.Context, m mode.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track = trackFor(m)
	if p.silent() {
		return nil
	}
	if err := p.sink.PlayTrack(p.track, p.volume); err != nil {
		p.failures++
		return eris.Wrapf(err, "start track %s", p.track)
	}
	return nil
}

func (p *Player) CleanupForMode(_ context.Context, _ mode.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track = TrackNone
	return nil
}

func (p *Player) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures < failureLimit
}

// EnableSafeMode silences audio for the rest of the session.
func (p *Player) EnableSafeMode() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.safeMode = true
	p.failures = 0
	return nil
}

// Pause and Resume follow window visibility: a hidden window is silent.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track = TrackNone
}

func (p *Player) Resume() {}

func (p *Player) ApplyAccessibilitySettings(s room.AccessibilitySettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captions = s.Captions
	if !s.Captions {
		p.caption = nil
	}
}

func (p *Player) CaptureState(gs *gamestate.GameState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	gs.Settings.Audio = gamestate.AudioSettings{Volume: p.volume, Muted: p.muted}
}

func (p *Player) RestoreState(gs gamestate.GameState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(gs.Settings.Audio.Volume, 0), 1)
	p.muted = gs.Settings.Audio.Muted
	return nil
}

func (p *Player) silent() bool {
	return p.muted || p.safeMode || p.volume == 0
}
