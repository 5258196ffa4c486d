// Package gamestate defines the serializable projection of a session used
// for save and restore.
package gamestate

import (
	"reflect"
	"sync"
	"time"

	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/room"
)

// TutorialProgress records how far the player is through the tutorial.
type TutorialProgress struct {
	Step      int  `json:"step"`
	Completed bool `json:"completed"`
}

// ScenarioProgress records the active scenario and finished ones.
type ScenarioProgress struct {
	ActiveID  string         `json:"active_id,omitempty"`
	Counters  map[string]int `json:"counters,omitempty"`
	Completed []string       `json:"completed,omitempty"`
}

// Achievement is an unlocked achievement.
type Achievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AudioSettings are the player's sound preferences.
type AudioSettings struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// Settings are player preferences that travel with a save.
type Settings struct {
	Accessibility room.AccessibilitySettings `json:"accessibility"`
	Audio         AudioSettings              `json:"audio"`
}

// GameState is the snapshot of a session.
type GameState struct {
	Mode             mode.Mode        `json:"mode"`
	Devices          []room.Device    `json:"devices"`
	Environment      room.Environment `json:"environment"`
	TutorialProgress TutorialProgress `json:"tutorial_progress"`
	ScenarioProgress ScenarioProgress `json:"scenario_progress"`
	Achievements     []Achievement    `json:"achievements"`
	Settings         Settings         `json:"settings"`
	Timestamp        time.Time        `json:"timestamp"`
}

// New returns the state of a fresh session.
func New(now time.Time) GameState {
	return GameState{
		Mode:         mode.MainMenu,
		Devices:      []room.Device{},
		Environment:  room.DefaultEnvironment(),
		Achievements: []Achievement{},
		Settings: Settings{
			Accessibility: room.DefaultAccessibility(),
			Audio:         AudioSettings{Volume: 0.8},
		},
		Timestamp: now,
	}
}

// EqualIgnoringTimestamp reports whether a and b match in every field but
// Timestamp. Nil and empty slices are treated alike.
func EqualIgnoringTimestamp(a, b GameState) bool {
	a.Timestamp, b.Timestamp = time.Time{}, time.Time{}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(s GameState) GameState {
	if len(s.Devices) == 0 {
		s.Devices = nil
	}
	if len(s.Achievements) == 0 {
		s.Achievements = nil
	}
	if len(s.ScenarioProgress.Counters) == 0 {
		s.ScenarioProgress.Counters = nil
	}
	if len(s.ScenarioProgress.Completed) == 0 {
		s.ScenarioProgress.Completed = nil
	}
	if s.Achievements != nil {
		achievements := make([]Achievement, len(s.Achievements))
		for i, a := range s.Achievements {
			a.UnlockedAt = a.UnlockedAt.UTC()
			achievements[i] = a
		}
		s.Achievements = achievements
	}
	return s
}

// Clock hands out strictly increasing timestamps, even when the wall clock
// stalls or steps backwards.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewClock creates a Clock reading from now. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next returns a timestamp strictly after every previous one.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// Observe moves the clock forward to at least t, so timestamps handed out
// after a load still increase past the loaded one.
func (c *Clock) Observe(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.last) {
		c.last = t.UTC()
	}
}
