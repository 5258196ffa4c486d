// Package achievements unlocks achievements from game events.
package achievements

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
)

// Thresholds for counted achievements.
const (
	decoratorPlacements = 5
	veteranCrises       = 3
	storytellerMoments  = 10
)

// Service tracks progress towards achievements.
type Service struct {
	mu       sync.Mutex
	unlocked []gamestate.Achievement
	placed   int
	resolved int
	stories  int
	now      func() time.Time

	pub events.Publisher
	log zerolog.Logger
}

// NewService creates a service with nothing unlocked.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		now: time.Now,
		pub: events.Discard,
		log: log.With().Str("component", "achievements").Logger(),
	}
}

func (s *Service) Name() string { return "achievements" }

// Connect sets the publisher events are sent through.
func (s *Service) Connect(p events.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pub = p
}

// Unlocked returns the unlocked achievements in unlock order.
func (s *Service) Unlocked() []gamestate.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.unlocked)
}

// Has reports whether id is unlocked.
func (s *Service) Has(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.has(id)
}

// Unlock unlocks id once. Reports whether this call unlocked it.
func (s *Service) Unlock(ctx context.Context, id ID) bool {
	s.mu.Lock()
	if s.has(id) {
		s.mu.Unlock()
		return false
	}
	a := gamestate.Achievement{ID: string(id), UnlockedAt: s.now().UTC()}
	s.unlocked = append(s.unlocked, a)
	pub := s.pub
	s.mu.Unlock()

	s.log.Info().Str("achievement", string(id)).Msg("achievement unlocked")
	pub.Publish(ctx, events.AchievementUnlockedEvent{Achievement: a})
	return true
}

// DeviceCreated unlocks the first-device achievement.
func (s *Service) DeviceCreated(ctx context.Context) {
	s.Unlock(ctx, FirstDevice)
}

// DevicePlaced counts placements towards Decorator.
func (s *Service) DevicePlaced(ctx context.Context) {
	if s.bump(&s.placed) >= decoratorPlacements {
		s.Unlock(ctx, Decorator)
	}
}

// CrisisResolved unlocks Peacemaker, then CrisisVeteran after a few more.
func (s *Service) CrisisResolved(ctx context.Context) {
	n := s.bump(&s.resolved)
	s.Unlock(ctx, Peacemaker)
	if n >= veteranCrises {
		s.Unlock(ctx, CrisisVeteran)
	}
}

// StoryMoment counts story moments towards Storyteller.
func (s *Service) StoryMoment(ctx context.Context) {
	if s.bump(&s.stories) >= storytellerMoments {
		s.Unlock(ctx, Storyteller)
	}
}

func (s *Service) CaptureState(gs *gamestate.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs.Achievements = slices.Clone(s.unlocked)
	if gs.Achievements == nil {
		gs.Achievements = []gamestate.Achievement{}
	}
}

func (s *Service) RestoreState(gs gamestate.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = slices.Clone(gs.Achievements)
	return nil
}

func (s *Service) bump(counter *int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter++
	return *counter
}

func (s *Service) has(id ID) bool {
	for _, a := range s.unlocked {
		if a.ID == string(id) {
			return true
		}
	}
	return false
}
