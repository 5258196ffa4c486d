package events

import (
	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/room"
)

// Name identifies a domain event.
type Name string

const (
	DeviceCreated        Name = "deviceCreated"
	DevicePlaced         Name = "devicePlaced"
	InteractionDetected  Name = "interactionDetected"
	CrisisDetected       Name = "crisisDetected"
	CrisisResolved       Name = "crisisResolved"
	StoryMoment          Name = "storyMoment"
	TutorialStep         Name = "tutorialStep"
	TutorialComplete     Name = "tutorialComplete"
	ScenarioComplete     Name = "scenarioComplete"
	AccessibilityChanged Name = "accessibilityChanged"
	AchievementUnlocked  Name = "achievementUnlocked"
)

// Event is a payload published to the bus.
type Event interface {
	EventName() Name
}

type DeviceCreatedEvent struct{ Device room.Device }

type DevicePlacedEvent struct{ Device room.Device }

type InteractionDetectedEvent struct{ Interaction room.Interaction }

type CrisisDetectedEvent struct{ Crisis room.Crisis }

type CrisisResolvedEvent struct {
	Crisis   room.Crisis
	Resolved bool
}

type StoryMomentEvent struct{ Moment room.StoryMoment }

type TutorialStepEvent struct {
	Step  int
	Total int
	Title string
	Hint  string
}

type TutorialCompleteEvent struct{}

type ScenarioCompleteEvent struct {
	ScenarioID string
	Title      string
}

type AccessibilityChangedEvent struct{ Settings room.AccessibilitySettings }

type AchievementUnlockedEvent struct{ Achievement gamestate.Achievement }

func (DeviceCreatedEvent) EventName() Name        { return DeviceCreated }
func (DevicePlacedEvent) EventName() Name         { return DevicePlaced }
func (InteractionDetectedEvent) EventName() Name  { return InteractionDetected }
func (CrisisDetectedEvent) EventName() Name       { return CrisisDetected }
func (CrisisResolvedEvent) EventName() Name       { return CrisisResolved }
func (StoryMomentEvent) EventName() Name          { return StoryMoment }
func (TutorialStepEvent) EventName() Name         { return TutorialStep }
func (TutorialCompleteEvent) EventName() Name     { return TutorialComplete }
func (ScenarioCompleteEvent) EventName() Name     { return ScenarioComplete }
func (AccessibilityChangedEvent) EventName() Name { return AccessibilityChanged }
func (AchievementUnlockedEvent) EventName() Name  { return AchievementUnlocked }
