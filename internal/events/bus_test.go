package events

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/smartroom/internal/recovery"
	"github.com/abhisek/smartroom/internal/room"
)

type recordingReporter struct {
	errs []*recovery.IntegrationError
}

func (r *recordingReporter) Handle(err *recovery.IntegrationError) recovery.Result {
	r.errs = append(r.errs, err)
	return recovery.Result{Handled: true}
}

func TestPublishOrderAndSkip(t *testing.T) {
	var calls []string
	record := func(name string) func(context.Context, DeviceCreatedEvent) error {
		return func(_ context.Context, ev DeviceCreatedEvent) error {
			calls = append(calls, name+":"+ev.Device.ID)
			return nil
		}
	}

	bus := NewBus(Table{
		DeviceCreated: {
			On("simulation.AddDevice", true, recovery.SimulationError, record("sim")),
			On("renderer.AddDevice", false, recovery.RenderingError, record("renderer")),
			On("audio.Play", true, recovery.AudioError, record("audio")),
			On[DeviceCreatedEvent]("hud.Notify", true, "", nil),
		},
	}, nil, zerolog.Nop())

	d := bus.Publish(context.Background(), DeviceCreatedEvent{Device: room.Device{ID: "d1"}})

	assert.Equal(t, []string{"sim:d1", "audio:d1"}, calls)
	assert.Equal(t, Delivery{Delivered: 2, Skipped: 2}, d)
	assert.Equal(t, []string{"simulation.AddDevice", "renderer.AddDevice", "audio.Play", "hud.Notify"}, bus.Subscribers(DeviceCreated))
}

func TestFailingSubscriberDoesNotStopFanOut(t *testing.T) {
	rep := &recordingReporter{}
	reached := false

	bus := NewBus(Table{
		StoryMoment: {
			On("audio.Play", true, recovery.AudioError, func(context.Context, StoryMomentEvent) error {
				return errors.New("device busy")
			}),
			On("renderer.Flash", true, recovery.RenderingError, func(context.Context, StoryMomentEvent) error {
				panic("nil texture")
			}),
			On("hud.Notify", true, "", func(context.Context, StoryMomentEvent) error {
				reached = true
				return nil
			}),
		},
	}, rep, zerolog.Nop())

	d := bus.Publish(context.Background(), StoryMomentEvent{Moment: room.StoryMoment{Text: "hi"}})

	assert.True(t, reached)
	assert.Equal(t, 2, d.Failed)
	assert.Equal(t, 1, d.Delivered)
	if assert.Len(t, rep.errs, 2) {
		assert.Equal(t, recovery.AudioError, rep.errs[0].Kind)
		assert.Equal(t, "audio.Play", rep.errs[0].Source)
		assert.Equal(t, recovery.RenderingError, rep.errs[1].Kind)
	}
}

func TestUnroutedEventIsNoop(t *testing.T) {
	bus := NewBus(Table{}, nil, zerolog.Nop())
	d := bus.Publish(context.Background(), TutorialCompleteEvent{})
	assert.Equal(t, Delivery{}, d)
	assert.Equal(t, Delivery{}, bus.Publish(context.Background(), nil))
}

func TestWrongPayloadTypeIsReported(t *testing.T) {
	rep := &recordingReporter{}
	bus := NewBus(Table{
		CrisisDetected: {
			On("hud.ShowTutorial", true, "", func(context.Context, TutorialStepEvent) error { return nil }),
		},
	}, rep, zerolog.Nop())

	d := bus.Publish(context.Background(), CrisisDetectedEvent{})
	assert.Equal(t, 1, d.Failed)
	if assert.Len(t, rep.errs, 1) {
		assert.Equal(t, recovery.GlobalError, rep.errs[0].Kind)
	}
}
