package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/recovery"
	"github.com/abhisek/smartroom/internal/room"
)

func TestResizeSignal(t *testing.T) {
	e := newTestEngine(t)

	e.HandleSignal(context.Background(), Signal{Kind: SignalResize, Width: 100, Height: 40})

	w, h := e.Collaborators().HUD.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 40, h)
}

func TestVisibilitySignal(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	sim := e.Collaborators().Simulation

	e.HandleSignal(ctx, Signal{Kind: SignalVisibility, Visible: true})
	assert.True(t, sim.Paused(), "menu stays frozen")

	require.False(t, e.TransitionToMode(ctx, mode.FreePlay, mode.Smooth).Failed)
	require.False(t, sim.Paused())

	e.HandleSignal(ctx, Signal{Kind: SignalVisibility, Visible: false})
	assert.True(t, sim.Paused())

	e.HandleSignal(ctx, Signal{Kind: SignalVisibility, Visible: true})
	assert.False(t, sim.Paused())
}

func TestFocusKeepsFaultHalt(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	sim := e.Collaborators().Simulation
	require.False(t, e.TransitionToMode(ctx, mode.FreePlay, mode.Smooth).Failed)

	e.Bus().Publish(ctx, events.DevicePlacedEvent{Device: room.Device{ID: "ghost"}})
	require.True(t, sim.Halted())

	e.HandleSignal(ctx, Signal{Kind: SignalVisibility, Visible: false})
	e.HandleSignal(ctx, Signal{Kind: SignalVisibility, Visible: true})
	assert.True(t, sim.Paused(), "focus must not lift a fault halt")
	assert.True(t, sim.Halted())
}

func TestUnloadSignalSavesAndShutsDown(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	e := newTestEngine(t, func(o *Options) { o.Saves = repo })
	require.False(t, e.TransitionToMode(ctx, mode.FreePlay, mode.Smooth).Failed)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	e.HandleSignal(cancelled, Signal{Kind: SignalUnload})

	assert.Equal(t, []string{"autosave"}, repo.labels())
	select {
	case <-e.Done():
	default:
		t.Fatal("engine still running after unload")
	}
	assert.True(t, e.TransitionToMode(ctx, mode.MainMenu, mode.Smooth).Skipped)
}

func TestFaultSignals(t *testing.T) {
	e := newTestEngine(t)

	e.HandleSignal(context.Background(), Signal{Kind: SignalGlobalFault, Err: errors.New("segfault in shader"), Source: "renderer"})
	e.HandleSignal(context.Background(), Signal{Kind: SignalUnhandledRejection, Source: "loader"})

	assert.Equal(t, 1, e.Registry().Count(recovery.GlobalError))
	assert.Equal(t, 1, e.Registry().Count(recovery.UnhandledPromiseRejection))
	assert.False(t, e.SafeMode().IsEnabled())
}

func TestSignalKindString(t *testing.T) {
	assert.Equal(t, "resize", SignalResize.String())
	assert.Equal(t, "unhandled-rejection", SignalUnhandledRejection.String())
	assert.Equal(t, "unknown", SignalKind(99).String())
}
