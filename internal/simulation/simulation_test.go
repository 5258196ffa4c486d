package simulation

import (
	"context"
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/room"
)

type capture struct{ events []events.Event }

func (c *capture) Publish(_ context.Context, ev events.Event) events.Delivery {
	c.events = append(c.events, ev)
	return events.Delivery{Delivered: 1}
}

func (c *capture) names() []events.Name {
	var n []events.Name
	for _, ev := range c.events {
		n = append(n, ev.EventName())
	}
	return n
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	return cfg
}

func grumpy(id string, x int) room.Device {
	return room.Device{
		ID: id, Name: id, Kind: room.KindSpeaker,
		Personality: room.Personality{Temper: 1, Stubbornness: 1},
		Position:    room.Position{X: x, Y: 0}, Placed: true, Mood: -1,
	}
}

func friendly(id string, x int) room.Device {
	return room.Device{
		ID: id, Name: id, Kind: room.KindLamp,
		Personality: room.Personality{Helpfulness: 1, Curiosity: 1},
		Position:    room.Position{X: x, Y: 0}, Placed: true, Mood: 1,
	}
}

func TestTickPausedDoesNothing(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	pub := &capture{}
	sim.Connect(pub)
	require.NoError(t, sim.AddDevice(grumpy("a", 0)))
	require.NoError(t, sim.AddDevice(grumpy("b", 1)))

	report, err := sim.Tick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Interactions)
	assert.Empty(t, pub.events)
}

func TestConflictBuildsTensionUntilCrisis(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	pub := &capture{}
	sim.Connect(pub)
	require.NoError(t, sim.AddDevice(grumpy("a", 0)))
	require.NoError(t, sim.AddDevice(grumpy("b", 1)))
	sim.Resume()

	var crisis *room.Crisis
	for i := 0; i < 50 && crisis == nil; i++ {
		report, err := sim.Tick(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, report.Interactions)
		assert.Equal(t, room.Conflict, report.Interactions[0].Kind)
		crisis = report.Crisis
	}

	require.NotNil(t, crisis, "expected a crisis from constant conflict")
	assert.GreaterOrEqual(t, crisis.Severity, testConfig().CrisisThreshold)
	assert.ElementsMatch(t, []string{"a", "b"}, crisis.DeviceIDs)
	assert.Contains(t, pub.names(), events.CrisisDetected)

	active, ok := sim.ActiveCrisis()
	require.True(t, ok)
	assert.Equal(t, crisis.ID, active.ID)
}

func TestCooperationLowersTension(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	require.NoError(t, sim.AddDevice(friendly("a", 0)))
	require.NoError(t, sim.AddDevice(friendly("b", 1)))
	require.NoError(t, sim.RestoreState(gamestate.GameState{
		Devices:     sim.Devices(),
		Environment: room.Environment{Tension: 0.5},
	}))
	sim.Resume()

	report, err := sim.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Interactions, 1)
	assert.Equal(t, room.Cooperation, report.Interactions[0].Kind)
	assert.Less(t, report.Tension, 0.5)
}

func TestOutOfRangeDevicesIgnoreEachOther(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	require.NoError(t, sim.AddDevice(grumpy("a", 0)))
	require.NoError(t, sim.AddDevice(grumpy("b", 7)))
	sim.Resume()

	report, err := sim.Tick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Interactions)
}

func TestRaiseAndResolveCrisis(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	pub := &capture{}
	sim.Connect(pub)

	_, err := sim.ResolveCrisis(context.Background())
	assert.True(t, eris.Is(err, ErrNoActiveCrisis))

	c := sim.RaiseCrisis(context.Background(), "fridge revolt", 0.8)
	again := sim.RaiseCrisis(context.Background(), "second", 0.9)
	assert.Equal(t, c.ID, again.ID, "only one crisis at a time")

	resolved, err := sim.ResolveCrisis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.ID, resolved.ID)
	assert.InDelta(t, 0.24, sim.Environment().Tension, 1e-9)
	assert.Equal(t, []events.Name{events.CrisisDetected, events.CrisisResolved}, pub.names())
}

func TestNonFiniteEnvironmentFaults(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	require.NoError(t, sim.AddDevice(grumpy("a", 0)))
	require.NoError(t, sim.AddDevice(grumpy("b", 1)))
	require.NoError(t, sim.RestoreState(gamestate.GameState{
		Devices:     sim.Devices(),
		Environment: room.Environment{Tension: math.NaN()},
	}))
	sim.Resume()

	_, err := sim.Tick(context.Background())
	require.Error(t, err)
	assert.False(t, sim.IsHealthy())

	require.NoError(t, sim.EnableSafeMode())
	assert.True(t, sim.IsHealthy())
	_, err = sim.Tick(context.Background())
	assert.NoError(t, err)
}

func TestCapacityAndSafeMode(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDevices = 3
	cfg.SafeModeMaxDevices = 1
	sim := New(cfg, zerolog.Nop())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, sim.AddDevice(room.Device{ID: id}))
	}
	assert.True(t, sim.Full())
	assert.True(t, eris.Is(sim.AddDevice(room.Device{ID: "d"}), ErrRoomFull))
	assert.True(t, eris.Is(sim.AddDevice(room.Device{ID: "a"}), ErrDuplicateDevice))

	require.NoError(t, sim.EnableSafeMode())
	assert.Len(t, sim.Devices(), 1)
	assert.True(t, sim.IsHealthy())
}

func TestModeHooksPauseAndResume(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, sim.InitForMode(ctx, mode.FreePlay))
	assert.False(t, sim.Paused())
	require.NoError(t, sim.CleanupForMode(ctx, mode.FreePlay))
	assert.True(t, sim.Paused())
	require.NoError(t, sim.InitForMode(ctx, mode.RoomDesign))
	assert.True(t, sim.Paused())
}

func TestHaltOutlastsResume(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, sim.InitForMode(ctx, mode.FreePlay))

	sim.Halt()
	sim.Resume()
	assert.True(t, sim.Paused())
	assert.True(t, sim.Halted())

	require.NoError(t, sim.InitForMode(ctx, mode.FreePlay))
	assert.False(t, sim.Halted())
	assert.False(t, sim.Paused())
}

func TestPlaceDevice(t *testing.T) {
	sim := New(testConfig(), zerolog.Nop())
	require.NoError(t, sim.AddDevice(room.Device{ID: "a"}))

	require.NoError(t, sim.PlaceDevice(room.Device{ID: "a", Position: room.Position{X: 3, Y: 2}}))
	d, ok := sim.Device("a")
	require.True(t, ok)
	assert.True(t, d.Placed)
	assert.Equal(t, room.Position{X: 3, Y: 2}, d.Position)

	assert.True(t, eris.Is(sim.PlaceDevice(room.Device{ID: "zz"}), ErrUnknownDevice))
}
