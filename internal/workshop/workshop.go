// Package workshop builds devices from specs and places them in the room.
package workshop

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/room"
)

var (
	ErrOutOfBounds = eris.New("position outside the room")
	ErrOccupied    = eris.New("cell already occupied")
	ErrNotFound    = eris.New("device not built in this workshop")
)

// Workshop is the device creation and placement collaborator.
type Workshop struct {
	mu    sync.Mutex
	built map[string]room.Device
	cells map[room.Position]string
	newID func() string
	pub   events.Publisher
	log   zerolog.Logger
}

// New creates an empty workshop.
func New(log zerolog.Logger) *Workshop {
	return &Workshop{
		built: make(map[string]room.Device),
		cells: make(map[room.Position]string),
		newID: uuid.NewString,
		pub:   events.Discard,
		log:   log.With().Str("component", "workshop").Logger(),
	}
}

func (w *Workshop) Name() string { return "workshop" }

// Connect sets the publisher events are sent through.
func (w *Workshop) Connect(p events.Publisher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pub = p
}

// CreateDevice builds a device from spec and announces it.
func (w *Workshop) CreateDevice(ctx context.Context, spec DeviceSpec) (room.Device, error) {
	if err := spec.Validate(); err != nil {
		return room.Device{}, err
	}
	d := room.Device{
		ID:          w.newID(),
		Name:        spec.Name,
		Kind:        spec.Kind,
		Personality: spec.Personality,
	}

	w.mu.Lock()
	w.built[d.ID] = d
	pub := w.pub
	w.mu.Unlock()

	w.log.Info().Str("device", d.ID).Str("name", d.Name).Str("kind", string(d.Kind)).Msg("device created")
	pub.Publish(ctx, events.DeviceCreatedEvent{Device: d})
	return d, nil
}

// PlaceDevice moves a built device to pos and announces it.
func (w *Workshop) PlaceDevice(ctx context.Context, id string, pos room.Position) (room.Device, error) {
	if !pos.InBounds() {
		return room.Device{}, eris.Wrapf(ErrOutOfBounds, "%d,%d", pos.X, pos.Y)
	}

	w.mu.Lock()
	d, ok := w.built[id]
	if !ok {
		w.mu.Unlock()
		return room.Device{}, eris.Wrapf(ErrNotFound, "device %s", id)
	}
	if owner, taken := w.cells[pos]; taken && owner != id {
		w.mu.Unlock()
		return room.Device{}, eris.Wrapf(ErrOccupied, "%d,%d", pos.X, pos.Y)
	}
	if d.Placed {
		delete(w.cells, d.Position)
	}
	d.Position = pos
	d.Placed = true
	w.built[id] = d
	w.cells[pos] = id
	pub := w.pub
	w.mu.Unlock()

	pub.Publish(ctx, events.DevicePlacedEvent{Device: d})
	return d, nil
}

// Adopt registers devices that already exist, e.g. after a load, so they
// can be placed again.
func (w *Workshop) Adopt(devices []room.Device) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.built = make(map[string]room.Device, len(devices))
	w.cells = make(map[room.Position]string)
	for _, d := range devices {
		w.built[d.ID] = d
		if d.Placed {
			w.cells[d.Position] = d.ID
		}
	}
}

// FreeCell returns the first unoccupied cell in row-major order.
func (w *Workshop) FreeCell() (room.Position, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for y := 0; y < room.Height; y++ {
		for x := 0; x < room.Width; x++ {
			p := room.Position{X: x, Y: y}
			if _, taken := w.cells[p]; !taken {
				return p, true
			}
		}
	}
	return room.Position{}, false
}
