package workshop

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/room"
)

type capture struct{ events []events.Event }

func (c *capture) Publish(_ context.Context, ev events.Event) events.Delivery {
	c.events = append(c.events, ev)
	return events.Delivery{}
}

func newTestWorkshop() (*Workshop, *capture) {
	w := New(zerolog.Nop())
	n := 0
	w.newID = func() string {
		n++
		return fmt.Sprintf("dev-%d", n)
	}
	pub := &capture{}
	w.Connect(pub)
	return w, pub
}

func validSpec() DeviceSpec {
	return DeviceSpec{
		Name:        "Thermo",
		Kind:        room.KindThermostat,
		Personality: room.Personality{Helpfulness: 0.7, Temper: 0.2},
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Bob","kind":"lamp","personality":{"temper":0.5}}`, false},
		{"bad json", `{"name":`, true},
		{"unknown kind", `{"name":"Bob","kind":"toaster","personality":{}}`, true},
		{"trait out of range", `{"name":"Bob","kind":"lamp","personality":{"temper":1.5}}`, true},
		{"empty name", `{"name":"","kind":"lamp","personality":{}}`, true},
		{"extra field", `{"name":"Bob","kind":"lamp","personality":{},"wings":2}`, true},
		{"missing personality", `{"name":"Bob","kind":"lamp"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSpec([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var invalid *ErrInvalidSpec
				if !errors.As(err, &invalid) {
					t.Errorf("expected *ErrInvalidSpec, got %T", err)
				}
				return
			}
			if spec.Name != "Bob" || spec.Kind != room.KindLamp || spec.Personality.Temper != 0.5 {
				t.Errorf("unexpected spec %+v", spec)
			}
		})
	}
}

func TestCreateDevicePublishesOnce(t *testing.T) {
	w, pub := newTestWorkshop()

	d, err := w.CreateDevice(context.Background(), validSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.ID != "dev-1" || d.Placed {
		t.Errorf("unexpected device %+v", d)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	created, ok := pub.events[0].(events.DeviceCreatedEvent)
	if !ok || created.Device.ID != d.ID {
		t.Errorf("unexpected event %#v", pub.events[0])
	}
}

func TestCreateDeviceRejectsInvalidSpec(t *testing.T) {
	w, pub := newTestWorkshop()
	spec := validSpec()
	spec.Personality.Curiosity = -1

	if _, err := w.CreateDevice(context.Background(), spec); err == nil {
		t.Fatal("expected validation error")
	}
	if len(pub.events) != 0 {
		t.Error("invalid spec must not publish")
	}
}

func TestPlaceDevice(t *testing.T) {
	w, pub := newTestWorkshop()
	ctx := context.Background()
	a, _ := w.CreateDevice(ctx, validSpec())
	b, _ := w.CreateDevice(ctx, validSpec())

	placed, err := w.PlaceDevice(ctx, a.ID, room.Position{X: 2, Y: 3})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !placed.Placed || placed.Position != (room.Position{X: 2, Y: 3}) {
		t.Errorf("unexpected placement %+v", placed)
	}
	if _, ok := pub.events[len(pub.events)-1].(events.DevicePlacedEvent); !ok {
		t.Error("expected devicePlaced event")
	}

	if _, err := w.PlaceDevice(ctx, b.ID, room.Position{X: 2, Y: 3}); !eris.Is(err, ErrOccupied) {
		t.Errorf("expected ErrOccupied, got %v", err)
	}
	if _, err := w.PlaceDevice(ctx, b.ID, room.Position{X: -1, Y: 0}); !eris.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := w.PlaceDevice(ctx, "ghost", room.Position{}); !eris.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Moving a device frees its old cell.
	if _, err := w.PlaceDevice(ctx, a.ID, room.Position{X: 0, Y: 0}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := w.PlaceDevice(ctx, b.ID, room.Position{X: 2, Y: 3}); err != nil {
		t.Errorf("old cell should be free: %v", err)
	}
}

func TestAdoptAndFreeCell(t *testing.T) {
	w, _ := newTestWorkshop()
	w.Adopt([]room.Device{
		{ID: "x", Placed: true, Position: room.Position{X: 0, Y: 0}},
		{ID: "y"},
	})

	p, ok := w.FreeCell()
	if !ok || p != (room.Position{X: 1, Y: 0}) {
		t.Errorf("FreeCell = %+v, %v", p, ok)
	}
	if _, err := w.PlaceDevice(context.Background(), "y", room.Position{X: 0, Y: 0}); !eris.Is(err, ErrOccupied) {
		t.Errorf("adopted placement should occupy its cell, got %v", err)
	}
}
