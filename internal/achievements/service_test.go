package achievements

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/events"
	"github.com/abhisek/smartroom/internal/gamestate"
)

type capture struct{ events []events.Event }

func (c *capture) Publish(_ context.Context, ev events.Event) events.Delivery {
	c.events = append(c.events, ev)
	return events.Delivery{}
}

func newTestService() (*Service, *capture) {
	svc := NewService(zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	pub := &capture{}
	svc.Connect(pub)
	return svc, pub
}

func TestUnlockOnce(t *testing.T) {
	svc, pub := newTestService()
	ctx := context.Background()

	if !svc.Unlock(ctx, Graduate) {
		t.Fatal("first unlock should succeed")
	}
	if svc.Unlock(ctx, Graduate) {
		t.Error("second unlock should be a no-op")
	}
	if len(pub.events) != 1 {
		t.Errorf("expected 1 event, got %d", len(pub.events))
	}
	if !svc.Has(Graduate) {
		t.Error("expected Graduate unlocked")
	}
}

func TestCountedAchievements(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < decoratorPlacements-1; i++ {
		svc.DevicePlaced(ctx)
	}
	if svc.Has(Decorator) {
		t.Fatal("Decorator unlocked too early")
	}
	svc.DevicePlaced(ctx)
	if !svc.Has(Decorator) {
		t.Error("expected Decorator after enough placements")
	}

	svc.CrisisResolved(ctx)
	if !svc.Has(Peacemaker) || svc.Has(CrisisVeteran) {
		t.Error("first resolution unlocks Peacemaker only")
	}
	svc.CrisisResolved(ctx)
	svc.CrisisResolved(ctx)
	if !svc.Has(CrisisVeteran) {
		t.Error("expected CrisisVeteran after three resolutions")
	}
}

func TestCaptureRestore(t *testing.T) {
	svc, _ := newTestService()
	svc.DeviceCreated(context.Background())

	var gs gamestate.GameState
	svc.CaptureState(&gs)
	if len(gs.Achievements) != 1 || gs.Achievements[0].ID != string(FirstDevice) {
		t.Fatalf("captured %+v", gs.Achievements)
	}

	other, _ := newTestService()
	if err := other.RestoreState(gs); err != nil {
		t.Fatal(err)
	}
	if !other.Has(FirstDevice) {
		t.Error("restore should carry unlocked achievements")
	}
}

func TestDisplayNames(t *testing.T) {
	for _, id := range AllIDs() {
		if id.DisplayName() == string(id) {
			t.Errorf("%s has no display name", id)
		}
		if id.Icon() == "✦" {
			t.Errorf("%s has no icon", id)
		}
	}
}
