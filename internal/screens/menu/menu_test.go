package menu

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/orchestrator/enginetest"
	"github.com/abhisek/smartroom/internal/screen"
	"github.com/abhisek/smartroom/internal/store"
)

var (
	keyEnter = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyDown  = tea.KeyPressMsg{Code: tea.KeyDown}
)

func withStore(t *testing.T, dsn string) func(*orchestrator.Options) {
	t.Helper()
	s, err := store.Open(dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return func(o *orchestrator.Options) { o.Saves = s.SaveRepo() }
}

func TestContinueDisabledWithoutBackend(t *testing.T) {
	e := enginetest.New(t)
	s := New(context.Background(), e)

	if s.menu.Items[0].Label != "Continue" || !s.menu.Items[0].Disabled {
		t.Fatal("expected a disabled Continue entry")
	}
	if s.menu.Items[s.menu.Selected].Label != "Tutorial" {
		t.Errorf("expected Tutorial selected, got %q", s.menu.Items[s.menu.Selected].Label)
	}

	s.Update(keyEnter)
	if e.Mode() != mode.Tutorial {
		t.Errorf("expected TUTORIAL, got %s", e.Mode())
	}
}

func TestScenarioEntry(t *testing.T) {
	e := enginetest.New(t)
	s := New(context.Background(), e)

	s.Update(keyDown)
	s.Update(keyDown)
	if got := s.menu.Items[s.menu.Selected].Label; got != "Scenario: Peacekeeper" {
		t.Fatalf("expected the peacekeeper entry, got %q", got)
	}
	s.Update(keyEnter)

	if e.Mode() != mode.Scenario {
		t.Fatalf("expected SCENARIO, got %s", e.Mode())
	}
	active, ok := e.Collaborators().Scenario.Active()
	if !ok || active.ID != "peacekeeper" {
		t.Errorf("expected peacekeeper active, got %+v", active)
	}
}

func TestContinueLoadsNewestSave(t *testing.T) {
	ctx := context.Background()
	e := enginetest.New(t, withStore(t, "file:menu_continue?mode=memory&cache=shared"))
	if tr := e.TransitionToMode(ctx, mode.FreePlay, mode.Smooth); tr.Failed {
		t.Fatal("enter free play")
	}
	if _, err := e.Save(ctx, "manual"); err != nil {
		t.Fatalf("save: %v", err)
	}
	e.TransitionToMode(ctx, mode.MainMenu, mode.Smooth)

	s := New(ctx, e)
	if s.menu.Items[s.menu.Selected].Label != "Continue" {
		t.Fatalf("expected Continue selected, got %q", s.menu.Items[s.menu.Selected].Label)
	}
	s.Update(keyEnter)

	if e.Mode() != mode.FreePlay {
		t.Errorf("expected FREE_PLAY after continue, got %s", e.Mode())
	}
	if s.status != "Loaded manual." {
		t.Errorf("unexpected status %q", s.status)
	}
}

func TestContinueWithoutSaves(t *testing.T) {
	e := enginetest.New(t, withStore(t, "file:menu_empty?mode=memory&cache=shared"))
	s := New(context.Background(), e)

	s.Update(keyEnter)

	if s.status != "No saves yet." {
		t.Errorf("unexpected status %q", s.status)
	}
	if !strings.Contains(s.View(100, 30), "No saves yet.") {
		t.Error("expected the status in the view")
	}
}

func TestQuit(t *testing.T) {
	e := enginetest.New(t)
	s := New(context.Background(), e)
	s.menu.Selected = len(s.menu.Items) - 1

	_, cmd := s.Update(keyEnter)
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(screen.QuitMsg); !ok {
		t.Errorf("expected QuitMsg, got %T", cmd())
	}
}
