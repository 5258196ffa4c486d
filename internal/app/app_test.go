package app

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/smartroom/internal/hud"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/orchestrator/enginetest"
	"github.com/abhisek/smartroom/internal/screen"
	"github.com/abhisek/smartroom/internal/screens/builder"
	"github.com/abhisek/smartroom/internal/screens/menu"
	"github.com/abhisek/smartroom/internal/screens/roomview"
	"github.com/abhisek/smartroom/internal/store"
)

var (
	keyEsc   = tea.KeyPressMsg{Code: tea.KeyEscape}
	keyCtrlC = tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	keyCtrlS = tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
)

func key(s string) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: []rune(s)[0], Text: s}
}

func newTestApp(t *testing.T, mutate ...func(*orchestrator.Options)) (AppModel, *orchestrator.Engine) {
	t.Helper()
	e := enginetest.New(t, mutate...)
	m := newAppModel(context.Background(), Options{Engine: e, CrisisThreshold: 0.7})
	return m, e
}

func send(m AppModel, msgs ...tea.Msg) (AppModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var model tea.Model
		model, cmd = m.Update(msg)
		m = model.(AppModel)
	}
	return m, cmd
}

func TestStartsOnMenu(t *testing.T) {
	m, _ := newTestApp(t)
	if _, ok := m.router.Active().(*menu.MenuScreen); !ok {
		t.Fatalf("expected the menu screen, got %T", m.router.Active())
	}
}

func TestModeKeysSwapScreens(t *testing.T) {
	m, e := newTestApp(t)

	m, _ = send(m, tea.KeyPressMsg{Code: tea.KeyF3})
	if e.Mode() != mode.FreePlay {
		t.Fatalf("expected FREE_PLAY, got %s", e.Mode())
	}
	if _, ok := m.router.Active().(*roomview.RoomScreen); !ok {
		t.Errorf("expected the room screen, got %T", m.router.Active())
	}

	m, _ = send(m, key("4"))
	if _, ok := m.router.Active().(*builder.Screen); !ok {
		t.Fatalf("expected the workshop, got %T", m.router.Active())
	}

	// The workshop takes text, so digits are typed, not mode switches.
	m, _ = send(m, key("6"))
	if e.Mode() != mode.DeviceCreation {
		t.Errorf("digit switched mode while typing: %s", e.Mode())
	}
	if m.router.Depth() != 1 {
		t.Errorf("expected a single screen, got %d", m.router.Depth())
	}
}

func TestEscGoesBack(t *testing.T) {
	m, e := newTestApp(t)
	m, _ = send(m, key("5"))
	if e.Mode() != mode.RoomDesign {
		t.Fatalf("expected ROOM_DESIGN, got %s", e.Mode())
	}

	m, _ = send(m, keyEsc)
	if e.Mode() != mode.FreePlay {
		t.Fatalf("expected FREE_PLAY, got %s", e.Mode())
	}

	m, _ = send(m, keyEsc)
	if e.Mode() != mode.MainMenu {
		t.Errorf("expected MAIN_MENU, got %s", e.Mode())
	}
	if _, ok := m.router.Active().(*menu.MenuScreen); !ok {
		t.Errorf("expected the menu screen, got %T", m.router.Active())
	}
}

func TestCrisisFollowsEngine(t *testing.T) {
	ctx := context.Background()
	m, e := newTestApp(t)
	m, _ = send(m, key("3"))

	e.Collaborators().Simulation.RaiseCrisis(ctx, "feud", 0.9)
	m, _ = send(m, tickMsg(time.Now()))
	if m.router.Active().Title() != "Crisis!" {
		t.Fatalf("expected the crisis screen, got %q", m.router.Active().Title())
	}

	m, _ = send(m, keyEsc)
	if e.Mode() != mode.FreePlay {
		t.Errorf("expected esc to resolve the crisis, got %s", e.Mode())
	}
	if m.router.Active().Title() != "Free Play" {
		t.Errorf("expected free play after resolving, got %q", m.router.Active().Title())
	}
}

func TestHelpToggle(t *testing.T) {
	m, e := newTestApp(t)
	h := e.Collaborators().HUD

	m, _ = send(m, key("?"))
	if h.Panel() != hud.PanelHelp {
		t.Fatalf("expected help, got %q", h.Panel())
	}
	send(m, keyEsc)
	if h.Panel() != hud.PanelMenu {
		t.Errorf("expected the menu panel back, got %q", h.Panel())
	}
}

func TestResizeReachesHUD(t *testing.T) {
	m, e := newTestApp(t)
	m, _ = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	w, h := e.Collaborators().HUD.Size()
	if w != 120 || h != 40 {
		t.Errorf("expected 120x40, got %dx%d", w, h)
	}
	if m.width != 120 || m.height != 40 {
		t.Errorf("model kept %dx%d", m.width, m.height)
	}
}

func TestBlurPausesRoom(t *testing.T) {
	m, e := newTestApp(t)
	m, _ = send(m, key("3"))
	sim := e.Collaborators().Simulation

	m, _ = send(m, tea.BlurMsg{})
	if !sim.Paused() {
		t.Error("expected the room paused on blur")
	}
	send(m, tea.FocusMsg{})
	if sim.Paused() {
		t.Error("expected the room running on focus")
	}
}

func TestSaveKey(t *testing.T) {
	s, err := store.Open("file:app_save_key?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	m, e := newTestApp(t, func(o *orchestrator.Options) { o.Saves = s.SaveRepo() })

	send(m, keyCtrlS)

	saves, err := s.SaveRepo().List(context.Background())
	if err != nil || len(saves) != 1 {
		t.Fatalf("expected one save, got %d (%v)", len(saves), err)
	}
	if saves[0].Label != "manual" {
		t.Errorf("expected a manual save, got %q", saves[0].Label)
	}
	if e.SystemHealth().LastSaveTime.IsZero() {
		t.Error("expected the last save time set")
	}
}

func TestQuitAutosavesAndStops(t *testing.T) {
	s, err := store.Open("file:app_quit?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	m, e := newTestApp(t, func(o *orchestrator.Options) { o.Saves = s.SaveRepo() })

	_, cmd := send(m, keyCtrlC)
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", cmd())
	}
	select {
	case <-e.Done():
	default:
		t.Error("engine still running after quit")
	}

	saves, _ := s.SaveRepo().List(context.Background())
	if len(saves) != 1 || saves[0].Label != "autosave" {
		t.Errorf("expected one autosave, got %+v", saves)
	}
}

func TestQuitFromMenu(t *testing.T) {
	m, e := newTestApp(t)
	_, cmd := send(m, screen.QuitMsg{})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	select {
	case <-e.Done():
	default:
		t.Error("engine still running after quit")
	}
}
