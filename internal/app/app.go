package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/hud"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/router"
	"github.com/abhisek/smartroom/internal/screen"
	"github.com/abhisek/smartroom/internal/screens/builder"
	"github.com/abhisek/smartroom/internal/screens/menu"
	"github.com/abhisek/smartroom/internal/screens/roomview"
	"github.com/abhisek/smartroom/internal/ui/layout"
)

// Options configure the TUI.
type Options struct {
	Engine          *orchestrator.Engine
	TickInterval    time.Duration
	CrisisThreshold float64
	Log             zerolog.Logger
}

type tickMsg time.Time

// modeKeys switch modes directly.
var modeKeys = map[string]mode.Mode{
	"f1": mode.Tutorial, "1": mode.Tutorial,
	"f2": mode.Scenario, "2": mode.Scenario,
	"f3": mode.FreePlay, "3": mode.FreePlay,
	"f4": mode.DeviceCreation, "4": mode.DeviceCreation,
	"f5": mode.RoomDesign, "5": mode.RoomDesign,
	"f6": mode.MainMenu, "6": mode.MainMenu,
}

// AppModel is the root Bubble Tea model. The active screen always matches
// the engine's mode.
type AppModel struct {
	ctx       context.Context
	engine    *orchestrator.Engine
	router    *router.Router
	mode      mode.Mode
	tick      time.Duration
	threshold float64
	width     int
	height    int
	log       zerolog.Logger
}

// newAppModel creates a new AppModel showing the screen for the engine's mode.
func newAppModel(ctx context.Context, opts Options) AppModel {
	m := AppModel{
		ctx:       ctx,
		engine:    opts.Engine,
		mode:      opts.Engine.Mode(),
		tick:      opts.TickInterval,
		threshold: opts.CrisisThreshold,
		log:       opts.Log.With().Str("component", "tui").Logger(),
	}
	m.router = router.New(m.screenFor(m.mode))
	return m
}

func (m AppModel) screenFor(md mode.Mode) screen.Screen {
	switch md {
	case mode.MainMenu:
		return menu.New(m.ctx, m.engine)
	case mode.DeviceCreation:
		return builder.New(m.ctx, m.engine)
	default:
		return roomview.New(m.ctx, m.engine, md, m.threshold)
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), m.nextTick())
}

func (m AppModel) nextTick() tea.Cmd {
	if m.tick <= 0 {
		return nil
	}
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.engine.HandleSignal(m.ctx, orchestrator.Signal{Kind: orchestrator.SignalResize, Width: msg.Width, Height: msg.Height})
		return m, nil

	case tea.FocusMsg:
		m.engine.HandleSignal(m.ctx, orchestrator.Signal{Kind: orchestrator.SignalVisibility, Visible: true})
		return m, nil

	case tea.BlurMsg:
		m.engine.HandleSignal(m.ctx, orchestrator.Signal{Kind: orchestrator.SignalVisibility, Visible: false})
		return m, nil

	case tickMsg:
		if _, err := m.engine.Tick(m.ctx); err != nil {
			m.log.Warn().Err(err).Msg("tick failed")
		}
		return m.sync(m.nextTick())

	case screen.QuitMsg:
		return m, m.quit()

	case tea.KeyPressMsg:
		if cmd, handled := m.globalKey(msg); handled {
			return m.sync(cmd)
		}
	}

	cmd := m.router.Update(msg)
	return m.sync(cmd)
}

// sync swaps the screen when the engine changed mode, and exits once the
// engine has shut down.
func (m AppModel) sync(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	select {
	case <-m.engine.Done():
		return m, tea.Quit
	default:
	}
	if now := m.engine.Mode(); now != m.mode {
		m.log.Debug().Str("from", string(m.mode)).Str("to", string(now)).Msg("screen follows mode")
		m.mode = now
		return m, tea.Batch(cmd, m.router.Reset(m.screenFor(now)))
	}
	return m, cmd
}

func (m AppModel) capturing() bool {
	c, ok := m.router.Active().(screen.InputCapturer)
	return ok && c.CapturingInput()
}

// globalKey handles keys that work on every screen. Printable keys are
// left to a screen that is taking text.
func (m AppModel) globalKey(msg tea.KeyPressMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit(), true
	}
	if key == "ctrl+s" {
		m.save()
		return nil, true
	}
	if m.capturing() {
		return nil, false
	}

	h := m.engine.Collaborators().HUD
	switch key {
	case "?":
		if h != nil {
			h.ToggleHelp()
		}
		return nil, true
	case "esc":
		if h != nil && h.Panel() == hud.PanelHelp {
			h.ToggleHelp()
			return nil, true
		}
		m.back()
		return nil, true
	}

	if target, ok := modeKeys[key]; ok {
		if target != m.engine.Mode() {
			m.switchTo(target)
		}
		return nil, true
	}
	return nil, false
}

// back leaves the current mode: a crisis is resolved, building modes
// return to free play and play modes return to the menu.
func (m AppModel) back() {
	switch m.engine.Mode() {
	case mode.CrisisManagement:
		if _, err := m.engine.ResolveCrisis(m.ctx); err != nil {
			m.log.Debug().Err(err).Msg("resolve crisis")
		}
	case mode.DeviceCreation, mode.RoomDesign:
		m.switchTo(mode.FreePlay)
	case mode.Tutorial, mode.Scenario, mode.FreePlay:
		m.switchTo(mode.MainMenu)
	}
}

func (m AppModel) switchTo(target mode.Mode) {
	t := m.engine.TransitionToMode(m.ctx, target, mode.Smooth)
	if t.Skipped {
		m.log.Debug().Str("to", string(target)).Msg("mode switch dropped")
	}
}

func (m AppModel) save() {
	if _, err := m.engine.Save(m.ctx, "manual"); err != nil {
		// The recovery handler has already told the player.
		m.log.Warn().Err(err).Msg("manual save failed")
		return
	}
	if h := m.engine.Collaborators().HUD; h != nil {
		h.Notify("Game saved", hud.LevelSuccess)
	}
}

// quit autosaves, shuts the engine down and ends the program.
func (m AppModel) quit() tea.Cmd {
	m.engine.HandleSignal(m.ctx, orchestrator.Signal{Kind: orchestrator.SignalUnload})
	return tea.Quit
}

func (m AppModel) status() layout.Status {
	st := layout.Status{
		Devices:  m.engine.SystemHealth().DeviceCount,
		SafeMode: m.engine.SafeMode().IsEnabled(),
	}
	if sim := m.engine.Collaborators().Simulation; sim != nil {
		st.Paused = sim.Paused() && m.engine.Mode().Live()
	}
	return st
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.ReportFocus = true
	v.WindowTitle = "Smart Room"

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	h := m.engine.Collaborators().HUD
	if layout.IsCompact(m.width, m.height) || (h != nil && h.Compact()) {
		header := layout.RenderCompactHeader(title, m.status(), m.width)
		content := m.router.View(m.width, m.height-lipgloss.Height(header))
		v.SetContent(layout.RenderFrame(header, content, "", m.width, m.height))
		return v
	}

	header := layout.RenderHeader(title, m.status(), m.width)

	footerHints := []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	}
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	if opts.Engine == nil {
		return eris.New("app needs an engine")
	}
	p := tea.NewProgram(newAppModel(ctx, opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return eris.Wrap(err, "run program")
	}
	return nil
}
