// Package builder is the device workshop screen and the build form the
// room screen reuses.
package builder

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/screen"
	"github.com/abhisek/smartroom/internal/ui/layout"
	"github.com/abhisek/smartroom/internal/ui/theme"
)

// Screen is shown in DEVICE_CREATION.
type Screen struct {
	ctx    context.Context
	engine *orchestrator.Engine
	form   Form
	built  []string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.InputCapturer   = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
)

// New creates the workshop screen.
func New(ctx context.Context, e *orchestrator.Engine) *Screen {
	return &Screen{ctx: ctx, engine: e, form: NewForm(ctx, e)}
}

func (s *Screen) Init() tea.Cmd {
	return s.form.Init()
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case BuiltMsg:
		s.built = append(s.built, msg.Device.Name)
		return s, nil
	case CancelledMsg:
		s.engine.TransitionToMode(s.ctx, mode.FreePlay, mode.Smooth)
		return s, nil
	}

	var cmd tea.Cmd
	s.form, cmd = s.form.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	out := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("Device Workshop") + "\n\n"
	out += s.form.View(width) + "\n"

	if n := len(s.built); n > 0 {
		out += "\n" + lipgloss.NewStyle().Foreground(theme.Success).
			Render(fmt.Sprintf("Built %s. Open Room Design (F5) to place it.", s.built[n-1]))
	}
	if sim := s.engine.Collaborators().Simulation; sim != nil && sim.Full() {
		out += "\n" + lipgloss.NewStyle().Foreground(theme.Warning).Render("The room is full.")
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, out)
}

func (s *Screen) Title() string {
	return mode.DeviceCreation.DisplayName()
}

// CapturingInput is always true; the form owns the keyboard.
func (s *Screen) CapturingInput() bool {
	return true
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Build"},
		{Key: "Esc", Description: "Free Play"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
