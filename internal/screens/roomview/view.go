package roomview

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartroom/internal/hud"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/room"
	"github.com/abhisek/smartroom/internal/ui/components"
	"github.com/abhisek/smartroom/internal/ui/layout"
	"github.com/abhisek/smartroom/internal/ui/theme"
)

const cellWidth = 3

func (s *RoomScreen) View(width, height int) string {
	c := s.engine.Collaborators()
	if c.HUD != nil && c.HUD.Panel() == hud.PanelHelp {
		return components.Centered(helpView(), width, height)
	}
	if layout.IsCompact(width, height) || (c.HUD != nil && c.HUD.Compact()) {
		return s.compactView(width, height)
	}

	cw := components.ContentWidth(width)
	var sections []string
	if banner := s.banner(cw); banner != "" {
		sections = append(sections, banner)
	}

	if s.form != nil {
		sections = append(sections, s.form.View(width))
	} else {
		side := s.sidePanel()
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, s.grid(), "   ", side))
	}

	if s.status != "" {
		sections = append(sections, theme.Hint.Render(s.status))
	}
	if notes := s.notifications(3); notes != "" {
		sections = append(sections, notes)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (s *RoomScreen) compactView(width, height int) string {
	out := s.grid()
	if sim := s.engine.Collaborators().Simulation; sim != nil {
		env := sim.Environment()
		out += fmt.Sprintf("\ntension %d%%", int(env.Tension*100))
	}
	if s.mode == mode.CrisisManagement {
		out += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("CRISIS - r to resolve")
	}
	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(out)
}

// grid draws the floor with device initials; the cursor cell is inverted.
func (s *RoomScreen) grid() string {
	c := s.engine.Collaborators()
	contrast := c.HUD != nil && c.HUD.Accessibility().HighContrast

	at := make(map[room.Position]room.Device)
	if c.Simulation != nil {
		for _, d := range c.Simulation.Devices() {
			if d.Placed {
				at[d.Position] = d
			}
		}
	}

	empty := lipgloss.NewStyle().Foreground(theme.Border)
	if contrast {
		empty = lipgloss.NewStyle().Foreground(theme.Text)
	}
	cursor := lipgloss.NewStyle().Background(theme.Primary).Foreground(theme.Text).Bold(true)

	var b strings.Builder
	for y := 0; y < room.Height; y++ {
		for x := 0; x < room.Width; x++ {
			pos := room.Position{X: x, Y: y}
			cell, style := " · ", empty
			if d, ok := at[pos]; ok {
				cell, style = " "+initial(d)+" ", moodStyle(d.Mood)
			}
			if pos == s.cursor {
				style = cursor
			}
			b.WriteString(style.Width(cellWidth).Render(cell))
		}
		if y < room.Height-1 {
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(b.String())
}

func initial(d room.Device) string {
	if d.Name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(d.Name)[:1]))
}

func moodStyle(mood float64) lipgloss.Style {
	switch {
	case mood <= -0.3:
		return lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
	case mood >= 0.3:
		return lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true)
	}
}

// sidePanel shows the environment gauges and the device roster.
func (s *RoomScreen) sidePanel() string {
	sim := s.engine.Collaborators().Simulation
	if sim == nil {
		return theme.Hint.Render("The room is offline.")
	}
	env := sim.Environment()

	tension := components.NewMeter("Tension", env.Tension, true, 30)
	tension.Hot = s.threshold
	lines := []string{
		fmt.Sprintf("Temperature  %.1f°C", env.Temperature),
		tension.View(),
		components.NewMeter("Noise  ", env.Noise, true, 30).View(),
		components.NewMeter("Light  ", env.Light, true, 30).View(),
		"",
	}
	if sim.Paused() {
		lines = append(lines, theme.Hint.Render("The room is paused."))
	}

	devices := sim.Devices()
	if len(devices) == 0 {
		lines = append(lines, theme.Hint.Render("No devices yet. Press b to build one."))
	}
	for _, d := range devices {
		where := "unplaced"
		if d.Placed {
			where = fmt.Sprintf("%d,%d", d.Position.X, d.Position.Y)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			d.Kind.Icon(),
			moodStyle(d.Mood).Render(d.Name),
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(where)))
	}
	return strings.Join(lines, "\n")
}

// banner is the tutorial, scenario or crisis card above the room.
func (s *RoomScreen) banner(cw int) string {
	c := s.engine.Collaborators()
	switch s.mode {
	case mode.Tutorial:
		if c.HUD == nil || c.HUD.Tutorial() == nil {
			return ""
		}
		t := c.HUD.Tutorial()
		text := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).
			Render(fmt.Sprintf("Step %d/%d  %s", t.Step+1, t.Total, t.Title)) + "\n" + t.Hint
		return components.Card(text, cw)

	case mode.Scenario:
		if c.Scenario == nil {
			return ""
		}
		sc, ok := c.Scenario.Active()
		if !ok {
			return ""
		}
		text := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(sc.Title) + "\n" + sc.Brief
		for _, o := range sc.Objectives {
			n := min(c.Scenario.Counter(o.Counter), o.Target)
			mark := "○"
			if n >= o.Target {
				mark = lipgloss.NewStyle().Foreground(theme.Success).Render("●")
			}
			text += fmt.Sprintf("\n%s %s  %d/%d", mark, o.Label, n, o.Target)
		}
		return components.Card(text, cw)

	case mode.CrisisManagement:
		if c.HUD == nil || c.HUD.Crisis() == nil {
			return components.AlertCard("Crisis! Press r to calm the room.", cw, theme.Error)
		}
		cr := c.HUD.Crisis()
		severity := components.NewMeter("Severity", cr.Severity, true, cw-4)
		severity.Hot = 0
		text := lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("⚠ Crisis: "+cr.Cause) + "\n" +
			severity.View() + "\n" +
			theme.Hint.Render("Press r to calm the room.")
		return components.AlertCard(text, cw, theme.Error)

	case mode.RoomDesign:
		return components.Card("Arrange the room: move the cursor and press Enter to place the next device.", cw)
	}
	return ""
}

// notifications renders the newest n toasts and any audio captions.
func (s *RoomScreen) notifications(n int) string {
	c := s.engine.Collaborators()
	var lines []string
	if c.HUD != nil {
		notes := c.HUD.Notifications()
		if len(notes) > n {
			notes = notes[len(notes)-n:]
		}
		for _, note := range notes {
			lines = append(lines, levelStyle(note.Level).Render("• "+note.Text))
		}
	}
	if c.Audio != nil {
		if caps := c.Audio.Captions(); len(caps) > 0 {
			lines = append(lines, theme.Hint.Render(caps[len(caps)-1]))
		}
	}
	return strings.Join(lines, "\n")
}

func levelStyle(l hud.Level) lipgloss.Style {
	switch l {
	case hud.LevelSuccess:
		return theme.NoteSuccess
	case hud.LevelWarning:
		return theme.NoteWarning
	case hud.LevelError:
		return theme.NoteError
	default:
		return theme.NoteInfo
	}
}

func helpView() string {
	rows := [][2]string{
		{"←↑↓→ / hjkl", "move the cursor"},
		{"Enter / p", "place the next device"},
		{"b", "build a device"},
		{"n", "next tutorial step"},
		{"r", "resolve a crisis"},
		{"x", "dismiss a notification"},
		{"m", "mute"},
		{"C  M  H", "captions, reduced motion, high contrast"},
		{"F1-F6 / 1-6", "tutorial, scenario, free play, workshop, design, menu"},
		{"Ctrl+S", "save"},
		{"?", "close help"},
	}
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(14)
	var b strings.Builder
	b.WriteString(theme.Title.Render("Help") + "\n\n")
	for _, r := range rows {
		b.WriteString(key.Render(r[0]) + lipgloss.NewStyle().Foreground(theme.TextDim).Render(r[1]) + "\n")
	}
	return b.String()
}
