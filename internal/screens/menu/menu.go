// Package menu is the main menu screen.
package menu

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartroom/internal/achievements"
	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/screen"
	"github.com/abhisek/smartroom/internal/store"
	"github.com/abhisek/smartroom/internal/ui/components"
	"github.com/abhisek/smartroom/internal/ui/layout"
	"github.com/abhisek/smartroom/internal/ui/theme"
)

const banner = `┌─┐┌┬┐┌─┐┬─┐┌┬┐  ┬─┐┌─┐┌─┐┌┬┐
└─┐│││├─┤├┬┘ │   ├┬┘│ ││ ││││
└─┘┴ ┴┴ ┴┴└─ ┴   ┴└─└─┘└─┘┴ ┴`

// MenuScreen is shown in MAIN_MENU.
type MenuScreen struct {
	ctx    context.Context
	engine *orchestrator.Engine
	menu   components.Menu
	status string
}

var (
	_ screen.Screen          = (*MenuScreen)(nil)
	_ screen.KeyHintProvider = (*MenuScreen)(nil)
)

// New creates the main menu.
func New(ctx context.Context, e *orchestrator.Engine) *MenuScreen {
	s := &MenuScreen{ctx: ctx, engine: e}
	s.menu = components.NewMenu(s.items())
	return s
}

func (s *MenuScreen) items() []components.MenuItem {
	c := s.engine.Collaborators()
	items := []components.MenuItem{
		{
			Label:    "Continue",
			Hint:     "Pick up from the newest save.",
			Action:   s.cont,
			Disabled: s.engine.Saves() == nil,
		},
		{
			Label:    "Tutorial",
			Hint:     "Learn how devices get along.",
			Action:   s.enter(mode.Tutorial),
			Disabled: c.Tutorial == nil,
		},
	}

	if c.Scenario != nil {
		done := c.Scenario.Completed()
		for _, sc := range c.Scenario.Catalog() {
			label := "Scenario: " + sc.Title
			if slices.Contains(done, sc.ID) {
				label += " ✓"
			}
			items = append(items, components.MenuItem{
				Label:  label,
				Hint:   sc.Brief,
				Action: s.scenario(sc.ID),
			})
		}
	}

	return append(items,
		components.MenuItem{Label: "Free Play", Hint: "No goals, just the room.", Action: s.enter(mode.FreePlay)},
		components.MenuItem{Label: "Device Workshop", Hint: "Build new devices.", Action: s.enter(mode.DeviceCreation)},
		components.MenuItem{Label: "Room Design", Hint: "Rearrange the room.", Action: s.enter(mode.RoomDesign)},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd {
			return func() tea.Msg { return screen.QuitMsg{} }
		}},
	)
}

func (s *MenuScreen) enter(m mode.Mode) func() tea.Cmd {
	return func() tea.Cmd {
		t := s.engine.TransitionToMode(s.ctx, m, mode.Smooth)
		switch {
		case t.Skipped:
			s.status = "Hold on, the room is still changing."
		case t.Failed:
			s.status = m.DisplayName() + " is not available right now."
		}
		return nil
	}
}

func (s *MenuScreen) scenario(id string) func() tea.Cmd {
	return func() tea.Cmd {
		if err := s.engine.SelectScenario(id); err != nil {
			s.status = "That scenario is not available."
			return nil
		}
		return s.enter(mode.Scenario)()
	}
}

func (s *MenuScreen) cont() tea.Cmd {
	meta, err := s.engine.LoadLatest(s.ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.status = "No saves yet."
	case err != nil:
		s.status = "The save could not be loaded."
	default:
		s.status = "Loaded " + meta.Label + "."
	}
	return nil
}

func (s *MenuScreen) Init() tea.Cmd {
	return nil
}

func (s *MenuScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *MenuScreen) View(width, height int) string {
	title := lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true).Render(banner)
	if layout.IsCompact(width, height) {
		title = theme.Title.Render("SMART ROOM")
	}

	parts := []string{title, "", s.menu.View()}
	if ach := s.achievements(); ach != "" {
		parts = append(parts, ach)
	}
	if s.status != "" {
		parts = append(parts, "", lipgloss.NewStyle().Foreground(theme.Warning).Render(s.status))
	}
	return components.Centered(lipgloss.JoinVertical(lipgloss.Center, parts...), width, height)
}

func (s *MenuScreen) achievements() string {
	svc := s.engine.Collaborators().Achievements
	if svc == nil {
		return ""
	}
	unlocked := svc.Unlocked()
	if len(unlocked) == 0 {
		return theme.Hint.Render("No achievements yet.")
	}
	icons := make([]string, 0, len(unlocked))
	for _, a := range unlocked {
		icons = append(icons, achievements.ID(a.ID).Icon())
	}
	return fmt.Sprintf("%s  %d/%d", strings.Join(icons, " "), len(unlocked), len(achievements.AllIDs()))
}

func (s *MenuScreen) Title() string {
	return mode.MainMenu.DisplayName()
}

func (s *MenuScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
