package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartroom/internal/ui/theme"
)

// Choice is a horizontal single-choice selector.
type Choice struct {
	Label    string
	Options  []string
	Selected int
	Focused  bool
}

// NewChoice creates a selector with the first option selected.
func NewChoice(label string, options []string) Choice {
	return Choice{Label: label, Options: options}
}

// Update cycles the selection with left/right while focused.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || !c.Focused || len(c.Options) == 0 {
		return c, nil
	}

	switch kmsg.String() {
	case "left", "h":
		c.Selected = (c.Selected + len(c.Options) - 1) % len(c.Options)
	case "right", "l":
		c.Selected = (c.Selected + 1) % len(c.Options)
	}
	return c, nil
}

// Value returns the selected option.
func (c Choice) Value() string {
	if c.Selected < 0 || c.Selected >= len(c.Options) {
		return ""
	}
	return c.Options[c.Selected]
}

// View renders the selector on one line.
func (c Choice) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(theme.TextDim)
	if c.Focused {
		labelStyle = labelStyle.Foreground(theme.Primary).Bold(true)
	}
	s := labelStyle.Render(c.Label) + "  "

	for i, opt := range c.Options {
		if i == c.Selected {
			style := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
			if c.Focused {
				style = style.Foreground(theme.Highlight)
			}
			s += style.Render("‹"+opt+"›") + " "
		} else {
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(" "+opt+" ") + " "
		}
	}
	return s
}
