package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartroom/internal/ui/theme"
)

// Meter displays a horizontal gauge for a value in [0, 1]. Values at or
// above Hot are drawn in the alert color.
type Meter struct {
	Label       string
	Percent     float64
	Hot         float64
	ShowPercent bool
	Width       int
}

// NewMeter creates a meter without an alert threshold.
func NewMeter(label string, percent float64, showPercent bool, width int) Meter {
	return Meter{
		Label:       label,
		Percent:     percent,
		Hot:         2,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the meter.
func (p Meter) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // " 100%"
	}

	barWidth := p.Width - labelWidth - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	fill := theme.ProgressFilled
	if p.Percent >= p.Hot {
		fill = theme.ProgressHot
	}

	result += fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	if p.ShowPercent {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}

	return result
}
