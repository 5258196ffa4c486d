package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartroom/internal/hud"
	"github.com/abhisek/smartroom/internal/ui/theme"
)

const (
	MinWidth  = hud.MinWidth
	MinHeight = hud.MinHeight

	HeaderHeight = 3
	FooterHeight = 3
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Status is what the header shows besides the screen title.
type Status struct {
	Devices  int
	SafeMode bool
	Paused   bool
}

// IsCompact returns true when only the compact layout fits.
func IsCompact(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// IsTooSmall returns true if the terminal is below the compact minimum.
func IsTooSmall(width, height int) bool {
	return width < hud.MinCompactWidth || height < hud.MinCompactHeight
}

// ContentHeight returns the available height for screen content.
func ContentHeight(totalHeight int) int {
	h := totalHeight - HeaderHeight - FooterHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Too small!\n%d x %d needed\nnow %d x %d",
			hud.MinCompactWidth, hud.MinCompactHeight, width, height,
		))
}

// RenderHeader renders the application header bar.
func RenderHeader(title string, st Status, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render("  Smart Room")

	center := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render(title)

	right := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Render(fmt.Sprintf("⌂ %d", st.Devices))
	if st.Paused {
		right = lipgloss.NewStyle().Foreground(theme.TextDim).Render("paused  ") + right
	}
	if st.SafeMode {
		right = theme.Badge.Render("SAFE MODE") + " " + right
	}

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	innerWidth := width - 4 // account for border padding
	if innerWidth < 0 {
		innerWidth = 0
	}

	leftGap := (innerWidth-centerLen)/2 - leftLen
	if leftGap < 1 {
		leftGap = 1
	}

	rightGap := innerWidth - leftLen - leftGap - centerLen - rightLen
	if rightGap < 1 {
		rightGap = 1
	}

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderCompactHeader is the one-line header of the compact layout.
func RenderCompactHeader(title string, st Status, width int) string {
	line := title
	if st.SafeMode {
		line += " [safe]"
	}
	return lipgloss.NewStyle().
		Width(width).
		Foreground(theme.Primary).
		Bold(true).
		Render(line)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
		parts = append(parts, part)
	}

	content := "  " + strings.Join(parts, "   ")

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFrame composes the full frame: header + content + footer.
func RenderFrame(header, content, footer string, width, height int) string {
	headerHeight := lipgloss.Height(header)
	footerHeight := 0
	if footer != "" {
		footerHeight = lipgloss.Height(footer)
	}

	contentHeight := height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	styledContent := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(content)

	if footer == "" {
		return header + "\n" + styledContent
	}
	return header + "\n" + styledContent + "\n" + footer
}
