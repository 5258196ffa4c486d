package builder

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartroom/internal/room"
	"github.com/abhisek/smartroom/internal/simulation"
	"github.com/abhisek/smartroom/internal/ui/components"
	"github.com/abhisek/smartroom/internal/ui/theme"
	"github.com/abhisek/smartroom/internal/workshop"
)

// BuiltMsg reports a device the form created.
type BuiltMsg struct {
	Device room.Device
}

// CancelledMsg reports the form was closed without building.
type CancelledMsg struct{}

// Builder creates devices.
type Builder interface {
	CreateDevice(ctx context.Context, spec workshop.DeviceSpec) (room.Device, error)
}

type temperament struct {
	name        string
	personality room.Personality
}

var temperaments = []temperament{
	{"friendly", room.Personality{Helpfulness: 0.8, Stubbornness: 0.2, Curiosity: 0.5, Temper: 0.1}},
	{"curious", room.Personality{Helpfulness: 0.5, Stubbornness: 0.3, Curiosity: 0.9, Temper: 0.3}},
	{"stubborn", room.Personality{Helpfulness: 0.4, Stubbornness: 0.9, Curiosity: 0.2, Temper: 0.5}},
	{"grumpy", room.Personality{Helpfulness: 0.2, Stubbornness: 0.6, Curiosity: 0.3, Temper: 0.9}},
}

type field int

const (
	fieldName field = iota
	fieldKind
	fieldTemper
	fieldCount
)

const maxNameLen = 24

// Form collects a device spec and builds it.
type Form struct {
	ctx    context.Context
	b      Builder
	name   components.TextInput
	kind   components.Choice
	temper components.Choice
	focus  field
}

// NewForm returns a form with the name field focused.
func NewForm(ctx context.Context, b Builder) Form {
	kinds := make([]string, 0, len(room.AllKinds()))
	for _, k := range room.AllKinds() {
		kinds = append(kinds, string(k))
	}
	tempers := make([]string, 0, len(temperaments))
	for _, t := range temperaments {
		tempers = append(tempers, t.name)
	}
	return Form{
		ctx:    ctx,
		b:      b,
		name:   components.NewTextInput("device name", maxNameLen),
		kind:   components.NewChoice("Kind    ", kinds),
		temper: components.NewChoice("Temper  ", tempers),
	}
}

func (f Form) Init() tea.Cmd {
	return f.name.Init()
}

// Spec returns the spec the form currently describes.
func (f Form) Spec() workshop.DeviceSpec {
	return workshop.DeviceSpec{
		Name:        f.name.Value(),
		Kind:        room.Kind(f.kind.Value()),
		Personality: temperaments[f.temper.Selected].personality,
	}
}

// Update handles keys. Enter builds; Esc cancels.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		var cmd tea.Cmd
		f.name, cmd = f.name.Update(msg)
		return f, cmd
	}

	switch kmsg.String() {
	case "esc":
		return f, func() tea.Msg { return CancelledMsg{} }
	case "enter":
		return f.submit()
	case "tab", "down":
		return f.setFocus((f.focus + 1) % fieldCount), nil
	case "shift+tab", "up":
		return f.setFocus((f.focus + fieldCount - 1) % fieldCount), nil
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
	case fieldKind:
		f.kind, cmd = f.kind.Update(msg)
	case fieldTemper:
		f.temper, cmd = f.temper.Update(msg)
	}
	return f, cmd
}

func (f Form) setFocus(to field) Form {
	f.focus = to
	f.kind.Focused = to == fieldKind
	f.temper.Focused = to == fieldTemper
	if to == fieldName {
		f.name.Model.Focus()
	} else {
		f.name.Model.Blur()
	}
	return f
}

func (f Form) submit() (Form, tea.Cmd) {
	spec := f.Spec()
	if err := spec.Validate(); err != nil {
		f.name.Reject("Give it a name of 1 to 24 characters.")
		return f.setFocus(fieldName), nil
	}

	d, err := f.b.CreateDevice(f.ctx, spec)
	if err != nil {
		f.name.Reject(problem(err))
		return f, nil
	}

	f.name.Reset()
	return f.setFocus(fieldName), func() tea.Msg { return BuiltMsg{Device: d} }
}

func problem(err error) string {
	var invalid *workshop.ErrInvalidSpec
	switch {
	case errors.Is(err, simulation.ErrRoomFull):
		return "The room is full."
	case errors.Is(err, simulation.ErrDuplicateDevice):
		return "That device already exists."
	case errors.As(err, &invalid):
		return "That device cannot be built."
	default:
		return "The workshop is not available right now."
	}
}

// View renders the form.
func (f Form) View(width int) string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	if f.focus == fieldName {
		label = label.Foreground(theme.Primary).Bold(true)
	}

	s := label.Render("Name    ") + "  " + f.name.View() + "\n\n"
	s += f.kind.View() + "\n\n"
	s += f.temper.View() + "\n\n"
	s += theme.Hint.Render("Tab next field  ←→ change  Enter build  Esc close")

	return components.Card(s, components.ContentWidth(width))
}
