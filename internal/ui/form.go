package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todolist/internal/config"
	"todolist/internal/controller"
)

type formResult int

const (
	formPending formResult = iota
	formConfirmed
	formCancelled
)

// form collects the free-text values a prompt asks for.
type form struct {
	prompt controller.Prompt
	inputs []textinput.Model
	focus  int
}

func newForm(p controller.Prompt) (form, tea.Cmd) {
	f := form{prompt: p}
	for _, field := range p.Fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.CharLimit = 256
		ti.Width = 40
		ti.SetValue(field.Value)
		f.inputs = append(f.inputs, ti)
	}
	var cmd tea.Cmd
	if len(f.inputs) > 0 {
		cmd = f.inputs[0].Focus()
	}
	return f, cmd
}

func (f form) update(msg tea.KeyMsg, keys config.Keymap) (form, formResult, tea.Cmd) {
	switch msg.String() {
	case keys.Cancel:
		return f, formCancelled, nil
	case keys.Confirm:
		return f, formConfirmed, nil
	case keys.NextField, "down":
		return f.move(1), formPending, nil
	case "shift+tab", "up":
		return f.move(-1), formPending, nil
	}
	if len(f.inputs) == 0 {
		return f, formPending, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, formPending, cmd
}

func (f form) move(delta int) form {
	if len(f.inputs) < 2 {
		return f
	}
	f.inputs[f.focus].Blur()
	f.focus = wrapIndex(f.focus+delta, len(f.inputs))
	f.inputs[f.focus].Focus()
	return f
}

// values returns the entered text. Values are not trimmed or validated.
func (f form) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = in.Value()
	}
	return out
}

func (f form) setWidth(w int) form {
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
	return f
}

func (f form) view(keys config.Keymap) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.prompt.Title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(f.prompt.Message))
	b.WriteString("\n\n")
	for _, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(keyLabel(keys.Confirm) + " " + f.prompt.Confirm + " • " +
		keyLabel(keys.Cancel) + " " + f.prompt.Cancel))
	if len(f.inputs) > 1 {
		b.WriteString(dimStyle.Render(" • " + keyLabel(keys.NextField) + " next field"))
	}
	return b.String()
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
