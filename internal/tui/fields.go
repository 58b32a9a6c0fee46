package tui

import (
	"strings"

	"taskdesk-cli/internal/form"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldSecret
	fieldChoice
)

type choice struct {
	label string
	value string
}

// field is one row of a form. key is the form's json field name, so errors line up.
type field struct {
	key     string
	label   string
	kind    fieldKind
	input   textinput.Model
	choices []choice
	pick    int
}

func (f *field) value() string {
	if f.kind == fieldChoice {
		if f.pick < 0 || f.pick >= len(f.choices) {
			return ""
		}
		return f.choices[f.pick].value
	}
	return f.input.Value()
}

// formModel edits one typed form. Every change is pushed through set into the screen's form
// state, which owns validation; parse failures that never reach the form are kept locally.
type formModel struct {
	title  string
	submit string
	fields []*field
	focus  int

	set  func(key, value string) error
	blur func(key string)
	errs func() form.Errors

	local   form.Errors
	touched map[string]bool
}

func newFormModel(title, submit string) *formModel {
	return &formModel{title: title, submit: submit, local: form.Errors{}, touched: map[string]bool{}}
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = ""
	in.Width = 40
	_ = in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func (fm *formModel) text(key, label, value string, limit int) *formModel {
	in := newInput(label, limit)
	in.SetValue(value)
	fm.fields = append(fm.fields, &field{key: key, label: label, kind: fieldText, input: in})
	fm.refocus()
	return fm
}

func (fm *formModel) secret(key, label string) *formModel {
	in := newInput(label, 128)
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	fm.fields = append(fm.fields, &field{key: key, label: label, kind: fieldSecret, input: in})
	fm.refocus()
	return fm
}

func (fm *formModel) choice(key, label string, choices []choice, current string) *formModel {
	f := &field{key: key, label: label, kind: fieldChoice, choices: choices}
	for i, c := range choices {
		if c.value == current {
			f.pick = i
		}
	}
	fm.fields = append(fm.fields, f)
	return fm
}

func (fm *formModel) refocus() {
	for i, f := range fm.fields {
		if f.kind == fieldChoice {
			continue
		}
		if i == fm.focus {
			_ = f.input.Focus()
		} else {
			f.input.Blur()
		}
	}
}

func (fm *formModel) current() *field {
	if fm.focus < 0 || fm.focus >= len(fm.fields) {
		return nil
	}
	return fm.fields[fm.focus]
}

func (fm *formModel) move(delta int) {
	if len(fm.fields) == 0 {
		return
	}
	if f := fm.current(); f != nil {
		fm.leave(f)
	}
	fm.focus = (fm.focus + delta + len(fm.fields)) % len(fm.fields)
	fm.refocus()
}

func (fm *formModel) leave(f *field) {
	fm.touched[f.key] = true
	if fm.blur != nil {
		fm.blur(f.key)
	}
}

func (fm *formModel) push(f *field) {
	if fm.set == nil {
		return
	}
	if err := fm.set(f.key, f.value()); err != nil {
		fm.local[f.key] = err.Error()
		return
	}
	delete(fm.local, f.key)
}

// Value returns the current text of a field, "" for unknown keys.
func (fm *formModel) Value(key string) string {
	for _, f := range fm.fields {
		if f.key == key {
			return f.value()
		}
	}
	return ""
}

// touchAll marks every field touched, as a submit does. It reports whether any local parse
// error blocks the submit.
func (fm *formModel) touchAll() bool {
	for _, f := range fm.fields {
		fm.touched[f.key] = true
		if fm.blur != nil {
			fm.blur(f.key)
		}
	}
	return len(fm.local) == 0
}

// Update handles one key. It reports true when the user asked to submit.
func (fm *formModel) Update(msg tea.KeyMsg) bool {
	f := fm.current()
	switch msg.String() {
	case "tab", "down":
		fm.move(1)
		return false
	case "shift+tab", "up":
		fm.move(-1)
		return false
	case "ctrl+s":
		return true
	case "enter":
		if fm.focus == len(fm.fields)-1 {
			return true
		}
		fm.move(1)
		return false
	}
	if f == nil {
		return false
	}

	if f.kind == fieldChoice {
		switch msg.String() {
		case "left", "h":
			f.pick = (f.pick - 1 + len(f.choices)) % len(f.choices)
		case "right", "l", " ":
			f.pick = (f.pick + 1) % len(f.choices)
		default:
			return false
		}
		fm.push(f)
		return false
	}

	before := f.input.Value()
	f.input, _ = f.input.Update(msg)
	if f.input.Value() != before {
		fm.push(f)
	}
	return false
}

// errors merges the form's visible errors with local parse errors on touched fields.
func (fm *formModel) errors() form.Errors {
	out := form.Errors{}
	if fm.errs != nil {
		for k, v := range fm.errs() {
			out[k] = v
		}
	}
	for k, v := range fm.local {
		if fm.touched[k] {
			out[k] = v
		}
	}
	return out
}

func (fm *formModel) View(width int) string {
	errs := fm.errors()
	labelW := 0
	for _, f := range fm.fields {
		labelW = max(labelW, lipgloss.Width(f.label))
	}
	label := lipgloss.NewStyle().Width(labelW + 2)
	inputW := max(10, width-labelW-4)

	var b strings.Builder
	if fm.title != "" {
		b.WriteString(styleTitle().Render(fm.title))
		b.WriteString("\n\n")
	}
	for i, f := range fm.fields {
		name := label.Render(f.label)
		if i == fm.focus {
			name = label.Inherit(styleTitle()).Render(f.label)
		}

		var val string
		switch f.kind {
		case fieldChoice:
			cur := ""
			if f.pick >= 0 && f.pick < len(f.choices) {
				cur = f.choices[f.pick].label
			}
			val = "‹ " + cur + " ›"
			if i == fm.focus {
				val = styleSelected().Render(val)
			}
		default:
			f.input.Width = inputW
			val = lipgloss.NewStyle().Background(colorInputBg).Render(f.input.View())
		}
		b.WriteString(name + val + "\n")
		if msg, ok := errs[f.key]; ok {
			b.WriteString(strings.Repeat(" ", labelW+2) + styleError().Render(msg) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styleMuted().Render("tab/↑↓: move  enter: next/" + fm.submit + "  ctrl+s: " + fm.submit + "  esc: cancel"))
	return b.String()
}
