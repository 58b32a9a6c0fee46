package tui

import (
	"fmt"
	"io"
	"strings"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

type taskItem struct {
	task model.Task
	due  *filter.DueInfo
}

func (i taskItem) FilterValue() string { return i.task.Title }

// rowItem is a generic one-line entry: categories, users and messages.
type rowItem struct {
	id     int64
	marker string
	title  string
	meta   string
	dim    bool
}

func (i rowItem) FilterValue() string { return i.title }

func newList(d list.ItemDelegate) list.Model {
	l := list.New(nil, d, 0, 0)
	// Titles, help and filtering are drawn by the app, not the list.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// listNavKeys are the keys forwarded to the list; everything else is an app binding.
var listNavKeys = map[string]bool{
	"up": true, "down": true, "k": true, "j": true,
	"pgup": true, "pgdown": true, "home": true, "end": true,
	"g": true, "G": true,
}

// fitLine pads or cuts s to exactly width cells.
func fitLine(s string, width int) string {
	w := xansi.StringWidth(s)
	switch {
	case w < width:
		return s + strings.Repeat(" ", width-w)
	case w > width:
		return xansi.Truncate(s, width, "…")
	}
	return s
}

type taskDelegate struct{}

func (taskDelegate) Height() int                             { return 1 }
func (taskDelegate) Spacing() int                            { return 0 }
func (taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	width := m.Width()
	if width < 8 {
		return
	}

	box := "[ ]"
	if it.task.Completed {
		box = "[x]"
	}
	head := box + " " + it.task.Title

	var meta []string
	if it.task.Category != nil {
		meta = append(meta, it.task.Category.Name)
	}
	if it.due != nil {
		meta = append(meta, "due "+it.due.Display)
	}
	tail := ""
	if len(meta) > 0 {
		tail = "  " + strings.Join(meta, " · ")
	}
	if it.due != nil && it.due.Overdue && !it.task.Completed {
		tail += "  overdue"
	}

	chipText := priorityChip(it.task.Priority)
	avail := width - xansi.StringWidth(chipText) - 1
	if avail < 4 {
		fmt.Fprint(w, fitLine(head, width))
		return
	}

	// Cut on plain text first so styles never get split mid-sequence.
	plain := fitLine(head+tail, avail)
	headW := min(xansi.StringWidth(head), avail)
	left, right := xansi.Cut(plain, 0, headW), xansi.Cut(plain, headW, avail)

	switch {
	case index == m.Index():
		left = styleSelected().Render(left)
	case it.task.Completed:
		left = styleMuted().Strikethrough(true).Render(left)
	}
	if it.due != nil && it.due.Overdue && !it.task.Completed {
		right = styleError().Render(right)
	} else {
		right = styleMuted().Render(right)
	}
	fmt.Fprint(w, left+right+" "+chipText)
}

type rowDelegate struct{}

func (rowDelegate) Height() int                             { return 1 }
func (rowDelegate) Spacing() int                            { return 0 }
func (rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(rowItem)
	if !ok {
		return
	}
	width := m.Width()
	if width < 4 {
		return
	}

	marker := it.marker
	if marker == "" {
		marker = " "
	}
	head := marker + " " + it.title
	plain := fitLine(head+"  "+it.meta, width)
	headW := min(xansi.StringWidth(head), width)
	left, right := xansi.Cut(plain, 0, headW), xansi.Cut(plain, headW, width)

	switch {
	case index == m.Index():
		left = styleSelected().Render(left)
	case it.dim:
		left = styleMuted().Render(left)
	}
	fmt.Fprint(w, left+styleMuted().Render(right))
}
