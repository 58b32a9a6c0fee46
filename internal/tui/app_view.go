package tui

import (
	"fmt"
	"strings"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/notify"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

var viewHints = map[view]string{
	viewLogin:      "ctrl+r: register  f1: help  ctrl+c: quit",
	viewRegister:   "esc: back to login  f1: help",
	viewDashboard:  "enter: open  space: done  n: new  e: edit  d: delete  /: search  tab: tab  f: category  P: priority  x: clear  r: refresh  c: categories  p: profile  ?: help  L: logout  q: quit",
	viewTask:       "space: done  e: edit  N: notes  d: delete  esc: back",
	viewCategories: "n: new  e: edit  d: delete  esc: back",
	viewProfile:    "e: edit  P: change password  esc: back",
	viewAdmin:      "u: users  m: messages  r: reload  esc: back",
	viewUsers:      "/: search  ←/→: page  a: toggle admin  d: delete  esc: back",
	viewMessages:   "enter: open  R: mark read  esc: back",
	viewHelp:       "/: search  m: contact us  esc: back",
}

func (m appModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	inner := max(20, width-2)

	var b strings.Builder
	b.WriteString(m.headerView(width))
	b.WriteString("\n\n")
	b.WriteString(m.bodyView(inner))
	b.WriteString("\n\n")
	b.WriteString(m.statusView(width))
	return b.String()
}

func (m appModel) headerView(width int) string {
	left := styleTitle().Render("TaskDesk") + styleMuted().Render(" · "+viewTitles[m.view])
	right := "guest"
	if u := m.opts.Session.User(); u != nil {
		right = u.Username
		if u.IsAdmin {
			right += " (admin)"
		}
	}
	right = styleMuted().Render(right)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m appModel) statusView(width int) string {
	if n, ok := m.notice(); ok {
		return noticeStyle(n.Severity).Render(xansi.Truncate(n.Message, width, "…"))
	}
	hint := viewHints[m.view]
	if m.searching {
		hint = "enter: keep  esc: clear"
	} else if m.editingNotes {
		hint = "ctrl+s: save notes  esc: cancel"
	}
	return styleMuted().Render(xansi.Truncate(hint, width, "…"))
}

func (m appModel) bodyView(width int) string {
	if m.view == viewBoot {
		return m.spinner.View() + " Checking session…"
	}
	if s := m.current(); s != nil {
		if pe, failed := s.PageError(); failed {
			return styleError().Render(pe.Message) + "\n\n" + styleMuted().Render("esc: back")
		}
		if s.Loading() {
			return m.spinner.View() + " Loading…"
		}
	}
	if m.form != nil {
		return m.form.View(width)
	}

	switch m.view {
	case viewDashboard:
		return m.dashboardView(width)
	case viewTask:
		return m.taskView(width)
	case viewCategories:
		return m.listView("No categories yet. Press n to create one.")
	case viewProfile:
		return m.profileView()
	case viewAdmin:
		return m.adminView(width)
	case viewUsers:
		return m.usersView()
	case viewMessages:
		return m.messagesView(width)
	case viewHelp:
		return m.helpView(width)
	}
	return ""
}

func (m appModel) listView(empty string) string {
	if len(m.list.Items()) == 0 {
		return styleMuted().Render(empty)
	}
	return m.list.View()
}

func (m appModel) dashboardView(width int) string {
	d := m.dash
	crit := d.Criteria()

	tabs := make([]string, 0, 3)
	for _, t := range []filter.Tab{filter.TabAll, filter.TabActive, filter.TabCompleted} {
		tabs = append(tabs, styleTab(t == crit.Tab).Render(t.String()))
	}

	var b strings.Builder
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(styleMuted().Render(xansi.Truncate(criteriaLine(crit, d.Categories()), width, "…")))
	}
	b.WriteString("\n")

	st := d.Stats()
	b.WriteString(fmt.Sprintf("%d total · %d completed · %d active · %s done", st.Total, st.Completed, st.Active, st.Percent()))
	b.WriteString("\n\n")
	b.WriteString(m.listView("No tasks found."))

	if id, pending := d.PendingDelete(); pending {
		title := fmt.Sprintf("#%d", id)
		for _, t := range d.Tasks() {
			if t.ID == id {
				title = t.Title
			}
		}
		b.WriteString("\n\n")
		b.WriteString(styleError().Render(fmt.Sprintf("Delete %q? (y/n)", title)))
	}
	return b.String()
}

func categoryChip(c *model.CategoryRef) string {
	if c == nil {
		return ""
	}
	color := c.Color
	if color == "" {
		color = model.DefaultCategoryColor
	}
	return chip(c.Name, lipgloss.Color(color))
}

func (m appModel) taskView(width int) string {
	d := m.detail
	t, ok := d.Task()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(t.Title))
	b.WriteString("\n\n")

	meta := []string{priorityChip(t.Priority)}
	if t.Completed {
		meta = append(meta, noticeStyle(notify.Success).Render("Completed"))
	} else {
		meta = append(meta, styleMuted().Render("Active"))
	}
	if c := categoryChip(t.Category); c != "" {
		meta = append(meta, c)
	}
	b.WriteString(strings.Join(meta, "  "))
	b.WriteString("\n")

	if due := d.DueInfo(); due != nil {
		line := fmt.Sprintf("Due %s (%s)", due.Display, due.Relative)
		if due.Overdue && !t.Completed {
			line = styleError().Render(line + " · overdue")
		}
		b.WriteString(line + "\n")
	}
	created := "Created " + humanize.Time(t.CreatedAt.Time)
	if t.CompletedAt != nil && t.Completed {
		created += " · completed " + humanize.Time(t.CompletedAt.Time)
	}
	b.WriteString(styleMuted().Render(created))
	b.WriteString("\n\n")

	b.WriteString(styleTitle().Render("Description"))
	b.WriteString("\n")
	if desc := renderMarkdown(t.Description, width); desc != "" {
		b.WriteString(desc)
	} else {
		b.WriteString(styleMuted().Render("No description"))
	}
	b.WriteString("\n\n")

	b.WriteString(styleTitle().Render("Notes"))
	b.WriteString("\n")
	switch {
	case m.editingNotes:
		b.WriteString(m.notes.View())
	case strings.TrimSpace(t.Notes) != "":
		b.WriteString(renderMarkdown(t.Notes, width))
	default:
		b.WriteString(styleMuted().Render("No notes. Press N to add some."))
	}

	if d.ConfirmingDelete() {
		b.WriteString("\n\n")
		b.WriteString(styleError().Render(fmt.Sprintf("Delete %q? (y/n)", t.Title)))
	}
	return b.String()
}

func (m appModel) profileView() string {
	u := m.profile.User()
	role := "User"
	if u.IsAdmin {
		role = "Admin"
	}
	joined := "-"
	if u.DateJoined != nil {
		joined = u.DateJoined.Local().Format(filter.DisplayLayout) + " (" + humanize.Time(u.DateJoined.Time) + ")"
	}
	rows := [][2]string{
		{"Username", u.Username},
		{"Email", u.Email},
		{"Role", role},
		{"Joined", joined},
		{"Tasks", fmt.Sprintf("%d completed of %d", u.CompletedTaskCount, u.TaskCount)},
	}
	label := lipgloss.NewStyle().Width(10).Foreground(colorMuted)
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(label.Render(r[0]) + r[1] + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func bar(n, maxN, width int) string {
	if maxN <= 0 || n <= 0 {
		return ""
	}
	w := n * width / maxN
	if w == 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}

func (m appModel) adminView(width int) string {
	a := m.admin
	s := a.Summary()
	barW := max(10, min(40, width-30))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s users (%d admin) · %s tasks · %s categories",
		humanize.Comma(int64(s.UserCount)), s.AdminCount, humanize.Comma(int64(s.TaskCount)), humanize.Comma(int64(s.CategoryCount))))
	b.WriteString("\n\n")

	b.WriteString(styleTitle().Render("Task status"))
	b.WriteString("\n")
	chart := a.StatusChart()
	maxN := 0
	for _, sl := range chart {
		maxN = max(maxN, sl.Count)
	}
	for _, sl := range chart {
		b.WriteString(fmt.Sprintf("%-12s %4d %s\n", sl.Label, sl.Count, styleTitle().Render(bar(sl.Count, maxN, barW))))
	}

	b.WriteString("\n")
	b.WriteString(styleTitle().Render("New users"))
	b.WriteString("\n")
	growth := a.Growth()
	if len(growth) == 0 {
		b.WriteString(styleMuted().Render("No data"))
		b.WriteString("\n")
	}
	maxN = 0
	for _, g := range growth {
		maxN = max(maxN, g.Count)
	}
	for _, g := range growth {
		b.WriteString(fmt.Sprintf("%-12s %4d %s\n", g.Month, g.Count, styleTitle().Render(bar(g.Count, maxN, barW))))
	}

	b.WriteString("\n")
	b.WriteString(styleTitle().Render("Latest tasks"))
	b.WriteString("\n")
	if len(s.LatestTasks) == 0 {
		b.WriteString(styleMuted().Render("No tasks"))
	}
	for _, t := range s.LatestTasks {
		line := "• " + t.Title
		if t.CreatedBy != nil {
			line += styleMuted().Render(" by " + t.CreatedBy.Username)
		}
		b.WriteString(xansi.Truncate(line, width, "…") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m appModel) usersView() string {
	u := m.users
	page, pages := m.usersPage()

	var b strings.Builder
	if m.searching {
		b.WriteString(m.search.View())
	} else if q := u.Query(); q != "" {
		b.WriteString(styleMuted().Render(fmt.Sprintf("search: %q", q)))
	} else {
		b.WriteString(styleMuted().Render("search: -"))
	}
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(fmt.Sprintf("page %d/%d · %d matching", page+1, max(1, pages), len(u.Matches()))))
	b.WriteString("\n\n")
	b.WriteString(m.listView("No users found."))

	if kind, name, pending := u.Pending(); pending {
		prompt := fmt.Sprintf("Delete user %s? This cannot be undone. (y/n)", name)
		if kind == "admin" {
			prompt = fmt.Sprintf("Make %s an admin? (y/n)", name)
			for _, x := range u.Matches() {
				if x.Username == name && x.IsAdmin {
					prompt = fmt.Sprintf("Remove admin role from %s? (y/n)", name)
				}
			}
		}
		b.WriteString("\n\n")
		b.WriteString(styleError().Render(prompt))
	}
	return b.String()
}

func (m appModel) messagesView(width int) string {
	ms := m.messages
	if msg, open := ms.Opened(); open {
		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(msg.Subject))
		b.WriteString("\n")
		b.WriteString(styleMuted().Render(fmt.Sprintf("From %s <%s> · %s", msg.Name, msg.Email, humanize.Time(msg.CreatedAt.Time))))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Message))
		return b.String()
	}
	head := styleMuted().Render(fmt.Sprintf("%d messages · %d unread", len(ms.List()), ms.Unread()))
	return head + "\n\n" + m.listView("No messages.")
}

func (m appModel) helpView(width int) string {
	var b strings.Builder
	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}
	entries := m.help.FAQ()
	if len(entries) == 0 {
		b.WriteString(styleMuted().Render("No questions match your search."))
		return b.String()
	}
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(e.Question))
		b.WriteString("\n")
		b.WriteString(renderMarkdown(e.Answer, width))
	}
	return b.String()
}
