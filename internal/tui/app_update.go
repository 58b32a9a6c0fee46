package tui

import (
	"context"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/screens"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	msgRegistered      = "Registration successful! Please log in."
	msgLoggedOut       = "Logged out"
	msgCannotSelf      = "You cannot delete your own account"
	msgNothingSelected = "Nothing selected"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeTickMsg:
		now := m.now()
		m.notices.Expire(now, noticeTTL)
		if s := m.current(); s != nil {
			s.Notices().Expire(now, noticeTTL)
		}
		return m, tickNotices()

	case sessionMsg:
		next := m.pending
		m.pending = target{route: guard.Landing}
		return m.navigate(next.route, next.id)

	case mountedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.afterMount()
		return m, nil

	case doneMsg:
		m.busy = false
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.nav != nil {
			m.relay()
			return m.navigate(msg.nav.Route, msg.nav.ID)
		}
		if msg.ok {
			m.form = nil
			m.editingNotes = false
			m.notes.Blur()
		}
		m.syncList()
		return m, nil

	case authMsg:
		m.busy = false
		if !msg.ok {
			if e := m.opts.Session.Snapshot().Error; e != "" {
				m.notices.Error(e)
			}
			return m, nil
		}
		if msg.notice != "" {
			m.notices.Success(msg.notice)
		}
		return m.navigate(msg.next, 0)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.searching:
		return m.searchKey(msg)
	case m.editingNotes:
		return m.notesKey(msg)
	case m.form != nil:
		return m.formKey(msg)
	}

	key := msg.String()
	if s := m.current(); s != nil {
		if pe, failed := s.PageError(); failed {
			switch key {
			case "q":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				return m.navigate(pe.Back, 0)
			}
			return m, nil
		}
	}

	switch m.view {
	case viewDashboard:
		return m.dashboardKey(msg)
	case viewTask:
		return m.taskKey(msg)
	case viewCategories:
		return m.categoriesKey(msg)
	case viewProfile:
		return m.profileKey(msg)
	case viewAdmin:
		return m.adminKey(msg)
	case viewUsers:
		return m.usersKey(msg)
	case viewMessages:
		return m.messagesKey(msg)
	case viewHelp:
		return m.helpKey(msg)
	case viewTaskForm:
		// Only reachable while the form is still loading.
		if key == "esc" {
			return m.navigate(guard.RouteDashboard, 0)
		}
	}
	if key == "q" {
		return m, tea.Quit
	}
	return m, nil
}

// forwardList passes navigation keys to the list.
func (m appModel) forwardList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !listNavKeys[msg.String()] {
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m appModel) searchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applySearch("")
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applySearch(m.search.Value())
	return m, cmd
}

func (m *appModel) startSearch(current string) {
	m.searching = true
	m.search.SetValue(current)
	m.search.CursorEnd()
	_ = m.search.Focus()
}

func (m *appModel) applySearch(q string) {
	switch m.view {
	case viewDashboard:
		m.dash.SetSearch(q)
	case viewUsers:
		m.users.SetQuery(q)
	case viewHelp:
		m.help.SetQuery(q)
	}
	m.syncList()
}

func (m appModel) notesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingNotes = false
		m.notes.Blur()
		return m, nil
	case "ctrl+s":
		notes := m.notes.Value()
		d := m.detail
		return m.do(func(ctx context.Context) (*screens.Nav, bool) {
			return nil, d.SaveNotes(ctx, notes)
		})
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m appModel) formKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.cancelForm()
	case "ctrl+r":
		if m.view == viewLogin {
			return m.navigate(guard.RouteRegister, 0)
		}
	case "f1":
		if m.view == viewLogin || m.view == viewRegister {
			return m.navigate(guard.RouteHelp, 0)
		}
	}
	if !m.form.Update(msg) {
		return m, nil
	}
	if !m.form.touchAll() {
		return m, nil
	}
	return m.submitForm()
}

func (m appModel) cancelForm() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewLogin:
		return m, nil
	case viewRegister:
		return m.navigate(guard.RouteLogin, 0)
	case viewTaskForm:
		if m.edit != nil {
			return m.navigate(guard.RouteTaskDetail, m.edit.ID())
		}
		return m.navigate(guard.RouteDashboard, 0)
	case viewCategories:
		m.categories.CloseDialog()
	case viewProfile:
		if m.profile.PasswordOpen() {
			m.profile.ClosePassword(m.ctx)
		} else {
			m.profile.CancelEdit(m.ctx)
		}
	}
	m.form = nil
	return m, nil
}

func (m appModel) submitForm() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewLogin:
		if !m.login.Submit(m.ctx) {
			return m, nil
		}
		v := m.login.Values
		sess := m.opts.Session
		return m.auth(func(ctx context.Context) authMsg {
			return authMsg{ok: sess.Login(ctx, v.Email, v.Password), next: guard.Landing}
		})

	case viewRegister:
		if !m.register.Submit(m.ctx) {
			return m, nil
		}
		r := m.register.Values.Registration()
		sess := m.opts.Session
		return m.auth(func(ctx context.Context) authMsg {
			ok := sess.Register(ctx, r.Username, r.Email, r.Password)
			return authMsg{ok: ok, next: guard.RouteLogin, notice: msgRegistered}
		})

	case viewTaskForm:
		if e := m.edit; e != nil {
			return m.do(func(ctx context.Context) (*screens.Nav, bool) { return navTo(e.Submit(ctx)) })
		}
		c := m.create
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return navTo(c.Submit(ctx)) })

	case viewCategories:
		c := m.categories
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, c.Save(ctx) })

	case viewProfile:
		p := m.profile
		if p.PasswordOpen() {
			return m.do(func(ctx context.Context) (*screens.Nav, bool) { return navTo(p.ChangePassword(ctx)) })
		}
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, p.SaveProfile(ctx) })

	case viewHelp:
		h := m.help
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, h.Submit(ctx) })
	}
	return m, nil
}

// globalKey handles the bindings shared by the signed-in list views.
func (m appModel) globalKey(key string) (tea.Model, tea.Cmd, bool) {
	var r guard.Route
	switch key {
	case "q":
		return m, tea.Quit, true
	case "D":
		r = guard.RouteDashboard
	case "c":
		r = guard.RouteCategories
	case "p":
		r = guard.RouteProfile
	case "?":
		r = guard.RouteHelp
	case "A":
		r = guard.RouteAdminDashboard
	case "U":
		r = guard.RouteAdminUsers
	case "M":
		r = guard.RouteAdminMessages
	case "L":
		sess := m.opts.Session
		next, cmd := m.auth(func(ctx context.Context) authMsg {
			sess.Logout(ctx)
			return authMsg{ok: true, next: guard.RouteLogin, notice: msgLoggedOut}
		})
		return next, cmd, true
	default:
		return m, nil, false
	}
	next, cmd := m.navigate(r, 0)
	return next, cmd, true
}

func (m appModel) dashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dash
	key := msg.String()

	if _, pending := d.PendingDelete(); pending {
		switch key {
		case "y", "enter":
			return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, d.ConfirmDelete(ctx) })
		case "n", "esc":
			d.CancelDelete()
		}
		return m, nil
	}

	switch key {
	case "/":
		m.startSearch(d.Criteria().Search)
		return m, nil
	case "tab":
		d.SetTab(d.Criteria().Tab.Next())
		m.syncList()
		return m, nil
	case "f":
		d.SetCategory(nextCategory(d.Categories(), d.Criteria().Category))
		m.syncList()
		return m, nil
	case "P":
		d.SetPriority(nextPriority(d.Criteria().Priority))
		m.syncList()
		return m, nil
	case "x":
		d.SetSearch("")
		d.SetTab(filter.TabAll)
		d.SetCategory(filter.AllCategories)
		d.SetPriority("")
		m.syncList()
		return m, nil
	case "r":
		return m.do(func(ctx context.Context) (*screens.Nav, bool) {
			d.Refresh(ctx)
			return nil, false
		})
	case "n":
		return m.navigate(guard.RouteTaskCreate, 0)
	}

	if next, cmd, ok := m.globalKey(key); ok {
		return next, cmd
	}

	t, ok := m.selectedTask()
	switch key {
	case "enter", "e", " ", "d":
		if !ok {
			m.notices.Info(msgNothingSelected)
			return m, nil
		}
	default:
		return m.forwardList(msg)
	}
	switch key {
	case "enter":
		return m.navigate(guard.RouteTaskDetail, t.ID)
	case "e":
		return m.navigate(guard.RouteTaskEdit, t.ID)
	case " ":
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, d.ToggleComplete(ctx, t.ID) })
	default:
		d.RequestDelete(t.ID)
		return m, nil
	}
}

// nextCategory cycles all -> each category -> all.
func nextCategory(cs []model.Category, cur int64) int64 {
	if cur == filter.AllCategories {
		if len(cs) == 0 {
			return filter.AllCategories
		}
		return cs[0].ID
	}
	for i, c := range cs {
		if c.ID == cur && i+1 < len(cs) {
			return cs[i+1].ID
		}
	}
	return filter.AllCategories
}

// nextPriority cycles all -> Low -> Medium -> High -> all.
func nextPriority(cur model.Priority) model.Priority {
	if cur == "" {
		return model.Priorities[0]
	}
	for i, p := range model.Priorities {
		if p == cur && i+1 < len(model.Priorities) {
			return model.Priorities[i+1]
		}
	}
	return ""
}

func (m appModel) taskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.detail
	key := msg.String()

	if d.ConfirmingDelete() {
		switch key {
		case "y", "enter":
			return m.do(func(ctx context.Context) (*screens.Nav, bool) { return navTo(d.ConfirmDelete(ctx)) })
		case "n", "esc":
			d.CancelDelete()
		}
		return m, nil
	}

	switch key {
	case "esc", "backspace":
		return m.navigate(guard.RouteDashboard, 0)
	case "q":
		return m, tea.Quit
	}
	t, ok := d.Task()
	if !ok {
		return m, nil
	}
	switch key {
	case " ":
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, d.ToggleComplete(ctx) })
	case "e":
		nav := d.Edit()
		return m.navigate(nav.Route, nav.ID)
	case "d":
		d.RequestDelete()
	case "N":
		m.editingNotes = true
		m.notes.SetValue(t.Notes)
		return m, m.notes.Focus()
	}
	return m, nil
}

func (m appModel) categoriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.categories
	key := msg.String()
	switch key {
	case "esc":
		return m.navigate(guard.RouteDashboard, 0)
	case "n":
		c.OpenCreate(m.ctx)
		m.form = m.categoryForm()
		return m, nil
	case "e", "enter":
		if id := m.selectedID(); id != 0 && c.OpenEdit(m.ctx, id) {
			m.form = m.categoryForm()
		}
		return m, nil
	case "d":
		id := m.selectedID()
		if id == 0 {
			return m, nil
		}
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, c.Delete(ctx, id) })
	}
	if next, cmd, ok := m.globalKey(key); ok {
		return next, cmd
	}
	return m.forwardList(msg)
}

func (m appModel) profileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.profile
	key := msg.String()
	switch key {
	case "esc":
		return m.navigate(guard.RouteDashboard, 0)
	case "e":
		p.StartEdit(m.ctx)
		m.form = m.profileForm()
		return m, nil
	case "P":
		p.OpenPassword(m.ctx)
		m.form = m.passwordForm()
		return m, nil
	}
	next, cmd, _ := m.globalKey(key)
	return next, cmd
}

func (m appModel) adminKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.navigate(guard.RouteDashboard, 0)
	case "u":
		return m.navigate(guard.RouteAdminUsers, 0)
	case "m":
		return m.navigate(guard.RouteAdminMessages, 0)
	case "r":
		return m.navigate(guard.RouteAdminDashboard, 0)
	}
	next, cmd, _ := m.globalKey(msg.String())
	return next, cmd
}

func (m appModel) usersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	u := m.users
	key := msg.String()

	if kind, _, pending := u.Pending(); pending {
		switch key {
		case "y", "enter":
			if kind == "delete" {
				return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, u.ConfirmDelete(ctx) })
			}
			return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, u.ConfirmToggleAdmin(ctx) })
		case "n", "esc":
			u.CancelDialogs()
		}
		return m, nil
	}

	switch key {
	case "esc":
		return m.navigate(guard.RouteAdminDashboard, 0)
	case "/":
		m.startSearch(u.Query())
		return m, nil
	case "left", "h", "right", "l":
		page, pages := m.usersPage()
		if key == "left" || key == "h" {
			page--
		} else {
			page++
		}
		if page >= 0 && page < pages {
			u.SetPage(page)
			m.list.Select(0)
			m.syncList()
		}
		return m, nil
	case "a":
		if id := m.selectedID(); id != 0 {
			u.RequestToggleAdmin(id)
		}
		return m, nil
	case "d":
		id := m.selectedID()
		if id == 0 {
			return m, nil
		}
		if me := m.opts.Session.User(); me != nil && me.ID == id {
			m.notices.Error(msgCannotSelf)
			return m, nil
		}
		u.RequestDelete(id)
		return m, nil
	}
	if next, cmd, ok := m.globalKey(key); ok {
		return next, cmd
	}
	return m.forwardList(msg)
}

func (m appModel) messagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ms := m.messages
	key := msg.String()

	if _, open := ms.Opened(); open {
		switch key {
		case "esc", "backspace", "enter":
			ms.Close()
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "esc":
		return m.navigate(guard.RouteAdminDashboard, 0)
	case "enter":
		id := m.selectedID()
		if id == 0 {
			return m, nil
		}
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, ms.Open(ctx, id) })
	case "R":
		id := m.selectedID()
		if id == 0 {
			return m, nil
		}
		return m.do(func(ctx context.Context) (*screens.Nav, bool) { return nil, ms.MarkRead(ctx, id) })
	}
	if next, cmd, ok := m.globalKey(key); ok {
		return next, cmd
	}
	return m.forwardList(msg)
}

func (m appModel) helpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "/":
		m.startSearch("")
		return m, nil
	case "m":
		m.form = m.contactForm()
		return m, nil
	case "esc":
		if m.opts.Session.Snapshot().Authenticated() {
			return m.navigate(guard.RouteDashboard, 0)
		}
		return m.navigate(guard.RouteLogin, 0)
	case "q":
		return m, tea.Quit
	}
	if m.opts.Session.Snapshot().Authenticated() {
		next, cmd, _ := m.globalKey(key)
		return next, cmd
	}
	return m, nil
}
