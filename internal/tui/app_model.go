package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/notify"
	"taskdesk-cli/internal/screens"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// mountable is what every screen container shares.
type mountable interface {
	Mount(ctx context.Context)
	Unmount()
	Notices() *notify.Center
	Loading() bool
	PageError() (screens.PageError, bool)
}

type appModel struct {
	ctx  context.Context
	opts Options
	log  *zap.Logger
	now  func() time.Time

	width  int
	height int

	view  view
	route guard.Route
	// pending is the route to open once the session check resolves.
	pending target
	// seq increments on every navigation; results issued under an older seq only refresh.
	seq int
	// busy is set while an action runs; further actions wait for it.
	busy bool

	spinner spinner.Model
	// notices outlive screens: auth results and notices carried across a navigation.
	notices *notify.Center

	dash       *screens.Dashboard
	detail     *screens.TaskDetail
	create     *screens.TaskCreate
	edit       *screens.TaskEdit
	categories *screens.Categories
	profile    *screens.Profile
	admin      *screens.AdminDashboard
	users      *screens.Users
	messages   *screens.Messages
	help       *screens.Help

	login    *form.State[form.LoginForm]
	register *form.State[form.RegisterForm]

	list      list.Model
	search    textinput.Model
	searching bool
	form      *formModel
	notes     textarea.Model
	// editingNotes is set while the notes textarea has focus.
	editingNotes bool
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := appModel{
		ctx:     ctx,
		opts:    opts,
		log:     log.Named("tui"),
		now:     now,
		view:    viewBoot,
		route:   guard.Landing,
		pending: target{route: guard.Landing},
		notices: notify.NewCenter(),
	}
	m.login = form.NewState(ctx, form.LoginForm{})
	m.register = form.NewState(ctx, form.RegisterForm{})

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = styleTitle()

	m.search = newInput("Search", 100)
	m.search.Prompt = "/ "

	m.notes = textarea.New()
	m.notes.Placeholder = "Notes (markdown)"
	m.notes.CharLimit = 0
	m.notes.ShowLineNumbers = false
	m.notes.SetWidth(72)
	m.notes.SetHeight(8)
	_ = m.notes.Cursor.SetMode(cursor.CursorStatic)

	m.list = newList(taskDelegate{})
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickNotices(), m.checkSession())
}

// call derives the context for one backend call.
func (m appModel) call() (context.Context, context.CancelFunc) {
	if m.opts.Timeout > 0 {
		return context.WithTimeout(m.ctx, m.opts.Timeout)
	}
	return context.WithCancel(m.ctx)
}

func (m appModel) screenOpts() []screens.Option {
	return []screens.Option{screens.WithLogger(m.log), screens.WithClock(m.now)}
}

func (m appModel) checkSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.call()
		defer cancel()
		return sessionMsg{state: m.opts.Session.Check(ctx)}
	}
}

// current returns the mounted screen container, nil for the auth views.
func (m appModel) current() mountable {
	switch m.view {
	case viewDashboard:
		return m.dash
	case viewTask:
		return m.detail
	case viewTaskForm:
		if m.edit != nil {
			return m.edit
		}
		return m.create
	case viewCategories:
		return m.categories
	case viewProfile:
		return m.profile
	case viewAdmin:
		return m.admin
	case viewUsers:
		return m.users
	case viewMessages:
		return m.messages
	case viewHelp:
		return m.help
	}
	return nil
}

func (m appModel) loading() bool {
	if m.view == viewBoot {
		return true
	}
	if s := m.current(); s != nil {
		return s.Loading()
	}
	return false
}

// navigate opens route r after the guard has had its say. Redirects are followed; a route
// that has to wait for the session parks in boot.
func (m appModel) navigate(r guard.Route, id int64) (appModel, tea.Cmd) {
	d := guard.Check(m.opts.Session.Snapshot(), r)
	switch d.Action {
	case guard.Wait:
		m.pending = target{route: r, id: id}
		m.view = viewBoot
		return m, tea.Batch(m.spinner.Tick, m.checkSession())
	case guard.Redirect:
		if r.RequiresAdmin() && d.Target == guard.Landing {
			m.notices.Error("Admin privileges required")
		}
		if d.Target == r {
			return m, nil
		}
		return m.navigate(d.Target, 0)
	}

	if s := m.current(); s != nil {
		s.Unmount()
	}
	m.seq++
	m.route = r
	m.searching = false
	m.search.Blur()
	m.search.SetValue("")
	m.editingNotes = false
	m.notes.Blur()
	m.form = nil
	m.edit, m.create = nil, nil

	var s mountable
	switch r {
	case guard.RouteLogin:
		m.view = viewLogin
		m.form = m.loginForm()
		return m, nil
	case guard.RouteRegister:
		m.view = viewRegister
		m.form = m.registerForm()
		return m, nil
	case guard.RouteDashboard:
		m.dash = screens.NewDashboard(m.opts.API, m.screenOpts()...)
		m.view, s = viewDashboard, m.dash
		m.list = newList(taskDelegate{})
	case guard.RouteTaskDetail:
		m.detail = screens.NewTaskDetail(m.opts.API, id, m.screenOpts()...)
		m.view, s = viewTask, m.detail
	case guard.RouteTaskCreate:
		m.create = screens.NewTaskCreate(m.opts.API, m.screenOpts()...)
		m.view, s = viewTaskForm, m.create
	case guard.RouteTaskEdit:
		m.edit = screens.NewTaskEdit(m.opts.API, id, m.screenOpts()...)
		m.view, s = viewTaskForm, m.edit
	case guard.RouteCategories:
		m.categories = screens.NewCategories(m.opts.API, m.screenOpts()...)
		m.view, s = viewCategories, m.categories
		m.list = newList(rowDelegate{})
	case guard.RouteProfile:
		m.profile = screens.NewProfile(m.opts.API, m.opts.Session, m.screenOpts()...)
		m.view, s = viewProfile, m.profile
	case guard.RouteAdminDashboard:
		m.admin = screens.NewAdminDashboard(m.opts.API, m.screenOpts()...)
		m.view, s = viewAdmin, m.admin
	case guard.RouteAdminUsers:
		m.users = screens.NewUsers(m.opts.API, m.screenOpts()...)
		m.view, s = viewUsers, m.users
		m.list = newList(rowDelegate{})
	case guard.RouteAdminMessages:
		m.messages = screens.NewMessages(m.opts.API, m.screenOpts()...)
		m.view, s = viewMessages, m.messages
		m.list = newList(rowDelegate{})
	case guard.RouteHelp:
		m.help = screens.NewHelp(m.opts.API, m.screenOpts()...)
		m.view, s = viewHelp, m.help
	default:
		m.log.Debug("route has no view", zap.Stringer("route", r))
		return m.navigate(guard.Landing, 0)
	}
	m.log.Debug("navigate", zap.Stringer("route", r), zap.Int64("id", id), zap.Int("seq", m.seq))
	m.resize()
	return m, tea.Batch(m.spinner.Tick, m.mount(s))
}

func (m appModel) mount(s mountable) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		ctx, cancel := m.call()
		defer cancel()
		s.Mount(ctx)
		return mountedMsg{seq: seq}
	}
}

// do runs an action off the update loop. fn returns the navigation to follow, if any, and
// whether the action succeeded.
func (m appModel) do(fn func(ctx context.Context) (*screens.Nav, bool)) (appModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	seq := m.seq
	return m, func() tea.Msg {
		ctx, cancel := m.call()
		defer cancel()
		nav, ok := fn(ctx)
		return doneMsg{seq: seq, nav: nav, ok: ok}
	}
}

// auth runs a session call off the update loop.
func (m appModel) auth(fn func(ctx context.Context) authMsg) (appModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	return m, func() tea.Msg {
		ctx, cancel := m.call()
		defer cancel()
		return fn(ctx)
	}
}

// navTo adapts a screen result to do's signature.
func navTo(nav screens.Nav, ok bool) (*screens.Nav, bool) {
	if !ok {
		return nil, false
	}
	return &nav, true
}

// relay copies the screen's current notice into the app center so it survives navigation.
func (m appModel) relay() {
	s := m.current()
	if s == nil {
		return
	}
	n, ok := s.Notices().Current()
	if !ok {
		return
	}
	switch n.Severity {
	case notify.Error:
		m.notices.Error(n.Message)
	case notify.Success:
		m.notices.Success(n.Message)
	default:
		m.notices.Info(n.Message)
	}
	s.Notices().Dismiss()
}

// notice picks the newest notice between the app and the current screen.
func (m appModel) notice() (notify.Notice, bool) {
	n, ok := m.notices.Current()
	if s := m.current(); s != nil {
		if sn, sok := s.Notices().Current(); sok && (!ok || !sn.At.Before(n.At)) {
			return sn, true
		}
	}
	return n, ok
}

func (m *appModel) resize() {
	w := max(20, m.width-2)
	h := max(3, m.height-m.chromeHeight())
	m.list.SetSize(w, h)
	m.notes.SetWidth(max(20, min(100, w)))
}

// chromeHeight is the number of lines around the list in the current view.
func (m appModel) chromeHeight() int {
	const frame = 5 // header, blank, blank, status, hint
	switch m.view {
	case viewDashboard:
		return frame + 4
	case viewUsers:
		return frame + 3
	case viewMessages, viewCategories:
		return frame + 2
	}
	return frame
}

// syncList rebuilds the list items from the current screen, keeping the cursor in range.
func (m *appModel) syncList() {
	var items []list.Item
	switch m.view {
	case viewDashboard:
		if m.dash == nil {
			return
		}
		for _, t := range m.dash.Visible() {
			items = append(items, taskItem{task: t, due: m.dash.DueInfo(t)})
		}
	case viewCategories:
		if m.categories == nil {
			return
		}
		for _, c := range m.categories.List() {
			items = append(items, rowItem{
				id:     c.ID,
				marker: "■",
				title:  c.Name,
				meta:   fmt.Sprintf("%s · %d %s", c.Color, c.TaskCount, plural(c.TaskCount, "task")),
			})
		}
	case viewUsers:
		if m.users == nil {
			return
		}
		rows, _, _ := m.users.Page()
		for _, u := range rows {
			meta := u.Email
			if u.DateJoined != nil {
				meta += " · joined " + humanize.Time(u.DateJoined.Time)
			}
			meta += fmt.Sprintf(" · %d/%d done", u.CompletedTaskCount, u.TaskCount)
			marker := ""
			if u.IsAdmin {
				marker = "★"
			}
			items = append(items, rowItem{id: u.ID, marker: marker, title: u.Username, meta: meta})
		}
	case viewMessages:
		if m.messages == nil {
			return
		}
		for _, msg := range m.messages.List() {
			marker := "●"
			if msg.IsRead {
				marker = ""
			}
			items = append(items, rowItem{
				id:     msg.ID,
				marker: marker,
				title:  msg.Subject,
				meta:   fmt.Sprintf("%s <%s> · %s", msg.Name, msg.Email, humanize.Time(msg.CreatedAt.Time)),
				dim:    msg.IsRead,
			})
		}
	default:
		return
	}
	_ = m.list.SetItems(items)
	if n := len(items); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// selectedID is the id under the cursor, 0 when the list is empty.
func (m appModel) selectedID() int64 {
	switch it := m.list.SelectedItem().(type) {
	case taskItem:
		return it.task.ID
	case rowItem:
		return it.id
	}
	return 0
}

func (m appModel) selectedTask() (model.Task, bool) {
	it, ok := m.list.SelectedItem().(taskItem)
	return it.task, ok
}

// afterMount prepares view state that depends on loaded data.
func (m *appModel) afterMount() {
	switch m.view {
	case viewTaskForm:
		if _, failed := m.current().PageError(); failed {
			return
		}
		if m.edit != nil {
			m.form = m.taskEditForm()
		} else {
			m.form = m.taskCreateForm()
		}
	case viewHelp:
		// Prefill the contact form for a signed-in user.
		if u := m.opts.Session.User(); u != nil {
			m.help.Change(m.ctx, func(f *form.ContactForm) {
				f.Name = u.Username
				f.Email = u.Email
			})
		}
	}
	m.syncList()
}

// Form builders. Each pushes changes into the owning form state.

func (m appModel) loginForm() *formModel {
	st := m.login
	st.Reset(m.ctx, form.LoginForm{})
	fm := newFormModel("Sign in", "login").
		text("email", "Email", "", 254).
		secret("password", "Password")
	fm.set = func(key, v string) error {
		st.Change(m.ctx, func(f *form.LoginForm) {
			switch key {
			case "email":
				f.Email = v
			case "password":
				f.Password = v
			}
		})
		return nil
	}
	fm.blur = st.Blur
	fm.errs = st.Visible
	return fm
}

func (m appModel) registerForm() *formModel {
	st := m.register
	st.Reset(m.ctx, form.RegisterForm{})
	fm := newFormModel("Create an account", "register").
		text("username", "Username", "", 20).
		text("email", "Email", "", 254).
		secret("password", "Password").
		secret("confirm_password", "Confirm password")
	fm.set = func(key, v string) error {
		st.Change(m.ctx, func(f *form.RegisterForm) {
			switch key {
			case "username":
				f.Username = v
			case "email":
				f.Email = v
			case "password":
				f.Password = v
			case "confirm_password":
				f.ConfirmPassword = v
			}
		})
		return nil
	}
	fm.blur = st.Blur
	fm.errs = st.Visible
	return fm
}

func priorityChoices() []choice {
	out := make([]choice, 0, len(model.Priorities))
	for _, p := range model.Priorities {
		out = append(out, choice{label: string(p), value: string(p)})
	}
	return out
}

func categoryChoices(cs []model.Category) []choice {
	out := []choice{{label: "None", value: ""}}
	for _, c := range cs {
		out = append(out, choice{label: c.Name, value: strconv.FormatInt(c.ID, 10)})
	}
	return out
}

func optionalID(v string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func optionalIDText(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// optionalDue parses the due field; empty clears it.
func optionalDue(v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := form.ParseDue(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// dueText is the inverse of optionalDue for prefilling: end-of-day dates show as a plain date.
func dueText(d *time.Time) string {
	if d == nil {
		return ""
	}
	local := d.Local()
	if local.Hour() == 23 && local.Minute() == 59 && local.Second() == 59 {
		return local.Format(time.DateOnly)
	}
	return local.Format(time.RFC3339)
}

func (m appModel) taskCreateForm() *formModel {
	c := m.create
	v := c.Values()
	fm := newFormModel("New task", "create").
		text("title", "Title", v.Title, 100).
		text("description", "Description", v.Description, 1000).
		choice("priority", "Priority", priorityChoices(), string(model.PriorityFromOrdinal(v.Priority))).
		choice("category_id", "Category", categoryChoices(c.Categories()), optionalIDText(v.CategoryID)).
		text("due_date", "Due (YYYY-MM-DD)", "", 25)
	fm.set = func(key, val string) error {
		var err error
		c.Change(m.ctx, func(f *form.TaskCreateForm) {
			switch key {
			case "title":
				f.Title = val
			case "description":
				f.Description = val
			case "priority":
				f.Priority = model.Priority(val).Ordinal()
			case "category_id":
				f.CategoryID = optionalID(val)
			case "due_date":
				var d *time.Time
				if d, err = optionalDue(val); err == nil {
					f.DueDate = d
				}
			}
		})
		return err
	}
	fm.blur = c.Blur
	fm.errs = c.Errors
	return fm
}

func (m appModel) taskEditForm() *formModel {
	e := m.edit
	v := e.Values()
	fm := newFormModel("Edit task", "save").
		text("title", "Title", v.Title, 100).
		text("description", "Description", v.Description, 500).
		choice("priority", "Priority", priorityChoices(), string(v.Priority)).
		choice("category_id", "Category", categoryChoices(e.Categories()), optionalIDText(v.CategoryID)).
		text("due_date", "Due (YYYY-MM-DD)", dueText(v.DueDate), 25)
	fm.set = func(key, val string) error {
		var err error
		e.Change(m.ctx, func(f *form.TaskEditForm) {
			switch key {
			case "title":
				f.Title = val
			case "description":
				f.Description = val
			case "priority":
				f.Priority = model.Priority(val)
			case "category_id":
				f.CategoryID = optionalID(val)
			case "due_date":
				var d *time.Time
				if d, err = optionalDue(val); err == nil {
					f.DueDate = d
				}
			}
		})
		return err
	}
	fm.blur = e.Blur
	fm.errs = e.Errors
	return fm
}

func (m appModel) categoryForm() *formModel {
	c := m.categories
	v := c.Values()
	title := "New category"
	if _, editing := c.Dialog(); editing != 0 {
		title = "Edit category"
	}
	fm := newFormModel(title, "save").
		text("name", "Name", v.Name, 50).
		text("color", "Color (#rrggbb)", v.Color, 7)
	fm.set = func(key, val string) error {
		c.Change(m.ctx, func(f *form.CategoryForm) {
			switch key {
			case "name":
				f.Name = val
			case "color":
				f.Color = val
			}
		})
		return nil
	}
	fm.errs = c.Errors
	return fm
}

func (m appModel) profileForm() *formModel {
	p := m.profile
	v := p.ProfileValues()
	fm := newFormModel("Edit profile", "save").
		text("username", "Username", v.Username, 20).
		text("email", "Email", v.Email, 254)
	fm.set = func(key, val string) error {
		p.ChangeProfile(m.ctx, func(f *form.ProfileForm) {
			switch key {
			case "username":
				f.Username = val
			case "email":
				f.Email = val
			}
		})
		return nil
	}
	fm.errs = p.ProfileErrors
	return fm
}

func (m appModel) passwordForm() *formModel {
	p := m.profile
	fm := newFormModel("Change password", "change").
		secret("current_password", "Current password").
		secret("new_password", "New password").
		secret("confirm_password", "Confirm new password")
	fm.set = func(key, val string) error {
		p.ChangePasswordForm(m.ctx, func(f *form.PasswordForm) {
			switch key {
			case "current_password":
				f.CurrentPassword = val
			case "new_password":
				f.NewPassword = val
			case "confirm_password":
				f.ConfirmPassword = val
			}
		})
		return nil
	}
	fm.errs = p.PasswordErrors
	return fm
}

func (m appModel) contactForm() *formModel {
	h := m.help
	v := h.Values()
	fm := newFormModel("Contact us", "send").
		text("name", "Name", v.Name, 100).
		text("email", "Email", v.Email, 254).
		text("subject", "Subject", v.Subject, 200).
		text("message", "Message", v.Message, 0)
	fm.set = func(key, val string) error {
		h.Change(m.ctx, func(f *form.ContactForm) {
			switch key {
			case "name":
				f.Name = val
			case "email":
				f.Email = val
			case "subject":
				f.Subject = val
			case "message":
				f.Message = val
			}
		})
		return nil
	}
	fm.errs = h.Errors
	return fm
}

// usersPage returns the zero-based page and the page count of the users screen.
func (m appModel) usersPage() (int, int) {
	_, page, pages := m.users.Page()
	return page, pages
}

// criteriaLine describes the dashboard filters.
func criteriaLine(c filter.Criteria, cats []model.Category) string {
	cat := "all"
	for _, x := range cats {
		if x.ID == c.Category {
			cat = x.Name
		}
	}
	prio := "all"
	if c.Priority != "" {
		prio = string(c.Priority)
	}
	parts := []string{"category: " + cat, "priority: " + prio}
	if c.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", c.Search))
	}
	return strings.Join(parts, "  ")
}
