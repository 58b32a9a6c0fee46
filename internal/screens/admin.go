package screens

import (
	"context"
	"fmt"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgAdminLoadFailed  = "Failed to load admin dashboard data"
	msgUsersLoadFailed  = "Failed to load users"
	msgUserDeleteFailed = "Failed to delete user"
	msgUserUpdateFailed = "Failed to update user"
	msgMessagesFailed   = "Failed to load messages"
	msgMarkReadFailed   = "Failed to mark message as read"
)

// AdminDashboard is the admin overview: counts, latest tasks, the status chart and user growth.
type AdminDashboard struct {
	screen
	api API

	users   []model.User
	summary filter.AdminSummary
	stats   model.AdminStats
}

func NewAdminDashboard(a API, opts ...Option) *AdminDashboard {
	d := &AdminDashboard{api: a}
	d.init("admin-dashboard", opts)
	return d
}

// Mount fetches users, stats, tasks and categories in parallel. All four are needed; any
// failure turns the screen into a page error.
func (d *AdminDashboard) Mount(ctx context.Context) {
	gen := d.attach()
	var (
		users      []model.User
		stats      model.AdminStats
		tasks      []model.Task
		categories []model.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = d.api.ListUsers(gctx); return })
	g.Go(func() (err error) { stats, err = d.api.AdminStats(gctx); return })
	g.Go(func() (err error) { tasks, err = d.api.ListTasks(gctx); return })
	g.Go(func() (err error) { categories, err = d.api.ListCategories(gctx); return })
	err := g.Wait()

	d.apply(gen, func() {
		d.loading = false
		if err != nil {
			d.log.Debug(msgAdminLoadFailed, zap.Error(err))
			d.pageErr = &PageError{Message: msgAdminLoadFailed, Back: guard.RouteDashboard}
			return
		}
		d.users = users
		d.stats = stats
		d.summary = filter.SummarizeAdmin(users, tasks, categories)
	})
}

func (d *AdminDashboard) Summary() filter.AdminSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summary
}

func (d *AdminDashboard) StatusChart() []filter.StatusSlice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return filter.StatusChart(d.stats)
}

// Growth returns the new-user counts per month, oldest first.
func (d *AdminDashboard) Growth() []model.MonthCount {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.MonthCount{}, d.stats.UserGrowth...)
}

func (d *AdminDashboard) Users() []model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.User{}, d.users...)
}

// userDialog is a pending confirmation on the user-management screen.
type userDialog struct {
	userID   int64
	username string
	// makeAdmin is the role the admin dialog grants or revokes.
	makeAdmin bool
}

// Users is the admin user-management screen: search, paging, role toggle and deletion, each
// mutation behind its own confirmation.
type Users struct {
	screen
	api API

	users   []model.User
	query   string
	page    int
	perPage int

	adminDialog  *userDialog
	deleteDialog *userDialog
}

func NewUsers(a API, opts ...Option) *Users {
	u := &Users{api: a, perPage: filter.DefaultPerPage}
	u.init("users", opts)
	return u
}

func (u *Users) Mount(ctx context.Context) {
	gen := u.attach()
	u.fetch(ctx, gen)
}

func (u *Users) fetch(ctx context.Context, gen uint64) {
	us, err := u.api.ListUsers(ctx)
	u.apply(gen, func() {
		u.loading = false
		if err != nil {
			u.log.Debug(msgUsersLoadFailed, zap.Error(err))
			u.notices.Error(msgUsersLoadFailed)
			return
		}
		u.users = us
	})
}

// SetQuery filters by username or email and goes back to the first page.
func (u *Users) SetQuery(q string) {
	u.mu.Lock()
	u.query = q
	u.page = 0
	u.mu.Unlock()
}

func (u *Users) Query() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.query
}

// SetPage selects a zero-based page.
func (u *Users) SetPage(page int) {
	u.mu.Lock()
	if page < 0 {
		page = 0
	}
	u.page = page
	u.mu.Unlock()
}

// SetPerPage changes the page size and goes back to the first page.
func (u *Users) SetPerPage(n int) {
	u.mu.Lock()
	if n <= 0 {
		n = filter.DefaultPerPage
	}
	u.perPage = n
	u.page = 0
	u.mu.Unlock()
}

// Matches returns every user matching the query.
func (u *Users) Matches() []model.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	return filter.Users(u.users, u.query)
}

// Page returns the rows of the current page, the page index and the page count.
func (u *Users) Page() ([]model.User, int, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rows, pages := filter.Page(filter.Users(u.users, u.query), u.page, u.perPage)
	return append([]model.User{}, rows...), u.page, pages
}

func (u *Users) find(id int64) (model.User, bool) {
	for _, x := range u.users {
		if x.ID == id {
			return x, true
		}
	}
	return model.User{}, false
}

// RequestToggleAdmin opens the role dialog for a user.
func (u *Users) RequestToggleAdmin(id int64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	x, ok := u.find(id)
	if !ok {
		return false
	}
	u.adminDialog = &userDialog{userID: x.ID, username: x.Username, makeAdmin: !x.IsAdmin}
	return true
}

// RequestDelete opens the delete dialog for a user.
func (u *Users) RequestDelete(id int64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	x, ok := u.find(id)
	if !ok {
		return false
	}
	u.deleteDialog = &userDialog{userID: x.ID, username: x.Username}
	return true
}

func (u *Users) CancelDialogs() {
	u.mu.Lock()
	u.adminDialog = nil
	u.deleteDialog = nil
	u.mu.Unlock()
}

// Pending describes the open dialog, if any: its kind ("admin" or "delete") and the username.
func (u *Users) Pending() (kind, username string, ok bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch {
	case u.adminDialog != nil:
		return "admin", u.adminDialog.username, true
	case u.deleteDialog != nil:
		return "delete", u.deleteDialog.username, true
	}
	return "", "", false
}

// ConfirmToggleAdmin applies the pending role change and refetches the list.
func (u *Users) ConfirmToggleAdmin(ctx context.Context) bool {
	gen := u.token()
	u.mu.Lock()
	dlg := u.adminDialog
	u.adminDialog = nil
	u.mu.Unlock()
	if dlg == nil {
		return false
	}

	makeAdmin := dlg.makeAdmin
	if _, err := u.api.UpdateUser(ctx, dlg.userID, model.UserChange{IsAdmin: &makeAdmin}); err != nil {
		u.fail(gen, msgUserUpdateFailed, err)
		return false
	}
	msg := fmt.Sprintf("%s is no longer an admin", dlg.username)
	if makeAdmin {
		msg = fmt.Sprintf("%s is now an admin", dlg.username)
	}
	u.succeed(gen, msg)
	u.fetch(ctx, gen)
	return true
}

// ConfirmDelete deletes the pending user and refetches the list.
func (u *Users) ConfirmDelete(ctx context.Context) bool {
	gen := u.token()
	u.mu.Lock()
	dlg := u.deleteDialog
	u.deleteDialog = nil
	u.mu.Unlock()
	if dlg == nil {
		return false
	}

	if err := u.api.DeleteUser(ctx, dlg.userID); err != nil {
		u.fail(gen, msgUserDeleteFailed, err)
		return false
	}
	u.succeed(gen, fmt.Sprintf("User %s has been deleted", dlg.username))
	u.fetch(ctx, gen)
	return true
}

// Messages is the admin inbox of contact messages.
type Messages struct {
	screen
	api API

	messages []model.ContactMessage
	open     *model.ContactMessage
}

func NewMessages(a API, opts ...Option) *Messages {
	m := &Messages{api: a}
	m.init("messages", opts)
	return m
}

func (m *Messages) Mount(ctx context.Context) {
	gen := m.attach()
	ms, err := m.api.ListMessages(ctx)
	m.apply(gen, func() {
		m.loading = false
		if err != nil {
			m.log.Debug(msgMessagesFailed, zap.Error(err))
			m.notices.Error(msgMessagesFailed)
			return
		}
		m.messages = ms
	})
}

func (m *Messages) List() []model.ContactMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ContactMessage{}, m.messages...)
}

// Unread counts messages not yet read.
func (m *Messages) Unread() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if !msg.IsRead {
			n++
		}
	}
	return n
}

// Open shows a message and marks it read when it was unread.
func (m *Messages) Open(ctx context.Context, id int64) bool {
	m.mu.Lock()
	var found *model.ContactMessage
	for i := range m.messages {
		if m.messages[i].ID == id {
			msg := m.messages[i]
			found = &msg
			break
		}
	}
	m.open = found
	m.mu.Unlock()
	if found == nil {
		return false
	}
	if !found.IsRead {
		m.MarkRead(ctx, id)
	}
	return true
}

// Opened returns the message being shown.
func (m *Messages) Opened() (model.ContactMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == nil {
		return model.ContactMessage{}, false
	}
	return *m.open, true
}

func (m *Messages) Close() {
	m.mu.Lock()
	m.open = nil
	m.mu.Unlock()
}

// MarkRead marks a message read on the server and patches the local copy. Marking a read
// message again changes nothing.
func (m *Messages) MarkRead(ctx context.Context, id int64) bool {
	gen := m.token()
	if err := m.api.MarkMessageRead(ctx, id); err != nil {
		m.fail(gen, msgMarkReadFailed, err)
		return false
	}
	return m.apply(gen, func() {
		for i := range m.messages {
			if m.messages[i].ID == id {
				m.messages[i] = model.MarkRead(m.messages[i])
			}
		}
		if m.open != nil && m.open.ID == id {
			read := model.MarkRead(*m.open)
			m.open = &read
		}
	})
}
