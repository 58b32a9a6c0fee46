package tui

import (
	"time"

	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/screens"
	"taskdesk-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

type view int

const (
	viewBoot view = iota
	viewLogin
	viewRegister
	viewDashboard
	viewTask
	viewTaskForm
	viewCategories
	viewProfile
	viewAdmin
	viewUsers
	viewMessages
	viewHelp
)

var viewTitles = map[view]string{
	viewBoot:       "Loading",
	viewLogin:      "Login",
	viewRegister:   "Register",
	viewDashboard:  "Dashboard",
	viewTask:       "Task",
	viewTaskForm:   "Task",
	viewCategories: "Categories",
	viewProfile:    "Profile",
	viewAdmin:      "Admin",
	viewUsers:      "Users",
	viewMessages:   "Messages",
	viewHelp:       "Help",
}

// noticeTTL is how long a notice stays in the status line.
const noticeTTL = 4 * time.Second

// target is a route waiting for the session check.
type target struct {
	route guard.Route
	id    int64
}

// sessionMsg carries the resolved session after the startup check.
type sessionMsg struct{ state session.State }

// mountedMsg reports that the screen mounted in navigation seq has loaded.
type mountedMsg struct{ seq int }

// doneMsg reports that an action issued in navigation seq finished; nav is set when the
// action asks to move on.
type doneMsg struct {
	seq int
	nav *screens.Nav
	ok  bool
}

// authMsg reports the outcome of a login, registration or logout.
type authMsg struct {
	ok   bool
	next guard.Route
	// notice is shown on success.
	notice string
}

type noticeTickMsg struct{}

func tickNotices() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return noticeTickMsg{} })
}
