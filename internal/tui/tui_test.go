package tui

import (
	"context"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/mockapi"
	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// harness drives an appModel synchronously: every command is run inline and its message fed
// back into Update. Timer-driven messages are dropped.
type harness struct {
	t       *testing.T
	m       appModel
	backend *mockapi.Server
	client  *api.Client
	quit    bool
}

func newHarness(t *testing.T, seed func(b *mockapi.Server)) *harness {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Setenv("TASKDESK_TUI_MD_STYLE", "notty")

	backend := mockapi.New()
	if seed != nil {
		seed(backend)
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client, err := api.New(api.Options{BaseURL: srv.URL, Jar: jar, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}

	h := &harness{t: t, backend: backend, client: client}
	h.m = newAppModel(context.Background(), Options{
		API:     client,
		Session: session.New(client),
		Timeout: 5 * time.Second,
	})
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.run(h.m.checkSession())
	return h
}

func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(appModel)
	h.run(cmd)
}

func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg, noticeTickMsg:
		case tea.QuitMsg:
			h.quit = true
		default:
			next, cmd := h.m.Update(msg)
			h.m = next.(appModel)
			queue = append(queue, cmd)
		}
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) keys(ks ...string) {
	h.t.Helper()
	for _, k := range ks {
		h.send(keyMsg(k))
	}
}

// typ sends text as one paste-like rune message.
func (h *harness) typ(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) login(email, password string) {
	h.t.Helper()
	if h.m.view != viewLogin {
		h.t.Fatalf("expected login view, got %v", h.m.view)
	}
	h.typ(email)
	h.keys("tab")
	h.typ(password)
	h.keys("enter")
}

func (h *harness) expectView(v view) {
	h.t.Helper()
	if h.m.view != v {
		h.t.Fatalf("expected view %v, got %v\n%s", v, h.m.view, h.m.View())
	}
}

func (h *harness) expectScreen(parts ...string) {
	h.t.Helper()
	out := h.m.View()
	for _, p := range parts {
		if !strings.Contains(out, p) {
			h.t.Fatalf("expected screen to contain %q; got:\n%s", p, out)
		}
	}
}

func (h *harness) expectNotScreen(parts ...string) {
	h.t.Helper()
	out := h.m.View()
	for _, p := range parts {
		if strings.Contains(out, p) {
			h.t.Fatalf("expected screen not to contain %q; got:\n%s", p, out)
		}
	}
}

func seedAlice(b *mockapi.Server) model.User {
	return b.SeedUser("alice", "alice@example.com", "secret123", true)
}

func seedWork(b *mockapi.Server) {
	alice := seedAlice(b)
	work := b.SeedCategory(alice.ID, "Work", "#ff5722")
	b.SeedTask(alice.ID, model.Task{
		Title:       "Write report",
		Description: "Collect the quarterly numbers",
		Priority:    model.PriorityHigh,
		CategoryID:  &work.ID,
		DueDate:     model.TimePtr(time.Now().Add(-48 * time.Hour)),
	})
	b.SeedTask(alice.ID, model.Task{Title: "Water plants", Priority: model.PriorityLow})
}

func TestBoot_AnonymousLandsOnLogin(t *testing.T) {
	h := newHarness(t, func(b *mockapi.Server) { seedAlice(b) })
	h.expectView(viewLogin)
	h.expectScreen("Sign in", "guest")

	// Submitting an empty form shows the field errors and stays put.
	h.keys("ctrl+s")
	h.expectView(viewLogin)
	h.expectScreen("Email is required", "Password is required")
}

func TestLogin_BadCredentialsShowNotice(t *testing.T) {
	h := newHarness(t, func(b *mockapi.Server) { seedAlice(b) })
	h.login("alice@example.com", "wrong-password")
	h.expectView(viewLogin)
	if h.m.opts.Session.Snapshot().Authenticated() {
		t.Fatalf("expected to stay anonymous")
	}
	if _, ok := h.m.notices.Current(); !ok {
		t.Fatalf("expected an error notice after a failed login")
	}
}

func TestLogin_DashboardListsTasksAndStats(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")
	h.expectView(viewDashboard)
	h.expectScreen("Write report", "Water plants", "2 total", "0 completed", "0%", "alice (admin)", "overdue")
}

func TestDashboard_SearchTabAndToggle(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	h.keys("/")
	h.typ("report")
	h.keys("enter")
	h.expectScreen("Write report", `search: "report"`)
	h.expectNotScreen("Water plants")

	h.keys("space")
	tasks := h.m.dash.Tasks()
	var done bool
	for _, tk := range tasks {
		if tk.Title == "Write report" {
			done = tk.Completed
		}
	}
	if !done {
		t.Fatalf("expected Write report to be completed locally; tasks=%+v", tasks)
	}
	h.expectScreen("1 completed", "50%")

	// Active tab hides the completed task; clearing the search shows the other one.
	h.keys("tab")
	h.expectScreen("No tasks found.")
	h.keys("/", "esc")
	h.expectScreen("Water plants")
	h.expectNotScreen("Write report")

	// The server saw the change too.
	all, err := h.client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	for _, tk := range all {
		if tk.Title == "Write report" && !tk.Completed {
			t.Fatalf("expected the server copy to be completed")
		}
	}
}

func TestDashboard_CategoryAndPriorityCycle(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	h.keys("f")
	h.expectScreen("category: Work", "Write report")
	h.expectNotScreen("Water plants")

	h.keys("x", "P")
	h.expectScreen("priority: Low", "Water plants")
	h.expectNotScreen("Write report")
}

func TestTaskDetail_NotesAndDelete(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	h.keys("/")
	h.typ("report")
	h.keys("enter", "enter")
	h.expectView(viewTask)
	h.expectScreen("Write report", "Collect the quarterly numbers", "No notes.")

	h.keys("N")
	h.typ("call finance")
	h.keys("ctrl+s")
	if h.m.editingNotes {
		t.Fatalf("expected notes editing to end after save")
	}
	h.expectScreen("call finance", "Note updated successfully")

	h.keys("d")
	h.expectScreen(`Delete "Write report"? (y/n)`)
	h.keys("y")
	h.expectView(viewDashboard)
	h.expectScreen("Task deleted successfully", "1 total")
	h.expectNotScreen("Write report")
}

func TestTaskDetail_MissingTaskShowsPageError(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	next, cmd := h.m.navigate(guard.RouteTaskDetail, 9999)
	h.m = next
	h.run(cmd)
	h.expectScreen("Failed to load task details")

	h.keys("esc")
	h.expectView(viewDashboard)
}

func TestTaskCreate_ValidatesThenCreates(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	h.keys("n")
	h.expectView(viewTaskForm)
	if h.m.form == nil {
		t.Fatalf("expected the create form once categories loaded")
	}
	h.keys("ctrl+s")
	h.expectView(viewTaskForm)
	h.expectScreen("Title is required")

	h.typ("Buy milk")
	h.keys("tab", "tab", "right") // priority: Medium -> High
	h.keys("tab", "tab")
	h.typ("not-a-date")
	h.keys("ctrl+s")
	h.expectView(viewTaskForm)
	h.expectScreen("invalid due date")

	// Clear the due date again.
	for range len("not-a-date") {
		h.send(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	h.keys("ctrl+s")
	h.expectView(viewDashboard)
	h.expectScreen("Task created successfully!", "Buy milk", "3 total")

	for _, tk := range h.m.dash.Tasks() {
		if tk.Title == "Buy milk" && tk.Priority != model.PriorityHigh {
			t.Fatalf("expected High priority, got %q", tk.Priority)
		}
	}
}

func TestCategories_CreateAndRejectInUseDelete(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	h.keys("c")
	h.expectView(viewCategories)
	h.expectScreen("Work", "1 task")

	h.keys("d")
	h.expectScreen("Cannot delete category with assigned tasks")

	h.keys("n")
	h.typ("Home")
	h.keys("tab")
	for range len("#2196f3") {
		h.send(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	h.typ("nope")
	h.keys("ctrl+s")
	h.expectScreen("Invalid color format")

	for range len("nope") {
		h.send(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	h.typ("#00aa00")
	h.keys("ctrl+s")
	if h.m.form != nil {
		t.Fatalf("expected the dialog to close after saving")
	}
	h.expectScreen("Category created successfully!", "Home", "Work")
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	h := newHarness(t, func(b *mockapi.Server) {
		seedAlice(b)
		b.SeedUser("bob", "bob@example.com", "secret123", false)
	})
	h.login("bob@example.com", "secret123")
	h.expectView(viewDashboard)

	h.keys("U")
	h.expectView(viewDashboard)
	h.expectScreen("Admin privileges required")
}

func TestUsers_ConfirmBeforeDeleting(t *testing.T) {
	h := newHarness(t, func(b *mockapi.Server) {
		seedAlice(b)
		b.SeedUser("bob", "bob@example.com", "secret123", false)
	})
	h.login("alice@example.com", "secret123")

	h.keys("A")
	h.expectView(viewAdmin)
	h.expectScreen("users (1 admin)", "Task status")

	h.keys("u")
	h.expectView(viewUsers)
	h.expectScreen("alice", "bob", "2 matching")

	h.keys("/")
	h.typ("alice")
	h.keys("enter", "d")
	h.expectScreen("You cannot delete your own account")

	h.keys("/", "esc", "/")
	h.typ("bob")
	h.keys("enter", "d")
	h.expectScreen("Delete user bob?")
	h.keys("n")
	h.expectNotScreen("Delete user bob?")

	h.keys("a")
	h.expectScreen("Make bob an admin? (y/n)")
	h.keys("y")
	h.expectScreen("bob is now an admin")

	h.keys("d", "y")
	h.expectScreen("User bob has been deleted", "No users found.")
}

func TestMessages_OpenMarksRead(t *testing.T) {
	h := newHarness(t, func(b *mockapi.Server) {
		seedAlice(b)
		b.SeedMessage(model.ContactMessage{Name: "Carol", Email: "carol@example.com", Subject: "Cannot log in", Message: "Help please"})
	})
	h.login("alice@example.com", "secret123")

	h.keys("M")
	h.expectView(viewMessages)
	h.expectScreen("1 messages · 1 unread", "Cannot log in")

	h.keys("enter")
	h.expectScreen("Help please", "From Carol <carol@example.com>")
	h.keys("esc")
	h.expectScreen("0 unread")
}

func TestRegister_ReturnsToLoginWithNotice(t *testing.T) {
	h := newHarness(t, func(b *mockapi.Server) { seedAlice(b) })
	h.keys("ctrl+r")
	h.expectView(viewRegister)

	h.typ("carol")
	h.keys("tab")
	h.typ("carol@example.com")
	h.keys("tab")
	h.typ("secret123")
	h.keys("tab")
	h.typ("different")
	h.keys("enter")
	h.expectView(viewRegister)
	h.expectScreen("Passwords must match")

	for range len("different") {
		h.send(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	h.typ("secret123")
	h.keys("enter")
	h.expectView(viewLogin)
	h.expectScreen(msgRegistered)

	h.login("carol@example.com", "secret123")
	h.expectView(viewDashboard)
	h.expectScreen("carol")
	h.expectNotScreen("(admin)")
}

func TestHelp_SearchAndContactPrefill(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	h.keys("?")
	h.expectView(viewHelp)

	h.keys("/")
	h.typ("zzzz-no-match")
	h.expectScreen("No questions match your search.")
	h.keys("esc")

	h.keys("m")
	if h.m.form == nil {
		t.Fatalf("expected the contact form")
	}
	if got := h.m.form.Value("email"); got != "alice@example.com" {
		t.Fatalf("expected the email to be prefilled, got %q", got)
	}
	h.keys("tab", "tab")
	h.typ("Question")
	h.keys("tab")
	h.typ("How do I export?")
	h.keys("enter")
	if h.m.form != nil {
		t.Fatalf("expected the contact form to close after sending")
	}
	h.expectScreen("Message sent successfully!")
}

func TestProfile_PasswordChangeSignsOut(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")

	h.keys("p")
	h.expectView(viewProfile)
	h.expectScreen("alice@example.com", "Admin")

	h.keys("P")
	h.typ("secret123")
	h.keys("tab")
	h.typ("new-secret-1")
	h.keys("tab")
	h.typ("new-secret-1")
	h.keys("enter")
	h.expectView(viewLogin)
	h.expectScreen("Password changed successfully. Please log in again.")
	if h.m.opts.Session.Snapshot().Authenticated() {
		t.Fatalf("expected the session to end")
	}

	h.login("alice@example.com", "new-secret-1")
	h.expectView(viewDashboard)
}

func TestLogout_ReturnsToLogin(t *testing.T) {
	h := newHarness(t, seedWork)
	h.login("alice@example.com", "secret123")
	h.keys("L")
	h.expectView(viewLogin)
	h.expectScreen(msgLoggedOut, "guest")

	h.keys("q")
	if h.quit {
		t.Fatalf("q in the login form is text, not quit")
	}
	h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !h.quit {
		t.Fatalf("expected ctrl+c to quit")
	}
}
