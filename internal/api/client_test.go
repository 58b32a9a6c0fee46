package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"taskdesk-cli/internal/mockapi"
	"taskdesk-cli/internal/model"
)

func newTestAPI(t *testing.T, backend http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	c, err := New(Options{BaseURL: srv.URL, Jar: jar, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew_InvalidScheme_Errors(t *testing.T) {
	if _, err := New(Options{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("new default: %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", c.BaseURL())
	}
}

func TestLogin_SessionCookieAuthenticatesLaterCalls(t *testing.T) {
	backend := mockapi.New()
	backend.SeedUser("alice", "alice@example.com", "secret1", false)
	c := newTestAPI(t, backend)
	ctx := context.Background()

	if _, err := c.CurrentUser(ctx); !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized before login, got %v", err)
	}
	u, err := c.Login(ctx, "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("unexpected user %+v", u)
	}
	me, err := c.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if me.ID != u.ID {
		t.Fatalf("expected same user, got %+v", me)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := c.CurrentUser(ctx); !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestLogin_BadCredentials_CarriesServerMessage(t *testing.T) {
	backend := mockapi.New()
	backend.SeedUser("alice", "alice@example.com", "secret1", false)
	c := newTestAPI(t, backend)

	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	if !IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if got := MessageOr(err, "Failed to login"); got != "Invalid email or password" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestTasks_CreateUpdateDelete(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	backend := mockapi.New(mockapi.WithClock(func() time.Time { return now }))
	u := backend.SeedUser("alice", "alice@example.com", "secret1", false)
	cat := backend.SeedCategory(u.ID, "Work", "#123456")
	c := newTestAPI(t, backend)
	ctx := context.Background()
	if _, err := c.Login(ctx, "alice@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	due := model.NewTime(now.Add(72 * time.Hour))
	created, err := c.CreateTask(ctx, NewTask{
		Title:      "Ship release",
		Priority:   model.PriorityHigh.Ordinal(),
		CategoryID: &cat.ID,
		DueDate:    &due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != model.PriorityHigh {
		t.Fatalf("expected ordinal 3 to map to High, got %q", created.Priority)
	}
	if created.DueDate == nil || !created.DueDate.Equal(due.Time) {
		t.Fatalf("expected due date %v, got %v", due, created.DueDate)
	}

	change := model.ToggleCompletion(created)
	updated, err := c.UpdateTask(ctx, created.ID, change)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", updated)
	}

	cleared, err := c.UpdateTask(ctx, created.ID, model.TaskChange{ClearDueDate: true, ClearCategory: true})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.DueDate != nil || cleared.CategoryID != nil {
		t.Fatalf("expected due date and category cleared, got %+v", cleared)
	}

	detail, err := c.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.CreatedBy == nil || detail.CreatedBy.Username != "alice" {
		t.Fatalf("expected created_by on detail, got %+v", detail.CreatedBy)
	}

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.GetTask(ctx, created.ID); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	ts, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ts == nil || len(ts) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", ts)
	}
}

func TestGetTask_OtherUsersTask_Forbidden(t *testing.T) {
	backend := mockapi.New()
	backend.SeedUser("root", "root@example.com", "secret1", true)
	alice := backend.SeedUser("alice", "alice@example.com", "secret1", false)
	backend.SeedUser("bob", "bob@example.com", "secret1", false)
	task := backend.SeedTask(alice.ID, model.Task{Title: "private"})
	c := newTestAPI(t, backend)
	ctx := context.Background()
	if _, err := c.Login(ctx, "bob@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := c.GetTask(ctx, task.ID); !IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteCategory_WithTasks_IsConflict(t *testing.T) {
	backend := mockapi.New()
	u := backend.SeedUser("alice", "alice@example.com", "secret1", false)
	cat := backend.SeedCategory(u.ID, "Work", "#123456")
	backend.SeedTask(u.ID, model.Task{Title: "t", CategoryID: &cat.ID})
	c := newTestAPI(t, backend)
	ctx := context.Background()
	if _, err := c.Login(ctx, "alice@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	err := c.DeleteCategory(ctx, cat.ID)
	if !IsConflict(err) || IsValidation(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateProfile_DuplicateUsername_FieldErrors(t *testing.T) {
	backend := mockapi.New()
	backend.SeedUser("alice", "alice@example.com", "secret1", false)
	backend.SeedUser("bob", "bob@example.com", "secret1", false)
	c := newTestAPI(t, backend)
	ctx := context.Background()
	if _, err := c.Login(ctx, "bob@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	name := "alice"
	_, err := c.UpdateProfile(ctx, model.UserChange{Username: &name})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := FieldErrors(err)["username"]; got != "Username already exists" {
		t.Fatalf("unexpected field error %q", got)
	}

	err = c.ChangePassword(ctx, PasswordChange{CurrentPassword: "bad", NewPassword: "newsecret1"})
	if got := FieldErrors(err)["current_password"]; got != "Current password is incorrect" {
		t.Fatalf("unexpected password error %v", err)
	}
}

func TestTransportFailure_IsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.ListTasks(context.Background())
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failure must not look like a server error")
	}
}

func TestDecodeError_Shapes(t *testing.T) {
	e := decodeError(http.StatusBadRequest, []byte(`{"message":"Cannot delete category with tasks"}`))
	if e.Message != "Cannot delete category with tasks" || len(e.Fields) != 0 {
		t.Fatalf("unexpected decode: %+v", e)
	}
	e = decodeError(http.StatusBadRequest, []byte(`{"email":"Email already exists"}`))
	if e.Fields["email"] != "Email already exists" || e.Error() != "email: Email already exists" {
		t.Fatalf("unexpected decode: %+v (%s)", e, e.Error())
	}
	e = decodeError(http.StatusInternalServerError, []byte("<html>boom</html>"))
	if e.Message != "" || e.Error() != "request failed: 500 Internal Server Error" {
		t.Fatalf("unexpected decode: %+v (%s)", e, e.Error())
	}
}

func TestAdmin_Endpoints(t *testing.T) {
	backend := mockapi.New()
	backend.SeedUser("root", "root@example.com", "secret1", true)
	bob := backend.SeedUser("bob", "bob@example.com", "secret1", false)
	backend.SeedTask(bob.ID, model.Task{Title: "a", Completed: true})
	backend.SeedMessage(model.ContactMessage{Name: "v", Email: "v@example.com", Subject: "s", Message: "m"})
	c := newTestAPI(t, backend)
	ctx := context.Background()
	if _, err := c.Login(ctx, "root@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	users, err := c.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("list users: %v %+v", err, users)
	}
	yes := true
	promoted, err := c.UpdateUser(ctx, bob.ID, model.UserChange{IsAdmin: &yes})
	if err != nil || !promoted.IsAdmin {
		t.Fatalf("promote: %v %+v", err, promoted)
	}
	stats, err := c.AdminStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CountFor(model.StatusCompleted) != 1 {
		t.Fatalf("expected 1 completed task, got %+v", stats.StatusDistribution)
	}
	msgs, err := c.ListMessages(ctx)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("messages: %v %+v", err, msgs)
	}
	if err := c.MarkMessageRead(ctx, msgs[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := c.DeleteUser(ctx, bob.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := c.SubmitContact(ctx, ContactRequest{Name: "n", Email: "e@x.io", Subject: "s", Message: "m"}); err != nil {
		t.Fatalf("contact: %v", err)
	}
}
