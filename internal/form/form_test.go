package form

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/model"
)

func TestRegister_ShortPasswordAndMismatch_BlockSubmitThenClear(t *testing.T) {
	ctx := context.Background()
	s := NewState(ctx, RegisterForm{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "abc",
		ConfirmPassword: "abd",
	})

	if s.Submit(ctx) {
		t.Fatalf("expected submit to be blocked")
	}
	errs := s.Visible()
	if errs["password"] != "Password must be at least 6 characters" {
		t.Fatalf("expected too-short password error, got %q", errs["password"])
	}
	if errs["confirm_password"] != "Passwords must match" {
		t.Fatalf("expected mismatch on confirm_password, got %q", errs["confirm_password"])
	}

	s.Change(ctx, func(f *RegisterForm) {
		f.Password = "secret1"
		f.ConfirmPassword = "secret1"
	})
	if len(s.Errors()) != 0 {
		t.Fatalf("expected errors cleared, got %v", s.Errors())
	}
	if !s.Submit(ctx) {
		t.Fatalf("expected submit to pass")
	}
}

func TestRegister_FirstFailingRuleWins(t *testing.T) {
	errs := Validate(context.Background(), RegisterForm{Username: "  ", Email: "nope", Password: "", ConfirmPassword: ""})
	want := map[string]string{
		"username":         "Username is required",
		"email":            "Enter a valid email",
		"password":         "Password is required",
		"confirm_password": "Confirm password is required",
	}
	for k, v := range want {
		if errs[k] != v {
			t.Fatalf("%s: got %q, want %q", k, errs[k], v)
		}
	}
	if got := Validate(context.Background(), RegisterForm{Username: strings.Repeat("x", 21)})["username"]; got != "Username must be at most 20 characters" {
		t.Fatalf("unexpected max message %q", got)
	}
}

func TestCategoryColor_AcceptsAndRejects(t *testing.T) {
	ctx := context.Background()
	for _, c := range []string{"#2196f3", "#fff", "#ABCDEF"} {
		if errs := Validate(ctx, CategoryForm{Name: "Work", Color: c}); errs.Has("color") {
			t.Fatalf("expected %q to be accepted, got %q", c, errs["color"])
		}
	}
	for _, c := range []string{"zzz", "#12", "2196f3", "#12345g"} {
		errs := Validate(ctx, CategoryForm{Name: "Work", Color: c})
		if errs["color"] != "Invalid color format" {
			t.Fatalf("expected %q to be rejected, got %q", c, errs["color"])
		}
	}
	if got := NewCategoryForm().Color; got != DefaultCategoryColor {
		t.Fatalf("unexpected default color %q", got)
	}
}

func TestCategoryName_Bounds(t *testing.T) {
	ctx := context.Background()
	if got := Validate(ctx, CategoryForm{Name: strings.Repeat("n", 51), Color: "#fff"})["name"]; got != "Name must be at most 50 characters" {
		t.Fatalf("unexpected message %q", got)
	}
	if errs := Validate(ctx, CategoryForm{Name: strings.Repeat("n", 50), Color: "#fff"}); len(errs) != 0 {
		t.Fatalf("expected 50 chars to pass, got %v", errs)
	}
}

func TestTaskCreate_DueDateNotInPast(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	ctx := WithClock(context.Background(), func() time.Time { return now })

	f := NewTaskCreateForm()
	f.Title = "Write proposal"
	if errs := Validate(ctx, f); len(errs) != 0 {
		t.Fatalf("expected absent due date to be valid, got %v", errs)
	}

	past := now.Add(-time.Minute)
	f.DueDate = &past
	if got := Validate(ctx, f)["due_date"]; got != "Due date cannot be in the past" {
		t.Fatalf("expected past due date rejected, got %q", got)
	}

	f.DueDate = &now
	if errs := Validate(ctx, f); errs.Has("due_date") {
		t.Fatalf("expected due date equal to now to pass, got %v", errs)
	}
}

func TestTaskEdit_ToleratesOneDayBack(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	ctx := WithClock(context.Background(), func() time.Time { return now })

	f := TaskEditForm{Title: "t", Priority: model.PriorityHigh}
	yesterdayish := now.Add(-23 * time.Hour)
	f.DueDate = &yesterdayish
	if errs := Validate(ctx, f); len(errs) != 0 {
		t.Fatalf("expected 23h back to pass, got %v", errs)
	}
	older := now.Add(-25 * time.Hour)
	f.DueDate = &older
	if !Validate(ctx, f).Has("due_date") {
		t.Fatalf("expected 25h back to fail")
	}

	f.DueDate = nil
	f.Priority = "Urgent"
	if got := Validate(ctx, f)["priority"]; got != "Invalid priority" {
		t.Fatalf("unexpected priority message %q", got)
	}
	f.Priority = model.PriorityLow
	f.Description = strings.Repeat("d", 501)
	if got := Validate(ctx, f)["description"]; got != "Description must be less than 500 characters" {
		t.Fatalf("unexpected description message %q", got)
	}
}

func TestTaskCreate_PayloadAndLengths(t *testing.T) {
	ctx := context.Background()
	f := NewTaskCreateForm()
	f.Title = strings.Repeat("t", 101)
	f.Description = strings.Repeat("d", 1000)
	errs := Validate(ctx, f)
	if errs["title"] != "Title must be at most 100 characters" || errs.Has("description") {
		t.Fatalf("unexpected errors %v", errs)
	}

	f.Title = "  Write proposal  "
	p := f.Payload()
	if p.Title != "Write proposal" || p.Priority != 2 || p.CategoryID != nil || p.DueDate != nil {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestTaskEdit_ChangeClearsEmptyOptionals(t *testing.T) {
	cat := int64(4)
	due := model.NewTime(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	f := EditFormFor(model.Task{Title: "t", Priority: model.PriorityLow, CategoryID: &cat, DueDate: &due})
	if f.DueDate == nil || !f.DueDate.Equal(due.Time) {
		t.Fatalf("expected due date prefilled, got %v", f.DueDate)
	}

	f.CategoryID = nil
	f.DueDate = nil
	c := f.Change()
	if !c.ClearCategory || !c.ClearDueDate || c.Title == nil || *c.Priority != model.PriorityLow {
		t.Fatalf("unexpected change %+v", c)
	}
}

func TestPasswordForm_Rules(t *testing.T) {
	ctx := context.Background()
	errs := Validate(ctx, PasswordForm{CurrentPassword: "old", NewPassword: "short", ConfirmPassword: "short"})
	if errs["new_password"] != "Password must be at least 8 characters" {
		t.Fatalf("unexpected new_password error %q", errs["new_password"])
	}
	errs = Validate(ctx, PasswordForm{CurrentPassword: "old", NewPassword: "longenough", ConfirmPassword: "different"})
	if errs["confirm_password"] != "Passwords do not match" {
		t.Fatalf("unexpected confirm error %q", errs["confirm_password"])
	}
}

func TestProfileForm_LooseEmail(t *testing.T) {
	ctx := context.Background()
	if got := Validate(ctx, ProfileForm{Username: "a", Email: "a@b"})["email"]; got != "Email is invalid" {
		t.Fatalf("expected invalid email, got %q", got)
	}
	if errs := Validate(ctx, ProfileForm{Username: "a", Email: "a@b.c"}); len(errs) != 0 {
		t.Fatalf("expected valid, got %v", errs)
	}
}

func TestState_BlurShowsOnlyTouched(t *testing.T) {
	ctx := context.Background()
	s := NewState(ctx, LoginForm{})
	if len(s.Visible()) != 0 {
		t.Fatalf("expected nothing visible before interaction")
	}
	if len(s.Errors()) != 2 {
		t.Fatalf("expected both fields invalid, got %v", s.Errors())
	}
	s.Blur("email")
	vis := s.Visible()
	if len(vis) != 1 || vis["email"] != "Email is required" {
		t.Fatalf("expected only email visible, got %v", vis)
	}
}

func TestState_MergeServer_SameMapAndClearedOnChange(t *testing.T) {
	ctx := context.Background()
	s := NewState(ctx, ProfileForm{Username: "alice", Email: "alice@example.com"})
	if !s.Submit(ctx) {
		t.Fatalf("expected local validation to pass")
	}

	err := &api.Error{Status: http.StatusBadRequest, Fields: map[string]string{"username": "Username already exists"}}
	if !s.MergeServer(err) {
		t.Fatalf("expected field errors merged")
	}
	if got := s.Visible()["username"]; got != "Username already exists" {
		t.Fatalf("expected server error visible, got %q", got)
	}
	if s.Valid() {
		t.Fatalf("expected state invalid with server error")
	}

	// Editing another field keeps it.
	s.Change(ctx, func(f *ProfileForm) { f.Email = "alice2@example.com" })
	if !s.Errors().Has("username") {
		t.Fatalf("expected username server error kept")
	}
	s.Change(ctx, func(f *ProfileForm) { f.Username = "alicia" })
	if s.Errors().Has("username") {
		t.Fatalf("expected username server error cleared after edit")
	}

	if s.MergeServer(&api.Error{Status: http.StatusBadRequest, Message: "Cannot delete"}) {
		t.Fatalf("message-only errors are not field errors")
	}
}

func TestState_ResetClearsContactForm(t *testing.T) {
	ctx := context.Background()
	s := NewState(ctx, ContactForm{Name: "n", Email: "e@x.io", Subject: "s", Message: "m"})
	if !s.Submit(ctx) {
		t.Fatalf("expected valid contact form, got %v", s.Errors())
	}
	s.Reset(ctx, ContactForm{})
	if s.Values != (ContactForm{}) || len(s.Visible()) != 0 {
		t.Fatalf("expected cleared form, got %+v", s.Values)
	}
}

func TestParseDue_DateMeansEndOfLocalDay(t *testing.T) {
	d, err := ParseDue("2026-03-04")
	if err != nil {
		t.Fatalf("ParseDue: %v", err)
	}
	want := time.Date(2026, 3, 4, 23, 59, 59, 0, time.Local)
	if !d.Equal(want) {
		t.Fatalf("got %v, want %v", d, want)
	}

	ts, err := ParseDue("2026-03-04T08:00:00Z")
	if err != nil || !ts.Equal(time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp parse %v (%v)", ts, err)
	}

	if _, err := ParseDue("next tuesday"); err == nil {
		t.Fatalf("expected error for free text")
	}
}
