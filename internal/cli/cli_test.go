package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskdesk-cli/internal/mockapi"
	"taskdesk-cli/internal/model"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// setupBackend points the CLI at a fresh mock backend and an isolated state dir.
// alice is the first user and therefore the admin.
func setupBackend(t *testing.T) *mockapi.Server {
	t.Helper()
	backend := mockapi.New()
	backend.SeedUser("alice", "alice@example.com", "secret123", true)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	t.Setenv("TASKDESK_BASE_URL", srv.URL)
	t.Setenv("TASKDESK_CONFIG_DIR", t.TempDir())
	t.Setenv("TASKDESK_STATE_DIR", "")
	t.Setenv("TASKDESK_LOG_FILE", "")
	return backend
}

func mustRun(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("command failed: taskdesk %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, stdout, args)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return env
}

func mustFail(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	out, errOut, err := runCLI(t, args)
	if err == nil {
		t.Fatalf("expected taskdesk %v to fail; stdout:\n%s", args, out)
	}
	return string(out), string(errOut)
}

func login(t *testing.T, email, password string) {
	t.Helper()
	mustRun(t, "login", "--email", email, "--password", password)
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %#v", env["data"])
	}
	return m
}

func dataList(t *testing.T, env map[string]any) []any {
	t.Helper()
	xs, ok := env["data"].([]any)
	if !ok {
		t.Fatalf("expected data list, got %#v", env["data"])
	}
	return xs
}

func idOf(t *testing.T, env map[string]any) string {
	t.Helper()
	id, ok := dataMap(t, env)["id"].(float64)
	if !ok || id <= 0 {
		t.Fatalf("expected numeric id, got %#v", env["data"])
	}
	return fmt.Sprintf("%d", int64(id))
}

func TestSessionPersistsAcrossInvocations(t *testing.T) {
	setupBackend(t)

	_, stderr := mustFail(t, "tasks", "list")
	if !strings.Contains(stderr, "not logged in") {
		t.Fatalf("expected not-logged-in error, got %q", stderr)
	}

	login(t, "alice@example.com", "secret123")

	me := dataMap(t, mustRun(t, "whoami"))
	if me["username"] != "alice" {
		t.Fatalf("unexpected whoami %#v", me)
	}
	cached := mustRun(t, "whoami", "--offline")
	if dataMap(t, cached)["username"] != "alice" {
		t.Fatalf("unexpected cached identity %#v", cached)
	}

	_, stderr = mustFail(t, "login", "--email", "alice@example.com", "--password", "secret123")
	if !strings.Contains(stderr, "already logged in") {
		t.Fatalf("expected anonymous-only guard, got %q", stderr)
	}

	out := dataMap(t, mustRun(t, "logout"))
	if out["logged_out"] != true {
		t.Fatalf("unexpected logout output %#v", out)
	}
	mustFail(t, "whoami")
	mustFail(t, "whoami", "--offline")
}

func TestLogin_BadCredentialsUsesServerMessage(t *testing.T) {
	setupBackend(t)

	_, stderr := mustFail(t, "login", "--email", "alice@example.com", "--password", "nope-nope")
	if strings.TrimSpace(stderr) == "" {
		t.Fatalf("expected an error message on stderr")
	}
	mustFail(t, "whoami")
}

func TestLogin_LocalValidationPrintsErrorsEnvelope(t *testing.T) {
	setupBackend(t)

	stdout, _ := mustFail(t, "login", "--email", "not-an-email")
	var env struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("expected errors envelope, got %q: %v", stdout, err)
	}
	if env.Errors["email"] != "Enter a valid email" || env.Errors["password"] != "Password is required" {
		t.Fatalf("unexpected errors %#v", env.Errors)
	}
}

func TestTasks_CreateFilterCompleteDelete(t *testing.T) {
	setupBackend(t)
	login(t, "alice@example.com", "secret123")

	cat := mustRun(t, "categories", "create", "--name", "Work", "--color", "#ff0000")
	catID := idOf(t, cat)

	a := mustRun(t, "tasks", "create", "--title", "Write report", "--description", "quarterly numbers", "--priority", "high", "--category", catID)
	aID := idOf(t, a)
	if got := dataMap(t, a)["priority"]; got != string(model.PriorityHigh) {
		t.Fatalf("expected High priority, got %#v", got)
	}
	b := mustRun(t, "tasks", "create", "--title", "Buy milk")
	bID := idOf(t, b)
	if got := dataMap(t, b)["priority"]; got != string(model.PriorityMedium) {
		t.Fatalf("expected default Medium priority, got %#v", got)
	}

	if xs := dataList(t, mustRun(t, "tasks", "list", "--search", "QUARTERLY")); len(xs) != 1 {
		t.Fatalf("expected description search to match one task, got %d", len(xs))
	}
	if xs := dataList(t, mustRun(t, "tasks", "list", "--category", catID)); len(xs) != 1 {
		t.Fatalf("expected category filter to match one task, got %d", len(xs))
	}

	done := dataMap(t, mustRun(t, "tasks", "complete", aID))
	if done["completed"] != true || done["completed_at"] == nil {
		t.Fatalf("expected completed task with completed_at, got %#v", done)
	}
	completed := mustRun(t, "tasks", "list", "--tab", "completed")
	if xs := dataList(t, completed); len(xs) != 1 {
		t.Fatalf("expected one completed task, got %d", len(xs))
	}
	meta := completed["meta"].(map[string]any)
	if meta["total"] != float64(2) || meta["tab"] != "Completed" {
		t.Fatalf("unexpected list meta %#v", meta)
	}

	stats := dataMap(t, mustRun(t, "tasks", "stats"))
	if stats["total"] != float64(2) || stats["completed"] != float64(1) || stats["rate"] != "50%" {
		t.Fatalf("unexpected stats %#v", stats)
	}

	reopened := dataMap(t, mustRun(t, "tasks", "reopen", aID))
	if reopened["completed"] != false || reopened["completed_at"] != nil {
		t.Fatalf("expected reopened task without completed_at, got %#v", reopened)
	}

	noted := dataMap(t, mustRun(t, "tasks", "note", bID, "--notes", "2 litres"))
	if noted["notes"] != "2 litres" {
		t.Fatalf("unexpected notes %#v", noted)
	}

	mustRun(t, "tasks", "delete", bID)
	_, stderr := mustFail(t, "tasks", "show", bID)
	if strings.TrimSpace(stderr) == "" {
		t.Fatalf("expected an error for a deleted task")
	}
}

func TestTasks_ExportMarkdown(t *testing.T) {
	setupBackend(t)
	login(t, "alice@example.com", "secret123")

	a := idOf(t, mustRun(t, "tasks", "create", "--title", "Write report", "--description", "quarterly numbers"))
	b := idOf(t, mustRun(t, "tasks", "create", "--title", "Buy milk"))
	mustRun(t, "tasks", "complete", b)

	dir := t.TempDir()
	written := dataMap(t, mustRun(t, "tasks", "export", "--to", dir))["written"].([]any)
	if len(written) != 2 {
		t.Fatalf("expected index plus one active task page, got %v", written)
	}
	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(index), "[Write report](tasks/"+a+".md)") {
		t.Fatalf("expected link to the active task:\n%s", index)
	}
	page, err := os.ReadFile(filepath.Join(dir, "tasks", a+".md"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(string(page), "quarterly numbers") {
		t.Fatalf("expected description in page:\n%s", page)
	}

	mustFail(t, "tasks", "export", "--to", dir)
	one := dataMap(t, mustRun(t, "tasks", "export", b, "--to", dir, "--overwrite"))["written"].([]any)
	if len(one) != 1 || !strings.HasSuffix(one[0].(string), b+".md") {
		t.Fatalf("unexpected single export %v", one)
	}
}

func TestTasks_CreateValidationErrors(t *testing.T) {
	setupBackend(t)
	login(t, "alice@example.com", "secret123")

	stdout, _ := mustFail(t, "tasks", "create", "--title", "   ", "--due", "2000-01-01")
	var env struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("expected errors envelope, got %q: %v", stdout, err)
	}
	if env.Errors["title"] != "Title is required" {
		t.Fatalf("unexpected title error %#v", env.Errors)
	}
	if env.Errors["due_date"] != "Due date cannot be in the past" {
		t.Fatalf("unexpected due date error %#v", env.Errors)
	}

	if xs := dataList(t, mustRun(t, "tasks", "list")); len(xs) != 0 {
		t.Fatalf("expected nothing created, got %d tasks", len(xs))
	}
}

func TestTasks_EditOnlyChangesGivenFlags(t *testing.T) {
	setupBackend(t)
	login(t, "alice@example.com", "secret123")

	cat := idOf(t, mustRun(t, "categories", "create", "--name", "Home"))
	id := idOf(t, mustRun(t, "tasks", "create", "--title", "Paint fence", "--description", "white", "--category", cat, "--due", "2099-06-01"))

	edited := dataMap(t, mustRun(t, "tasks", "edit", id, "--title", "Paint the fence", "--no-due"))
	if edited["title"] != "Paint the fence" || edited["description"] != "white" {
		t.Fatalf("unexpected edit result %#v", edited)
	}
	if edited["due_date"] != nil {
		t.Fatalf("expected due date cleared, got %#v", edited["due_date"])
	}
	if edited["category_id"] == nil {
		t.Fatalf("expected category kept, got nil")
	}

	edited = dataMap(t, mustRun(t, "tasks", "edit", id, "--no-category", "--priority", "low"))
	if edited["category_id"] != nil || edited["priority"] != "Low" {
		t.Fatalf("unexpected edit result %#v", edited)
	}

	mustFail(t, "tasks", "edit", id, "--category", cat, "--no-category")
}

func TestCategories_DeleteWithTasksIsRejected(t *testing.T) {
	setupBackend(t)
	login(t, "alice@example.com", "secret123")

	used := idOf(t, mustRun(t, "categories", "create", "--name", "Used"))
	empty := idOf(t, mustRun(t, "categories", "create", "--name", "Empty"))
	mustRun(t, "tasks", "create", "--title", "Keeps category busy", "--category", used)

	_, stderr := mustFail(t, "categories", "delete", used)
	if !strings.Contains(stderr, "cannot delete category with assigned tasks") {
		t.Fatalf("expected in-use error, got %q", stderr)
	}
	mustRun(t, "categories", "delete", empty)

	renamed := dataMap(t, mustRun(t, "categories", "edit", used, "--name", "Busy"))
	if renamed["name"] != "Busy" {
		t.Fatalf("unexpected rename %#v", renamed)
	}
	stdout, _ := mustFail(t, "categories", "edit", used, "--color", "red")
	if !strings.Contains(stdout, "Invalid color format") {
		t.Fatalf("expected color error envelope, got %q", stdout)
	}
	_, stderr = mustFail(t, "categories", "edit", empty, "--name", "Gone")
	if !strings.Contains(stderr, "category not found") {
		t.Fatalf("expected not found, got %q", stderr)
	}

	list := mustRun(t, "categories", "list")
	if xs := dataList(t, list); len(xs) != 1 {
		t.Fatalf("expected one category left, got %d", len(xs))
	}
}

func TestRegister_ThenAdminGuard(t *testing.T) {
	setupBackend(t)

	reg := dataMap(t, mustRun(t, "register", "--username", "bob", "--email", "bob@example.com", "--password", "hunter22"))
	if reg["registered"] != true {
		t.Fatalf("unexpected register output %#v", reg)
	}
	// Registration does not sign in.
	mustFail(t, "whoami")

	stdout, _ := mustFail(t, "register", "--username", "al", "--email", "x@example.com", "--password", "hunter22", "--confirm-password", "other")
	if !strings.Contains(stdout, "Username must be at least 3 characters") || !strings.Contains(stdout, "Passwords must match") {
		t.Fatalf("unexpected register errors %q", stdout)
	}

	login(t, "bob@example.com", "hunter22")
	_, stderr := mustFail(t, "admin", "users")
	if !strings.Contains(stderr, "admin privileges required") {
		t.Fatalf("expected admin guard, got %q", stderr)
	}
	mustRun(t, "logout")

	login(t, "alice@example.com", "secret123")
	users := mustRun(t, "admin", "users", "--search", "BOB")
	xs := dataList(t, users)
	if len(xs) != 1 {
		t.Fatalf("expected one match, got %d", len(xs))
	}
	bobID := fmt.Sprintf("%d", int64(xs[0].(map[string]any)["id"].(float64)))

	promoted := dataMap(t, mustRun(t, "admin", "promote", bobID))
	if promoted["is_admin"] != true {
		t.Fatalf("expected bob promoted, got %#v", promoted)
	}
	demoted := dataMap(t, mustRun(t, "admin", "demote", bobID))
	if demoted["is_admin"] != false {
		t.Fatalf("expected bob demoted, got %#v", demoted)
	}

	paged := mustRun(t, "admin", "users", "--per-page", "1", "--page", "2")
	meta := paged["meta"].(map[string]any)
	if meta["pages"] != float64(2) || len(dataList(t, paged)) != 1 {
		t.Fatalf("unexpected paging %#v", meta)
	}

	stats := dataMap(t, mustRun(t, "admin", "stats"))
	summary := stats["summary"].(map[string]any)
	if summary["user_count"] != float64(2) || summary["admin_count"] != float64(1) {
		t.Fatalf("unexpected admin summary %#v", summary)
	}
	if chart := stats["status_chart"].([]any); len(chart) != 3 {
		t.Fatalf("expected three chart slices, got %d", len(chart))
	}

	mustRun(t, "admin", "delete-user", bobID)
	if xs := dataList(t, mustRun(t, "admin", "users")); len(xs) != 1 {
		t.Fatalf("expected bob deleted, got %d users", len(xs))
	}
}

func TestContact_PrefillsFromSessionAndAdminReadsIt(t *testing.T) {
	setupBackend(t)

	stdout, _ := mustFail(t, "contact", "--subject", "Hi", "--message", "hello")
	if !strings.Contains(stdout, "Name is required") {
		t.Fatalf("expected anonymous contact to need a name, got %q", stdout)
	}
	mustRun(t, "contact", "--name", "Guest", "--email", "guest@example.com", "--subject", "Question", "--message", "How?")

	login(t, "alice@example.com", "secret123")
	mustRun(t, "contact", "--subject", "Export", "--message", "Can I export?")

	msgs := mustRun(t, "admin", "messages", "--unread")
	xs := dataList(t, msgs)
	if len(xs) != 2 {
		t.Fatalf("expected two unread messages, got %d", len(xs))
	}
	var mine map[string]any
	for _, x := range xs {
		if m := x.(map[string]any); m["subject"] == "Export" {
			mine = m
		}
	}
	if mine == nil || mine["name"] != "alice" || mine["email"] != "alice@example.com" {
		t.Fatalf("expected prefilled sender, got %#v", mine)
	}

	mustRun(t, "admin", "read", fmt.Sprintf("%d", int64(mine["id"].(float64))))
	after := mustRun(t, "admin", "messages")
	if meta := after["meta"].(map[string]any); meta["unread"] != float64(1) || meta["count"] != float64(2) {
		t.Fatalf("unexpected messages meta %#v", meta)
	}
}

func TestProfile_UpdateAndServerFieldErrors(t *testing.T) {
	backend := setupBackend(t)
	backend.SeedUser("bob", "bob@example.com", "hunter22", false)
	login(t, "alice@example.com", "secret123")

	stdout, _ := mustFail(t, "profile", "update", "--username", "bob")
	var env struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("expected errors envelope, got %q: %v", stdout, err)
	}
	if env.Errors["username"] != "Username already exists" {
		t.Fatalf("unexpected server errors %#v", env.Errors)
	}

	u := dataMap(t, mustRun(t, "profile", "update", "--username", "alicia"))
	if u["username"] != "alicia" || u["email"] != "alice@example.com" {
		t.Fatalf("unexpected profile %#v", u)
	}
	if dataMap(t, mustRun(t, "whoami", "--offline"))["username"] != "alicia" {
		t.Fatalf("expected cached identity patched")
	}

	stdout, _ = mustFail(t, "profile", "password", "--current", "secret123", "--new", "short")
	if !strings.Contains(stdout, "Password must be at least 8 characters") {
		t.Fatalf("expected length error, got %q", stdout)
	}
	out := dataMap(t, mustRun(t, "profile", "password", "--current", "secret123", "--new", "longer-secret"))
	if out["logged_out"] != true {
		t.Fatalf("unexpected password output %#v", out)
	}
	mustFail(t, "whoami")
	login(t, "alice@example.com", "longer-secret")
}

func TestDocs_ListAndRawTopic(t *testing.T) {
	t.Setenv("TASKDESK_CONFIG_DIR", t.TempDir())

	topics := dataMap(t, mustRun(t, "docs"))["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("expected topics")
	}

	stdout, _, err := runCLI(t, []string{"docs", "keys", "--raw"})
	if err != nil {
		t.Fatalf("docs keys: %v", err)
	}
	if !strings.HasPrefix(string(stdout), "# TUI keys") {
		t.Fatalf("expected raw markdown, got %q", stdout)
	}
	mustFail(t, "docs", "no-such-topic")
}

func TestFAQ_EDNWithoutBackend(t *testing.T) {
	t.Setenv("TASKDESK_CONFIG_DIR", t.TempDir())

	stdout, stderr, err := runCLI(t, []string{"--format", "edn", "faq", "password"})
	if err != nil {
		t.Fatalf("faq: %v\n%s", err, stderr)
	}
	out := string(stdout)
	if !strings.HasPrefix(out, "{:data [") || !strings.Contains(out, ":question ") {
		t.Fatalf("unexpected edn output %q", out)
	}

	_, _, err = runCLI(t, []string{"--format", "yaml", "faq"})
	if err == nil {
		t.Fatalf("expected invalid format to fail")
	}
}

func TestConfig_SetThenShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDESK_CONFIG_DIR", dir)
	t.Setenv("TASKDESK_BASE_URL", "")

	mustRun(t, "config", "set", "base_url", "http://tasks.internal:8080")
	shown := mustRun(t, "config", "show")
	if dataMap(t, shown)["base_url"] != "http://tasks.internal:8080" {
		t.Fatalf("unexpected config %#v", shown)
	}
	if file, _ := shown["meta"].(map[string]any)["file"].(string); !strings.HasPrefix(file, dir) {
		t.Fatalf("expected config file under %s, got %q", dir, file)
	}

	// Flags win over the file.
	flagged := mustRun(t, "--base-url", "http://other:1", "config", "show")
	if dataMap(t, flagged)["base_url"] != "http://other:1" {
		t.Fatalf("expected flag to override file, got %#v", flagged)
	}

	mustFail(t, "config", "set", "nope", "x")
}
