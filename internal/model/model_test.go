package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestApplyTaskChange_CompletionTogglesCompletedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := Task{ID: 1, Title: "Write proposal", Priority: PriorityMedium}

	done := ApplyTaskChange(task, ToggleCompletion(task), now)
	if !done.Completed {
		t.Fatalf("expected completed after toggle")
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(now) {
		t.Fatalf("expected completed_at=%v, got %v", now, done.CompletedAt)
	}
	if task.Completed || task.CompletedAt != nil {
		t.Fatalf("reducer must not mutate its input: %+v", task)
	}

	later := now.Add(time.Hour)
	again := ApplyTaskChange(done, TaskChange{Completed: ptrBool(true)}, later)
	if !again.CompletedAt.Equal(now) {
		t.Fatalf("re-completing must keep the original completed_at, got %v", again.CompletedAt)
	}

	reopened := ApplyTaskChange(done, ToggleCompletion(done), later)
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Fatalf("expected reopened task without completed_at, got %+v", reopened)
	}
}

func TestApplyTaskChange_ClearsAndSetsOptionalFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cat := int64(7)
	task := Task{
		ID:         1,
		Title:      "a",
		CategoryID: &cat,
		Category:   &CategoryRef{ID: 7, Name: "Work", Color: "#fff"},
		DueDate:    TimePtr(now),
	}
	next := ApplyTaskChange(task, TaskChange{ClearCategory: true, ClearDueDate: true}, now)
	if next.CategoryID != nil || next.Category != nil || next.DueDate != nil {
		t.Fatalf("expected category and due date cleared, got %+v", next)
	}

	other := int64(9)
	moved := ApplyTaskChange(task, TaskChange{CategoryID: &other}, now)
	if moved.CategoryID == nil || *moved.CategoryID != 9 || moved.Category != nil {
		t.Fatalf("expected category 9 without stale ref, got %+v", moved)
	}

	bad := Priority("Urgent")
	kept := ApplyTaskChange(task, TaskChange{Priority: &bad}, now)
	if kept.Priority != task.Priority {
		t.Fatalf("invalid priority must be ignored, got %q", kept.Priority)
	}
}

func TestTaskChange_JSONDistinguishesNullFromAbsent(t *testing.T) {
	title := "x"
	b, err := json.Marshal(TaskChange{Title: &title, ClearDueDate: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"due_date":null`) || strings.Contains(s, "category_id") {
		t.Fatalf("unexpected body %s", s)
	}

	var c TaskChange
	if err := json.Unmarshal([]byte(`{"completed":true,"category_id":null,"priority":3}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Completed == nil || !*c.Completed || !c.ClearCategory || c.Priority == nil || *c.Priority != PriorityHigh {
		t.Fatalf("unexpected change %+v", c)
	}
	if c.Title != nil || c.ClearDueDate {
		t.Fatalf("absent keys must stay unset: %+v", c)
	}
}

func TestTime_DecodesBackendFormats(t *testing.T) {
	cases := map[string]time.Time{
		`"2025-04-01T10:20:30.123456"`: time.Date(2025, 4, 1, 10, 20, 30, 123456000, time.UTC),
		`"2025-04-01T10:20:30"`:        time.Date(2025, 4, 1, 10, 20, 30, 0, time.UTC),
		`"2025-04-01T10:20:30Z"`:       time.Date(2025, 4, 1, 10, 20, 30, 0, time.UTC),
		`"2025-04-01T12:20:30+02:00"`:  time.Date(2025, 4, 1, 10, 20, 30, 0, time.UTC),
		`"2025-04-01"`:                 time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		var got Time
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("unmarshal %s: got %v want %v", in, got.Time, want)
		}
	}

	var task Task
	if err := json.Unmarshal([]byte(`{"id":1,"title":"t","priority":"High","due_date":null,"completed_at":null,"created_at":"2025-04-01T10:20:30"}`), &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if task.DueDate != nil || task.CompletedAt != nil || task.Priority != PriorityHigh {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{"low": PriorityLow, "2": PriorityMedium, "HIGH": PriorityHigh} {
		got, err := ParsePriority(in)
		if err != nil || got != want {
			t.Fatalf("ParsePriority(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
	if PriorityFromOrdinal(9) != PriorityMedium {
		t.Fatalf("unknown ordinals fall back to Medium")
	}
}

func ptrBool(b bool) *bool { return &b }
