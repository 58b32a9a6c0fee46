package filter

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"taskdesk-cli/internal/model"
)

func int64p(v int64) *int64 { return &v }

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Write report", Description: "quarterly numbers", Priority: model.PriorityHigh, CategoryID: int64p(10)},
		{ID: 2, Title: "Buy milk", Priority: model.PriorityLow, Completed: true},
		{ID: 3, Title: "Review PR", Description: "REPORT formatting", Priority: model.PriorityMedium, CategoryID: int64p(10), Completed: true},
		{ID: 4, Title: "Call mom", Priority: model.PriorityMedium, CategoryID: int64p(11)},
	}
}

func ids(ts []model.Task) []int64 {
	out := make([]int64, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestTasks_ConjunctionOfAllPredicates(t *testing.T) {
	ts := sampleTasks()
	criteria := []Criteria{
		{},
		{Search: "report"},
		{Tab: TabActive},
		{Tab: TabCompleted, Category: 10},
		{Priority: model.PriorityMedium},
		{Search: "REPORT", Tab: TabCompleted, Category: 10, Priority: model.PriorityMedium},
		{Search: "nothing matches"},
	}
	for _, c := range criteria {
		got := Tasks(ts, c)
		var want []model.Task
		for _, task := range ts {
			if c.matchSearch(task) && c.matchTab(task) && c.matchCategory(task) && c.matchPriority(task) {
				want = append(want, task)
			}
		}
		if !reflect.DeepEqual(ids(got), ids(want)) {
			t.Fatalf("criteria %+v: got %v, want %v", c, ids(got), ids(want))
		}
		again := Tasks(got, c)
		if !reflect.DeepEqual(ids(again), ids(got)) {
			t.Fatalf("criteria %+v: filtering is not idempotent: %v vs %v", c, ids(again), ids(got))
		}
	}
}

func TestTasks_SearchTitleOrDescription(t *testing.T) {
	got := ids(Tasks(sampleTasks(), Criteria{Search: "report"}))
	if !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("expected title and description matches, got %v", got)
	}
	// Tasks without a description only match on title.
	if got := Tasks([]model.Task{{ID: 9, Title: "x"}}, Criteria{Search: "y"}); len(got) != 0 {
		t.Fatalf("expected no match, got %v", ids(got))
	}
}

func TestTasks_EmptyInput_NonNil(t *testing.T) {
	if got := Tasks(nil, Criteria{}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSummarize_RateAndRounding(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Rate != 0 || s.Percent() != "0%" {
		t.Fatalf("expected zero stats for empty list, got %+v", s)
	}

	s = Summarize(sampleTasks())
	if s.Total != 4 || s.Completed != 2 || s.Active != 2 || s.Rate != 50 {
		t.Fatalf("unexpected stats %+v", s)
	}

	ts := []model.Task{{Completed: true}, {Completed: true}, {}}
	s = Summarize(ts)
	if s.Percent() != "67%" {
		t.Fatalf("expected 67%%, got %s (rate %v)", s.Percent(), s.Rate)
	}
	s = Summarize([]model.Task{{Completed: true}, {}, {}})
	if s.Percent() != "33%" {
		t.Fatalf("expected 33%%, got %s", s.Percent())
	}
}

func TestOverdue_StrictlyInThePast(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if !Overdue(now.Add(-time.Second), now) {
		t.Fatalf("expected past due date to be overdue")
	}
	if Overdue(now, now) {
		t.Fatalf("due == now must not be overdue")
	}
	if Overdue(now.Add(time.Second), now) {
		t.Fatalf("future due date must not be overdue")
	}
	if Due(nil, now) != nil {
		t.Fatalf("absent due date must yield no info")
	}
}

func TestDue_DisplayAndRelative(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local)
	due := now.Add(3 * 24 * time.Hour)
	info := Due(&due, now)
	if info == nil {
		t.Fatalf("expected info")
	}
	if info.Display != "Mar 4, 2025" {
		t.Fatalf("unexpected display %q", info.Display)
	}
	if !strings.HasSuffix(info.Relative, "from now") || info.Overdue {
		t.Fatalf("unexpected info %+v", info)
	}

	past := now.Add(-2 * 24 * time.Hour)
	info = Due(&past, now)
	if !strings.HasSuffix(info.Relative, "ago") || !info.Overdue {
		t.Fatalf("unexpected past info %+v", info)
	}
}

func TestParseTab(t *testing.T) {
	for in, want := range map[string]Tab{"": TabAll, "Active": TabActive, "2": TabCompleted, "done": TabCompleted} {
		got, err := ParseTab(in)
		if err != nil || got != want {
			t.Fatalf("ParseTab(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTab("archived"); err == nil {
		t.Fatalf("expected error for unknown tab")
	}
	if TabCompleted.Next() != TabAll {
		t.Fatalf("expected tab cycle to wrap")
	}
}

func TestUsers_SearchAndPage(t *testing.T) {
	var us []model.User
	for i := 0; i < 23; i++ {
		us = append(us, model.User{ID: int64(i + 1), Username: "user" + string(rune('a'+i)), Email: "u@example.com"})
	}
	us = append(us, model.User{ID: 100, Username: "Root", Email: "admin@corp.io"})

	if got := Users(us, "CORP"); len(got) != 1 || got[0].ID != 100 {
		t.Fatalf("expected email match, got %+v", got)
	}
	if got := Users(us, ""); len(got) != len(us) {
		t.Fatalf("expected empty query to keep all users")
	}

	page, pages := Page(us, 2, DefaultPerPage)
	if pages != 3 || len(page) != 4 || page[0].ID != 21 {
		t.Fatalf("unexpected page: %d pages, %d rows, first %+v", pages, len(page), page)
	}
	if page, _ := Page(us, 5, DefaultPerPage); len(page) != 0 {
		t.Fatalf("expected out-of-range page to be empty")
	}
	if _, pages := Page([]model.User{}, 0, 10); pages != 1 {
		t.Fatalf("expected at least one page, got %d", pages)
	}
}

func TestFAQ_Search(t *testing.T) {
	if got := FAQ(DefaultFAQ, ""); len(got) != len(DefaultFAQ) {
		t.Fatalf("expected all entries for empty query")
	}
	got := FAQ(DefaultFAQ, "PASSWORD")
	if len(got) == 0 {
		t.Fatalf("expected password entry")
	}
	for _, e := range got {
		if !strings.Contains(strings.ToLower(e.Question+e.Answer), "password") {
			t.Fatalf("unexpected entry %+v", e)
		}
	}
}

func TestSummarizeAdmin(t *testing.T) {
	users := []model.User{
		{ID: 1, IsAdmin: true, TaskCount: 3},
		{ID: 2, TaskCount: 4},
	}
	var tasks []model.Task
	for i := 0; i < 7; i++ {
		tasks = append(tasks, model.Task{ID: int64(i + 1)})
	}
	s := SummarizeAdmin(users, tasks, []model.Category{{ID: 1}})
	if s.UserCount != 2 || s.AdminCount != 1 || s.TaskCount != 7 || s.CategoryCount != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if len(s.LatestTasks) != LatestTasksLimit || s.LatestTasks[0].ID != 1 {
		t.Fatalf("expected first %d tasks, got %v", LatestTasksLimit, ids(s.LatestTasks))
	}

	chart := StatusChart(model.AdminStats{StatusDistribution: []model.StatusCount{
		{Status: model.StatusActive, Count: 5},
		{Status: model.StatusCompleted, Count: 2},
	}})
	if chart[0].Count != 5 || chart[1].Count != 0 || chart[2].Count != 2 {
		t.Fatalf("unexpected chart %+v", chart)
	}
}
