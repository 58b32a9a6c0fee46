// Package filter holds the pure list functions behind the dashboard and admin screens:
// task predicates, completion stats, due-date display, user search, paging and FAQ search.
package filter

import (
	"fmt"
	"math"
	"strings"

	"taskdesk-cli/internal/model"
)

type Tab int

const (
	TabAll Tab = iota
	TabActive
	TabCompleted
)

var tabNames = []string{"All", "Active", "Completed"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return fmt.Sprintf("tab(%d)", int(t))
	}
	return tabNames[t]
}

// Next cycles All -> Active -> Completed -> All.
func (t Tab) Next() Tab { return (t + 1) % Tab(len(tabNames)) }

// ParseTab accepts a tab name (case-insensitive) or its index.
func ParseTab(s string) (Tab, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all", "0":
		return TabAll, nil
	case "active", "1":
		return TabActive, nil
	case "completed", "done", "2":
		return TabCompleted, nil
	}
	return TabAll, fmt.Errorf("invalid tab %q (expected all|active|completed)", s)
}

// AllCategories is the Criteria.Category value that disables the category predicate.
const AllCategories int64 = 0

// Criteria are the dashboard filters. The zero value matches every task.
type Criteria struct {
	Search   string
	Tab      Tab
	Category int64
	// Priority "" matches every priority.
	Priority model.Priority
}

func (c Criteria) matchSearch(t model.Task) bool {
	q := strings.ToLower(c.Search)
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), q)
}

func (c Criteria) matchTab(t model.Task) bool {
	switch c.Tab {
	case TabActive:
		return !t.Completed
	case TabCompleted:
		return t.Completed
	default:
		return true
	}
}

func (c Criteria) matchCategory(t model.Task) bool {
	if c.Category == AllCategories {
		return true
	}
	return t.CategoryID != nil && *t.CategoryID == c.Category
}

func (c Criteria) matchPriority(t model.Task) bool {
	return c.Priority == "" || t.Priority == c.Priority
}

// Match reports whether t satisfies every predicate.
func (c Criteria) Match(t model.Task) bool {
	return c.matchSearch(t) && c.matchTab(t) && c.matchCategory(t) && c.matchPriority(t)
}

// Tasks returns the tasks matching c in input order. It never returns nil.
func Tasks(ts []model.Task, c Criteria) []model.Task {
	out := make([]model.Task, 0, len(ts))
	for _, t := range ts {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

type Stats struct {
	Total     int
	Completed int
	Active    int
	// Rate is the completion percentage in [0, 100]; 0 for an empty list.
	Rate float64
}

func Summarize(ts []model.Task) Stats {
	s := Stats{Total: len(ts)}
	for _, t := range ts {
		if t.Completed {
			s.Completed++
		}
	}
	s.Active = s.Total - s.Completed
	if s.Total > 0 {
		s.Rate = float64(s.Completed) / float64(s.Total) * 100
	}
	return s
}

// Percent is Rate rounded half away from zero, e.g. "67%".
func (s Stats) Percent() string {
	return fmt.Sprintf("%d%%", int(math.Round(s.Rate)))
}
