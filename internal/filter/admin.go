package filter

import (
	"taskdesk-cli/internal/model"
)

// LatestTasksLimit is how many tasks the admin overview lists.
const LatestTasksLimit = 5

type AdminSummary struct {
	UserCount     int          `json:"user_count"`
	AdminCount    int          `json:"admin_count"`
	TaskCount     int          `json:"task_count"`
	CategoryCount int          `json:"category_count"`
	LatestTasks   []model.Task `json:"latest_tasks"`
}

// SummarizeAdmin aggregates the admin overview. TaskCount sums the per-user counts so it covers
// every user, not only the caller's own tasks.
func SummarizeAdmin(users []model.User, tasks []model.Task, categories []model.Category) AdminSummary {
	s := AdminSummary{UserCount: len(users), CategoryCount: len(categories)}
	for _, u := range users {
		if u.IsAdmin {
			s.AdminCount++
		}
		s.TaskCount += u.TaskCount
	}
	n := len(tasks)
	if n > LatestTasksLimit {
		n = LatestTasksLimit
	}
	s.LatestTasks = append([]model.Task{}, tasks[:n]...)
	return s
}

// StatusSlice is one slice of the admin status chart.
type StatusSlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StatusChart maps the backend distribution onto the fixed three-slice chart; statuses the
// backend does not report count as zero.
func StatusChart(st model.AdminStats) []StatusSlice {
	return []StatusSlice{
		{Label: "To Do", Count: st.CountFor(model.StatusActive)},
		{Label: "In Progress", Count: st.CountFor(model.StatusInProgress)},
		{Label: "Completed", Count: st.CountFor(model.StatusCompleted)},
	}
}
