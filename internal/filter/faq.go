package filter

import (
	"strings"
)

type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DefaultFAQ is the help screen's question list. Answers are markdown.
var DefaultFAQ = []FAQEntry{
	{
		Question: "How do I create a new task?",
		Answer:   "Press `n` on the dashboard or run `taskdesk tasks create --title ...`. A title is required; description, priority, category and due date are optional.",
	},
	{
		Question: "How do I mark a task as complete?",
		Answer:   "Press `space` on a task in the dashboard or in its detail view, or run `taskdesk tasks complete <id>`. Use `tasks reopen` to undo.",
	},
	{
		Question: "How do I create custom categories?",
		Answer:   "Open the categories view with `c` and press `n`, or run `taskdesk categories create --name Work --color '#2196f3'`. Colors are `#RGB` or `#RRGGBB`.",
	},
	{
		Question: "Can I edit a task after creating it?",
		Answer:   "Yes. Press `e` on a task or run `taskdesk tasks edit <id>` with the fields you want to change.",
	},
	{
		Question: "How do I delete a task?",
		Answer:   "Press `d` and confirm, or run `taskdesk tasks delete <id> --yes`. Deleted tasks cannot be recovered.",
	},
	{
		Question: "How do I filter tasks?",
		Answer:   "Use `/` to search titles and descriptions, `tab` to switch between All, Active and Completed, and `C` / `P` to cycle the category and priority filters. The CLI takes `--search`, `--tab`, `--category` and `--priority`.",
	},
	{
		Question: "What do the different priorities mean?",
		Answer:   "There are three levels: **Low** (green), **Medium** (orange) and **High** (red).",
	},
	{
		Question: "How do I change my password?",
		Answer:   "Run `taskdesk profile password`. You are signed out afterwards and need to log in with the new password.",
	},
	{
		Question: "Can I use the same account from several machines?",
		Answer:   "Yes. Each machine keeps its own session under `~/.taskdesk`; log in once per machine.",
	},
	{
		Question: "What happens when a task is overdue?",
		Answer:   "Tasks whose due date has passed are marked overdue and highlighted in red.",
	},
}

// FAQ returns the entries whose question or answer contains query, case-insensitively.
func FAQ(entries []FAQEntry, query string) []FAQEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]FAQEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Question), q) || strings.Contains(strings.ToLower(e.Answer), q) {
			out = append(out, e)
		}
	}
	return out
}
