package publish

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/model"
)

type RenderOptions struct {
	// Now anchors relative due dates; zero means time.Now.
	Now time.Time
	// IncludeCompleted keeps completed tasks in the index.
	IncludeCompleted bool
}

func (o RenderOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// RenderTaskMarkdown renders one task as a standalone markdown page.
func RenderTaskMarkdown(t model.Task, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(t.Title))
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + strconv.FormatInt(t.ID, 10))
	writeLn("- Status: " + statusLabel(t))
	writeLn("- Priority: " + string(t.Priority))
	if t.Category != nil {
		writeLn("- Category: " + strings.TrimSpace(t.Category.Name))
	}
	if due := filter.Due(t.DueDate.Std(), opt.now()); due != nil {
		line := fmt.Sprintf("- Due: %s (%s)", due.Display, due.Relative)
		if due.Overdue && !t.Completed {
			line += " **overdue**"
		}
		writeLn(line)
	}
	if !t.CreatedAt.IsZero() {
		writeLn("- Created: " + t.CreatedAt.Local().Format(filter.DisplayLayout))
	}
	if t.Completed {
		if c := t.CompletedAt.Std(); c != nil {
			writeLn("- Completed: " + c.Local().Format(filter.DisplayLayout))
		}
	}
	if t.CreatedBy != nil && strings.TrimSpace(t.CreatedBy.Username) != "" {
		writeLn("- Owner: " + t.CreatedBy.Username)
	}
	writeLn("")

	if d := strings.TrimSpace(t.Description); d != "" {
		writeLn("## Description")
		writeLn("")
		writeLn(d)
		writeLn("")
	}
	if n := strings.TrimSpace(t.Notes); n != "" {
		writeLn("## Notes")
		writeLn("")
		writeLn(n)
		writeLn("")
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

// RenderIndexMarkdown renders a checklist of tasks linking to their pages under tasks/.
func RenderIndexMarkdown(title string, ts []model.Task, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Tasks"
	}
	writeLn("# " + title)
	writeLn("")

	s := filter.Summarize(ts)
	writeLn(fmt.Sprintf("%d total, %d completed, %d active (%s done)", s.Total, s.Completed, s.Active, s.Percent()))
	writeLn("")

	var active, done []model.Task
	for _, t := range ts {
		if t.Completed {
			done = append(done, t)
		} else {
			active = append(active, t)
		}
	}

	now := opt.now()
	section := func(name string, list []model.Task) {
		if len(list) == 0 {
			return
		}
		writeLn("## " + name)
		writeLn("")
		for _, t := range list {
			writeLn(indexLine(t, now))
		}
		writeLn("")
	}
	section("Active", active)
	if opt.IncludeCompleted {
		section("Completed", done)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

func indexLine(t model.Task, now time.Time) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	parts := []string{fmt.Sprintf("- %s [%s](%s)", box, escapeLinkText(t.Title), taskPath(t.ID)), string(t.Priority)}
	if t.Category != nil {
		parts = append(parts, t.Category.Name)
	}
	if due := filter.Due(t.DueDate.Std(), now); due != nil {
		d := "due " + due.Display
		if due.Overdue && !t.Completed {
			d += " (overdue)"
		}
		parts = append(parts, d)
	}
	return strings.Join(parts, " · ")
}

func statusLabel(t model.Task) string {
	if t.Completed {
		return "Completed"
	}
	return "Active"
}

func taskPath(id int64) string {
	return "tasks/" + strconv.FormatInt(id, 10) + ".md"
}

func escapeLinkText(s string) string {
	r := strings.NewReplacer("[", `\[`, "]", `\]`)
	return r.Replace(strings.TrimSpace(s))
}
