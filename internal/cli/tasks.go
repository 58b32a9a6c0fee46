package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Tasks",
	}

	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksSetCompletedCmd(app, "complete", true))
	cmd.AddCommand(newTasksSetCompletedCmd(app, "reopen", false))
	cmd.AddCommand(newTasksNoteCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksStatsCmd(app))
	cmd.AddCommand(newTasksExportCmd(app))

	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var tab, search, priority string
	var categoryID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks (filters combine)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			crit := filter.Criteria{Search: search, Category: categoryID}
			t, err := filter.ParseTab(tab)
			if err != nil {
				return writeErr(cmd, err)
			}
			crit.Tab = t
			if strings.TrimSpace(priority) != "" {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return writeErr(cmd, err)
				}
				crit.Priority = p
			}

			return app.run(cmd, guard.RouteDashboard, func(ctx context.Context, b *backend) error {
				all, err := b.client.ListTasks(ctx)
				if err != nil {
					return err
				}
				out := filter.Tasks(all, crit)
				return writeOut(cmd, app, map[string]any{
					"data": out,
					"meta": map[string]any{
						"count": len(out),
						"total": len(all),
						"tab":   crit.Tab.String(),
					},
				})
			})
		},
	}
	cmd.Flags().StringVar(&tab, "tab", "all", "all|active|completed")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive match on title or description")
	cmd.Flags().Int64Var(&categoryID, "category", filter.AllCategories, "Category id (0 = all)")
	cmd.Flags().StringVar(&priority, "priority", "", "Low|Medium|High")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "show <task-id>",
		Short:   "Show a task",
		Aliases: []string{"get"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteTaskDetail, func(ctx context.Context, b *backend) error {
				t, err := b.client.GetTask(ctx, id)
				if err != nil {
					return err
				}
				return writeTask(cmd, app, t)
			})
		},
	}
}

// writeTask prints a task with its due-date display in meta.
func writeTask(cmd *cobra.Command, app *App, t model.Task) error {
	meta := map[string]any{}
	if due := filter.Due(t.DueDate.Std(), time.Now()); due != nil {
		meta["due"] = map[string]any{"display": due.Display, "relative": due.Relative, "overdue": due.Overdue}
	}
	return writeOut(cmd, app, map[string]any{"data": t, "meta": meta})
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var title, description, priority, due string
	var categoryID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		Example: strings.TrimSpace(`
  taskdesk tasks create --title "Write report" --priority high --category 3 --due 2026-11-01
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := form.NewTaskCreateForm()
			f.Title = title
			f.Description = description
			if strings.TrimSpace(priority) != "" {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return writeErr(cmd, err)
				}
				f.Priority = p.Ordinal()
			}
			if categoryID > 0 {
				f.CategoryID = &categoryID
			}
			if strings.TrimSpace(due) != "" {
				d, err := form.ParseDue(due)
				if err != nil {
					return writeErr(cmd, err)
				}
				f.DueDate = &d
			}

			return app.run(cmd, guard.RouteTaskCreate, func(ctx context.Context, b *backend) error {
				if err := check(ctx, f); err != nil {
					return err
				}
				t, err := b.client.CreateTask(ctx, f.Payload())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{
					"data":   t,
					"_hints": []string{fmt.Sprintf("taskdesk tasks show %d", t.ID)},
				})
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title (required, at most 100 characters)")
	cmd.Flags().StringVar(&description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&priority, "priority", "", "Low|Medium|High (default Medium)")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "Category id")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	var title, description, priority, due string
	var categoryID int64
	var noCategory, noDue bool

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			var dueAt time.Time
			if strings.TrimSpace(due) != "" {
				if dueAt, err = form.ParseDue(due); err != nil {
					return writeErr(cmd, err)
				}
			}
			var prio model.Priority
			if cmd.Flags().Changed("priority") {
				if prio, err = model.ParsePriority(priority); err != nil {
					return writeErr(cmd, err)
				}
			}

			return app.run(cmd, guard.RouteTaskEdit, func(ctx context.Context, b *backend) error {
				cur, err := b.client.GetTask(ctx, id)
				if err != nil {
					return err
				}
				f := form.EditFormFor(cur)
				flags := cmd.Flags()
				if flags.Changed("title") {
					f.Title = title
				}
				if flags.Changed("description") {
					f.Description = description
				}
				if prio != "" {
					f.Priority = prio
				}
				switch {
				case noCategory:
					f.CategoryID = nil
				case flags.Changed("category"):
					f.CategoryID = &categoryID
				}
				switch {
				case noDue:
					f.DueDate = nil
				case !dueAt.IsZero():
					f.DueDate = &dueAt
				}

				if err := check(ctx, f); err != nil {
					return err
				}
				t, err := b.client.UpdateTask(ctx, id, f.Change())
				if err != nil {
					return err
				}
				return writeTask(cmd, app, t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&priority, "priority", "", "Low|Medium|High")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "Category id")
	cmd.Flags().BoolVar(&noCategory, "no-category", false, "Remove the category")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().BoolVar(&noDue, "no-due", false, "Remove the due date")
	cmd.MarkFlagsMutuallyExclusive("category", "no-category")
	cmd.MarkFlagsMutuallyExclusive("due", "no-due")
	return cmd
}

func newTasksSetCompletedCmd(app *App, use string, completed bool) *cobra.Command {
	short := "Mark a task complete"
	if !completed {
		short = "Mark a task incomplete"
	}
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteTaskDetail, func(ctx context.Context, b *backend) error {
				v := completed
				t, err := b.client.UpdateTask(ctx, id, model.TaskChange{Completed: &v})
				if err != nil {
					return err
				}
				return writeTask(cmd, app, t)
			})
		},
	}
}

func newTasksNoteCmd(app *App) *cobra.Command {
	var notes string
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "note <task-id>",
		Short: "Replace a task's notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if fromStdin {
				b, err := readAll(cmd)
				if err != nil {
					return writeErr(cmd, err)
				}
				notes = b
			}
			return app.run(cmd, guard.RouteTaskDetail, func(ctx context.Context, b *backend) error {
				n := notes
				t, err := b.client.UpdateTask(ctx, id, model.TaskChange{Notes: &n})
				if err != nil {
					return err
				}
				return writeTask(cmd, app, t)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Notes text (markdown); empty clears them")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the notes from stdin")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <task-id>",
		Short:   "Delete a task",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteTaskDetail, func(ctx context.Context, b *backend) error {
				if err := b.client.DeleteTask(ctx, id); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
			})
		},
	}
}

func newTasksStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Completion statistics over all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteDashboard, func(ctx context.Context, b *backend) error {
				ts, err := b.client.ListTasks(ctx)
				if err != nil {
					return err
				}
				s := filter.Summarize(ts)
				overdue := 0
				now := time.Now()
				for _, t := range ts {
					if d := t.DueDate.Std(); d != nil && !t.Completed && filter.Overdue(*d, now) {
						overdue++
					}
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"total":     s.Total,
					"completed": s.Completed,
					"active":    s.Active,
					"overdue":   overdue,
					"rate":      s.Percent(),
				}})
			})
		},
	}
}

func newTasksExportCmd(app *App) *cobra.Command {
	var to, title string
	var overwrite, includeCompleted bool

	cmd := &cobra.Command{
		Use:   "export [task-id]",
		Short: "Write tasks as markdown files (one task, or an index plus a page per task)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := publish.WriteOptions{
				RenderOptions: publish.RenderOptions{IncludeCompleted: includeCompleted},
				Title:         title,
				Overwrite:     overwrite,
			}
			if len(args) == 1 {
				id, err := parseID("task", args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				return app.run(cmd, guard.RouteTaskDetail, func(ctx context.Context, b *backend) error {
					t, err := b.client.GetTask(ctx, id)
					if err != nil {
						return err
					}
					res, err := publish.WriteTask(t, to, opt)
					if err != nil {
						return err
					}
					return writeOut(cmd, app, map[string]any{"data": res})
				})
			}
			return app.run(cmd, guard.RouteDashboard, func(ctx context.Context, b *backend) error {
				ts, err := b.client.ListTasks(ctx)
				if err != nil {
					return err
				}
				res, err := publish.WriteTasks(ts, to, opt)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().StringVar(&title, "title", "", "Index heading (default \"Tasks\")")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "Also export completed tasks")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
