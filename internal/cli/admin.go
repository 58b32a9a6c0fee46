package cli

import (
	"context"
	"errors"
	"fmt"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newAdminCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration (admin accounts only)",
	}

	cmd.AddCommand(newAdminUsersCmd(app))
	cmd.AddCommand(newAdminSetAdminCmd(app, "promote", true))
	cmd.AddCommand(newAdminSetAdminCmd(app, "demote", false))
	cmd.AddCommand(newAdminDeleteUserCmd(app))
	cmd.AddCommand(newAdminStatsCmd(app))
	cmd.AddCommand(newAdminMessagesCmd(app))
	cmd.AddCommand(newAdminReadCmd(app))

	return cmd
}

func newAdminUsersCmd(app *App) *cobra.Command {
	var search string
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users (search + paging)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return writeErr(cmd, fmt.Errorf("invalid page %d (pages start at 1)", page))
			}
			return app.run(cmd, guard.RouteAdminUsers, func(ctx context.Context, b *backend) error {
				us, err := b.client.ListUsers(ctx)
				if err != nil {
					return err
				}
				matches := filter.Users(us, search)
				rows, pages := filter.Page(matches, page-1, perPage)
				return writeOut(cmd, app, map[string]any{
					"data": rows,
					"meta": map[string]any{
						"page":     page,
						"pages":    pages,
						"per_page": perPage,
						"matches":  len(matches),
						"total":    len(us),
					},
				})
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Match on username or email")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", filter.DefaultPerPage, "Rows per page")
	return cmd
}

func newAdminSetAdminCmd(app *App, use string, admin bool) *cobra.Command {
	short := "Grant admin rights"
	if !admin {
		short = "Revoke admin rights"
	}
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteAdminUsers, func(ctx context.Context, b *backend) error {
				v := admin
				u, err := b.client.UpdateUser(ctx, id, model.UserChange{IsAdmin: &v})
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": u})
			})
		},
	}
}

func newAdminDeleteUserCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete a user and their tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteAdminUsers, func(ctx context.Context, b *backend) error {
				if me := b.session.User(); me != nil && me.ID == id {
					return errors.New("cannot delete your own account")
				}
				if err := b.client.DeleteUser(ctx, id); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
			})
		},
	}
}

func newAdminStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Admin overview: counts, status chart and user growth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteAdminDashboard, func(ctx context.Context, b *backend) error {
				var (
					users []model.User
					stats model.AdminStats
					tasks []model.Task
					cats  []model.Category
				)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) { users, err = b.client.ListUsers(gctx); return err })
				g.Go(func() (err error) { stats, err = b.client.AdminStats(gctx); return err })
				g.Go(func() (err error) { tasks, err = b.client.ListTasks(gctx); return err })
				g.Go(func() (err error) { cats, err = b.client.ListCategories(gctx); return err })
				if err := g.Wait(); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"summary":      filter.SummarizeAdmin(users, tasks, cats),
					"status_chart": filter.StatusChart(stats),
					"user_growth":  stats.UserGrowth,
				}})
			})
		},
	}
}

func newAdminMessagesCmd(app *App) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List contact messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteAdminMessages, func(ctx context.Context, b *backend) error {
				ms, err := b.client.ListMessages(ctx)
				if err != nil {
					return err
				}
				out := make([]model.ContactMessage, 0, len(ms))
				n := 0
				for _, m := range ms {
					if !m.IsRead {
						n++
					}
					if unread && m.IsRead {
						continue
					}
					out = append(out, m)
				}
				return writeOut(cmd, app, map[string]any{
					"data": out,
					"meta": map[string]any{"count": len(out), "unread": n},
				})
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "Only unread messages")
	return cmd
}

func newAdminReadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "read <message-id>",
		Short: "Mark a contact message as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("message", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteAdminMessages, func(ctx context.Context, b *backend) error {
				if err := b.client.MarkMessageRead(ctx, id); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "is_read": true}})
			})
		},
	}
}
