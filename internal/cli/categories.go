package cli

import (
	"context"
	"errors"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"

	"github.com/spf13/cobra"
)

var errCategoryInUse = errors.New("cannot delete category with assigned tasks")

func newCategoriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cats"},
		Short:   "Task categories",
	}

	cmd.AddCommand(newCategoriesListCmd(app))
	cmd.AddCommand(newCategoriesCreateCmd(app))
	cmd.AddCommand(newCategoriesEditCmd(app))
	cmd.AddCommand(newCategoriesDeleteCmd(app))

	return cmd
}

func newCategoriesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteCategories, func(ctx context.Context, b *backend) error {
				cs, err := b.client.ListCategories(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": cs, "meta": map[string]any{"count": len(cs)}})
			})
		},
	}
}

func newCategoriesCreateCmd(app *App) *cobra.Command {
	f := form.NewCategoryForm()

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteCategories, func(ctx context.Context, b *backend) error {
				if err := check(ctx, f); err != nil {
					return err
				}
				c, err := b.client.CreateCategory(ctx, f.Input())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": c})
			})
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "Name (required, at most 50 characters)")
	cmd.Flags().StringVar(&f.Color, "color", f.Color, "Color as #RGB or #RRGGBB")
	return cmd
}

func newCategoriesEditCmd(app *App) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "edit <category-id>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("category", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteCategories, func(ctx context.Context, b *backend) error {
				cur, err := findCategory(ctx, b.client, id)
				if err != nil {
					return err
				}
				f := form.CategoryFormFor(cur)
				if cmd.Flags().Changed("name") {
					f.Name = name
				}
				if cmd.Flags().Changed("color") {
					f.Color = color
				}
				if err := check(ctx, f); err != nil {
					return err
				}
				c, err := b.client.UpdateCategory(ctx, id, f.Input())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": c})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New color")
	return cmd
}

func findCategory(ctx context.Context, c *api.Client, id int64) (model.Category, error) {
	cs, err := c.ListCategories(ctx)
	if err != nil {
		return model.Category{}, err
	}
	for _, cat := range cs {
		if cat.ID == id {
			return cat, nil
		}
	}
	return model.Category{}, errNotFound("category", id)
}

func newCategoriesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <category-id>",
		Short:   "Delete a category without tasks",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("category", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, guard.RouteCategories, func(ctx context.Context, b *backend) error {
				if err := b.client.DeleteCategory(ctx, id); err != nil {
					if api.IsConflict(err) {
						return errCategoryInUse
					}
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
			})
		},
	}
}
