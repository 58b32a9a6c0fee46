package cli

import (
	"context"

	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"

	"github.com/spf13/cobra"
)

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Your account",
	}

	cmd.AddCommand(newProfileShowCmd(app))
	cmd.AddCommand(newProfileUpdateCmd(app))
	cmd.AddCommand(newProfilePasswordCmd(app))

	return cmd
}

func newProfileShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile with task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteProfile, func(ctx context.Context, b *backend) error {
				u, err := b.client.Profile(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": u})
			})
		},
	}
}

func newProfileUpdateCmd(app *App) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change username or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteProfile, func(ctx context.Context, b *backend) error {
				cur, err := b.client.Profile(ctx)
				if err != nil {
					return err
				}
				f := form.ProfileFormFor(cur)
				if cmd.Flags().Changed("username") {
					f.Username = username
				}
				if cmd.Flags().Changed("email") {
					f.Email = email
				}
				if err := check(ctx, f); err != nil {
					return err
				}
				change := f.Change()
				u, err := b.client.UpdateProfile(ctx, change)
				if err != nil {
					return err
				}
				b.session.UpdateIdentity(change)
				if err := b.state.SaveIdentity(ctx, b.client.BaseURL(), *b.session.User()); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": u})
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	return cmd
}

func newProfilePasswordCmd(app *App) *cobra.Command {
	var f form.PasswordForm

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password (signs you out)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("confirm") {
				f.ConfirmPassword = f.NewPassword
			}
			return app.run(cmd, guard.RouteProfile, func(ctx context.Context, b *backend) error {
				if err := check(ctx, f); err != nil {
					return err
				}
				if err := b.client.ChangePassword(ctx, f.Payload()); err != nil {
					return err
				}
				b.session.Logout(ctx)
				if err := forget(ctx, b); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{
					"data":   map[string]any{"password_changed": true, "logged_out": true},
					"_hints": []string{"taskdesk login --email <email> --password-stdin"},
				})
			})
		},
	}
	cmd.Flags().StringVar(&f.CurrentPassword, "current", "", "Current password")
	cmd.Flags().StringVar(&f.NewPassword, "new", "", "New password (at least 8 characters)")
	cmd.Flags().StringVar(&f.ConfirmPassword, "confirm", "", "New password again (default: --new)")
	return cmd
}
