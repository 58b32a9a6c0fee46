package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/session"
	"taskdesk-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Example: strings.TrimSpace(`
  taskdesk login --email alice@example.com --password secret123
  printf 'secret123\n' | taskdesk login --email alice@example.com --password-stdin
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				password = p
			}
			return app.run(cmd, guard.RouteLogin, func(ctx context.Context, b *backend) error {
				f := form.LoginForm{Email: strings.TrimSpace(email), Password: password}
				if err := check(ctx, f); err != nil {
					return err
				}
				if !b.session.Login(ctx, f.Email, f.Password) {
					return errors.New(b.session.Snapshot().Error)
				}
				u := b.session.User()
				if err := b.state.SaveIdentity(ctx, b.client.BaseURL(), *u); err != nil {
					app.log.Warn("cache identity", zap.Error(err))
				}
				return writeOut(cmd, app, map[string]any{
					"data": u,
					"_hints": []string{
						"taskdesk tasks list",
						"taskdesk tasks create --title <title>",
					},
				})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from the first line of stdin")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the saved cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, guard.RouteAbout, func(ctx context.Context, b *backend) error {
				serverOK := true
				if b.session.Snapshot().Authenticated() {
					serverOK = b.session.Logout(ctx)
				}
				if err := forget(ctx, b); err != nil {
					return err
				}
				out := map[string]any{"logged_out": true}
				if !serverOK {
					out["warning"] = b.session.Snapshot().Error
				}
				return writeOut(cmd, app, map[string]any{"data": out})
			})
		},
	}
}

// forget drops the local session: cookies and the cached identity.
func forget(ctx context.Context, b *backend) error {
	if err := b.jar.Clear(ctx); err != nil {
		return err
	}
	return b.state.ForgetIdentity(ctx, b.client.BaseURL())
}

func newRegisterCmd(app *App) *cobra.Command {
	var f form.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (does not sign in)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("confirm-password") {
				f.ConfirmPassword = f.Password
			}
			return app.run(cmd, guard.RouteRegister, func(ctx context.Context, b *backend) error {
				if err := check(ctx, f); err != nil {
					return err
				}
				r := f.Registration()
				if !b.session.Register(ctx, r.Username, r.Email, r.Password) {
					return errors.New(b.session.Snapshot().Error)
				}
				return writeOut(cmd, app, map[string]any{
					"data": map[string]any{"registered": true, "username": r.Username, "email": r.Email},
					"_hints": []string{
						"taskdesk login --email " + r.Email + " --password-stdin",
					},
				})
			})
		},
	}
	cmd.Flags().StringVar(&f.Username, "username", "", "Username (3-20 characters)")
	cmd.Flags().StringVar(&f.Email, "email", "", "Email")
	cmd.Flags().StringVar(&f.Password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&f.ConfirmPassword, "confirm-password", "", "Password confirmation (default: --password)")
	return cmd
}

func newWhoamiCmd(app *App) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if offline {
				return whoamiOffline(cmd, app)
			}
			return app.run(cmd, guard.RouteDashboard, func(ctx context.Context, b *backend) error {
				return writeOut(cmd, app, map[string]any{
					"data": b.session.User(),
					"meta": map[string]any{"status": session.StatusAuthenticated.String(), "base_url": b.client.BaseURL()},
				})
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Print the cached identity without contacting the server")
	return cmd
}

func whoamiOffline(cmd *cobra.Command, app *App) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), app.timeout())
	defer cancel()

	st, err := store.Open(ctx, app.cfg.StateDir, store.WithLogger(app.log))
	if err != nil {
		return writeErr(cmd, err)
	}
	defer st.Close()

	baseURL := strings.TrimRight(app.cfg.BaseURL, "/")
	u, ok, err := st.LoadIdentity(ctx, baseURL)
	if err != nil {
		return writeErr(cmd, err)
	}
	if !ok {
		return writeErr(cmd, errors.New("no cached identity (run `taskdesk login`)"))
	}
	return writeOut(cmd, app, map[string]any{
		"data": u,
		"meta": map[string]any{"cached": true, "base_url": baseURL},
	})
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readAll(cmd *cobra.Command) (string, error) {
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
