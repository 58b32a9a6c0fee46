package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/config"
	"taskdesk-cli/internal/format"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/logging"
	"taskdesk-cli/internal/session"
	"taskdesk-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	// Flag targets. The resolved values live in cfg.
	BaseURL  string
	LogLevel string
	LogFile  string
	StateDir string
	Timeout  string
	Format   string
	Pretty   bool

	cfg      config.Config
	log      *zap.Logger
	closeLog func() error
}

func NewRootCmd() *cobra.Command {
	app := &App{log: zap.NewNop(), closeLog: func() error { return nil }}

	cmd := &cobra.Command{
		Use:          "taskdesk",
		Short:        "Task manager client (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  taskdesk

  # Sign in once; the session is kept in ~/.taskdesk
  taskdesk login --email alice@example.com --password secret123

  # Scriptable commands
  taskdesk tasks list --tab active --priority high
  taskdesk tasks create --title "Write report" --due 2026-11-01

  # Direct task lookup (shortcut for: taskdesk tasks show <id>)
  taskdesk 42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		if cfg.LogFile != "" {
			l, closeFn, err := logging.NewFile(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log, app.closeLog = l, closeFn
			return nil
		}
		l, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log = l
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		_ = app.log.Sync()
		return app.closeLog()
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.BaseURL, "base-url", "", "Backend base URL (default http://localhost:5000)")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&app.LogFile, "log-file", "", "Append logs to this file instead of stderr")
	pf.StringVar(&app.StateDir, "state-dir", "", "Directory holding the session database (default ~/.taskdesk)")
	pf.StringVar(&app.Timeout, "timeout", "", "Per-command request timeout (default 15s)")
	pf.BoolVar(&app.Pretty, "pretty", false, "Pretty-print output")
	pf.StringVar(&app.Format, "format", "", "Output format (json|edn)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newCategoriesCmd(app))
	cmd.AddCommand(newProfileCmd(app))
	cmd.AddCommand(newAdminCmd(app))
	cmd.AddCommand(newContactCmd(app))
	cmd.AddCommand(newFAQCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// backend is everything a command needs to talk to the server on behalf of the saved session.
type backend struct {
	client  *api.Client
	session *session.Store
	state   *store.Store
	jar     *store.Jar
}

func (b *backend) Close() error { return b.state.Close() }

func (app *App) open(ctx context.Context) (*backend, error) {
	st, err := store.Open(ctx, app.cfg.StateDir, store.WithLogger(app.log))
	if err != nil {
		return nil, err
	}
	jar, err := st.Jar(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	client, err := api.New(api.Options{
		BaseURL: app.cfg.BaseURL,
		Jar:     jar,
		Timeout: app.cfg.Timeout,
		Logger:  app.log,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &backend{
		client:  client,
		session: session.New(client, session.WithLogger(app.log)),
		state:   st,
		jar:     jar,
	}, nil
}

func (app *App) timeout() time.Duration {
	if app.cfg.Timeout > 0 {
		return app.cfg.Timeout
	}
	return api.DefaultTimeout
}

// run resolves the saved session, applies the route guard for route and then calls fn.
// Errors returned by fn are reported here, so fn only returns them.
func (app *App) run(cmd *cobra.Command, route guard.Route, fn func(ctx context.Context, b *backend) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), app.timeout())
	defer cancel()

	b, err := app.open(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer b.Close()

	st := b.session.Check(ctx)
	if err := guard.Require(st, route); err != nil {
		return writeErr(cmd, err)
	}
	if st.Authenticated() {
		if err := b.state.SaveIdentity(ctx, b.client.BaseURL(), *st.User); err != nil {
			app.log.Warn("cache identity", zap.Error(err))
		}
	}
	if err := fn(ctx, b); err != nil {
		return app.fail(cmd, err)
	}
	return nil
}

// fail reports err. Validation failures (local or from the server) also print the
// {"errors": {field: message}} envelope on stdout.
func (app *App) fail(cmd *cobra.Command, err error) error {
	fields := invalidFields(err)
	if len(fields) > 0 {
		if werr := writeOut(cmd, app, map[string]any{"errors": fields}); werr != nil {
			return writeErr(cmd, werr)
		}
	}
	return writeErr(cmd, err)
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.cfg.Format, app.cfg.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
