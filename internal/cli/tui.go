package cli

import (
	"sync/atomic"

	"taskdesk-cli/internal/session"
	"taskdesk-cli/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	b, err := app.open(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer b.Close()

	// Only a log file is safe while the alternate screen is up.
	log := app.log
	if app.cfg.LogFile == "" {
		log = zap.NewNop()
	}

	// Keep the cached identity and cookies in step with the session, like the one-shot commands do.
	var signedIn atomic.Bool
	unsubscribe := b.session.Subscribe(func(st session.State) {
		switch {
		case st.Authenticated():
			signedIn.Store(true)
			if err := b.state.SaveIdentity(ctx, b.client.BaseURL(), *st.User); err != nil {
				log.Warn("save identity", zap.Error(err))
			}
		case st.Status == session.StatusAnonymous && signedIn.Swap(false):
			if err := forget(ctx, b); err != nil {
				log.Warn("forget session", zap.Error(err))
			}
		}
	})
	defer unsubscribe()

	return tui.Run(ctx, tui.Options{
		API:     b.client,
		Session: b.session,
		Logger:  log,
		Timeout: app.timeout(),
	})
}
