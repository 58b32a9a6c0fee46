// Package tui is the interactive terminal front end. One bubbletea program routes between the
// screen containers; every route change goes through the session guard first.
package tui

import (
	"context"
	"time"

	"taskdesk-cli/internal/screens"
	"taskdesk-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Options struct {
	API     screens.API
	Session *session.Store

	// Logger must not write to the terminal; the program owns the alternate screen.
	Logger *zap.Logger

	// Timeout bounds each backend call; 0 leaves calls bounded only by the program context.
	Timeout time.Duration

	// Now overrides the clock used for due dates and notice expiry.
	Now func() time.Time
}

func Run(ctx context.Context, opts Options) error {
	applyColorProfile()
	m := newAppModel(ctx, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
