package tui

import (
	"os"

	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/notify"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted      = ac("#6b6b6b", "#8a8a8a")
	colorAccent     = ac("#1565c0", "#64b5f6")
	colorSelectedBg = ac("#dbe7f7", "#2b3a4f")
	colorSelectedFg = ac("#1f1f1f", "#f5f5f5")
	colorErrorFg    = ac("#c62828", "#ef9a9a")
	colorSuccessFg  = ac("#2e7d32", "#a5d6a7")
	colorInputBg    = ac("#f0f0f0", "#262626")

	// Dashboard priority chips.
	priorityColors = map[model.Priority]lipgloss.Color{
		model.PriorityLow:    lipgloss.Color("#8bc34a"),
		model.PriorityMedium: lipgloss.Color("#ff9800"),
		model.PriorityHigh:   lipgloss.Color("#f44336"),
	}
)

// applyColorProfile honours NO_COLOR and dumb terminals before the program starts.
func applyColorProfile() {
	if termenv.EnvNoColor() || os.Getenv("TERM") == "dumb" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

func styleMuted() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorMuted) }

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
}

func styleError() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorErrorFg) }

func styleTab(active bool) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 1)
	if active {
		return s.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	}
	return s.Foreground(colorMuted)
}

func chip(label string, bg lipgloss.TerminalColor) string {
	return lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#ffffff")).Background(bg).Render(label)
}

func priorityChip(p model.Priority) string {
	c, ok := priorityColors[p]
	if !ok {
		return chip(string(p), colorMuted)
	}
	return chip(string(p), c)
}

func noticeStyle(sev notify.Severity) lipgloss.Style {
	switch sev {
	case notify.Error:
		return lipgloss.NewStyle().Foreground(colorErrorFg).Bold(true)
	case notify.Success:
		return lipgloss.NewStyle().Foreground(colorSuccessFg).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colorAccent)
}
