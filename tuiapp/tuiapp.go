// Package tuiapp provides the terminal dashboard, which displays the tracked
// sightings, updates continuously and can be interacted with.
// Layout idea:
// +-------------------------------------------------+
// | observer: 37.77,-122.41   next update in 12s    |
// |  ______________________________________________ |
// | | active sightings (sorted by travel time)     ||
// | | entry 0                                      ||
// | | ...                                          ||
// |  ---------------------------------------------- |
// |  ______________________________________________ |
// | | nearby sightings (sorted by distance)        ||
// | | entry 0                                      ||
// |  ---------------------------------------------- |
// +-------------------------------------------------+
// .
package tuiapp

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwatts/sightwatch/internal"
)

// Theme holds the few colors the dashboard uses.
type Theme struct {
	Highlight lipgloss.Color
	Border    lipgloss.Color
	Warn      lipgloss.Color
}

func defaultTheme() Theme {
	return Theme{
		Highlight: lipgloss.Color("212"),
		Border:    lipgloss.Color("240"),
		Warn:      lipgloss.Color("220"),
	}
}

// Run blocks inside the bubbletea event loop until the user quits.
func Run(appName string, registry *internal.Registry, scheduler *internal.Scheduler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	tableStyle := table.DefaultStyles()
	tableStyle.Selected = lipgloss.NewStyle().Background(defaultTheme().Highlight)

	activeTbl := table.New(
		table.WithColumns(activeColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(12),
		table.WithStyles(tableStyle),
	)

	nearbyTbl := table.New(
		table.WithColumns(nearbyColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(8),
		table.WithStyles(tableStyle),
	)

	m := model{
		appName:    appName,
		registry:   registry,
		scheduler:  scheduler,
		logger:     logger,
		theme:      defaultTheme(),
		baseStyle:  lipgloss.NewStyle(),
		viewStyle:  lipgloss.NewStyle().Padding(0, 1),
		tableStyle: tableStyle,
		activeTbl:  activeTbl,
		nearbyTbl:  nearbyTbl,
	}

	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func activeColumns() []table.Column {
	return []table.Column{
		{Title: "LBL", Width: 4},
		{Title: "NAME", Width: 14},
		{Title: "ETA", Width: 8},
		{Title: "DST", Width: 8},
		{Title: "LEFT", Width: 6},
		{Title: "SRC", Width: 10},
	}
}

func nearbyColumns() []table.Column {
	return []table.Column{
		{Title: "NAME", Width: 14},
		{Title: "DST", Width: 8},
		{Title: "LEFT", Width: 6},
	}
}
