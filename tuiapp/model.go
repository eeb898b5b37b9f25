package tuiapp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwatts/sightwatch/internal"
)

type TickMsg time.Time

const renderInterval = time.Second

func tick() tea.Cmd {
	return tea.Every(
		renderInterval,
		func(t time.Time) tea.Msg {
			return TickMsg(t)
		},
	)
}

// Model implements the bubbletea.Model interface, which requires three methods:
// - Init() Cmd
// - Update(Msg) (Model, Cmd)
// - View() string
// This forms the base for the TUI app.
type model struct {
	width      int
	height     int
	appName    string
	baseStyle  lipgloss.Style
	viewStyle  lipgloss.Style
	theme      Theme
	activeTbl  table.Model
	nearbyTbl  table.Model
	tableStyle table.Styles
	lastUpdate time.Time
	activeIDs  []string
	registry   *internal.Registry
	scheduler  *internal.Scheduler
	logger     *slog.Logger
}

func (m *model) Init() tea.Cmd {
	return tick()
}

// Update takes a tea.Msg as input and uses a type switch to handle different
// types of messages.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // required by interface
	switch thisMsg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = thisMsg.Height
		m.width = thisMsg.Width

	case tea.KeyMsg:
		switch thisMsg.String() {
		// Toggles the focus state of the active sighting table
		case "esc":
			if m.activeTbl.Focused() {
				m.tableStyle.Selected = m.baseStyle
				m.activeTbl.SetStyles(m.tableStyle)
				m.activeTbl.Blur()
			} else {
				m.tableStyle.Selected = m.tableStyle.Selected.Background(m.theme.Highlight)
				m.activeTbl.SetStyles(m.tableStyle)
				m.activeTbl.Focus()
			}
		case "up", "k":
			if m.activeTbl.Focused() {
				m.activeTbl.MoveUp(1)
			}
		case "down", "j":
			if m.activeTbl.Focused() {
				m.activeTbl.MoveDown(1)
			}
		// Drops the selected sighting from tracking.
		case "x":
			if m.activeTbl.Focused() {
				m.removeSelected()
			}
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case TickMsg:
		m.lastUpdate = time.Time(thisMsg)
		m.refreshTables(time.Time(thisMsg))
		return m, tick()
	}

	return m, nil
}

// refreshTables rebuilds both table contents from current registry snapshots.
func (m *model) refreshTables(now time.Time) {
	activeViews := m.registry.LabelActive(now)
	activeRows := make([]table.Row, 0, len(activeViews))
	m.activeIDs = m.activeIDs[:0]
	for _, v := range activeViews {
		activeRows = append(activeRows, activeRow(v))
		m.activeIDs = append(m.activeIDs, v.ID)
	}
	m.activeTbl.SetRows(activeRows)

	nearbyViews := m.registry.SortedNearby(now)
	nearbyRows := make([]table.Row, 0, len(nearbyViews))
	for _, v := range nearbyViews {
		nearbyRows = append(nearbyRows, nearbyRow(v))
	}
	m.nearbyTbl.SetRows(nearbyRows)
}

func (m *model) removeSelected() {
	idx := m.activeTbl.Cursor()
	if idx < 0 || idx >= len(m.activeIDs) {
		return
	}
	id := m.activeIDs[idx]
	if m.registry.Remove(id) {
		m.logger.Info("sighting removed via dashboard", "id", id)
		m.refreshTables(time.Now())
	}
}

func activeRow(v internal.SightingView) table.Row {
	eta := "-"
	if v.HasETA {
		eta = fmt.Sprintf("%.0f min", v.ETAMinutes)
	}
	src := "route"
	if v.HaversineOnly {
		src = "approx"
	}
	if !v.HasDistance {
		src = "-"
	}
	return table.Row{
		v.Label,
		flaggedName(v),
		eta,
		formatDistance(v),
		formatTimeLeft(v.TimeLeft),
		src,
	}
}

func nearbyRow(v internal.SightingView) table.Row {
	return table.Row{
		flaggedName(v),
		formatDistance(v),
		formatTimeLeft(v.TimeLeft),
	}
}

func flaggedName(v internal.SightingView) string {
	switch {
	case v.Critical && v.Notable:
		return v.Name + " !!"
	case v.Critical || v.Notable:
		return v.Name + " !"
	default:
		return v.Name
	}
}

func formatDistance(v internal.SightingView) string {
	if !v.HasDistance {
		return "-"
	}
	return fmt.Sprintf("%.2f mi", v.DistanceMiles)
}

func formatTimeLeft(left time.Duration) string {
	if left <= 0 {
		return "0s"
	}
	return left.Truncate(time.Second).String()
}

func (m *model) View() string {
	column := m.baseStyle.Width(m.width).Padding(1, 0, 0, 0).Render
	content := m.baseStyle.
		Width(m.width).
		Height(m.height).
		Render(
			lipgloss.JoinVertical(lipgloss.Left,
				column(m.viewHeader()),
				column(m.viewActive()),
				column(m.viewNearby()),
			),
		)

	return content
}

func (m *model) viewHeader() string {
	observerLine := "observer: unknown"
	if observer, ok := m.registry.Observer(); ok {
		observerLine = fmt.Sprintf("observer: %s", observer.QueryString())
	}

	active, nearby := m.registry.Counts()

	return m.viewStyle.Render(
		lipgloss.JoinVertical(lipgloss.Top,
			m.baseStyle.Bold(true).Render(m.appName),
			fmt.Sprintf("%s   tracked: %d active / %d nearby", observerLine, active, nearby),
			fmt.Sprintf("next update in %ds (%s)",
				m.scheduler.SecondsUntilNextUpdate(), m.scheduler.State()),
		),
	)
}

func (m *model) viewActive() string {
	return m.viewStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.baseStyle.Bold(true).Render("Active"),
			m.activeTbl.View(),
		),
	)
}

func (m *model) viewNearby() string {
	return m.viewStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.baseStyle.Bold(true).Render("Nearby"),
			m.nearbyTbl.View(),
		),
	)
}
