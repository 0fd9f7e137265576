package screen

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/margin-tracker/internal/logger"
	"github.com/rovshanmuradov/margin-tracker/internal/ui"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/component"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/router"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// LogLevel is a minimum severity filter
type LogLevel string

const (
	LogLevelAll   LogLevel = "all"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3, "dpanic": 4, "panic": 4, "fatal": 4}

// RefreshLogsMsg is sent to trigger a refresh
type RefreshLogsMsg struct {
	Timestamp time.Time
}

// LogsScreen shows the in-memory log buffer, newest last.
type LogsScreen struct {
	width  int
	height int
	keyMap ui.KeyMap
	buffer *logger.LogBuffer

	helpBar *component.HelpBar
	table   *component.Table

	filter   LogLevel
	entries  []logger.LogEntry
	tailMode bool
}

// NewLogsScreen creates a new logs screen
func NewLogsScreen(buffer *logger.LogBuffer) *LogsScreen {
	keyMap := ui.DefaultKeyMap()
	s := &LogsScreen{
		keyMap:   keyMap,
		buffer:   buffer,
		filter:   LogLevelAll,
		tailMode: true,
		helpBar: component.NewHelpBar().
			SetKeyBindings(keyMap.ContextualHelp(ui.RouteLogs)),
		table: component.NewTable().
			AddColumn("Time", 8, lipgloss.Left).
			AddColumn("Level", 5, lipgloss.Left).
			AddColumn("Message", 40, lipgloss.Left).
			AddColumn("Fields", 50, lipgloss.Left),
	}
	s.reload()
	return s
}

func scheduleLogRefresh() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return RefreshLogsMsg{Timestamp: t}
	})
}

// Init initializes the logs screen
func (s *LogsScreen) Init() tea.Cmd {
	s.reload()
	return scheduleLogRefresh()
}

// Update handles screen updates
func (s *LogsScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keyMap.Quit):
			return s, tea.Quit
		case key.Matches(msg, s.keyMap.Up):
			s.table.MoveUp()
			s.tailMode = false
		case key.Matches(msg, s.keyMap.Down):
			s.table.MoveDown()
			s.tailMode = s.table.SelectedRow() == s.table.RowCount()-1
		case key.Matches(msg, s.keyMap.FilterInfo):
			s.setFilter(LogLevelInfo)
		case key.Matches(msg, s.keyMap.FilterWarn):
			s.setFilter(LogLevelWarn)
		case key.Matches(msg, s.keyMap.FilterError):
			s.setFilter(LogLevelError)
		case key.Matches(msg, s.keyMap.FilterAll):
			s.setFilter(LogLevelAll)
		}

	case RefreshLogsMsg:
		s.reload()
		return s, scheduleLogRefresh()
	}
	return s, nil
}

func (s *LogsScreen) setFilter(level LogLevel) {
	s.filter = level
	s.tailMode = true
	s.reload()
}

// filterEntries keeps entries at or above the minimum level.
func filterEntries(entries []logger.LogEntry, level LogLevel) []logger.LogEntry {
	if level == LogLevelAll {
		return entries
	}
	floor := levelRank[string(level)]
	out := make([]logger.LogEntry, 0, len(entries))
	for _, e := range entries {
		if levelRank[strings.ToLower(e.Level)] >= floor {
			out = append(out, e)
		}
	}
	return out
}

func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, fields[k])
	}
	return strings.Join(parts, " ")
}

func (s *LogsScreen) reload() {
	if s.buffer == nil {
		return
	}
	s.entries = filterEntries(s.buffer.GetRecentLogs(0), s.filter)

	rows := make([][]string, len(s.entries))
	for i, e := range s.entries {
		rows[i] = []string{e.Timestamp.Local().Format("15:04:05"), e.Level, e.Message, formatFields(e.Fields)}
	}
	s.table.SetRows(rows)

	palette := style.DefaultPalette()
	for i, e := range s.entries {
		switch strings.ToLower(e.Level) {
		case "warn":
			s.table.SetRowStyle(i, lipgloss.NewStyle().Foreground(palette.Warning))
		case "error", "dpanic", "panic", "fatal":
			s.table.SetRowStyle(i, lipgloss.NewStyle().Foreground(palette.Error))
		case "debug":
			s.table.SetRowStyle(i, lipgloss.NewStyle().Foreground(palette.TextMuted))
		}
	}
	if s.tailMode {
		s.table.SetSelectedRow(len(rows) - 1)
	}
}

// View renders the logs screen
func (s *LogsScreen) View() string {
	if s.width == 0 || s.height == 0 {
		return "Loading..."
	}

	title := fmt.Sprintf("📜 Application Logs (filter: %s)", s.filter)
	if s.tailMode {
		title += " (tail)"
	}

	body := style.MutedStyle.Render("No log entries match the current filter.")
	if len(s.entries) > 0 {
		body = s.table.View()
	}

	var stats string
	if s.buffer != nil {
		total, dropped := s.buffer.GetStats()
		stats = style.MutedStyle.Render(fmt.Sprintf("%d logged, %d rotated out", total, dropped))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		style.TitleStyle.Render(title),
		body,
		stats,
		s.helpBar.SetWidth(s.width).View(),
	)
}

// SetSize sets the screen dimensions
func (s *LogsScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.helpBar.SetWidth(width)
	s.table.SetSize(width-2, height-8)
}
