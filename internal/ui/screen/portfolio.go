package screen

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
	"github.com/rovshanmuradov/margin-tracker/internal/ui"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/component"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/router"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// RefreshInterval is how often running positions get their duration refreshed.
const RefreshInterval = 30 * time.Second

// RefreshPortfolioMsg is sent periodically to refresh running positions.
// Gen ties the tick to the Init that scheduled it.
type RefreshPortfolioMsg struct {
	Time time.Time
	Gen  int
}

// PortfolioScreen lists every tracked position with a summary header.
type PortfolioScreen struct {
	width  int
	height int
	keyMap ui.KeyMap
	svc    *ui.Services

	helpBar *component.HelpBar
	table   *component.Table
	equity  *component.Sparkline

	records       []portfolio.Record
	summary       portfolio.Summary
	pendingDelete string
	exporting     bool
	lastRefresh   time.Time
	tickGen       int
	errors        []string

	titleStyle  lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
	infoStyle   lipgloss.Style
}

// NewPortfolioScreen creates the portfolio screen
func NewPortfolioScreen(svc *ui.Services) *PortfolioScreen {
	palette := style.DefaultPalette()
	keyMap := ui.DefaultKeyMap()

	s := &PortfolioScreen{
		keyMap: keyMap,
		svc:    svc,

		helpBar: component.NewHelpBar().
			SetKeyBindings(keyMap.ContextualHelp(ui.RoutePortfolio)),

		equity: component.NewSparkline(32).ShowText(true),

		table: component.NewTable().
			AddColumn("Symbol", 12, lipgloss.Left).
			AddColumn("Side", 5, lipgloss.Left).
			AddColumn("Mode", 8, lipgloss.Left).
			AddColumn("Lev", 4, lipgloss.Right).
			AddColumn("Status", 10, lipgloss.Left).
			AddColumn("Entry", 12, lipgloss.Right).
			AddColumn("Liq.", 12, lipgloss.Right).
			AddColumn("Net PnL", 11, lipgloss.Right).
			AddColumn("ROE", 9, lipgloss.Right).
			AddColumn("Held", 10, lipgloss.Right),

		titleStyle: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true).
			Padding(0, 1),

		statusStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Padding(0, 1),

		errorStyle: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true).
			Padding(0, 1),

		infoStyle: lipgloss.NewStyle().
			Foreground(palette.TextSecondary).
			Padding(0, 1),
	}
	s.refresh(time.Now())
	return s
}

func scheduleRefresh(gen int) tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return RefreshPortfolioMsg{Time: t, Gen: gen}
	})
}

// Init refreshes the table; it runs again whenever a screen above is popped.
// Ticks scheduled by an earlier Init are ignored.
func (s *PortfolioScreen) Init() tea.Cmd {
	s.tickGen++
	s.refresh(time.Now())
	return scheduleRefresh(s.tickGen)
}

// Update handles screen updates
func (s *PortfolioScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s, s.handleKey(msg)

	case RefreshPortfolioMsg:
		if msg.Gen != s.tickGen {
			return s, nil
		}
		s.refresh(msg.Time)
		return s, scheduleRefresh(s.tickGen)

	case ui.ExportDoneMsg:
		s.exporting = false
		if msg.Err != nil {
			s.errors = []string{fmt.Sprintf("Export failed: %v", msg.Err)}
			ui.PublishError(msg.Err, "Export")
			return s, nil
		}
		ui.PublishSuccess(fmt.Sprintf("Exported to %s", strings.Join(msg.Paths, ", ")), "Export")
	}
	return s, nil
}

func (s *PortfolioScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	confirming := s.pendingDelete
	s.pendingDelete = ""

	switch {
	case key.Matches(msg, s.keyMap.Quit):
		return tea.Quit

	case key.Matches(msg, s.keyMap.Up):
		s.table.MoveUp()

	case key.Matches(msg, s.keyMap.Down):
		s.table.MoveDown()

	case key.Matches(msg, s.keyMap.NewPosition):
		return ui.Navigate(ui.RouteCalculator, "")

	case key.Matches(msg, s.keyMap.Logs):
		return ui.Navigate(ui.RouteLogs, "")

	case key.Matches(msg, s.keyMap.Refresh):
		s.refresh(time.Now())
	}

	rec, ok := s.selected()
	if !ok {
		return nil
	}

	switch {
	case key.Matches(msg, s.keyMap.Enter):
		return ui.Navigate(ui.RouteDetail, rec.ID)

	case key.Matches(msg, s.keyMap.Edit):
		return ui.Navigate(ui.RouteCalculator, rec.ID)

	case key.Matches(msg, s.keyMap.Delete):
		if confirming != rec.ID {
			s.pendingDelete = rec.ID
			return nil
		}
		if err := s.svc.Repository.Remove(rec.ID); err != nil {
			s.errors = []string{err.Error()}
			return nil
		}
		s.refresh(time.Now())
		ui.PublishSuccess(fmt.Sprintf("%s %s deleted", rec.Input.Symbol, rec.Input.Direction), "Portfolio")

	case key.Matches(msg, s.keyMap.Export):
		if s.exporting {
			return nil
		}
		s.exporting = true
		return func() tea.Msg {
			return s.svc.ExportPortfolio()
		}
	}
	return nil
}

func (s *PortfolioScreen) selected() (portfolio.Record, bool) {
	i := s.table.SelectedRow()
	if i < 0 || i >= len(s.records) {
		return portfolio.Record{}, false
	}
	return s.records[i], true
}

// refresh recomputes running positions at now and rebuilds the table.
func (s *PortfolioScreen) refresh(now time.Time) {
	if err := s.svc.Repository.Recompute(now); err != nil {
		s.svc.Logger.Warn("Recompute failed", zap.Error(err))
		s.errors = []string{err.Error()}
	} else {
		s.errors = nil
	}
	s.lastRefresh = now
	s.records = s.svc.Repository.List()
	s.summary = portfolio.Summarize(s.records)
	s.equity.SetData(portfolio.EquityCurve(s.records))

	rows := make([][]string, len(s.records))
	for i, r := range s.records {
		rows[i] = recordRow(r)
	}
	s.table.SetRows(rows)

	palette := style.DefaultPalette()
	for i, r := range s.records {
		s.table.SetRowStyle(i, lipgloss.NewStyle().Foreground(palette.PnLColor(r.Metrics.NetPnl)))
	}
}

func recordRow(r portfolio.Record) []string {
	side := "L"
	if r.Input.Direction == calc.Short {
		side = "S"
	}
	return []string{
		r.Input.Symbol,
		side,
		r.Input.MarginMode.String(),
		fmt.Sprintf("%dx", r.Input.Leverage),
		r.Input.Status.String(),
		price(r.Input.EntryPrice),
		price(r.Metrics.LiquidationPrice),
		money(r.Metrics.NetPnl),
		fmt.Sprintf("%+.2f%%", r.Metrics.ROEPercent),
		r.Metrics.DurationText,
	}
}

func (s *PortfolioScreen) renderSummary() string {
	sum := s.summary
	parts := []string{
		fmt.Sprintf("Positions: %d (%d running)", sum.TotalPositions, sum.Running),
		"Floating " + signedMoney(sum.FloatingPnl),
		"Realized " + signedMoney(sum.RealizedPnl),
		"Fees " + money(sum.TotalFees),
		fmt.Sprintf("Win rate %.1f%%", sum.WinRate),
		"Open margin " + money(sum.OpenMargin),
	}
	return s.statusStyle.Render(strings.Join(parts, " • "))
}

// View renders the portfolio screen
func (s *PortfolioScreen) View() string {
	if s.width == 0 || s.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(s.titleStyle.Render("📊 Positions"))
	content.WriteString("\n")
	content.WriteString(s.renderSummary())
	content.WriteString("\n")
	if closed := s.summary.TotalPositions - s.summary.Running; closed > 1 {
		content.WriteString(s.infoStyle.Render(fmt.Sprintf("Realized equity %s  max drawdown %s",
			s.equity.View(), money(s.summary.MaxDrawdown))))
		content.WriteString("\n")
	}

	for _, err := range s.errors {
		content.WriteString(s.errorStyle.Render("❌ " + err))
		content.WriteString("\n")
	}

	if len(s.records) == 0 {
		content.WriteString(s.infoStyle.Render("No positions yet. Press 'n' to open the calculator."))
	} else {
		content.WriteString(s.table.View())
	}
	content.WriteString("\n")

	var status []string
	if s.pendingDelete != "" {
		status = append(status, style.WarningStyle.Render("Press d again to delete the selected position"))
	}
	if s.exporting {
		status = append(status, "Exporting...")
	}
	status = append(status, "Updated "+s.lastRefresh.Format("15:04:05"))
	content.WriteString(s.infoStyle.Render(strings.Join(status, " • ")))
	content.WriteString("\n")

	content.WriteString(s.helpBar.SetWidth(s.width).View())
	return content.String()
}

// SetSize sets the screen dimensions
func (s *PortfolioScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.helpBar.SetWidth(width)
	s.table.SetSize(width-2, height-10)
}
