package screen

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
	"github.com/rovshanmuradov/margin-tracker/internal/ui"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/component"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/router"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// DetailScreen shows every metric of one record.
type DetailScreen struct {
	width  int
	height int
	keyMap ui.KeyMap
	svc    *ui.Services

	helpBar *component.HelpBar
	gauge   *component.PnLGauge

	id            string
	record        portfolio.Record
	err           error
	confirmDelete bool
}

// NewDetailScreen creates the detail screen for record id
func NewDetailScreen(svc *ui.Services, id string) *DetailScreen {
	keyMap := ui.DefaultKeyMap()
	s := &DetailScreen{
		keyMap: keyMap,
		svc:    svc,
		id:     id,
		gauge:  component.NewPnLGauge(41),
		helpBar: component.NewHelpBar().
			SetKeyBindings(keyMap.ContextualHelp(ui.RouteDetail)),
	}
	s.load()
	return s
}

func (s *DetailScreen) load() {
	s.record, s.err = s.svc.Repository.Get(s.id)
	if s.err != nil {
		return
	}
	// Full liquidation of the risk capital fills the loss half of the gauge.
	scale := 100.0
	if m := s.record.Metrics; m.RiskCapital > 0 && s.record.Input.Margin > 0 {
		scale = m.RiskCapital / s.record.Input.Margin * 100
	}
	s.gauge.SetScale(scale).SetValue(s.record.Metrics.ROEPercent)
}

// Init reloads the record; it may have been edited on the calculator screen.
func (s *DetailScreen) Init() tea.Cmd {
	s.load()
	return nil
}

// Update handles screen updates
func (s *DetailScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	confirming := s.confirmDelete
	s.confirmDelete = false

	switch {
	case key.Matches(keyMsg, s.keyMap.Quit):
		return s, tea.Quit

	case s.err != nil:
		return s, nil

	case key.Matches(keyMsg, s.keyMap.Edit):
		return s, ui.Navigate(ui.RouteCalculator, s.id)

	case key.Matches(keyMsg, s.keyMap.Delete):
		if !confirming {
			s.confirmDelete = true
			return s, nil
		}
		if err := s.svc.Repository.Remove(s.id); err != nil {
			s.err = err
			return s, nil
		}
		ui.PublishSuccess(fmt.Sprintf("%s %s deleted", s.record.Input.Symbol, s.record.Input.Direction), "Portfolio")
		return s, ui.Navigate(ui.RoutePortfolio, "")
	}
	return s, nil
}

func timeLine(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(TimeLayout)
}

func (s *DetailScreen) inputCard() string {
	in := s.record.Input
	target, stop := price(in.TargetPrice), price(in.StopLossPrice)
	lines := [][2]string{
		{"Equity", money(in.TotalEquity)},
		{"Margin", money(in.Margin)},
		{"Entry", price(in.EntryPrice)},
		{"Target", target},
		{"Stop", stop},
		{"Fee rates", fmt.Sprintf("%.4f%% / %.4f%%/day", in.TradingFeeRate, in.FundingFeeRate)},
		{"Holding days", fmt.Sprintf("%d", in.HoldingDays)},
		{"Last / exit", price(calc.ResolvedPrice(in))},
		{"Opened", timeLine(in.OpenedAt)},
	}
	if in.Status == calc.Running {
		lines = append(lines, [2]string{"Checked", timeLine(in.ClosedOrCheckedAt)})
	} else {
		lines = append(lines,
			[2]string{"Closed", timeLine(in.ClosedOrCheckedAt)},
			[2]string{"Settled fees", money(in.ManualTradingFee + in.ManualFundingFee)})
	}
	return card("Input", 0, lines...)
}

// View renders the screen
func (s *DetailScreen) View() string {
	if s.width == 0 || s.height == 0 {
		return "Loading..."
	}
	if s.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			style.ErrorStyle.Render("❌ "+s.err.Error()),
			s.helpBar.SetWidth(s.width).View())
	}

	in := s.record.Input
	header := fmt.Sprintf("%s %s  %s %dx  %s",
		directionLabel(in.Direction),
		style.ValueStyle.Render(in.Symbol),
		style.MutedStyle.Render(in.MarginMode.String()),
		in.Leverage,
		statusLabel(in.Status))

	parts := []string{
		style.TitleStyle.Render("Position detail"),
		header,
		s.gauge.ViewDetailed(),
		style.AdaptiveJoinHorizontal(s.width, s.inputCard(), metricCards(in, s.record.Metrics, style.AdaptiveWidth(s.width, 65))),
	}
	if s.confirmDelete {
		parts = append(parts, style.WarningStyle.Render("Press d again to delete this position"))
	}
	parts = append(parts, s.helpBar.SetWidth(s.width).View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetSize sets the screen dimensions
func (s *DetailScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.helpBar.SetWidth(width)
}
