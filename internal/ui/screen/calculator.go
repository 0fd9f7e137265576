package screen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/ui"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/component"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/router"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// CalculatorScreen is the position form with a live metrics preview. With a
// record ID it edits that record, otherwise ctrl+s adds a new one.
type CalculatorScreen struct {
	width  int
	height int
	keyMap ui.KeyMap
	svc    *ui.Services
	now    func() time.Time

	helpBar *component.HelpBar
	form    *component.Form

	editID   string
	original calc.PositionInput
	input    calc.PositionInput
	metrics  calc.Metrics
	err      error

	titleStyle lipgloss.Style
	errorStyle lipgloss.Style
}

// NewCalculatorScreen opens the calculator. An unknown editID falls back to
// a new position.
func NewCalculatorScreen(svc *ui.Services, editID string) *CalculatorScreen {
	palette := style.DefaultPalette()
	keyMap := ui.DefaultKeyMap()

	s := &CalculatorScreen{
		keyMap: keyMap,
		svc:    svc,
		now:    time.Now,
		form:   newPositionForm(),

		helpBar: component.NewHelpBar().
			SetKeyBindings(keyMap.ContextualHelp(ui.RouteCalculator)),

		titleStyle: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true).
			Padding(0, 1),

		errorStyle: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true).
			Padding(0, 1),
	}

	in := svc.Config.NewPositionInput()
	if editID != "" {
		if rec, err := svc.Repository.Get(editID); err == nil {
			s.editID = rec.ID
			s.original = rec.Input
			in = rec.Input
		} else {
			svc.Logger.Warn("Edit target not found", zap.String("id", editID), zap.Error(err))
		}
	}
	fillPositionForm(s.form, in)
	s.recompute()

	return s
}

// Init initializes the screen
func (s *CalculatorScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update handles screen updates
func (s *CalculatorScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch {
	case key.Matches(keyMsg, s.keyMap.Quit):
		return s, tea.Quit

	case key.Matches(keyMsg, s.keyMap.Save):
		return s, s.save()

	case key.Matches(keyMsg, s.keyMap.Reset):
		in := s.svc.Config.NewPositionInput()
		if s.editID != "" {
			if rec, err := s.svc.Repository.Get(s.editID); err == nil {
				s.original = rec.Input
				in = rec.Input
			}
		}
		fillPositionForm(s.form, in)
		s.recompute()
		return s, nil
	}

	form, cmd, changed := s.form.Update(keyMsg)
	s.form = form
	if changed {
		s.recompute()
	}
	return s, cmd
}

// recompute parses the form and refreshes the preview. Parse and validation
// failures are kept in s.err and marked on the form.
func (s *CalculatorScreen) recompute() {
	in, err := readPositionForm(s.form)
	if err != nil {
		s.err = err
		return
	}
	if s.editID != "" {
		in = keepStamps(s.form, in, s.original)
	}
	s.input = in

	m, err := s.svc.Calculator().Compute(previewInput(in, s.now()))
	if err != nil {
		markCalcError(s.form, err)
		s.err = err
		return
	}
	s.metrics = m
	s.err = nil
}

func (s *CalculatorScreen) save() tea.Cmd {
	s.recompute()
	if s.err != nil {
		return nil
	}

	var (
		saved  = s.input
		edited = s.editID != ""
	)
	if edited {
		rec, err := s.svc.Repository.Update(s.editID, saved)
		if err != nil {
			return s.fail(err)
		}
		ui.PublishSuccess(fmt.Sprintf("%s %s updated", rec.Input.Symbol, rec.Input.Direction), "Portfolio")
	} else {
		rec, err := s.svc.Repository.Add(saved)
		if err != nil {
			return s.fail(err)
		}
		ui.PublishSuccess(fmt.Sprintf("%s %s added", rec.Input.Symbol, rec.Input.Direction), "Portfolio")
	}
	return ui.Navigate(ui.RoutePortfolio, "")
}

func (s *CalculatorScreen) fail(err error) tea.Cmd {
	s.err = err
	markCalcError(s.form, err)
	return func() tea.Msg {
		return ui.ErrorMsg{Error: err, Title: "Save failed"}
	}
}

// View renders the screen
func (s *CalculatorScreen) View() string {
	if s.width == 0 || s.height == 0 {
		return "Loading..."
	}

	title := "New position"
	if s.editID != "" {
		title = "Edit position"
	}

	formPanel := style.ActivePanelStyle.Render(s.form.View())

	var preview string
	switch {
	case s.err != nil:
		preview = s.errorStyle.Render("✗ " + firstLine(s.err))
	default:
		header := directionLabel(s.input.Direction) + " " +
			style.ValueStyle.Render(s.input.Symbol) + " " +
			style.MutedStyle.Render(fmt.Sprintf("%s %dx", s.input.MarginMode, s.input.Leverage))
		preview = lipgloss.JoinVertical(lipgloss.Left, header, metricCards(s.input, s.metrics, s.width-lipgloss.Width(formPanel)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, formPanel, " ", preview)
	if s.width < 110 {
		body = lipgloss.JoinVertical(lipgloss.Left, formPanel, preview)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.titleStyle.Render(title),
		body,
		s.helpBar.SetWidth(s.width).View(),
	)
}

// firstLine keeps joined parse errors to a single readable line.
func firstLine(err error) string {
	var calcErr *calc.Error
	if errors.As(err, &calcErr) {
		return calcErr.Field + ": " + calcErr.Err.Error()
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}

// SetSize sets the screen dimensions
func (s *CalculatorScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.helpBar.SetWidth(width)
	s.form.SetWidth(48)
}
