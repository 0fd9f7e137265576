package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/config"
	"github.com/rovshanmuradov/margin-tracker/internal/logger"
	"github.com/rovshanmuradov/margin-tracker/internal/ui"
)

func newTestServices(t *testing.T) *ui.Services {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Export.Dir = t.TempDir()

	svc, err := ui.NewServices(context.Background(), cfg, zap.NewNop(), logger.NewLogBuffer(16))
	require.NoError(t, err)
	t.Cleanup(drainBus)
	return svc
}

func drainBus() {
	for {
		select {
		case <-ui.Bus:
		default:
			return
		}
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func sampleInput() calc.PositionInput {
	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	return calc.PositionInput{
		Symbol:            "BTCUSDT",
		MarginMode:        calc.Isolated,
		Direction:         calc.Short,
		TotalEquity:       1000,
		Margin:            100,
		Leverage:          20,
		EntryPrice:        50000,
		TargetPrice:       45000,
		StopLossPrice:     51000,
		TradingFeeRate:    0.045,
		FundingFeeRate:    0.01,
		HoldingDays:       2,
		Status:            calc.Closed,
		LastOrExitPrice:   47000,
		ManualTradingFee:  0.9,
		OpenedAt:          opened,
		ClosedOrCheckedAt: opened.Add(90 * time.Minute),
	}
}

func TestPositionFormRoundTrip(t *testing.T) {
	in := sampleInput()
	form := newPositionForm()
	fillPositionForm(form, in)

	got, err := readPositionForm(form)
	require.NoError(t, err)
	assert.Equal(t, in.Symbol, got.Symbol)
	assert.Equal(t, in.Direction, got.Direction)
	assert.Equal(t, in.Status, got.Status)
	assert.Equal(t, in.Leverage, got.Leverage)
	assert.Equal(t, in.LastOrExitPrice, got.LastOrExitPrice)
	assert.Equal(t, in.ManualTradingFee, got.ManualTradingFee)
	assert.True(t, in.OpenedAt.Equal(got.OpenedAt))
	assert.True(t, in.ClosedOrCheckedAt.Equal(got.ClosedOrCheckedAt))
}

func TestPositionFormReportsEveryParseError(t *testing.T) {
	form := newPositionForm()
	form.SetFieldValue("entry_price", "fifty")
	form.SetFieldValue("leverage", "x")
	form.SetFieldValue("opened_at", "yesterday")

	_, err := readPositionForm(form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry_price")
	assert.Contains(t, err.Error(), "leverage")
	assert.Contains(t, err.Error(), "opened_at")
}

func TestPreviewInputStampsLikeRepository(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	in := previewInput(calc.PositionInput{Status: calc.Running}, now)
	assert.Equal(t, now, in.OpenedAt)
	assert.Equal(t, now, in.ClosedOrCheckedAt)

	closedAt := now.Add(-time.Hour)
	in = previewInput(calc.PositionInput{Status: calc.Closed, OpenedAt: now.Add(-2 * time.Hour), ClosedOrCheckedAt: closedAt}, now)
	assert.Equal(t, closedAt, in.ClosedOrCheckedAt, "closed positions keep their close time")
}

func TestCalculatorAddsPosition(t *testing.T) {
	svc := newTestServices(t)
	s := NewCalculatorScreen(svc, "")
	s.SetSize(140, 50)

	s.form.SetFieldValue("symbol", "ethusdt").SetFieldValue("entry_price", "3000")
	s.recompute()
	require.NoError(t, s.err)
	assert.Greater(t, s.metrics.LiquidationPrice, 0.0)
	assert.Contains(t, s.View(), "Liquidation")

	_, cmd := s.Update(keyPress("ctrl+s"))
	require.NotNil(t, cmd)
	assert.Equal(t, ui.RouterMsg{To: ui.RoutePortfolio}, cmd())

	records := svc.Repository.List()
	require.Len(t, records, 1)
	assert.Equal(t, "ETHUSDT", records[0].Input.Symbol)
	assert.False(t, records[0].Input.OpenedAt.IsZero())
}

func TestCalculatorRejectsInvalidInput(t *testing.T) {
	svc := newTestServices(t)
	s := NewCalculatorScreen(svc, "")
	s.SetSize(140, 50)

	// entry price is empty in a fresh form
	_, cmd := s.Update(keyPress("ctrl+s"))
	assert.Nil(t, cmd)
	require.Error(t, s.err)
	assert.True(t, errors.Is(s.err, calc.ErrInvalidEntryPrice))
	assert.Zero(t, svc.Repository.Len())
	assert.Contains(t, s.View(), "entry_price")
}

func TestCalculatorEditsExistingRecord(t *testing.T) {
	svc := newTestServices(t)
	rec, err := svc.Repository.Add(sampleInput())
	require.NoError(t, err)

	s := NewCalculatorScreen(svc, rec.ID)
	require.Equal(t, rec.ID, s.editID)
	assert.Equal(t, "47000", s.form.GetValue("last_or_exit_price"))

	s.form.SetFieldValue("last_or_exit_price", "46000")
	_, cmd := s.Update(keyPress("ctrl+s"))
	require.NotNil(t, cmd)

	updated, err := svc.Repository.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 46000.0, updated.Input.LastOrExitPrice)
	assert.Equal(t, 1, svc.Repository.Len())
}

func TestCalculatorEditKeepsUntouchedTimestamps(t *testing.T) {
	svc := newTestServices(t)
	in := sampleInput()
	in.OpenedAt = in.OpenedAt.Add(42 * time.Second)
	in.ClosedOrCheckedAt = in.ClosedOrCheckedAt.Add(17 * time.Second)
	rec, err := svc.Repository.Add(in)
	require.NoError(t, err)

	s := NewCalculatorScreen(svc, rec.ID)
	s.form.SetFieldValue("last_or_exit_price", "46000")
	_, cmd := s.Update(keyPress("ctrl+s"))
	require.NotNil(t, cmd)

	updated, err := svc.Repository.Get(rec.ID)
	require.NoError(t, err)
	assert.True(t, in.OpenedAt.Equal(updated.Input.OpenedAt), "opened at %v", updated.Input.OpenedAt)
	assert.True(t, in.ClosedOrCheckedAt.Equal(updated.Input.ClosedOrCheckedAt))
	assert.Equal(t, rec.Metrics.Duration, updated.Metrics.Duration)

	s = NewCalculatorScreen(svc, rec.ID)
	s.form.SetFieldValue("opened_at", "2024-03-01 09:30")
	_, cmd = s.Update(keyPress("ctrl+s"))
	require.NotNil(t, cmd)

	updated, err = svc.Repository.Get(rec.ID)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local).Equal(updated.Input.OpenedAt))
}

func TestCalculatorClosingRunningPositionStampsCloseTime(t *testing.T) {
	svc := newTestServices(t)
	in := sampleInput()
	in.Status = calc.Running
	rec, err := svc.Repository.Add(in)
	require.NoError(t, err)
	checkedAt := rec.Input.ClosedOrCheckedAt

	s := NewCalculatorScreen(svc, rec.ID)
	s.form.SetFieldValue("status", "closed")
	_, cmd := s.Update(keyPress("ctrl+s"))
	require.NotNil(t, cmd)

	updated, err := svc.Repository.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, calc.Closed, updated.Input.Status)
	assert.False(t, updated.Input.ClosedOrCheckedAt.Before(checkedAt))
}

func TestKeepStamps(t *testing.T) {
	original := sampleInput()
	original.Status = calc.Running
	original.OpenedAt = original.OpenedAt.Add(42 * time.Second)
	original.ClosedOrCheckedAt = original.ClosedOrCheckedAt.Add(5 * time.Second)

	form := newPositionForm()
	fillPositionForm(form, original)
	in, err := readPositionForm(form)
	require.NoError(t, err)

	kept := keepStamps(form, in, original)
	assert.True(t, original.OpenedAt.Equal(kept.OpenedAt))
	assert.True(t, original.ClosedOrCheckedAt.Equal(kept.ClosedOrCheckedAt))

	in.Status = calc.Closed
	kept = keepStamps(form, in, original)
	assert.True(t, kept.ClosedOrCheckedAt.IsZero(), "closing drops the stale check time")

	closedAt := time.Date(2024, 3, 2, 8, 15, 0, 0, time.Local)
	form.SetFieldValue("closed_or_checked_at", formatTime(closedAt))
	in, err = readPositionForm(form)
	require.NoError(t, err)
	in.Status = calc.Closed
	kept = keepStamps(form, in, original)
	assert.True(t, closedAt.Equal(kept.ClosedOrCheckedAt), "an edited close time is kept")
}

func TestPortfolioDeleteNeedsConfirmation(t *testing.T) {
	svc := newTestServices(t)
	_, err := svc.Repository.Add(sampleInput())
	require.NoError(t, err)

	s := NewPortfolioScreen(svc)
	s.SetSize(140, 40)
	assert.Contains(t, s.View(), "BTCUSDT")

	s.Update(keyPress("d"))
	assert.Equal(t, 1, svc.Repository.Len())
	assert.Contains(t, s.View(), "Press d again")

	s.Update(keyPress("d"))
	assert.Zero(t, svc.Repository.Len())
	assert.Contains(t, s.View(), "No positions yet")
}

func TestPortfolioNavigation(t *testing.T) {
	svc := newTestServices(t)
	rec, err := svc.Repository.Add(sampleInput())
	require.NoError(t, err)

	s := NewPortfolioScreen(svc)
	_, cmd := s.Update(keyPress("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, ui.RouterMsg{To: ui.RouteDetail, RecordID: rec.ID}, cmd())

	_, cmd = s.Update(keyPress("e"))
	assert.Equal(t, ui.RouterMsg{To: ui.RouteCalculator, RecordID: rec.ID}, cmd())

	_, cmd = s.Update(keyPress("n"))
	assert.Equal(t, ui.RouterMsg{To: ui.RouteCalculator}, cmd())
}

func TestPortfolioExport(t *testing.T) {
	svc := newTestServices(t)
	_, err := svc.Repository.Add(sampleInput())
	require.NoError(t, err)

	s := NewPortfolioScreen(svc)
	_, cmd := s.Update(keyPress("x"))
	require.NotNil(t, cmd)
	assert.True(t, s.exporting)

	done, ok := cmd().(ui.ExportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.NotEmpty(t, done.Paths)

	s.Update(done)
	assert.False(t, s.exporting)
}

func TestDetailScreen(t *testing.T) {
	svc := newTestServices(t)
	rec, err := svc.Repository.Add(sampleInput())
	require.NoError(t, err)

	s := NewDetailScreen(svc, rec.ID)
	s.SetSize(160, 60)
	view := s.View()
	assert.Contains(t, view, "BTCUSDT")
	assert.Contains(t, view, "Realized")
	assert.Contains(t, view, "1h 30m")

	missing := NewDetailScreen(svc, "nope")
	missing.SetSize(80, 20)
	assert.Contains(t, missing.View(), "not found")
}

func TestFilterEntries(t *testing.T) {
	entries := []logger.LogEntry{
		{Level: "debug", Message: "a"},
		{Level: "info", Message: "b"},
		{Level: "warn", Message: "c"},
		{Level: "error", Message: "d"},
	}
	assert.Len(t, filterEntries(entries, LogLevelAll), 4)
	assert.Len(t, filterEntries(entries, LogLevelInfo), 3)
	assert.Len(t, filterEntries(entries, LogLevelWarn), 2)
	assert.Len(t, filterEntries(entries, LogLevelError), 1)

	assert.Equal(t, "count=2 file=a.csv", formatFields(map[string]interface{}{"file": "a.csv", "count": 2}))
}

func TestPortfolioIgnoresStaleTicks(t *testing.T) {
	svc := newTestServices(t)
	s := NewPortfolioScreen(svc)
	require.NotNil(t, s.Init())
	require.NotNil(t, s.Init())

	_, cmd := s.Update(RefreshPortfolioMsg{Time: time.Now(), Gen: 1})
	assert.Nil(t, cmd, "tick from a superseded Init")

	_, cmd = s.Update(RefreshPortfolioMsg{Time: time.Now(), Gen: 2})
	assert.NotNil(t, cmd)
}
