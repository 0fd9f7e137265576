package portfolio

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
)

// Summary aggregates a set of records.
type Summary struct {
	TotalPositions int `json:"total_positions"`
	Running        int `json:"running"`
	HitTarget      int `json:"hit_target"`
	HitStop        int `json:"hit_stop"`
	Closed         int `json:"closed"`

	TotalMargin   float64 `json:"total_margin"`
	OpenMargin    float64 `json:"open_margin"`
	OpenExposure  float64 `json:"open_exposure"`
	FloatingPnl   float64 `json:"floating_pnl"`
	RealizedPnl   float64 `json:"realized_pnl"`
	TotalFees     float64 `json:"total_fees"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
	AvgROE        float64 `json:"avg_roe"`

	MaxDrawdown       float64 `json:"max_drawdown"`
	ConsecutiveWins   int     `json:"consecutive_wins"`
	ConsecutiveLosses int     `json:"consecutive_losses"`

	AvgHoldTime     time.Duration `json:"avg_hold_time"`
	AvgHoldTimeText string        `json:"avg_hold_time_text"`
}

// Summarize computes portfolio statistics. Win/loss figures, drawdown and
// hold time only consider positions that are no longer running; drawdown and
// streaks follow close order.
func Summarize(records []Record) Summary {
	s := Summary{TotalPositions: len(records)}

	var (
		totalMargin  decimal.Decimal
		openMargin   decimal.Decimal
		openExposure decimal.Decimal
		floating     decimal.Decimal
		realized     decimal.Decimal
		fees         decimal.Decimal
		wins         decimal.Decimal
		losses       decimal.Decimal
		roeSum       decimal.Decimal
		closed       []Record
	)

	for _, rec := range records {
		m := rec.Metrics
		totalMargin = totalMargin.Add(decimal.NewFromFloat(rec.Input.Margin))
		fees = fees.Add(decimal.NewFromFloat(m.TotalFee))

		switch rec.Input.Status {
		case calc.Running:
			s.Running++
		case calc.HitTarget:
			s.HitTarget++
		case calc.HitStop:
			s.HitStop++
		case calc.Closed:
			s.Closed++
		}

		if rec.IsRunning() {
			openMargin = openMargin.Add(decimal.NewFromFloat(rec.Input.Margin))
			openExposure = openExposure.Add(decimal.NewFromFloat(m.PositionSize))
			floating = floating.Add(decimal.NewFromFloat(m.FloatingPnl))
			continue
		}

		closed = append(closed, rec)
		pnl := decimal.NewFromFloat(m.RealizedPnl)
		realized = realized.Add(pnl)
		roeSum = roeSum.Add(decimal.NewFromFloat(m.ROEPercent))

		switch {
		case m.RealizedPnl > 0:
			s.WinningTrades++
			wins = wins.Add(pnl)
			if m.RealizedPnl > s.LargestWin {
				s.LargestWin = m.RealizedPnl
			}
		case m.RealizedPnl < 0:
			s.LosingTrades++
			losses = losses.Sub(pnl)
			if m.RealizedPnl < s.LargestLoss {
				s.LargestLoss = m.RealizedPnl
			}
		}
	}

	s.TotalMargin = totalMargin.InexactFloat64()
	s.OpenMargin = openMargin.InexactFloat64()
	s.OpenExposure = openExposure.InexactFloat64()
	s.FloatingPnl = floating.InexactFloat64()
	s.RealizedPnl = realized.InexactFloat64()
	s.TotalFees = fees.InexactFloat64()

	if n := len(closed); n > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(n) * 100
		s.AvgROE = roeSum.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
	}
	if losses.IsPositive() {
		s.ProfitFactor = wins.Div(losses).InexactFloat64()
	}

	s.MaxDrawdown, s.ConsecutiveWins, s.ConsecutiveLosses = closedRisk(closed)
	s.AvgHoldTime = avgHoldTime(closed)
	if s.AvgHoldTime > 0 {
		s.AvgHoldTimeText = calc.FormatDuration(s.AvgHoldTime)
	}
	return s
}

func byCloseTime(closed []Record) []Record {
	ordered := make([]Record, len(closed))
	copy(ordered, closed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Input.ClosedOrCheckedAt.Before(ordered[j].Input.ClosedOrCheckedAt)
	})
	return ordered
}

// EquityCurve returns cumulative realized PnL after each position that is no
// longer running, in close order.
func EquityCurve(records []Record) []float64 {
	var closed []Record
	for _, rec := range records {
		if !rec.IsRunning() {
			closed = append(closed, rec)
		}
	}

	curve := make([]float64, 0, len(closed))
	cum := decimal.Zero
	for _, rec := range byCloseTime(closed) {
		cum = cum.Add(decimal.NewFromFloat(rec.Metrics.RealizedPnl))
		curve = append(curve, cum.InexactFloat64())
	}
	return curve
}

func closedRisk(closed []Record) (maxDrawdown float64, winStreak, lossStreak int) {
	var (
		cum, peak  float64
		streak     int
		lastWasWin bool
	)
	for _, rec := range byCloseTime(closed) {
		pnl := rec.Metrics.RealizedPnl
		cum += pnl
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDrawdown {
			maxDrawdown = dd
		}

		isWin := pnl > 0
		if isWin == lastWasWin && streak > 0 {
			streak++
		} else {
			streak = 1
			lastWasWin = isWin
		}
		if isWin && streak > winStreak {
			winStreak = streak
		} else if !isWin && streak > lossStreak {
			lossStreak = streak
		}
	}
	return maxDrawdown, winStreak, lossStreak
}

func avgHoldTime(closed []Record) time.Duration {
	var (
		total time.Duration
		n     int
	)
	for _, rec := range closed {
		if rec.Metrics.Duration > 0 {
			total += rec.Metrics.Duration
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

// FormatSummaryText renders a summary as plain text for the terminal.
func FormatSummaryText(s Summary) string {
	var sb strings.Builder

	sb.WriteString("Portfolio Summary\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	sb.WriteString(fmt.Sprintf("• Positions: %d (running %d, target %d, stop %d, closed %d)\n",
		s.TotalPositions, s.Running, s.HitTarget, s.HitStop, s.Closed))
	sb.WriteString(fmt.Sprintf("• Open margin / exposure: %.2f / %.2f\n", s.OpenMargin, s.OpenExposure))
	sb.WriteString(fmt.Sprintf("• Floating PnL: %.2f\n", s.FloatingPnl))
	sb.WriteString(fmt.Sprintf("• Realized PnL: %.2f (fees %.2f)\n", s.RealizedPnl, s.TotalFees))
	sb.WriteString(fmt.Sprintf("• Win Rate: %.1f%% (%d wins, %d losses)\n",
		s.WinRate, s.WinningTrades, s.LosingTrades))
	sb.WriteString(fmt.Sprintf("• Profit Factor: %.2f\n", s.ProfitFactor))
	sb.WriteString(fmt.Sprintf("• Largest Win/Loss: %.2f / %.2f\n", s.LargestWin, s.LargestLoss))
	sb.WriteString(fmt.Sprintf("• Avg ROE: %.2f%%\n", s.AvgROE))
	sb.WriteString(fmt.Sprintf("• Max Drawdown: %.2f\n", s.MaxDrawdown))
	if s.AvgHoldTimeText != "" {
		sb.WriteString(fmt.Sprintf("• Avg Hold Time: %s\n", s.AvgHoldTimeText))
	}
	return sb.String()
}
