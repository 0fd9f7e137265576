package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// price renders a price with up to 6 decimals and no trailing zeros.
func price(v float64) string {
	if v == 0 {
		return "-"
	}
	return decimal.NewFromFloat(v).Round(6).String()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func signedMoney(v float64) string {
	s := money(v)
	if v > 0 {
		s = "+" + s
	}
	return style.PnLStyle(v).Render(s)
}

func percent(v float64) string {
	return style.PnLStyle(v).Render(fmt.Sprintf("%+.2f%%", v))
}

func directionLabel(d calc.Direction) string {
	if d == calc.Short {
		return style.ShortStyle.Render("SHORT")
	}
	return style.LongStyle.Render("LONG")
}

func statusLabel(s calc.Status) string {
	switch s {
	case calc.HitTarget:
		return style.SuccessStyle.Render("Hit target")
	case calc.HitStop:
		return style.ErrorStyle.Render("Hit stop")
	case calc.Closed:
		return style.MutedStyle.Render("Closed")
	default:
		return style.InfoStyle.Render("Running")
	}
}

func riskLevelLabel(r calc.RiskLevel) string {
	switch r {
	case calc.Conservative:
		return style.SuccessStyle.Render("conservative")
	case calc.Aggressive:
		return style.WarningStyle.Render("aggressive")
	default:
		return style.ErrorStyle.Render("gambling")
	}
}

// card renders a titled panel of label/value lines.
func card(title string, width int, lines ...[2]string) string {
	labelWidth := 0
	for _, l := range lines {
		if n := lipgloss.Width(l[0]); n > labelWidth {
			labelWidth = n
		}
	}

	var b strings.Builder
	b.WriteString(style.SubHeaderStyle.Render(title))
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(style.LabelStyle.Render(padLabel(l[0], labelWidth)))
		b.WriteString("  ")
		b.WriteString(style.ValueStyle.Render(l[1]))
	}

	panel := style.PanelStyle
	if width > 0 {
		panel = panel.Width(width)
	}
	return panel.Render(b.String())
}

func padLabel(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// stopCheckLine explains the stop-loss safety result.
func stopCheckLine(m calc.Metrics) string {
	switch m.StopCheck {
	case calc.StopBeyondLiquidation:
		return style.ErrorStyle.Render("⚠ stop loss is beyond liquidation (" + price(m.LiquidationPrice) + ")")
	case calc.StopUnset:
		return style.WarningStyle.Render("⚠ no stop loss: liquidation is the stop")
	default:
		return style.SuccessStyle.Render("✓ stop loss triggers before liquidation")
	}
}

// metricCards renders every derived metric of a position as cards.
func metricCards(in calc.PositionInput, m calc.Metrics, width int) string {
	cardWidth := 34
	if width > 0 && width < 2*cardWidth+4 {
		cardWidth = 0
	}

	position := card("Position", cardWidth,
		[2]string{"Size", money(m.PositionSize)},
		[2]string{"Quantity", price(m.Quantity)},
		[2]string{"Risk capital", money(m.RiskCapital)},
		[2]string{"Liquidation", price(m.LiquidationPrice)},
		[2]string{"Break-even", price(m.BreakEvenPrice)},
	)

	fees := card("Fees", cardWidth,
		[2]string{"Trading", money(m.TradingFee)},
		[2]string{"Funding", money(m.FundingFee)},
		[2]string{"Total", money(m.TotalFee)},
	)

	pnlLines := [][2]string{
		{"Price", price(m.ResolvedPrice)},
		{"Gross", signedMoney(m.GrossPnl)},
		{"Net", signedMoney(m.NetPnl)},
		{"ROE", percent(m.ROEPercent)},
	}
	if in.Status == calc.Running {
		pnlLines = append(pnlLines, [2]string{"Floating", signedMoney(m.FloatingPnl)})
	} else {
		pnlLines = append(pnlLines, [2]string{"Realized", signedMoney(m.RealizedPnl)})
	}
	if m.DurationText != "" {
		pnlLines = append(pnlLines, [2]string{"Held", m.DurationText})
	}
	pnl := card("PnL", cardWidth, pnlLines...)

	rr := "-"
	if m.RiskRewardRatio > 0 {
		rr = fmt.Sprintf("1 : %.2f", m.RiskRewardRatio)
	}
	risk := card("Risk", cardWidth,
		[2]string{"Risk / reward", rr},
		[2]string{"TP move", percent(m.TargetPercent)},
		[2]string{"SL move", percent(m.StopPercent)},
		[2]string{"Margin usage", fmt.Sprintf("%.2f%% ", m.MarginUsagePercent) + riskLevelLabel(m.RiskLevel)},
		[2]string{"Safe balance", money(m.SafeBalance)},
	)

	target := "-"
	if in.TargetPrice > 0 {
		target = fmt.Sprintf("%s → %s (%s)", price(m.AtTarget.Price), signedMoney(m.AtTarget.NetPnl), percent(m.AtTarget.ROEPercent))
	}
	scenarios := card("Scenarios", 0,
		[2]string{"At target", target},
		[2]string{"At stop", fmt.Sprintf("%s → %s (%s)", price(m.AtStop.Price), signedMoney(m.AtStop.NetPnl), percent(m.AtStop.ROEPercent))},
		[2]string{"Equity after TP", money(m.AtTarget.EquityAfter)},
		[2]string{"Equity after SL", money(m.AtStop.EquityAfter)},
	)

	top := style.AdaptiveJoinHorizontal(width, position, fees)
	middle := style.AdaptiveJoinHorizontal(width, pnl, risk)
	return lipgloss.JoinVertical(lipgloss.Left, top, middle, scenarios, stopCheckLine(m))
}
