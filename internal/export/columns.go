package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
)

// Precision is the number of decimal places numeric cells are rounded to.
const Precision = 8

type column struct {
	header string
	value  func(portfolio.Record) any
}

func num(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(Precision)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// columns lists the input fields followed by the derived metrics. Cell
// values are string, int or decimal.Decimal.
var columns = []column{
	{"id", func(r portfolio.Record) any { return r.ID }},
	{"symbol", func(r portfolio.Record) any { return r.Input.Symbol }},
	{"margin_mode", func(r portfolio.Record) any { return r.Input.MarginMode.String() }},
	{"direction", func(r portfolio.Record) any { return r.Input.Direction.String() }},
	{"status", func(r portfolio.Record) any { return r.Input.Status.String() }},
	{"total_equity", func(r portfolio.Record) any { return num(r.Input.TotalEquity) }},
	{"margin", func(r portfolio.Record) any { return num(r.Input.Margin) }},
	{"leverage", func(r portfolio.Record) any { return r.Input.Leverage }},
	{"entry_price", func(r portfolio.Record) any { return num(r.Input.EntryPrice) }},
	{"target_price", func(r portfolio.Record) any { return num(r.Input.TargetPrice) }},
	{"stop_loss_price", func(r portfolio.Record) any { return num(r.Input.StopLossPrice) }},
	{"trading_fee_rate", func(r portfolio.Record) any { return num(r.Input.TradingFeeRate) }},
	{"funding_fee_rate", func(r portfolio.Record) any { return num(r.Input.FundingFeeRate) }},
	{"holding_days", func(r portfolio.Record) any { return r.Input.HoldingDays }},
	{"last_or_exit_price", func(r portfolio.Record) any { return num(r.Input.LastOrExitPrice) }},
	{"manual_trading_fee", func(r portfolio.Record) any { return num(r.Input.ManualTradingFee) }},
	{"manual_funding_fee", func(r portfolio.Record) any { return num(r.Input.ManualFundingFee) }},
	{"opened_at", func(r portfolio.Record) any { return timestamp(r.Input.OpenedAt) }},
	{"closed_or_checked_at", func(r portfolio.Record) any { return timestamp(r.Input.ClosedOrCheckedAt) }},

	{"position_size", func(r portfolio.Record) any { return num(r.Metrics.PositionSize) }},
	{"quantity", func(r portfolio.Record) any { return num(r.Metrics.Quantity) }},
	{"trading_fee", func(r portfolio.Record) any { return num(r.Metrics.TradingFee) }},
	{"funding_fee", func(r portfolio.Record) any { return num(r.Metrics.FundingFee) }},
	{"total_fee", func(r portfolio.Record) any { return num(r.Metrics.TotalFee) }},
	{"risk_capital", func(r portfolio.Record) any { return num(r.Metrics.RiskCapital) }},
	{"liquidation_price", func(r portfolio.Record) any { return num(r.Metrics.LiquidationPrice) }},
	{"resolved_price", func(r portfolio.Record) any { return num(r.Metrics.ResolvedPrice) }},
	{"gross_pnl", func(r portfolio.Record) any { return num(r.Metrics.GrossPnl) }},
	{"net_pnl", func(r portfolio.Record) any { return num(r.Metrics.NetPnl) }},
	{"roe_percent", func(r portfolio.Record) any { return num(r.Metrics.ROEPercent) }},
	{"floating_pnl", func(r portfolio.Record) any { return num(r.Metrics.FloatingPnl) }},
	{"realized_pnl", func(r portfolio.Record) any { return num(r.Metrics.RealizedPnl) }},
	{"break_even_price", func(r portfolio.Record) any { return num(r.Metrics.BreakEvenPrice) }},
	{"risk_reward_ratio", func(r portfolio.Record) any { return num(r.Metrics.RiskRewardRatio) }},
	{"tp_percent", func(r portfolio.Record) any { return num(r.Metrics.TargetPercent) }},
	{"sl_percent", func(r portfolio.Record) any { return num(r.Metrics.StopPercent) }},
	{"margin_usage_percent", func(r portfolio.Record) any { return num(r.Metrics.MarginUsagePercent) }},
	{"risk_level", func(r portfolio.Record) any { return r.Metrics.RiskLevel.String() }},
	{"stop_check", func(r portfolio.Record) any { return r.Metrics.StopCheck.String() }},
	{"duration", func(r portfolio.Record) any { return r.Metrics.DurationText }},
	{"created_at", func(r portfolio.Record) any { return timestamp(r.CreatedAt) }},
	{"updated_at", func(r portfolio.Record) any { return timestamp(r.UpdatedAt) }},
}

// Headers returns the header row shared by every format.
func Headers() []string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.header
	}
	return headers
}

func rowValues(r portfolio.Record) []any {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c.value(r)
	}
	return values
}
