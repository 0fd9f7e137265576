package calc

import "math"

// Calculator computes Metrics under a fixed set of Options. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	opts Options
}

// New validates opts and returns a Calculator.
func New(opts Options) (*Calculator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{opts: opts}, nil
}

var defaultCalculator = &Calculator{opts: DefaultOptions()}

// Default returns the calculator built from DefaultOptions.
func Default() *Calculator {
	return defaultCalculator
}

// Compute runs the default calculator.
func Compute(in PositionInput) (Metrics, error) {
	return defaultCalculator.Compute(in)
}

// Options returns the calculator configuration.
func (c *Calculator) Options() Options {
	return c.opts
}

// Compute derives every metric of in. It either returns a fully populated
// Metrics or an error and a zero Metrics, never a partial result.
func (c *Calculator) Compute(in PositionInput) (Metrics, error) {
	if err := c.validate(in); err != nil {
		return Metrics{}, err
	}

	duration, durationText, err := HoldDuration(in.OpenedAt, in.ClosedOrCheckedAt)
	if err != nil {
		return Metrics{}, err
	}

	opts := c.opts
	size := in.Margin * float64(in.Leverage)
	qty := size / in.EntryPrice

	fees := EffectiveFees(opts.FeePolicy, in, size)
	totalFee := fees.Total()

	capital := RiskCapital(in.MarginMode, in.Margin, in.TotalEquity, totalFee, size, opts.CrossEquityCap)
	liq := LiquidationPrice(opts, in.Direction, in.EntryPrice, in.Leverage, capital, size, qty)

	resolved := ResolvedPrice(in)
	var gross float64
	if in.Status == HitStop {
		gross = stopGross(in, qty, capital)
	} else {
		gross = GrossPnl(in.Direction, in.EntryPrice, resolved, qty)
	}
	net := gross - totalFee
	floating, realized := SplitPnl(in.Status, net)

	m := Metrics{
		PositionSize: size,
		Quantity:     qty,

		TradingFee: fees.Trading,
		FundingFee: fees.Funding,
		TotalFee:   totalFee,

		RiskCapital:      capital,
		LiquidationPrice: liq,

		ResolvedPrice: resolved,
		GrossPnl:      gross,
		NetPnl:        net,
		ROEPercent:    ROE(opts.ROEBasis, gross, net, in.Margin),
		FloatingPnl:   floating,
		RealizedPnl:   realized,

		BreakEvenPrice:  BreakEvenPrice(in.Direction, in.EntryPrice, totalFee, qty),
		RiskRewardRatio: RiskRewardRatio(in.EntryPrice, in.TargetPrice, in.StopLossPrice, liq),

		TargetPercent: MovePercent(in.Direction, in.EntryPrice, in.TargetPrice),
		StopPercent:   MovePercent(in.Direction, in.EntryPrice, in.StopLossPrice),

		SafeBalance: in.TotalEquity - in.Margin,
		StopCheck:   CheckStopLoss(in.Direction, in.StopLossPrice, liq),

		Duration:     duration,
		DurationText: durationText,
	}
	m.MarginUsagePercent, m.RiskLevel = MarginUsage(in.Margin, in.TotalEquity, opts.SafeMarginPercent, opts.CautionMarginPercent)

	exitFee := projectionFee(in, size, fees)
	if in.TargetPrice > 0 {
		m.AtTarget = project(opts, in, in.TargetPrice,
			GrossPnl(in.Direction, in.EntryPrice, in.TargetPrice, qty), exitFee)
	} else {
		m.AtTarget = Projection{EquityAfter: in.TotalEquity}
	}
	stopPrice := in.StopLossPrice
	if stopPrice <= 0 {
		stopPrice = liq
	}
	m.AtStop = project(opts, in, stopPrice, stopGross(in, qty, capital), exitFee)

	return m, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c *Calculator) validate(in PositionInput) error {
	if in.EntryPrice <= 0 || !finite(in.EntryPrice) {
		return fieldError("entry_price", ErrInvalidEntryPrice)
	}
	if in.Margin <= 0 || !finite(in.Margin) {
		return fieldError("margin", ErrInvalidMargin)
	}
	if in.Leverage < 1 || in.Leverage > c.opts.MaxLeverage {
		return fieldError("leverage", ErrInvalidLeverage)
	}

	nonNegative := []struct {
		field string
		value float64
	}{
		{"total_equity", in.TotalEquity},
		{"target_price", in.TargetPrice},
		{"stop_loss_price", in.StopLossPrice},
		{"trading_fee_rate", in.TradingFeeRate},
		{"funding_fee_rate", in.FundingFeeRate},
		{"holding_days", float64(in.HoldingDays)},
		{"last_or_exit_price", in.LastOrExitPrice},
		{"manual_trading_fee", in.ManualTradingFee},
		{"manual_funding_fee", in.ManualFundingFee},
	}
	for _, v := range nonNegative {
		if v.value < 0 || !finite(v.value) {
			return fieldError(v.field, ErrInvalidInput)
		}
	}

	if in.Status == HitTarget && in.TargetPrice <= 0 {
		return fieldError("target_price", ErrTargetUnset)
	}
	return nil
}
