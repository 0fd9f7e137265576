package calc

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func baseInput() PositionInput {
	return PositionInput{
		Symbol:         "BTCUSDT",
		MarginMode:     Isolated,
		Direction:      Long,
		TotalEquity:    1000,
		Margin:         10,
		Leverage:       20,
		EntryPrice:     50000,
		TargetPrice:    55000,
		StopLossPrice:  48000,
		TradingFeeRate: 0.045,
		FundingFeeRate: 0.01,
		Status:         Running,
	}
}

func TestComputeIsolatedLongExample(t *testing.T) {
	m, err := Compute(baseInput())
	require.NoError(t, err)

	assert.InDelta(t, 200.0, m.PositionSize, eps)
	assert.InDelta(t, 0.004, m.Quantity, eps)
	assert.InDelta(t, 10.0, m.RiskCapital, eps)
	assert.InDelta(t, 47500.0, m.LiquidationPrice, 1e-6)
}

func TestComputeQuantityFormula(t *testing.T) {
	cases := []struct {
		margin   float64
		leverage int
		entry    float64
	}{
		{10, 1, 1},
		{10, 250, 0.000001},
		{123.45, 17, 3.21},
		{5000, 3, 65000},
	}
	for _, tc := range cases {
		in := baseInput()
		in.Margin, in.Leverage, in.EntryPrice = tc.margin, tc.leverage, tc.entry
		in.TargetPrice, in.StopLossPrice = 0, 0

		m, err := Compute(in)
		require.NoError(t, err)
		assert.InEpsilon(t, tc.margin*float64(tc.leverage)/tc.entry, m.Quantity, 1e-12)
		assert.Greater(t, m.Quantity, 0.0)
	}
}

func TestStopUnsetLosesRiskCapital(t *testing.T) {
	in := baseInput()
	in.StopLossPrice = 0
	in.Status = HitStop

	m, err := Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, m.GrossPnl, eps)
	assert.InDelta(t, -10.0, m.AtStop.GrossPnl, eps)
	assert.InDelta(t, m.LiquidationPrice, m.AtStop.Price, eps)
}

func TestCrossModeDeductsFeeFromEquity(t *testing.T) {
	in := baseInput()
	in.MarginMode = Cross
	in.Direction = Short
	in.Status = Closed
	in.LastOrExitPrice = 50000
	in.ManualTradingFee = 3
	in.ManualFundingFee = 2

	m, err := Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, m.TotalFee, eps)
	assert.InDelta(t, 995.0, m.RiskCapital, eps)
	// Unclamped, the buffer is 248750 and the short liquidates at 298750:
	// almost 6x the entry price.
	assert.InDelta(t, 298750.0, m.LiquidationPrice, 1e-6)
}

func TestCrossEquityCapClampsBuffer(t *testing.T) {
	opts := DefaultOptions()
	opts.CrossEquityCap = 1
	c, err := New(opts)
	require.NoError(t, err)

	in := baseInput()
	in.MarginMode = Cross
	in.Direction = Short

	m, err := c.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, m.RiskCapital, eps)
	assert.InDelta(t, 100000.0, m.LiquidationPrice, 1e-6)
	assert.LessOrEqual(t, m.LiquidationPrice, in.EntryPrice*(1+opts.CrossEquityCap)+1e-6)

	in.Direction = Long
	m, err = c.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, m.LiquidationPrice, eps)
}

func TestCrossEquityBelowFeeFloorsCapital(t *testing.T) {
	in := baseInput()
	in.MarginMode = Cross
	in.TotalEquity = 2
	in.Status = Closed
	in.ManualTradingFee = 5

	m, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.RiskCapital)
	assert.Equal(t, in.EntryPrice, m.LiquidationPrice)
}

func TestLockedFeeIsZeroWhileRunning(t *testing.T) {
	in := baseInput()
	in.ManualTradingFee = 4
	in.ManualFundingFee = 1
	in.HoldingDays = 3

	m, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.TotalFee)
	assert.Equal(t, 0.0, m.TradingFee)
	assert.Equal(t, 0.0, m.FundingFee)

	for _, s := range []Status{HitTarget, HitStop, Closed} {
		in.Status = s
		m, err := Compute(in)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, m.TotalFee, eps, s.String())
	}
}

func TestAutoEstimatedFee(t *testing.T) {
	opts := DefaultOptions()
	opts.FeePolicy = AutoEstimatedFee
	c, err := New(opts)
	require.NoError(t, err)

	in := baseInput()
	in.HoldingDays = 3
	in.ManualTradingFee = 99

	m, err := c.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.09, m.TradingFee, eps)
	assert.InDelta(t, 0.06, m.FundingFee, eps)
	assert.InDelta(t, 0.15, m.TotalFee, eps)
}

func TestFloatingAndRealizedAreExclusive(t *testing.T) {
	in := baseInput()
	in.LastOrExitPrice = 51000
	in.ManualTradingFee = 0.1

	for _, s := range Statuses() {
		in.Status = s
		m, err := Compute(in)
		require.NoError(t, err)

		if s == Running {
			assert.Equal(t, m.NetPnl, m.FloatingPnl)
			assert.Zero(t, m.RealizedPnl)
		} else {
			assert.Equal(t, m.NetPnl, m.RealizedPnl)
			assert.Zero(t, m.FloatingPnl)
		}
	}
}

func TestLiquidationSideBounds(t *testing.T) {
	models := []LiquidationModel{RiskCapitalModel, FixedLeverageModel}
	modes := []MarginMode{Isolated, Cross}
	for _, model := range models {
		for _, mode := range modes {
			for _, lev := range []int{1, 2, 10, 125, 250} {
				opts := DefaultOptions()
				opts.LiquidationModel = model
				c, err := New(opts)
				require.NoError(t, err)

				in := baseInput()
				in.MarginMode = mode
				in.Leverage = lev

				in.Direction = Long
				m, err := c.Compute(in)
				require.NoError(t, err)
				assert.LessOrEqual(t, m.LiquidationPrice, in.EntryPrice)
				assert.GreaterOrEqual(t, m.LiquidationPrice, 0.0)

				in.Direction = Short
				m, err = c.Compute(in)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, m.LiquidationPrice, in.EntryPrice)
			}
		}
	}
}

func TestFixedLeverageModel(t *testing.T) {
	opts := DefaultOptions()
	opts.LiquidationModel = FixedLeverageModel
	c, err := New(opts)
	require.NoError(t, err)

	in := baseInput()
	in.MarginMode = Cross // ignored by the legacy formula
	m, err := c.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 47500.0, m.LiquidationPrice, 1e-6)

	in.Direction = Short
	m, err = c.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 52500.0, m.LiquidationPrice, 1e-6)
}

func TestMaintenanceMarginTightensLiquidation(t *testing.T) {
	opts := DefaultOptions()
	opts.MaintenanceMarginRate = 0.005
	c, err := New(opts)
	require.NoError(t, err)

	m, err := c.Compute(baseInput())
	require.NoError(t, err)
	// reserve = 10 - 200*0.005 = 9, buffer = 9/0.004 = 2250
	assert.InDelta(t, 47750.0, m.LiquidationPrice, 1e-6)
}

func TestPnlByStatus(t *testing.T) {
	cases := []struct {
		name   string
		dir    Direction
		status Status
		last   float64
		gross  float64
	}{
		{"long target", Long, HitTarget, 0, 20},
		{"long stop", Long, HitStop, 0, -8},
		{"long running", Long, Running, 51000, 4},
		{"long closed", Long, Closed, 49000, -4},
		{"short target", Short, HitTarget, 0, -20},
		{"short stop", Short, HitStop, 0, 8},
		{"short running", Short, Running, 51000, -4},
		{"running without mark", Long, Running, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			in.Direction = tc.dir
			in.Status = tc.status
			in.LastOrExitPrice = tc.last

			m, err := Compute(in)
			require.NoError(t, err)
			assert.InDelta(t, tc.gross, m.GrossPnl, 1e-9)
			assert.InDelta(t, tc.gross/in.Margin*100, m.ROEPercent, 1e-9)
		})
	}
}

func TestNetPnlSubtractsFee(t *testing.T) {
	in := baseInput()
	in.Status = HitTarget
	in.ManualTradingFee = 0.09
	in.ManualFundingFee = 0.02

	m, err := Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, m.GrossPnl, eps)
	assert.InDelta(t, 19.89, m.NetPnl, eps)
	assert.InDelta(t, 19.89, m.RealizedPnl, eps)
	// ROE stays on gross by default.
	assert.InDelta(t, 200.0, m.ROEPercent, eps)

	opts := DefaultOptions()
	opts.ROEBasis = ROENet
	c, err := New(opts)
	require.NoError(t, err)
	m, err = c.Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 198.9, m.ROEPercent, eps)
}

func TestBreakEvenPrice(t *testing.T) {
	in := baseInput()
	in.Status = Closed
	in.ManualTradingFee = 0.4

	m, err := Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 50100.0, m.BreakEvenPrice, 1e-6)

	in.Direction = Short
	m, err = Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 49900.0, m.BreakEvenPrice, 1e-6)

	in.Status = Running
	m, err = Compute(in)
	require.NoError(t, err)
	assert.Equal(t, in.EntryPrice, m.BreakEvenPrice)
}

func TestRiskReward(t *testing.T) {
	m, err := Compute(baseInput())
	require.NoError(t, err)
	assert.InDelta(t, 2.5, m.RiskRewardRatio, eps)

	in := baseInput()
	in.StopLossPrice = 0
	m, err = Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m.RiskRewardRatio, 1e-6)

	in.TargetPrice = 0
	m, err = Compute(in)
	require.NoError(t, err)
	assert.Zero(t, m.RiskRewardRatio)

	assert.Zero(t, RiskRewardRatio(100, 120, 100, 90))
}

func TestMovePercent(t *testing.T) {
	m, err := Compute(baseInput())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, m.TargetPercent, eps)
	assert.InDelta(t, -4.0, m.StopPercent, eps)

	in := baseInput()
	in.Direction = Short
	in.TargetPrice = 45000
	in.StopLossPrice = 51000
	m, err = Compute(in)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, m.TargetPercent, eps)
	assert.InDelta(t, -2.0, m.StopPercent, eps)
}

func TestProjectionsUseEstimatedFeeWhileRunning(t *testing.T) {
	m, err := Compute(baseInput())
	require.NoError(t, err)

	assert.InDelta(t, 20.0, m.AtTarget.GrossPnl, eps)
	assert.InDelta(t, 19.91, m.AtTarget.NetPnl, eps)
	assert.InDelta(t, 1019.91, m.AtTarget.EquityAfter, eps)
	assert.InDelta(t, -8.0, m.AtStop.GrossPnl, eps)
	assert.InDelta(t, -8.09, m.AtStop.NetPnl, eps)
	assert.InDelta(t, 991.91, m.AtStop.EquityAfter, eps)
}

func TestMoneyManagement(t *testing.T) {
	cases := []struct {
		margin float64
		level  RiskLevel
	}{
		{10, Conservative},
		{20, Aggressive},
		{30, Aggressive},
		{50, Gambling},
	}
	for _, tc := range cases {
		in := baseInput()
		in.Margin = tc.margin
		m, err := Compute(in)
		require.NoError(t, err)
		assert.Equal(t, tc.level, m.RiskLevel, "margin %v", tc.margin)
		assert.InDelta(t, tc.margin/10, m.MarginUsagePercent, eps)
		assert.InDelta(t, 1000-tc.margin, m.SafeBalance, eps)
	}
}

func TestStopLossCheck(t *testing.T) {
	in := baseInput()
	m, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, StopSafe, m.StopCheck)

	in.StopLossPrice = 47000
	m, err = Compute(in)
	require.NoError(t, err)
	assert.Equal(t, StopBeyondLiquidation, m.StopCheck)

	in.StopLossPrice = 0
	m, err = Compute(in)
	require.NoError(t, err)
	assert.Equal(t, StopUnset, m.StopCheck)

	in.Direction = Short
	in.StopLossPrice = 53000
	m, err = Compute(in)
	require.NoError(t, err)
	assert.Equal(t, StopBeyondLiquidation, m.StopCheck)
}

func TestComputeValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PositionInput)
		want   error
		field  string
	}{
		{"zero entry", func(in *PositionInput) { in.EntryPrice = 0 }, ErrInvalidEntryPrice, "entry_price"},
		{"negative entry", func(in *PositionInput) { in.EntryPrice = -1 }, ErrInvalidEntryPrice, "entry_price"},
		{"zero margin", func(in *PositionInput) { in.Margin = 0 }, ErrInvalidMargin, "margin"},
		{"zero leverage", func(in *PositionInput) { in.Leverage = 0 }, ErrInvalidLeverage, "leverage"},
		{"leverage too high", func(in *PositionInput) { in.Leverage = 251 }, ErrInvalidLeverage, "leverage"},
		{"negative fee", func(in *PositionInput) { in.ManualTradingFee = -1 }, ErrInvalidInput, "manual_trading_fee"},
		{"negative days", func(in *PositionInput) { in.HoldingDays = -2 }, ErrInvalidInput, "holding_days"},
		{"target unset", func(in *PositionInput) { in.Status, in.TargetPrice = HitTarget, 0 }, ErrTargetUnset, "target_price"},
		{"NaN entry", func(in *PositionInput) { in.EntryPrice = math.NaN() }, ErrInvalidEntryPrice, "entry_price"},
		{"infinite entry", func(in *PositionInput) { in.EntryPrice = math.Inf(1) }, ErrInvalidEntryPrice, "entry_price"},
		{"NaN margin", func(in *PositionInput) { in.Margin = math.NaN() }, ErrInvalidMargin, "margin"},
		{"infinite margin", func(in *PositionInput) { in.Margin = math.Inf(1) }, ErrInvalidMargin, "margin"},
		{"NaN equity", func(in *PositionInput) { in.TotalEquity = math.NaN() }, ErrInvalidInput, "total_equity"},
		{"infinite target", func(in *PositionInput) { in.TargetPrice = math.Inf(1) }, ErrInvalidInput, "target_price"},
		{"NaN last price", func(in *PositionInput) { in.LastOrExitPrice = math.NaN() }, ErrInvalidInput, "last_or_exit_price"},
		{"infinite fee rate", func(in *PositionInput) { in.FundingFeeRate = math.Inf(1) }, ErrInvalidInput, "funding_fee_rate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			tc.mutate(&in)

			m, err := Compute(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
			assert.Equal(t, Metrics{}, m)

			var calcErr *Error
			require.ErrorAs(t, err, &calcErr)
			assert.Equal(t, tc.field, calcErr.Field)
		})
	}
}

func TestComputeNegativeDuration(t *testing.T) {
	in := baseInput()
	in.OpenedAt = time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	in.ClosedOrCheckedAt = in.OpenedAt.Add(-time.Minute)

	m, err := Compute(in)
	assert.ErrorIs(t, err, ErrNegativeDuration)
	assert.Equal(t, Metrics{}, m)
}

func TestComputeDuration(t *testing.T) {
	in := baseInput()
	in.OpenedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	in.ClosedOrCheckedAt = time.Date(2024, 5, 1, 11, 30, 0, 0, time.UTC)

	m, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, m.Duration)
	assert.Equal(t, "1h 30m", m.DurationText)
}

func TestComputeIsIdempotent(t *testing.T) {
	in := baseInput()
	in.LastOrExitPrice = 50500
	a, err := Compute(in)
	require.NoError(t, err)
	b, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	bad := DefaultOptions()
	bad.MaintenanceMarginRate = 1
	_, err := New(bad)
	assert.Error(t, err)

	bad = DefaultOptions()
	bad.CautionMarginPercent = 0.5
	assert.Error(t, bad.Validate())

	bad = DefaultOptions()
	bad.MaxLeverage = 0
	assert.Error(t, bad.Validate())

	bad = DefaultOptions()
	bad.MaxLeverage = DefaultMaxLeverage + 1
	_, err = New(bad)
	assert.Error(t, err)
}
