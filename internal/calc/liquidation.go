package calc

import "math"

// RiskCapital is the capital that absorbs losses before liquidation.
// Isolated: the position margin. Cross: account equity minus fees, never
// negative, optionally capped at positionSize*cap.
func RiskCapital(mode MarginMode, margin, totalEquity, totalFee, positionSize, crossCap float64) float64 {
	if mode == Isolated {
		return margin
	}
	capital := math.Max(0, totalEquity-totalFee)
	if crossCap > 0 {
		capital = math.Min(capital, positionSize*crossCap)
	}
	return capital
}

// LiquidationPrice returns the price at which the risked capital is consumed.
// Long prices are floored at zero; short prices have no ceiling.
func LiquidationPrice(opts Options, dir Direction, entry float64, leverage int, riskCapital, positionSize, quantity float64) float64 {
	var buffer float64
	switch opts.LiquidationModel {
	case FixedLeverageModel:
		buffer = entry/float64(leverage) - entry*opts.MaintenanceMarginRate
	default:
		buffer = (riskCapital - positionSize*opts.MaintenanceMarginRate) / quantity
	}
	buffer = math.Max(0, buffer)

	if dir == Long {
		return math.Max(0, entry-buffer)
	}
	return entry + buffer
}

// CheckStopLoss classifies the stop relative to the liquidation price.
func CheckStopLoss(dir Direction, stopLoss, liquidation float64) StopLossCheck {
	if stopLoss <= 0 {
		return StopUnset
	}
	if dir == Long && stopLoss <= liquidation {
		return StopBeyondLiquidation
	}
	if dir == Short && stopLoss >= liquidation {
		return StopBeyondLiquidation
	}
	return StopSafe
}
