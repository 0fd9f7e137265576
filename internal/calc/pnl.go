package calc

// ResolvedPrice picks the price a position is valued at for its status.
// An unset last/exit price values a running or closed position at entry.
func ResolvedPrice(in PositionInput) float64 {
	switch in.Status {
	case HitTarget:
		return in.TargetPrice
	case HitStop:
		return in.StopLossPrice
	default:
		if in.LastOrExitPrice > 0 {
			return in.LastOrExitPrice
		}
		return in.EntryPrice
	}
}

// GrossPnl is the price move times quantity, signed for the direction.
func GrossPnl(dir Direction, entry, price, quantity float64) float64 {
	if dir == Long {
		return (price - entry) * quantity
	}
	return (entry - price) * quantity
}

// stopGross is the gross result of exiting at the stop. Without a stop the
// position rides to liquidation and loses all risked capital.
func stopGross(in PositionInput, quantity, riskCapital float64) float64 {
	if in.StopLossPrice <= 0 {
		return -riskCapital
	}
	return GrossPnl(in.Direction, in.EntryPrice, in.StopLossPrice, quantity)
}

// ROE returns the return on margin in percent. The gross basis is the
// reference behavior.
func ROE(basis ROEBasis, gross, net, margin float64) float64 {
	if basis == ROENet {
		return net / margin * 100
	}
	return gross / margin * 100
}

// SplitPnl routes net PnL to floating while running and to realized otherwise.
func SplitPnl(status Status, net float64) (floating, realized float64) {
	if status == Running {
		return net, 0
	}
	return 0, net
}

func project(opts Options, in PositionInput, price, gross, fee float64) Projection {
	net := gross - fee
	return Projection{
		Price:       price,
		GrossPnl:    gross,
		NetPnl:      net,
		ROEPercent:  ROE(opts.ROEBasis, gross, net, in.Margin),
		EquityAfter: in.TotalEquity + net,
	}
}
