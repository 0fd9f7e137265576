package calc

// Fees is the fee breakdown charged against a position.
type Fees struct {
	Trading float64
	Funding float64
}

// Total returns trading plus funding fee.
func (f Fees) Total() float64 {
	return f.Trading + f.Funding
}

// EstimateFees derives fees from the configured rates:
// trading = size*rate/100, funding = size*rate/100*days.
func EstimateFees(positionSize, tradingFeeRate, fundingFeeRate float64, holdingDays int) Fees {
	return Fees{
		Trading: positionSize * tradingFeeRate / 100,
		Funding: positionSize * fundingFeeRate / 100 * float64(holdingDays),
	}
}

// EffectiveFees applies the fee policy to a position of the given size.
// Under LockedManualFee a running position carries no fee at all; once it is
// closed in any way the user's settled amounts are used as given.
func EffectiveFees(policy FeePolicy, in PositionInput, positionSize float64) Fees {
	if policy == AutoEstimatedFee {
		return EstimateFees(positionSize, in.TradingFeeRate, in.FundingFeeRate, in.HoldingDays)
	}
	if in.Status == Running {
		return Fees{}
	}
	return Fees{Trading: in.ManualTradingFee, Funding: in.ManualFundingFee}
}

// projectionFee is the fee assumed when projecting an exit at target or stop.
// A running position has not settled yet, so the rate estimate is used.
func projectionFee(in PositionInput, positionSize float64, effective Fees) float64 {
	if in.Status == Running {
		return EstimateFees(positionSize, in.TradingFeeRate, in.FundingFeeRate, in.HoldingDays).Total()
	}
	return effective.Total()
}
