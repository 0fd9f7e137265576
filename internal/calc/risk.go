package calc

import (
	"fmt"
	"math"
)

// RiskLevel grades how much of the account a single margin commits.
type RiskLevel int

const (
	Conservative RiskLevel = iota
	Aggressive
	Gambling
)

func (r RiskLevel) String() string {
	switch r {
	case Conservative:
		return "conservative"
	case Aggressive:
		return "aggressive"
	case Gambling:
		return "gambling"
	default:
		return fmt.Sprintf("risk_level(%d)", int(r))
	}
}

// StopLossCheck classifies a stop-loss against the liquidation price.
type StopLossCheck int

const (
	StopUnset StopLossCheck = iota
	StopBeyondLiquidation
	StopSafe
)

func (c StopLossCheck) String() string {
	switch c {
	case StopUnset:
		return "unset"
	case StopBeyondLiquidation:
		return "beyond_liquidation"
	case StopSafe:
		return "safe"
	default:
		return fmt.Sprintf("stop_check(%d)", int(c))
	}
}

// BreakEvenPrice shifts entry by the fee cost per unit against the direction.
func BreakEvenPrice(dir Direction, entry, totalFee, quantity float64) float64 {
	shift := totalFee / quantity
	if dir == Long {
		return entry + shift
	}
	return entry - shift
}

// RiskRewardRatio is reward distance over risk distance. Risk is measured to
// the stop when set, otherwise to liquidation. A zero risk distance or an
// unset target yields 0.
func RiskRewardRatio(entry, target, stopLoss, liquidation float64) float64 {
	if target <= 0 {
		return 0
	}
	risk := math.Abs(entry - liquidation)
	if stopLoss > 0 {
		risk = math.Abs(entry - stopLoss)
	}
	if risk == 0 {
		return 0
	}
	return math.Abs(target-entry) / risk
}

// MovePercent is the favourable move from entry to price in percent; negative
// when the price is against the position. Unset prices give 0.
func MovePercent(dir Direction, entry, price float64) float64 {
	if price <= 0 {
		return 0
	}
	if dir == Long {
		return (price - entry) / entry * 100
	}
	return (entry - price) / entry * 100
}

// MarginUsage returns margin as a percent of equity and its risk grade.
func MarginUsage(margin, totalEquity, safe, caution float64) (float64, RiskLevel) {
	if totalEquity <= 0 {
		return 0, Gambling
	}
	usage := margin / totalEquity * 100
	switch {
	case usage <= safe:
		return usage, Conservative
	case usage <= caution:
		return usage, Aggressive
	default:
		return usage, Gambling
	}
}
