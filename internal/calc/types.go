// Package calc derives the financial metrics of a manually tracked leveraged
// position: size, fees, liquidation price, PnL, ROE, break-even and
// risk/reward. Every function here is pure; Compute never mutates its input
// and never keeps state between calls.
package calc

import (
	"fmt"
	"strings"
	"time"
)

// MarginMode selects which capital backs the position.
type MarginMode int

const (
	Isolated MarginMode = iota
	Cross
)

func (m MarginMode) String() string {
	switch m {
	case Isolated:
		return "isolated"
	case Cross:
		return "cross"
	default:
		return fmt.Sprintf("margin_mode(%d)", int(m))
	}
}

// ParseMarginMode accepts "isolated" or "cross" in any case.
func ParseMarginMode(s string) (MarginMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "isolated", "iso":
		return Isolated, nil
	case "cross":
		return Cross, nil
	default:
		return 0, fmt.Errorf("unknown margin mode %q", s)
	}
}

// Direction is the side of the position.
type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts long/buy and short/sell.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Status is the lifecycle state of a position.
type Status int

const (
	Running Status = iota
	HitTarget
	HitStop
	Closed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case HitTarget:
		return "hit_target"
	case HitStop:
		return "hit_stop"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus accepts the String() form plus a few common aliases.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running", "open":
		return Running, nil
	case "hit_target", "target", "tp":
		return HitTarget, nil
	case "hit_stop", "stop", "sl":
		return HitStop, nil
	case "closed", "manual_close":
		return Closed, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{Running, HitTarget, HitStop, Closed}
}

// PositionInput is the full parameter set of a position as entered by the
// user. Prices set to 0 mean "unset". Rates are percentages.
type PositionInput struct {
	Symbol     string
	MarginMode MarginMode
	Direction  Direction

	TotalEquity float64 // account balance, used by Cross mode and money management
	Margin      float64
	Leverage    int

	EntryPrice    float64
	TargetPrice   float64
	StopLossPrice float64

	TradingFeeRate float64 // percent per trade event
	FundingFeeRate float64 // percent per day
	HoldingDays    int

	Status          Status
	LastOrExitPrice float64 // mark price while running, exit price when closed

	// Settled fees asserted by the user once the position is no longer running.
	ManualTradingFee float64
	ManualFundingFee float64

	OpenedAt          time.Time
	ClosedOrCheckedAt time.Time
}

// Projection is the outcome of the position if it resolved at one price.
type Projection struct {
	Price       float64
	GrossPnl    float64
	NetPnl      float64
	ROEPercent  float64
	EquityAfter float64
}

// Metrics is derived from a PositionInput on every recompute.
type Metrics struct {
	PositionSize float64
	Quantity     float64

	TradingFee float64
	FundingFee float64
	TotalFee   float64

	RiskCapital      float64
	LiquidationPrice float64

	ResolvedPrice float64
	GrossPnl      float64
	NetPnl        float64
	ROEPercent    float64
	FloatingPnl   float64
	RealizedPnl   float64

	BreakEvenPrice  float64
	RiskRewardRatio float64

	TargetPercent float64
	StopPercent   float64
	AtTarget      Projection
	AtStop        Projection

	MarginUsagePercent float64
	RiskLevel          RiskLevel
	SafeBalance        float64
	StopCheck          StopLossCheck

	Duration     time.Duration
	DurationText string
}
