package calc

import (
	"fmt"
	"strings"
)

// FeePolicy decides when trading and funding fees are charged.
type FeePolicy int

const (
	// LockedManualFee charges nothing while running and trusts the user's
	// settled fee amounts once the position reaches any other status.
	LockedManualFee FeePolicy = iota
	// AutoEstimatedFee always estimates fees from the configured rates.
	AutoEstimatedFee
)

func (p FeePolicy) String() string {
	switch p {
	case LockedManualFee:
		return "locked_manual"
	case AutoEstimatedFee:
		return "auto_estimated"
	default:
		return fmt.Sprintf("fee_policy(%d)", int(p))
	}
}

// ParseFeePolicy parses the String() form.
func ParseFeePolicy(s string) (FeePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "locked_manual", "locked", "manual":
		return LockedManualFee, nil
	case "auto_estimated", "auto", "estimated":
		return AutoEstimatedFee, nil
	default:
		return 0, fmt.Errorf("unknown fee policy %q", s)
	}
}

// LiquidationModel selects the liquidation price formula.
type LiquidationModel int

const (
	// RiskCapitalModel moves the price by riskCapital/quantity and is
	// margin-mode aware.
	RiskCapitalModel LiquidationModel = iota
	// FixedLeverageModel uses entry ∓ entry/leverage and ignores fees and
	// account equity.
	FixedLeverageModel
)

func (m LiquidationModel) String() string {
	switch m {
	case RiskCapitalModel:
		return "risk_capital"
	case FixedLeverageModel:
		return "fixed_leverage"
	default:
		return fmt.Sprintf("liquidation_model(%d)", int(m))
	}
}

// ParseLiquidationModel parses the String() form.
func ParseLiquidationModel(s string) (LiquidationModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "risk_capital", "mode_aware":
		return RiskCapitalModel, nil
	case "fixed_leverage", "legacy":
		return FixedLeverageModel, nil
	default:
		return 0, fmt.Errorf("unknown liquidation model %q", s)
	}
}

// ROEBasis selects which PnL figure ROE is computed on.
type ROEBasis int

const (
	ROEGross ROEBasis = iota
	ROENet
)

func (b ROEBasis) String() string {
	if b == ROENet {
		return "net"
	}
	return "gross"
}

// ParseROEBasis parses "gross" or "net".
func ParseROEBasis(s string) (ROEBasis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gross":
		return ROEGross, nil
	case "net":
		return ROENet, nil
	default:
		return 0, fmt.Errorf("unknown roe basis %q", s)
	}
}

const (
	DefaultMaxLeverage          = 250
	DefaultSafeMarginPercent    = 1.0
	DefaultCautionMarginPercent = 3.0
)

// Options configures a Calculator. The zero value is not valid; start from
// DefaultOptions.
type Options struct {
	FeePolicy        FeePolicy
	LiquidationModel LiquidationModel
	ROEBasis         ROEBasis

	// CrossEquityCap bounds riskCapital/positionSize in Cross mode, which is
	// the same as bounding the price buffer to entry*cap. 0 disables the cap.
	CrossEquityCap float64
	// MaintenanceMarginRate is the fraction of position size that must remain
	// when liquidation triggers.
	MaintenanceMarginRate float64

	MaxLeverage          int
	SafeMarginPercent    float64
	CautionMarginPercent float64
}

// DefaultOptions returns the locked-fee, mode-aware, gross-ROE configuration.
func DefaultOptions() Options {
	return Options{
		FeePolicy:            LockedManualFee,
		LiquidationModel:     RiskCapitalModel,
		ROEBasis:             ROEGross,
		MaxLeverage:          DefaultMaxLeverage,
		SafeMarginPercent:    DefaultSafeMarginPercent,
		CautionMarginPercent: DefaultCautionMarginPercent,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.MaxLeverage < 1 || o.MaxLeverage > DefaultMaxLeverage {
		return fmt.Errorf("max leverage must be in [1, %d], got %d", DefaultMaxLeverage, o.MaxLeverage)
	}
	if o.CrossEquityCap < 0 {
		return fmt.Errorf("cross equity cap must not be negative")
	}
	if o.MaintenanceMarginRate < 0 || o.MaintenanceMarginRate >= 1 {
		return fmt.Errorf("maintenance margin rate must be in [0, 1), got %v", o.MaintenanceMarginRate)
	}
	if o.SafeMarginPercent < 0 || o.CautionMarginPercent < o.SafeMarginPercent {
		return fmt.Errorf("margin thresholds must satisfy 0 <= safe <= caution")
	}
	return nil
}
