package screen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/ui/component"
)

// TimeLayout is how timestamps are typed into the calculator form.
const TimeLayout = "2006-01-02 15:04"

func enumOptions[T fmt.Stringer](values ...T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

// newPositionForm builds the calculator form. Field names match the field
// names reported by calc.Error so validation failures land on the right line.
func newPositionForm() *component.Form {
	return component.NewForm().
		AddField("symbol", component.FieldTypeText, "Symbol", "BTCUSDT").
		AddSelect("margin_mode", "Margin mode", enumOptions(calc.Isolated, calc.Cross)).
		AddSelect("direction", "Direction", enumOptions(calc.Long, calc.Short)).
		AddField("total_equity", component.FieldTypeNumber, "Total equity", "").
		AddField("margin", component.FieldTypeNumber, "Margin", "").
		AddField("leverage", component.FieldTypeNumber, "Leverage", "10").
		AddField("entry_price", component.FieldTypeNumber, "Entry price", "").
		AddField("target_price", component.FieldTypeNumber, "Target price", "unset").
		AddField("stop_loss_price", component.FieldTypeNumber, "Stop loss", "unset").
		AddField("trading_fee_rate", component.FieldTypeNumber, "Trading fee %", "").
		AddField("funding_fee_rate", component.FieldTypeNumber, "Funding fee %/day", "").
		AddField("holding_days", component.FieldTypeNumber, "Holding days", "").
		AddSelect("status", "Status", enumOptions(calc.Statuses()...)).
		AddField("last_or_exit_price", component.FieldTypeNumber, "Last / exit price", "entry").
		AddField("manual_trading_fee", component.FieldTypeNumber, "Settled trading fee", "").
		AddField("manual_funding_fee", component.FieldTypeNumber, "Settled funding fee", "").
		AddField("opened_at", component.FieldTypeText, "Opened at", TimeLayout).
		AddField("closed_or_checked_at", component.FieldTypeText, "Closed / checked at", "now")
}

func formatNumber(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimeLayout)
}

// fillPositionForm loads in into form.
func fillPositionForm(form *component.Form, in calc.PositionInput) {
	form.SetFieldValue("symbol", in.Symbol).
		SetFieldValue("margin_mode", in.MarginMode.String()).
		SetFieldValue("direction", in.Direction.String()).
		SetFieldValue("total_equity", formatNumber(in.TotalEquity)).
		SetFieldValue("margin", formatNumber(in.Margin)).
		SetFieldValue("leverage", strconv.Itoa(in.Leverage)).
		SetFieldValue("entry_price", formatNumber(in.EntryPrice)).
		SetFieldValue("target_price", formatNumber(in.TargetPrice)).
		SetFieldValue("stop_loss_price", formatNumber(in.StopLossPrice)).
		SetFieldValue("trading_fee_rate", formatNumber(in.TradingFeeRate)).
		SetFieldValue("funding_fee_rate", formatNumber(in.FundingFeeRate)).
		SetFieldValue("holding_days", formatNumber(float64(in.HoldingDays))).
		SetFieldValue("status", in.Status.String()).
		SetFieldValue("last_or_exit_price", formatNumber(in.LastOrExitPrice)).
		SetFieldValue("manual_trading_fee", formatNumber(in.ManualTradingFee)).
		SetFieldValue("manual_funding_fee", formatNumber(in.ManualFundingFee)).
		SetFieldValue("opened_at", formatTime(in.OpenedAt)).
		SetFieldValue("closed_or_checked_at", formatTime(in.ClosedOrCheckedAt))
}

// readPositionForm parses every field. All parse failures are marked on the
// form and joined into the returned error.
func readPositionForm(form *component.Form) (calc.PositionInput, error) {
	form.ClearErrors()

	var errs []error
	num := func(name string) float64 {
		v, err := form.GetFloat(name)
		errs = append(errs, err)
		return v
	}
	integer := func(name string) int {
		v, err := form.GetInt(name)
		errs = append(errs, err)
		return v
	}
	stamp := func(name string) time.Time {
		s := form.GetValue(name)
		if s == "" {
			return time.Time{}
		}
		t, err := time.ParseInLocation(TimeLayout, s, time.Local)
		if err != nil {
			form.SetError(name, "use "+TimeLayout)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return t
	}

	in := calc.PositionInput{
		Symbol:            strings.ToUpper(form.GetValue("symbol")),
		TotalEquity:       num("total_equity"),
		Margin:            num("margin"),
		Leverage:          integer("leverage"),
		EntryPrice:        num("entry_price"),
		TargetPrice:       num("target_price"),
		StopLossPrice:     num("stop_loss_price"),
		TradingFeeRate:    num("trading_fee_rate"),
		FundingFeeRate:    num("funding_fee_rate"),
		HoldingDays:       integer("holding_days"),
		LastOrExitPrice:   num("last_or_exit_price"),
		ManualTradingFee:  num("manual_trading_fee"),
		ManualFundingFee:  num("manual_funding_fee"),
		OpenedAt:          stamp("opened_at"),
		ClosedOrCheckedAt: stamp("closed_or_checked_at"),
	}

	var err error
	if in.MarginMode, err = calc.ParseMarginMode(form.GetValue("margin_mode")); err != nil {
		errs = append(errs, err)
	}
	if in.Direction, err = calc.ParseDirection(form.GetValue("direction")); err != nil {
		errs = append(errs, err)
	}
	if in.Status, err = calc.ParseStatus(form.GetValue("status")); err != nil {
		errs = append(errs, err)
	}

	return in, errors.Join(errs...)
}

// keepStamps restores the record's exact timestamps for fields the user left
// untouched, since the form only shows minutes. A check time left in place
// while a running position is closed is dropped so the close is stamped now.
func keepStamps(form *component.Form, in, original calc.PositionInput) calc.PositionInput {
	if form.GetValue("opened_at") == formatTime(original.OpenedAt) {
		in.OpenedAt = original.OpenedAt
	}
	if form.GetValue("closed_or_checked_at") == formatTime(original.ClosedOrCheckedAt) {
		in.ClosedOrCheckedAt = original.ClosedOrCheckedAt
		if original.Status == calc.Running && in.Status != calc.Running {
			in.ClosedOrCheckedAt = time.Time{}
		}
	}
	return in
}

// previewInput fills the timestamps the repository would stamp on save, so
// the live preview shows the same duration a saved record would.
func previewInput(in calc.PositionInput, now time.Time) calc.PositionInput {
	if in.OpenedAt.IsZero() {
		in.OpenedAt = now
	}
	if in.Status == calc.Running || in.ClosedOrCheckedAt.IsZero() {
		in.ClosedOrCheckedAt = now
	}
	return in
}

// markCalcError points a calc.Error at its form field.
func markCalcError(form *component.Form, err error) {
	var calcErr *calc.Error
	if errors.As(err, &calcErr) {
		form.SetError(calcErr.Field, calcErr.Err.Error())
	}
}
