// Package journal loads position inputs from a YAML trade journal.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
)

var (
	ErrEmptyJournal   = errors.New("no positions found in journal")
	ErrNoValidEntries = errors.New("no valid positions loaded")
)

// Entry is one position as written in the journal file.
type Entry struct {
	Symbol     string `yaml:"symbol"`
	MarginMode string `yaml:"margin_mode"`
	Direction  string `yaml:"direction"`
	Status     string `yaml:"status"`

	TotalEquity float64 `yaml:"total_equity"`
	Margin      float64 `yaml:"margin"`
	Leverage    int     `yaml:"leverage"`

	EntryPrice      float64 `yaml:"entry_price"`
	TargetPrice     float64 `yaml:"target_price"`
	StopLossPrice   float64 `yaml:"stop_loss_price"`
	LastOrExitPrice float64 `yaml:"last_or_exit_price"`

	TradingFeeRate   *float64 `yaml:"trading_fee_rate"`
	FundingFeeRate   *float64 `yaml:"funding_fee_rate"`
	HoldingDays      int      `yaml:"holding_days"`
	ManualTradingFee float64  `yaml:"manual_trading_fee"`
	ManualFundingFee float64  `yaml:"manual_funding_fee"`

	OpenedAt          time.Time `yaml:"opened_at"`
	ClosedOrCheckedAt time.Time `yaml:"closed_or_checked_at"`
}

// File is the structure of the journal YAML file.
type File struct {
	Positions []Entry `yaml:"positions"`
}

// Defaults fill fields an entry leaves out.
type Defaults struct {
	TotalEquity    float64
	Leverage       int
	TradingFeeRate float64
	FundingFeeRate float64
}

// Loader reads journal files.
type Loader struct {
	logger   *zap.Logger
	defaults Defaults
}

// NewLoader constructs a Loader with the given logger and defaults.
func NewLoader(logger *zap.Logger, defaults Defaults) *Loader {
	return &Loader{logger: logger.Named("journal"), defaults: defaults}
}

// Load reads and parses the journal at path.
func (l *Loader) Load(path string) ([]calc.PositionInput, error) {
	if filepath.IsAbs(path) {
		l.logger.Debug("Using absolute path for journal", zap.String("path", path))
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return l.Parse(data)
}

// Parse converts journal YAML into position inputs. Entries that cannot be
// converted are logged and skipped.
func (l *Loader) Parse(data []byte) ([]calc.PositionInput, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Positions) == 0 {
		return nil, ErrEmptyJournal
	}

	inputs := make([]calc.PositionInput, 0, len(file.Positions))
	for i, entry := range file.Positions {
		in, err := l.convert(entry)
		if err != nil {
			l.logger.Warn("Skipping invalid journal entry",
				zap.Int("index", i),
				zap.String("symbol", entry.Symbol),
				zap.Error(err))
			continue
		}
		inputs = append(inputs, in)
	}

	if len(inputs) == 0 {
		return nil, ErrNoValidEntries
	}

	l.logger.Info("Loaded journal", zap.Int("count", len(inputs)), zap.Int("skipped", len(file.Positions)-len(inputs)))
	return inputs, nil
}

func (l *Loader) convert(e Entry) (calc.PositionInput, error) {
	symbol := strings.ToUpper(strings.TrimSpace(e.Symbol))
	if symbol == "" {
		return calc.PositionInput{}, errors.New("symbol is required")
	}

	mode := calc.Isolated
	if e.MarginMode != "" {
		var err error
		if mode, err = calc.ParseMarginMode(e.MarginMode); err != nil {
			return calc.PositionInput{}, err
		}
	}
	direction, err := calc.ParseDirection(e.Direction)
	if err != nil {
		return calc.PositionInput{}, err
	}
	status := calc.Running
	if e.Status != "" {
		if status, err = calc.ParseStatus(e.Status); err != nil {
			return calc.PositionInput{}, err
		}
	}

	in := calc.PositionInput{
		Symbol:            symbol,
		MarginMode:        mode,
		Direction:         direction,
		TotalEquity:       e.TotalEquity,
		Margin:            e.Margin,
		Leverage:          e.Leverage,
		EntryPrice:        e.EntryPrice,
		TargetPrice:       e.TargetPrice,
		StopLossPrice:     e.StopLossPrice,
		TradingFeeRate:    l.defaults.TradingFeeRate,
		FundingFeeRate:    l.defaults.FundingFeeRate,
		HoldingDays:       e.HoldingDays,
		Status:            status,
		LastOrExitPrice:   e.LastOrExitPrice,
		ManualTradingFee:  e.ManualTradingFee,
		ManualFundingFee:  e.ManualFundingFee,
		OpenedAt:          e.OpenedAt,
		ClosedOrCheckedAt: e.ClosedOrCheckedAt,
	}
	if in.TotalEquity == 0 {
		in.TotalEquity = l.defaults.TotalEquity
	}
	if in.Leverage == 0 {
		in.Leverage = l.defaults.Leverage
	}
	// Rates are pointers so an explicit 0 is kept.
	if e.TradingFeeRate != nil {
		in.TradingFeeRate = *e.TradingFeeRate
	}
	if e.FundingFeeRate != nil {
		in.FundingFeeRate = *e.FundingFeeRate
	}
	return in, nil
}
