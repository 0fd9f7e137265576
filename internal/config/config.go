package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/export"
	"github.com/rovshanmuradov/margin-tracker/internal/journal"
)

const EnvPrefix = "MARGIN_TRACKER"

type Config struct {
	Calculator CalculatorConfig `mapstructure:"calculator"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
	Export     ExportConfig     `mapstructure:"export"`
	Log        LogConfig        `mapstructure:"log"`
}

type CalculatorConfig struct {
	FeePolicy             string  `mapstructure:"fee_policy"`
	LiquidationModel      string  `mapstructure:"liquidation_model"`
	ROEBasis              string  `mapstructure:"roe_basis"`
	CrossEquityCap        float64 `mapstructure:"cross_equity_cap"`
	MaintenanceMarginRate float64 `mapstructure:"maintenance_margin_rate"`
	MaxLeverage           int     `mapstructure:"max_leverage"`
}

type RiskConfig struct {
	SafeMarginPercent    float64 `mapstructure:"safe_margin_percent"`
	CautionMarginPercent float64 `mapstructure:"caution_margin_percent"`
}

// DefaultsConfig pre-fills new positions.
type DefaultsConfig struct {
	TotalEquity    float64 `mapstructure:"total_equity"`
	Margin         float64 `mapstructure:"margin"`
	Leverage       int     `mapstructure:"leverage"`
	TradingFeeRate float64 `mapstructure:"trading_fee_rate"`
	FundingFeeRate float64 `mapstructure:"funding_fee_rate"`
}

type ExportConfig struct {
	Dir         string        `mapstructure:"dir"`
	Formats     []string      `mapstructure:"formats"`
	RetryWindow time.Duration `mapstructure:"retry_window"`
}

type LogConfig struct {
	Debug      bool   `mapstructure:"debug"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

const (
	DefaultTotalEquity    = 1000.0
	DefaultMargin         = 10.0
	DefaultLeverage       = 10
	DefaultTradingFeeRate = 0.045
	DefaultFundingFeeRate = 0.01
	DefaultExportDir      = "exports"
)

func defaults() map[string]interface{} {
	opts := calc.DefaultOptions()
	return map[string]interface{}{
		"calculator.fee_policy":              opts.FeePolicy.String(),
		"calculator.liquidation_model":       opts.LiquidationModel.String(),
		"calculator.roe_basis":               opts.ROEBasis.String(),
		"calculator.cross_equity_cap":        opts.CrossEquityCap,
		"calculator.maintenance_margin_rate": opts.MaintenanceMarginRate,
		"calculator.max_leverage":            opts.MaxLeverage,
		"risk.safe_margin_percent":           opts.SafeMarginPercent,
		"risk.caution_margin_percent":        opts.CautionMarginPercent,
		"defaults.total_equity":              DefaultTotalEquity,
		"defaults.margin":                    DefaultMargin,
		"defaults.leverage":                  DefaultLeverage,
		"defaults.trading_fee_rate":          DefaultTradingFeeRate,
		"defaults.funding_fee_rate":          DefaultFundingFeeRate,
		"export.dir":                         DefaultExportDir,
		"export.formats":                     []string{string(export.FormatXLSX)},
		"export.retry_window":                export.DefaultRetryWindow,
		"log.debug":                          false,
		"log.file":                           "",
		"log.max_size":                       10,
		"log.max_backups":                    3,
		"log.max_age":                        7,
		"log.compress":                       true,
	}
}

// LoadConfig reads path (yaml, json or toml by extension) over the defaults
// and applies MARGIN_TRACKER_* environment overrides. An empty path or a
// missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	loadEnvironmentVariables(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, cfg.Validate()
}

func loadEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate checks enum names and numeric ranges.
func (c *Config) Validate() error {
	opts, err := c.CalculatorOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := c.validateDefaults(opts.MaxLeverage); err != nil {
		return err
	}
	if _, err := c.ExportFormats(); err != nil {
		return err
	}
	if c.Export.RetryWindow < 0 {
		return errors.New("invalid export.retry_window")
	}
	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return errors.New("invalid log rotation settings")
	}
	return nil
}

func (c *Config) validateDefaults(maxLeverage int) error {
	d := c.Defaults
	if d.Leverage < 1 || d.Leverage > maxLeverage {
		return fmt.Errorf("defaults.leverage must be in [1, %d]", maxLeverage)
	}
	if d.TotalEquity < 0 {
		return errors.New("invalid defaults.total_equity")
	}
	if d.Margin < 0 {
		return errors.New("invalid defaults.margin")
	}
	if d.TradingFeeRate < 0 || d.FundingFeeRate < 0 {
		return errors.New("fee rates must not be negative")
	}
	return nil
}

// CalculatorOptions builds the calculator configuration.
func (c *Config) CalculatorOptions() (calc.Options, error) {
	opts := calc.DefaultOptions()

	var err error
	if opts.FeePolicy, err = calc.ParseFeePolicy(c.Calculator.FeePolicy); err != nil {
		return calc.Options{}, err
	}
	if opts.LiquidationModel, err = calc.ParseLiquidationModel(c.Calculator.LiquidationModel); err != nil {
		return calc.Options{}, err
	}
	if opts.ROEBasis, err = calc.ParseROEBasis(c.Calculator.ROEBasis); err != nil {
		return calc.Options{}, err
	}
	opts.CrossEquityCap = c.Calculator.CrossEquityCap
	opts.MaintenanceMarginRate = c.Calculator.MaintenanceMarginRate
	opts.MaxLeverage = c.Calculator.MaxLeverage
	opts.SafeMarginPercent = c.Risk.SafeMarginPercent
	opts.CautionMarginPercent = c.Risk.CautionMarginPercent
	return opts, nil
}

// ExportFormats parses export.formats.
func (c *Config) ExportFormats() ([]export.Format, error) {
	if len(c.Export.Formats) == 0 {
		return nil, errors.New("export.formats is empty")
	}
	formats := make([]export.Format, 0, len(c.Export.Formats))
	for _, s := range c.Export.Formats {
		f, err := export.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// JournalDefaults returns the values journal entries fall back to.
func (c *Config) JournalDefaults() journal.Defaults {
	return journal.Defaults{
		TotalEquity:    c.Defaults.TotalEquity,
		Leverage:       c.Defaults.Leverage,
		TradingFeeRate: c.Defaults.TradingFeeRate,
		FundingFeeRate: c.Defaults.FundingFeeRate,
	}
}

// NewPositionInput returns a blank running position pre-filled with defaults.
func (c *Config) NewPositionInput() calc.PositionInput {
	return calc.PositionInput{
		MarginMode:     calc.Isolated,
		Direction:      calc.Long,
		TotalEquity:    c.Defaults.TotalEquity,
		Margin:         c.Defaults.Margin,
		Leverage:       c.Defaults.Leverage,
		TradingFeeRate: c.Defaults.TradingFeeRate,
		FundingFeeRate: c.Defaults.FundingFeeRate,
		Status:         calc.Running,
	}
}
