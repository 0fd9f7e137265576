package ui

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/config"
	"github.com/rovshanmuradov/margin-tracker/internal/export"
	"github.com/rovshanmuradov/margin-tracker/internal/logger"
	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
)

// Services bundles the collaborators every screen works against.
type Services struct {
	Context    context.Context
	Config     *config.Config
	Logger     *zap.Logger
	Repository *portfolio.Repository
	Exporter   *export.Exporter
	Logs       *logger.LogBuffer
}

// NewServices wires the portfolio repository and exporter for cfg.
func NewServices(ctx context.Context, cfg *config.Config, log *zap.Logger, logs *logger.LogBuffer) (*Services, error) {
	opts, err := cfg.CalculatorOptions()
	if err != nil {
		return nil, err
	}
	calculator, err := calc.New(opts)
	if err != nil {
		return nil, err
	}

	return &Services{
		Context:    ctx,
		Config:     cfg,
		Logger:     log.Named("ui"),
		Repository: portfolio.NewRepository(calculator, log),
		Exporter:   export.NewExporter(log, export.WithRetryWindow(cfg.Export.RetryWindow)),
		Logs:       logs,
	}, nil
}

// Calculator returns the calculator shared with the repository.
func (s *Services) Calculator() *calc.Calculator {
	return s.Repository.Calculator()
}

// ExportPortfolio writes every record in all configured formats.
func (s *Services) ExportPortfolio() ExportDoneMsg {
	formats, err := s.Config.ExportFormats()
	if err != nil {
		return ExportDoneMsg{Err: err}
	}

	ctx, cancel := context.WithTimeout(s.Context, 30*time.Second)
	defer cancel()

	paths, err := s.Exporter.ExportAll(ctx, s.Repository.List(),
		export.Options{OutputDir: s.Config.Export.Dir}, formats)
	return ExportDoneMsg{Paths: paths, Err: err}
}
