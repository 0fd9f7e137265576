package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// DefaultRetryWindow bounds how long file creation is retried.
const DefaultRetryWindow = 5 * time.Second

var ErrNoRecords = errors.New("no positions match the export criteria")

// ParseFormat accepts csv, json, xlsx (and excel as an alias for xlsx).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Options configures the export behavior
type Options struct {
	Format    Format
	OutputDir string

	Status    string // running, hit_target, hit_stop, closed
	Direction string // long or short
	Symbol    string // case-insensitive exact match

	// Opened-at range, inclusive; zero means unbounded.
	StartTime time.Time
	EndTime   time.Time
}

// Exporter writes position records to files.
type Exporter struct {
	logger      *zap.Logger
	now         func() time.Time
	retryWindow time.Duration
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithRetryWindow sets how long a failing file creation is retried.
func WithRetryWindow(d time.Duration) Option {
	return func(e *Exporter) {
		if d > 0 {
			e.retryWindow = d
		}
	}
}

// WithClock replaces time.Now for filenames and export timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.now = now
	}
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger, opts ...Option) *Exporter {
	e := &Exporter{
		logger:      logger.Named("export"),
		now:         time.Now,
		retryWindow: DefaultRetryWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the records matching options to a new file in
// options.OutputDir and returns its path.
func (e *Exporter) Export(ctx context.Context, records []portfolio.Record, options Options) (string, error) {
	filtered, err := filterRecords(records, options)
	if err != nil {
		return "", err
	}
	if len(filtered) == 0 {
		return "", ErrNoRecords
	}

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, e.generateFilename(options))

	switch options.Format {
	case FormatCSV:
		err = e.writeFile(ctx, outputPath, func(f *os.File) error { return writeCSV(f, filtered) })
	case FormatJSON:
		err = e.writeFile(ctx, outputPath, func(f *os.File) error { return writeJSON(f, filtered, e.now()) })
	case FormatXLSX:
		err = e.writeFile(ctx, outputPath, func(f *os.File) error { return writeXLSX(f, filtered) })
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Positions exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// ExportAll writes one file per format concurrently. Paths are returned in
// the order of formats.
func (e *Exporter) ExportAll(ctx context.Context, records []portfolio.Record, options Options, formats []Format) ([]string, error) {
	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)

	for i, format := range formats {
		opts := options
		opts.Format = format
		g.Go(func() error {
			path, err := e.Export(ctx, records, opts)
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// writeFile creates path, retrying while the file is locked or otherwise
// unavailable, and hands it to write. Encoding failures are not retried.
func (e *Exporter) writeFile(ctx context.Context, path string, write func(*os.File) error) error {
	f, err := e.createFile(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func (e *Exporter) createFile(ctx context.Context, path string) (*os.File, error) {
	operation := func() (*os.File, error) {
		f, err := os.Create(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return f, nil
	}

	notify := func(err error, d time.Duration) {
		e.logger.Warn("Export file unavailable, retrying",
			zap.String("file", path),
			zap.Error(err),
			zap.Duration("backoff", d))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(e.retryWindow),
		backoff.WithNotify(notify))
}

func filterRecords(records []portfolio.Record, options Options) ([]portfolio.Record, error) {
	var (
		status    calc.Status
		direction calc.Direction
		err       error
	)
	if options.Status != "" {
		if status, err = calc.ParseStatus(options.Status); err != nil {
			return nil, err
		}
	}
	if options.Direction != "" {
		if direction, err = calc.ParseDirection(options.Direction); err != nil {
			return nil, err
		}
	}

	var filtered []portfolio.Record
	for _, rec := range records {
		in := rec.Input

		if !options.StartTime.IsZero() && in.OpenedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && in.OpenedAt.After(options.EndTime) {
			continue
		}
		if options.Status != "" && in.Status != status {
			continue
		}
		if options.Direction != "" && in.Direction != direction {
			continue
		}
		if options.Symbol != "" && !strings.EqualFold(in.Symbol, options.Symbol) {
			continue
		}

		filtered = append(filtered, rec)
	}
	return filtered, nil
}

// generateFilename creates positions_<filter>_<yyyymmdd_hhmmss>.<ext>
func (e *Exporter) generateFilename(options Options) string {
	var parts []string
	if options.Status != "" {
		parts = append(parts, strings.ToLower(options.Status))
	}
	if options.Direction != "" {
		parts = append(parts, strings.ToLower(options.Direction))
	}
	if options.Symbol != "" {
		parts = append(parts, strings.ToLower(options.Symbol))
	}
	filter := "all"
	if len(parts) > 0 {
		filter = strings.Join(parts, "_")
	}

	timestamp := e.now().Format("20060102_150405")
	return fmt.Sprintf("positions_%s_%s.%s", filter, timestamp, options.Format)
}
