package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/config"
	"github.com/rovshanmuradov/margin-tracker/internal/export"
	"github.com/rovshanmuradov/margin-tracker/internal/journal"
	"github.com/rovshanmuradov/margin-tracker/internal/logger"
	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	journalPath := flag.String("journal", "configs/journal.yaml", "Path to the position journal")
	exportFormats := flag.String("export", "", "Comma separated export formats (csv,json,xlsx); empty skips export")
	outDir := flag.String("out", "", "Export directory (defaults to export.dir)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.Config{
		Debug:      cfg.Log.Debug || *debug,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	log := logger.WithComponent(logger.New(logCfg, nil), "poscalc")
	defer func() {
		_ = log.Sync()
	}()

	if err := run(ctx, cfg, log, os.Stdout, *journalPath, *exportFormats, *outDir); err != nil {
		log.Error("poscalc failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

// run loads the journal, prints every position with the portfolio summary
// to out and writes the requested exports.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger, out io.Writer, journalPath, formats, outDir string) error {
	opts, err := cfg.CalculatorOptions()
	if err != nil {
		return err
	}
	calculator, err := calc.New(opts)
	if err != nil {
		return err
	}

	inputs, err := journal.NewLoader(log, cfg.JournalDefaults()).Load(journalPath)
	if err != nil {
		return err
	}

	repo := portfolio.NewRepository(calculator, log)
	for i, in := range inputs {
		if _, err := repo.Add(in); err != nil {
			return fmt.Errorf("journal entry %d (%s): %w", i+1, in.Symbol, err)
		}
	}

	records := repo.List()
	printRecords(out, records)
	fmt.Fprintln(out)
	fmt.Fprintln(out, portfolio.FormatSummaryText(portfolio.Summarize(records)))

	if formats == "" {
		return nil
	}

	selected, err := parseFormats(formats)
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = cfg.Export.Dir
	}

	exporter := export.NewExporter(log, export.WithRetryWindow(cfg.Export.RetryWindow))
	paths, err := exporter.ExportAll(ctx, records, export.Options{OutputDir: outDir}, selected)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(out, "exported:", p)
	}
	return nil
}

func parseFormats(s string) ([]export.Format, error) {
	var formats []export.Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := export.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func printRecords(out io.Writer, records []portfolio.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tSIDE\tLEV\tSTATUS\tENTRY\tLIQ\tRISK\tNET PNL\tROE %\tHELD\t")
	for _, r := range records {
		in, m := r.Input, r.Metrics
		fmt.Fprintf(w, "%s\t%s\t%dx\t%s\t%.4f\t%.4f\t%s\t%.2f\t%.2f\t%s\t\n",
			in.Symbol, in.Direction, in.Leverage, in.Status,
			in.EntryPrice, m.LiquidationPrice, m.RiskLevel,
			m.NetPnl, m.ROEPercent, m.DurationText)
	}
	_ = w.Flush()
}
