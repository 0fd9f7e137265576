package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/margin-tracker/internal/calc"
	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
)

var exportTime = time.Date(2024, 6, 2, 15, 4, 5, 0, time.UTC)

func newTestExporter() *Exporter {
	return NewExporter(zap.NewNop(),
		WithClock(func() time.Time { return exportTime }),
		WithRetryWindow(100*time.Millisecond))
}

func generateTestRecords(t *testing.T) []portfolio.Record {
	t.Helper()
	opened := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return opened.Add(3*time.Hour + 17*time.Minute) }
	repo := portfolio.NewRepository(calc.Default(), zap.NewNop(), portfolio.WithClock(clock))

	inputs := []calc.PositionInput{
		{
			Symbol: "BTCUSDT", MarginMode: calc.Isolated, Direction: calc.Long,
			TotalEquity: 1000, Margin: 10, Leverage: 20,
			EntryPrice: 50000, TargetPrice: 55000, StopLossPrice: 48000,
			TradingFeeRate: 0.045, FundingFeeRate: 0.01,
			Status: calc.Running, LastOrExitPrice: 50321.5, OpenedAt: opened,
		},
		{
			Symbol: "ETHUSDT", MarginMode: calc.Cross, Direction: calc.Short,
			TotalEquity: 2500, Margin: 33.3, Leverage: 7,
			EntryPrice: 3011.27, TargetPrice: 2800, StopLossPrice: 3150,
			Status: calc.HitTarget, ManualTradingFee: 0.0937, ManualFundingFee: 0.0125,
			OpenedAt: opened.Add(-48 * time.Hour),
		},
		{
			Symbol: "PEPEUSDT", MarginMode: calc.Isolated, Direction: calc.Long,
			TotalEquity: 300, Margin: 12.5, Leverage: 3,
			EntryPrice: 0.00001234, StopLossPrice: 0,
			Status: calc.HitStop, ManualTradingFee: 0.02,
			OpenedAt: opened.Add(-time.Hour),
		},
	}
	for _, in := range inputs {
		_, err := repo.Add(in)
		require.NoError(t, err)
	}
	return repo.List()
}

// numericFields maps numeric export columns to the record value they carry.
func numericFields(r portfolio.Record) map[string]float64 {
	return map[string]float64{
		"total_equity":       r.Input.TotalEquity,
		"margin":             r.Input.Margin,
		"leverage":           float64(r.Input.Leverage),
		"entry_price":        r.Input.EntryPrice,
		"target_price":       r.Input.TargetPrice,
		"stop_loss_price":    r.Input.StopLossPrice,
		"last_or_exit_price": r.Input.LastOrExitPrice,
		"manual_trading_fee": r.Input.ManualTradingFee,
		"position_size":      r.Metrics.PositionSize,
		"quantity":           r.Metrics.Quantity,
		"total_fee":          r.Metrics.TotalFee,
		"risk_capital":       r.Metrics.RiskCapital,
		"liquidation_price":  r.Metrics.LiquidationPrice,
		"gross_pnl":          r.Metrics.GrossPnl,
		"net_pnl":            r.Metrics.NetPnl,
		"roe_percent":        r.Metrics.ROEPercent,
		"floating_pnl":       r.Metrics.FloatingPnl,
		"realized_pnl":       r.Metrics.RealizedPnl,
		"break_even_price":   r.Metrics.BreakEvenPrice,
		"risk_reward_ratio":  r.Metrics.RiskRewardRatio,
	}
}

func assertRoundTrip(t *testing.T, records []portfolio.Record, rows [][]string) {
	t.Helper()
	require.Len(t, rows, len(records)+1)
	assert.Equal(t, Headers(), rows[0])

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[h] = i
	}

	for i, rec := range records {
		row := rows[i+1]
		assert.Equal(t, rec.ID, row[index["id"]])
		assert.Equal(t, rec.Input.Status.String(), row[index["status"]])
		for field, want := range numericFields(rec) {
			got, err := strconv.ParseFloat(row[index[field]], 64)
			require.NoError(t, err, field)
			assert.InDelta(t, want, got, 1e-6, "%s of %s", field, rec.Input.Symbol)
		}
	}
}

func TestExportCSVRoundTrip(t *testing.T) {
	exporter := newTestExporter()
	records := generateTestRecords(t)

	outputPath, err := exporter.Export(context.Background(), records, Options{
		Format:    FormatCSV,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, "positions_all_20240602_150405.csv", filepath.Base(outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assertRoundTrip(t, records, rows)
}

func TestExportXLSXRoundTrip(t *testing.T) {
	exporter := newTestExporter()
	records := generateTestRecords(t)

	outputPath, err := exporter.Export(context.Background(), records, Options{
		Format:    FormatXLSX,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(positionsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	// Trailing empty cells are trimmed by excelize; pad back to full width.
	for i := range rows {
		for len(rows[i]) < len(Headers()) {
			rows[i] = append(rows[i], "")
		}
	}
	assertRoundTrip(t, records, rows)

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	assert.Equal(t, []string{"total_positions", "3"}, summary[0])
}

func TestExportJSON(t *testing.T) {
	exporter := newTestExporter()
	records := generateTestRecords(t)

	outputPath, err := exporter.Export(context.Background(), records, Options{
		Format:    FormatJSON,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var decoded struct {
		ExportTime    time.Time         `json:"export_time"`
		PositionCount int               `json:"position_count"`
		Positions     []map[string]any  `json:"positions"`
		Summary       portfolio.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.True(t, exportTime.Equal(decoded.ExportTime))
	assert.Equal(t, 3, decoded.PositionCount)
	require.Len(t, decoded.Positions, 3)
	assert.Equal(t, "ETHUSDT", decoded.Positions[1]["symbol"])
	assert.InDelta(t, records[0].Metrics.LiquidationPrice, decoded.Positions[0]["liquidation_price"], 1e-6)
	assert.Equal(t, 1, decoded.Summary.Running)
}

func TestExportFilters(t *testing.T) {
	exporter := newTestExporter()
	records := generateTestRecords(t)
	dir := t.TempDir()

	outputPath, err := exporter.Export(context.Background(), records, Options{
		Format:    FormatCSV,
		OutputDir: dir,
		Direction: "long",
		Status:    "hit_stop",
	})
	require.NoError(t, err)
	assert.Equal(t, "positions_hit_stop_long_20240602_150405.csv", filepath.Base(outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, records[2].ID, rows[1][0])

	filtered, err := filterRecords(records, Options{Symbol: "ethusdt"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "ETHUSDT", filtered[0].Input.Symbol)

	filtered, err = filterRecords(records, Options{
		StartTime: records[0].Input.OpenedAt.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	_, err = filterRecords(records, Options{Status: "pending"})
	assert.Error(t, err)
}

func TestExportNoMatches(t *testing.T) {
	exporter := newTestExporter()
	_, err := exporter.Export(context.Background(), generateTestRecords(t), Options{
		Format:    FormatCSV,
		OutputDir: t.TempDir(),
		Symbol:    "DOGEUSDT",
	})
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestExportUnsupportedFormat(t *testing.T) {
	exporter := newTestExporter()
	_, err := exporter.Export(context.Background(), generateTestRecords(t), Options{
		Format:    "pdf",
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
	f, err := ParseFormat("Excel")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
}

func TestExportAll(t *testing.T) {
	exporter := newTestExporter()
	dir := t.TempDir()

	paths, err := exporter.ExportAll(context.Background(), generateTestRecords(t),
		Options{OutputDir: dir}, []Format{FormatCSV, FormatJSON, FormatXLSX})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, ".csv", filepath.Ext(paths[0]))
	assert.Equal(t, ".json", filepath.Ext(paths[1]))
	assert.Equal(t, ".xlsx", filepath.Ext(paths[2]))
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestCreateFileMissingDirIsPermanent(t *testing.T) {
	exporter := NewExporter(zap.NewNop(), WithRetryWindow(time.Minute))
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	start := time.Now()
	_, err := exporter.createFile(context.Background(), path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Less(t, time.Since(start), 5*time.Second)
}
