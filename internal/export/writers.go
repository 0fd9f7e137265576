package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rovshanmuradov/margin-tracker/internal/portfolio"
)

const (
	positionsSheet = "Positions"
	summarySheet   = "Summary"
)

func writeCSV(w io.Writer, records []portfolio.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Headers()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range records {
		values := rowValues(rec)
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = textCell(v)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write position %s: %w", rec.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func textCell(v any) string {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.StringFixed(Precision)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// jsonCell keeps numbers as JSON numbers rather than decimal's quoted form.
func jsonCell(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}

func writeJSON(w io.Writer, records []portfolio.Record, exportTime time.Time) error {
	headers := Headers()
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any, len(headers))
		for i, v := range rowValues(rec) {
			row[headers[i]] = jsonCell(v)
		}
		rows = append(rows, row)
	}

	exportData := struct {
		ExportTime    time.Time         `json:"export_time"`
		PositionCount int               `json:"position_count"`
		Positions     []map[string]any  `json:"positions"`
		Summary       portfolio.Summary `json:"summary"`
	}{
		ExportTime:    exportTime,
		PositionCount: len(records),
		Positions:     rows,
		Summary:       portfolio.Summarize(records),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, records []portfolio.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", positionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := Headers()
	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(positionsSheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write XLSX headers: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(positionsSheet, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}

	for i, rec := range records {
		values := rowValues(rec)
		for j, v := range values {
			if d, ok := v.(decimal.Decimal); ok {
				values[j] = d.InexactFloat64()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(positionsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write position %s: %w", rec.ID, err)
		}
	}

	if err := writeSummarySheet(f, portfolio.Summarize(records)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s portfolio.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	rows := [][]any{
		{"total_positions", s.TotalPositions},
		{"running", s.Running},
		{"hit_target", s.HitTarget},
		{"hit_stop", s.HitStop},
		{"closed", s.Closed},
		{"open_margin", num(s.OpenMargin).InexactFloat64()},
		{"open_exposure", num(s.OpenExposure).InexactFloat64()},
		{"floating_pnl", num(s.FloatingPnl).InexactFloat64()},
		{"realized_pnl", num(s.RealizedPnl).InexactFloat64()},
		{"total_fees", num(s.TotalFees).InexactFloat64()},
		{"win_rate", num(s.WinRate).InexactFloat64()},
		{"profit_factor", num(s.ProfitFactor).InexactFloat64()},
		{"max_drawdown", num(s.MaxDrawdown).InexactFloat64()},
		{"avg_hold_time", s.AvgHoldTimeText},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}
