// Package export renders comparison tables as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/mitc/internal/fields"
	"github.com/jackzampolin/mitc/internal/mitc"
)

const (
	SheetComparison = "Comparison"
	SheetSummary    = "Summary"

	// ContentType is the XLSX media type.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var statusFills = map[mitc.CellStatus]string{
	mitc.CellSame:    "C6EFCE",
	mitc.CellDiff:    "FFEB9C",
	mitc.CellMissing: "D9D9D9",
	mitc.CellSuspect: "FFC7CE",
}

// WriteXLSX writes resp as a workbook with a Comparison sheet (one row per
// field, one column per bank) and a Summary sheet of status counts.
//
// banks names the bank columns; when empty the names come from the first
// row's cells. catalog supplies field display names and may be nil.
func WriteXLSX(w io.Writer, resp *mitc.BankComparisonResponse, banks []string, catalog *fields.Catalog) error {
	if resp == nil {
		return fmt.Errorf("export: nil comparison")
	}
	if catalog == nil {
		catalog = fields.Default()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetComparison); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := writeComparison(f, resp, columns(resp, banks), catalog); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("export: add summary sheet: %w", err)
	}
	if err := writeSummary(f, resp); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: xlsx write: %w", err)
	}
	return nil
}

func columns(resp *mitc.BankComparisonResponse, banks []string) []string {
	width := len(banks)
	for _, row := range resp.Rows {
		width = max(width, len(row.BankResults))
	}

	out := make([]string, width)
	copy(out, banks)
	for i := range out {
		if out[i] != "" {
			continue
		}
		out[i] = fmt.Sprintf("Bank %d", i+1)
		if len(resp.Rows) > 0 && i < len(resp.Rows[0].BankResults) {
			cell := resp.Rows[0].BankResults[i]
			switch {
			case cell.BankName != nil && *cell.BankName != "":
				out[i] = *cell.BankName
			case cell.BankID != nil && *cell.BankID != "":
				out[i] = *cell.BankID
			}
		}
	}
	return out
}

func writeComparison(f *excelize.File, resp *mitc.BankComparisonResponse, banks []string, catalog *fields.Catalog) error {
	const sheet = SheetComparison

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	fills := make(map[mitc.CellStatus]int, len(statusFills))
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		})
		if err != nil {
			return fmt.Errorf("export: status style: %w", err)
		}
		fills[status] = id
	}

	w := &sheetWriter{f: f, sheet: sheet}

	w.set(1, 1, "Field")
	for i, name := range banks {
		w.set(i+2, 1, name)
	}
	w.style(w.cellName(1, 1), w.cellName(len(banks)+1, 1), header)

	for r, row := range resp.Rows {
		line := r + 2
		label := row.FieldName
		if field, ok := catalog.Get(row.FieldName); ok {
			label = field.DisplayName
		}
		w.set(1, line, label)

		for c, result := range row.BankResults {
			text := fmt.Sprintf("%s: %s", result.Status, result.Explanation)
			if result.Details != nil && *result.Details != "" {
				text += "\n" + *result.Details
			}
			cell := w.set(c+2, line, text)
			if style, ok := fills[result.Status]; ok {
				w.style(cell, cell, style)
			}
		}
	}

	w.width("A", "A", 28)
	if len(banks) > 0 {
		lastCol, err := excelize.ColumnNumberToName(len(banks) + 1)
		if err != nil {
			return fmt.Errorf("export: column name: %w", err)
		}
		w.width("B", lastCol, 48)
	}
	if w.err != nil {
		return fmt.Errorf("export: comparison sheet: %w", w.err)
	}
	return nil
}

// sheetWriter keeps the first excelize error; later calls become no-ops.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) cellName(col, row int) string {
	if w.err != nil {
		return ""
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	w.err = err
	return cell
}

func (w *sheetWriter) set(col, row int, v any) string {
	cell := w.cellName(col, row)
	if w.err == nil {
		w.err = w.f.SetCellValue(w.sheet, cell, v)
	}
	return cell
}

func (w *sheetWriter) style(from, to string, id int) {
	if w.err == nil {
		w.err = w.f.SetCellStyle(w.sheet, from, to, id)
	}
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(w.sheet, from, to, width)
	}
}

func writeSummary(f *excelize.File, resp *mitc.BankComparisonResponse) error {
	const sheet = SheetSummary

	summary := resp.Summary
	if len(summary) == 0 {
		summary = resp.Tally()
	}

	rows := [][]any{{"Status", "Count"}}
	for _, s := range summary {
		rows = append(rows, []any{string(s.Status), s.Count})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: summary cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: summary row: %w", err)
		}
	}
	return nil
}
