// Package report renders query results as Excel workbooks, markdown reports
// and terminal-style charts.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/askdb/askdb/internal/query"
)

const exportSheet = "Results"

// ExcelWorkbook renders a result set into a single-sheet xlsx workbook with a
// styled header row.
func ExcelWorkbook(result query.ResultSet) ([]byte, error) {
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("result set has no columns")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for colIdx, column := range result.Columns {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, column); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header cell: %w", err)
		}
	}

	for rowIdx, row := range result.Rows {
		for colIdx, column := range result.Columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("data cell name: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, row[column]); err != nil {
				return nil, fmt.Errorf("write data cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
