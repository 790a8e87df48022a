package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"billscan/internal/domain"
)

const sheetName = "Line Items"

// WriteXLSX renders the extraction result as a single-sheet workbook: the
// line-item table followed by a summary block with the reconciled amount,
// reported total, and deviation.
func WriteXLSX(w io.Writer, res *domain.ExtractionResult) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	rowNo := 2
	for _, page := range res.PagewiseLineItems {
		for _, item := range page.BillItems {
			row := []interface{}{page.PageNo, item.ID, item.Description, nil, item.Confidence, string(res.Reconciliation.Status)}
			if item.Amount != nil {
				row[3] = *item.Amount
			}
			cell := fmt.Sprintf("A%d", rowNo)
			if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
				return fmt.Errorf("xlsx row %d: %w", rowNo, err)
			}
			rowNo++
		}
	}

	rowNo++ // blank separator row
	summary := [][]interface{}{
		{"Total Items", res.TotalItemCount},
		{"Reconciled Amount", res.ReconciledAmount},
	}
	if res.ReportedTotal != nil {
		summary = append(summary,
			[]interface{}{"Reported Total", *res.ReportedTotal},
			[]interface{}{"Deviation", res.Reconciliation.Deviation},
		)
	}
	for _, row := range summary {
		cell := fmt.Sprintf("A%d", rowNo)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("xlsx summary: %w", err)
		}
		rowNo++
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
