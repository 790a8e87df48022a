// Package export writes extraction results as CSV or XLSX attachments.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"billscan/internal/domain"
)

// BOM is the UTF-8 byte-order mark, prepended for Excel compatibility on
// Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the export header row.
var columns = []string{
	"Page",
	"Item ID",
	"Description",
	"Amount",
	"Confidence",
	"Reconciliation Status",
}

// CSVWriter streams selected line items as CSV rows.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteResult writes one row per selected line item, page by page.
func (w *CSVWriter) WriteResult(res *domain.ExtractionResult) error {
	for _, page := range res.PagewiseLineItems {
		for _, item := range page.BillItems {
			if err := w.csv.Write(itemToRow(page.PageNo, item, res.Reconciliation.Status)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

func itemToRow(pageNo int, item domain.LineItem, status domain.ReconcileStatus) []string {
	row := make([]string, len(columns))
	row[0] = strconv.Itoa(pageNo)
	row[1] = strconv.Itoa(item.ID)
	row[2] = item.Description
	if item.Amount != nil {
		row[3] = formatMoney(*item.Amount)
	}
	row[4] = strconv.FormatFloat(item.Confidence, 'f', 1, 64)
	row[5] = string(status)
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a document name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized attachment filename with the given
// extension. Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "line_items"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
