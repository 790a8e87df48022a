package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billscan/internal/domain"
)

func fp(v float64) *float64 { return &v }

func sampleResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		PagewiseLineItems: []domain.PageItems{
			{PageNo: 1, BillItems: []domain.LineItem{
				{ID: 1, Description: "Steel Bolts M8", Amount: fp(450), Confidence: 92.5},
				{ID: 4, Description: "Carried forward", Amount: nil, Confidence: 70},
			}},
			{PageNo: 2, BillItems: []domain.LineItem{
				{ID: 7, Description: "Freight charges", Amount: fp(50), Confidence: 88},
			}},
		},
		TotalItemCount:   3,
		ReconciledAmount: 500,
		ReportedTotal:    fp(480),
		Reconciliation: domain.ReconcileResult{
			Status:        domain.ReconcileOK,
			SelectedIDs:   []int{1, 4, 7},
			SelectedTotal: 500,
			Deviation:     20,
		},
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteResult(sampleResult()))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, columns, records[0])
	assert.Equal(t, []string{"1", "1", "Steel Bolts M8", "450.00", "92.5", "ok"}, records[1])
	// Amountless items export an empty amount cell, never "0".
	assert.Equal(t, "", records[2][3])
	assert.Equal(t, []string{"2", "7", "Freight charges", "50.00", "88.0", "ok"}, records[3])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"passthrough", "invoice-42_final", "invoice-42_final"},
		{"spaces and symbols become underscores", "March Invoice (2026)!", "March_Invoice_2026"},
		{"consecutive underscores collapse", "a -- b", "a_b"},
		{"trimmed", "  weird  ", "weird"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	date := time.Now().Format("2006-01-02")
	assert.Equal(t, "invoice_"+date+".csv", BuildFilename("invoice", "csv"))
	assert.Equal(t, "line_items_"+date+".xlsx", BuildFilename("", "xlsx"))
}
