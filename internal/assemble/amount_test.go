package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{"plain integer", "1200", 1200, true},
		{"plain decimal", "1234.56", 1234.56, true},
		{"western thousands", "1,234.50", 1234.50, true},
		{"lakh crore grouping", "2,50,000.00", 250000, true},
		{"rupee symbol", "₹1,234.50", 1234.50, true},
		{"dollar symbol", "$99.99", 99.99, true},
		{"currency code", "INR 5,000", 5000, true},
		{"rs abbreviation", "Rs. 450.00", 450, true},
		{"parenthesized negative", "(1,200.00)", -1200, true},
		{"trailing debit", "1234.56 Dr", -1234.56, true},
		{"trailing credit", "1234.56 Cr", 1234.56, true},
		{"explicit minus", "-42.00", -42, true},
		{"quantity then amount keeps last", "2 x 250.00 500.00", 500, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"no digits", "subtotal", 0, false},
		{"currency only", "₹", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseAmountNeverZeroOnGarbage(t *testing.T) {
	for _, text := range []string{"n/a", "---", "TOTAL", "Dr"} {
		_, ok := ParseAmount(text)
		assert.False(t, ok, "text %q must not parse", text)
	}
}
