package reconcile

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billscan/internal/assemble"
	"billscan/internal/domain"
)

func token(text string, x, y int) domain.Token {
	return domain.Token{Text: text, Confidence: 90, Box: image.Rect(x, y, x+40, y+12)}
}

func TestFindReportedTotal(t *testing.T) {
	const pageHeight = 1000 // bottom 40% starts at y=600

	t.Run("grand total line on last page wins", func(t *testing.T) {
		pages := [][]domain.Token{
			{token("Grand", 10, 900), token("Total", 55, 900), token("1,000.00", 120, 900)},
			{token("Grand", 10, 900), token("Total", 55, 900), token("2,480.50", 120, 900)},
		}
		got := FindReportedTotal(pages, []int{pageHeight, pageHeight}, assemble.ParseAmount)
		require.NotNil(t, got)
		assert.InDelta(t, 2480.50, *got, 1e-9)
	})

	t.Run("lowest matching line on a page wins", func(t *testing.T) {
		pages := [][]domain.Token{{
			token("Subtotal", 10, 700), token("450.00", 120, 700),
			token("Total", 10, 900), token("500.00", 120, 900),
		}}
		got := FindReportedTotal(pages, []int{pageHeight}, assemble.ParseAmount)
		require.NotNil(t, got)
		assert.InDelta(t, 500.0, *got, 1e-9)
	})

	t.Run("subtotal below the total line is skipped", func(t *testing.T) {
		pages := [][]domain.Token{{
			token("Total", 10, 700), token("500.00", 120, 700),
			token("Subtotal", 10, 900), token("450.00", 120, 900),
		}}
		got := FindReportedTotal(pages, []int{pageHeight}, assemble.ParseAmount)
		require.NotNil(t, got)
		assert.InDelta(t, 500.0, *got, 1e-9)
	})

	t.Run("spaced sub total is not the grand total", func(t *testing.T) {
		pages := [][]domain.Token{{
			token("Sub", 10, 900), token("Total", 50, 900), token("450.00", 120, 900),
		}}
		got := FindReportedTotal(pages, []int{pageHeight}, assemble.ParseAmount)
		assert.Nil(t, got)
	})

	t.Run("category total is not the grand total", func(t *testing.T) {
		pages := [][]domain.Token{{
			token("Grand", 10, 700), token("Total", 60, 700), token("500.00", 130, 700),
			token("Category", 10, 900), token("Total", 80, 900), token("450.00", 150, 900),
		}}
		got := FindReportedTotal(pages, []int{pageHeight}, assemble.ParseAmount)
		require.NotNil(t, got)
		assert.InDelta(t, 500.0, *got, 1e-9)
	})

	t.Run("amount must follow the keyword", func(t *testing.T) {
		pages := [][]domain.Token{{
			token("500.00", 10, 900), token("items", 120, 900), token("total", 180, 900),
		}}
		got := FindReportedTotal(pages, []int{pageHeight}, assemble.ParseAmount)
		assert.Nil(t, got)
	})

	t.Run("tokens above the footer zone are ignored", func(t *testing.T) {
		pages := [][]domain.Token{{
			token("Total", 10, 100), token("500.00", 120, 100),
		}}
		got := FindReportedTotal(pages, []int{pageHeight}, assemble.ParseAmount)
		assert.Nil(t, got)
	})

	t.Run("no total line yields nil", func(t *testing.T) {
		pages := [][]domain.Token{{
			token("Thank", 10, 900), token("you", 60, 900),
		}}
		got := FindReportedTotal(pages, []int{pageHeight}, assemble.ParseAmount)
		assert.Nil(t, got)
	})
}
