package tabledetect

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// whitePage returns a uniform white grayscale page.
func whitePage(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

// drawHLine and drawVLine paint 3 px thick black rules.
func drawHLine(g *image.Gray, x0, x1, y int) {
	for dy := 0; dy < 3; dy++ {
		for x := x0; x < x1; x++ {
			g.SetGray(x, y+dy, color.Gray{Y: 0})
		}
	}
}

func drawVLine(g *image.Gray, x, y0, y1 int) {
	for dx := 0; dx < 3; dx++ {
		for y := y0; y < y1; y++ {
			g.SetGray(x+dx, y, color.Gray{Y: 0})
		}
	}
}

// drawTable paints a bordered grid with one interior rule per axis.
func drawTable(g *image.Gray, r image.Rectangle) {
	drawHLine(g, r.Min.X, r.Max.X, r.Min.Y)
	drawHLine(g, r.Min.X, r.Max.X, (r.Min.Y+r.Max.Y)/2)
	drawHLine(g, r.Min.X, r.Max.X, r.Max.Y-3)
	drawVLine(g, r.Min.X, r.Min.Y, r.Max.Y)
	drawVLine(g, (r.Min.X+r.Max.X)/2, r.Min.Y, r.Max.Y)
	drawVLine(g, r.Max.X-3, r.Min.Y, r.Max.Y)
}

func TestDetect(t *testing.T) {
	d := New(DefaultConfig())

	t.Run("blank page yields no regions", func(t *testing.T) {
		regions := d.Detect(whitePage(400, 300), 0)
		assert.Empty(t, regions)
	})

	t.Run("single table found with covering bounds", func(t *testing.T) {
		page := whitePage(400, 300)
		table := image.Rect(50, 50, 350, 250)
		drawTable(page, table)

		regions := d.Detect(page, 2)
		require.Len(t, regions, 1)
		assert.Equal(t, 2, regions[0].Page)
		// Dilation grows the bounds; they must still cover the drawn table.
		assert.True(t, table.In(regions[0].Bounds.Inset(-1)),
			"detected bounds %v must cover table %v", regions[0].Bounds, table)
		require.NotNil(t, regions[0].Mask)
		assert.Equal(t, regions[0].Bounds.Dx(), regions[0].Mask.W)
		assert.Equal(t, regions[0].Bounds.Dy(), regions[0].Mask.H)
	})

	t.Run("tiny structures are discarded", func(t *testing.T) {
		page := whitePage(400, 300)
		// A short isolated dash survives no 25 px opening at all, and even
		// a small box stays under the area floor after dilation.
		drawHLine(page, 100, 130, 100)

		regions := d.Detect(page, 0)
		assert.Empty(t, regions)
	})

	t.Run("two stacked tables are reported top to bottom", func(t *testing.T) {
		page := whitePage(400, 600)
		top := image.Rect(50, 40, 350, 200)
		bottom := image.Rect(50, 350, 350, 520)
		drawTable(page, bottom)
		drawTable(page, top)

		regions := d.Detect(page, 0)
		require.Len(t, regions, 2)
		assert.Less(t, regions[0].Bounds.Min.Y, regions[1].Bounds.Min.Y)
	})
}
