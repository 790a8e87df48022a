package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billscan/internal/domain"
)

func grayImage(w, h int, fill uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = fill
	}
	return g
}

func TestAdaptiveThresholdInv(t *testing.T) {
	g := grayImage(60, 60, 255)
	for x := 10; x < 50; x++ {
		g.SetGray(x, 30, color.Gray{Y: 0})
	}

	m := AdaptiveThresholdInv(g, 11, 3)
	assert.True(t, m.At(30, 30), "dark stroke pixel must be set")
	assert.False(t, m.At(30, 5), "uniform background must stay clear")
}

func TestMorphologicalOpening(t *testing.T) {
	m := domain.NewMask(100, 40)
	for x := 10; x < 90; x++ {
		m.Set(x, 20) // long horizontal rule
	}
	for x := 40; x < 48; x++ {
		m.Set(x, 10) // short dash, text-sized
	}
	for y := 5; y < 35; y++ {
		m.Set(50, y) // vertical stroke
	}

	opened := OpenHorizontal(m, 25, 1)
	assert.True(t, opened.At(50, 20), "long rule survives horizontal opening")
	assert.False(t, opened.At(44, 10), "short dash is removed")
	assert.False(t, opened.At(50, 10), "vertical stroke is removed")

	openedV := OpenVertical(m, 25, 1)
	assert.True(t, openedV.At(50, 20), "vertical stroke survives vertical opening")
	assert.False(t, openedV.At(20, 20), "horizontal rule is removed")
}

func TestCloseRectBridgesGaps(t *testing.T) {
	m := domain.NewMask(60, 20)
	for x := 10; x < 28; x++ {
		m.Set(x, 10)
	}
	for x := 31; x < 50; x++ {
		m.Set(x, 10)
	}

	closed := CloseRect(m, 5, 1)
	assert.True(t, closed.At(29, 10), "3 px gap is bridged")
}

func TestComponents(t *testing.T) {
	m := domain.NewMask(100, 100)
	for y := 10; y < 30; y++ {
		for x := 10; x < 40; x++ {
			m.Set(x, y)
		}
	}
	for y := 60; y < 80; y++ {
		for x := 50; x < 90; x++ {
			m.Set(x, y)
		}
	}

	comps := Components(m)
	require.Len(t, comps, 2)
	bounds := []image.Rectangle{comps[0].Bounds, comps[1].Bounds}
	assert.Contains(t, bounds, image.Rect(10, 10, 40, 30))
	assert.Contains(t, bounds, image.Rect(50, 60, 90, 80))
	for _, c := range comps {
		assert.Equal(t, c.Bounds.Dx()*c.Bounds.Dy(), c.Area)
	}
}

func TestProjections(t *testing.T) {
	m := domain.NewMask(10, 5)
	for x := 0; x < 10; x++ {
		m.Set(x, 2)
	}
	m.Set(3, 4)

	rows := ProjectRows(m)
	assert.Equal(t, []int{0, 0, 10, 0, 1}, rows)

	cols := ProjectCols(m)
	assert.Equal(t, []int{1, 1, 1, 2, 1, 1, 1, 1, 1, 1}, cols)
}

func TestNCC(t *testing.T) {
	textured := func() *image.Gray {
		g := grayImage(20, 20, 255)
		for x := 2; x < 18; x++ {
			g.SetGray(x, 10, color.Gray{Y: 0})
		}
		return g
	}

	t.Run("identical textured images correlate fully", func(t *testing.T) {
		assert.InDelta(t, 1.0, NCC(textured(), textured()), 1e-9)
	})

	t.Run("constant image correlates zero", func(t *testing.T) {
		assert.Zero(t, NCC(grayImage(20, 20, 255), textured()))
	})

	t.Run("size mismatch correlates zero", func(t *testing.T) {
		assert.Zero(t, NCC(grayImage(10, 20, 255), textured()))
	})
}
