// Package raster implements the binary-image operations behind table
// structure detection: adaptive thresholding, separable morphology,
// connected-component extraction, axis projections, and normalized
// cross-correlation of grayscale strips.
package raster

import (
	"image"
	"math"

	"billscan/internal/domain"
)

// AdaptiveThresholdInv binarizes a grayscale image with a mean adaptive
// threshold: a pixel is set when it is darker than the local window mean
// minus c. Window must be odd.
func AdaptiveThresholdInv(img *image.Gray, window, c int) *domain.Mask {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := domain.NewMask(w, h)
	if w == 0 || h == 0 {
		return out
	}

	// Integral image, (w+1)×(h+1).
	integ := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integ[(y+1)*(w+1)+(x+1)] = integ[y*(w+1)+(x+1)] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h, y+half+1)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w, x+half+1)
			area := uint64((x1 - x0) * (y1 - y0))
			sum := integ[y1*(w+1)+x1] - integ[y0*(w+1)+x1] - integ[y1*(w+1)+x0] + integ[y0*(w+1)+x0]
			mean := float64(sum) / float64(area)
			if float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y) < mean-float64(c) {
				out.Pix[y*w+x] = 255
			}
		}
	}
	return out
}

// erode1D erodes m with a 1×k (horizontal) or k×1 (vertical) kernel.
// Pixels outside the mask count as unset, so structures touching the
// border erode away.
func erode1D(m *domain.Mask, k int, horizontal bool) *domain.Mask {
	out := domain.NewMask(m.W, m.H)
	left := (k - 1) / 2
	right := k / 2
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			keep := true
			for d := -left; d <= right; d++ {
				var set bool
				if horizontal {
					set = m.At(x+d, y)
				} else {
					set = m.At(x, y+d)
				}
				if !set {
					keep = false
					break
				}
			}
			if keep {
				out.Pix[y*m.W+x] = 255
			}
		}
	}
	return out
}

// dilate1D dilates m with a 1×k or k×1 kernel.
func dilate1D(m *domain.Mask, k int, horizontal bool) *domain.Mask {
	out := domain.NewMask(m.W, m.H)
	left := (k - 1) / 2
	right := k / 2
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			for d := -left; d <= right; d++ {
				var set bool
				if horizontal {
					set = m.At(x+d, y)
				} else {
					set = m.At(x, y+d)
				}
				if set {
					out.Pix[y*m.W+x] = 255
					break
				}
			}
		}
	}
	return out
}

// OpenHorizontal keeps only runs that survive erosion with a k-wide
// horizontal kernel, applied iterations times before re-dilating. Long thin
// horizontal rules survive; text does not.
func OpenHorizontal(m *domain.Mask, k, iterations int) *domain.Mask {
	out := m
	for i := 0; i < iterations; i++ {
		out = erode1D(out, k, true)
	}
	for i := 0; i < iterations; i++ {
		out = dilate1D(out, k, true)
	}
	return out
}

// OpenVertical is the vertical counterpart of OpenHorizontal.
func OpenVertical(m *domain.Mask, k, iterations int) *domain.Mask {
	out := m
	for i := 0; i < iterations; i++ {
		out = erode1D(out, k, false)
	}
	for i := 0; i < iterations; i++ {
		out = dilate1D(out, k, false)
	}
	return out
}

// Union returns the pixelwise union of two same-sized masks.
func Union(a, b *domain.Mask) *domain.Mask {
	out := domain.NewMask(a.W, a.H)
	for i := range a.Pix {
		if a.Pix[i] != 0 || b.Pix[i] != 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

// DilateRect dilates with a k×k rectangular kernel, iterations times.
// Separable: a square dilation is a horizontal pass then a vertical pass.
func DilateRect(m *domain.Mask, k, iterations int) *domain.Mask {
	out := m
	for i := 0; i < iterations; i++ {
		out = dilate1D(out, k, true)
		out = dilate1D(out, k, false)
	}
	return out
}

// CloseRect closes small gaps: k×k dilation then erosion, iterations times
// each, matching the OpenCV morphologyEx(MORPH_CLOSE, iterations=n) order.
func CloseRect(m *domain.Mask, k, iterations int) *domain.Mask {
	out := m
	for i := 0; i < iterations; i++ {
		out = dilate1D(out, k, true)
		out = dilate1D(out, k, false)
	}
	for i := 0; i < iterations; i++ {
		out = erode1D(out, k, true)
		out = erode1D(out, k, false)
	}
	return out
}

// Component is one 8-connected region of set pixels.
type Component struct {
	Bounds image.Rectangle // in mask coordinates
	Mask   *domain.Mask    // cropped to Bounds
	Area   int             // count of set pixels
}

// Components extracts 8-connected components via flood-fill labeling.
func Components(m *domain.Mask) []Component {
	labeled := make([]bool, len(m.Pix))
	var comps []Component
	queue := make([]int, 0, 256)

	for start, v := range m.Pix {
		if v == 0 || labeled[start] {
			continue
		}
		labeled[start] = true
		queue = append(queue[:0], start)
		minX, minY := m.W, m.H
		maxX, maxY := 0, 0
		var pixels []int

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			pixels = append(pixels, idx)
			x, y := idx%m.W, idx/m.W
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.W || ny >= m.H {
						continue
					}
					nidx := ny*m.W + nx
					if m.Pix[nidx] != 0 && !labeled[nidx] {
						labeled[nidx] = true
						queue = append(queue, nidx)
					}
				}
			}
		}

		bounds := image.Rect(minX, minY, maxX+1, maxY+1)
		crop := domain.NewMask(bounds.Dx(), bounds.Dy())
		for _, idx := range pixels {
			x, y := idx%m.W, idx/m.W
			crop.Pix[(y-minY)*crop.W+(x-minX)] = 255
		}
		comps = append(comps, Component{Bounds: bounds, Mask: crop, Area: len(pixels)})
	}
	return comps
}

// ProjectRows sums set pixels along each row of the mask.
func ProjectRows(m *domain.Mask) []int {
	proj := make([]int, m.H)
	for y := 0; y < m.H; y++ {
		row := m.Pix[y*m.W : (y+1)*m.W]
		n := 0
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
		proj[y] = n
	}
	return proj
}

// ProjectCols sums set pixels along each column of the mask.
func ProjectCols(m *domain.Mask) []int {
	proj := make([]int, m.W)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.Pix[y*m.W+x] != 0 {
				proj[x]++
			}
		}
	}
	return proj
}

// NCC computes the absolute normalized cross-correlation of two grayscale
// images of identical dimensions. Returns 0 when sizes differ or either
// image is constant.
func NCC(a, b *image.Gray) float64 {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return 0
	}
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	n := w * h
	if n == 0 {
		return 0
	}

	var sumA, sumB float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sumA += float64(a.GrayAt(a.Bounds().Min.X+x, a.Bounds().Min.Y+y).Y)
			sumB += float64(b.GrayAt(b.Bounds().Min.X+x, b.Bounds().Min.Y+y).Y)
		}
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)

	var num, varA, varB float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			da := float64(a.GrayAt(a.Bounds().Min.X+x, a.Bounds().Min.Y+y).Y) - meanA
			db := float64(b.GrayAt(b.Bounds().Min.X+x, b.Bounds().Min.Y+y).Y) - meanB
			num += da * db
			varA += da * da
			varB += db * db
		}
	}
	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0
	}
	return math.Abs(num / denom)
}
