// Package preprocess normalizes rendered page images for table detection
// and OCR: grayscale conversion, optional deskewing, illumination
// correction, and contrast enhancement.
package preprocess

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"billscan/internal/domain"
	"billscan/internal/raster"
)

// Config holds preprocessing tunables.
type Config struct {
	// Aggressive enables deskew, illumination correction, and contrast
	// enhancement. Clean digital invoices are best left untouched beyond
	// grayscale conversion; aggressive processing can damage crisp text.
	Aggressive bool
	// MaxSkewDegrees bounds the deskew angle search.
	MaxSkewDegrees float64
	// MinSkewDegrees is the smallest angle worth correcting.
	MinSkewDegrees float64
}

// DefaultConfig returns the preprocessing defaults.
func DefaultConfig() Config {
	return Config{
		Aggressive:     false,
		MaxSkewDegrees: 5.0,
		MinSkewDegrees: 0.5,
	}
}

// Preprocessor converts raw page images into analysis-ready grayscale.
type Preprocessor struct {
	cfg Config
}

// New creates a Preprocessor.
func New(cfg Config) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// Run normalizes one page image. The input is never modified.
func (p *Preprocessor) Run(img image.Image) *image.Gray {
	gray := toGray(imaging.Grayscale(img))
	if !p.cfg.Aggressive {
		return gray
	}

	angle := p.estimateSkew(gray)
	if math.Abs(angle) >= p.cfg.MinSkewDegrees {
		rotated := imaging.Rotate(gray, -angle, color.White)
		gray = toGray(imaging.Grayscale(rotated))
	}

	gray = correctIllumination(gray)

	// Contrast and sharpness enhancement for faded scans.
	enhanced := imaging.AdjustContrast(gray, 20)
	enhanced = imaging.Sharpen(enhanced, 1.0)
	return toGray(enhanced)
}

// estimateSkew searches small rotations for the angle that maximizes the
// variance of the horizontal ink projection. Text lines produce the
// sharpest projection peaks when level.
func (p *Preprocessor) estimateSkew(gray *image.Gray) float64 {
	// Work at reduced resolution. The 0.5 degree step only needs coarse
	// structure.
	small := toGray(imaging.Resize(gray, gray.Bounds().Dx()/4, 0, imaging.Box))
	if small.Bounds().Dx() < 32 || small.Bounds().Dy() < 32 {
		return 0
	}
	bin := raster.AdaptiveThresholdInv(small, 11, 3)

	bestAngle, bestScore := 0.0, -1.0
	for a := -p.cfg.MaxSkewDegrees; a <= p.cfg.MaxSkewDegrees+1e-9; a += 0.5 {
		score := projectionVariance(bin, a)
		if score > bestScore {
			bestScore = score
			bestAngle = a
		}
	}
	return bestAngle
}

// projectionVariance accumulates the row projection of the mask sheared by
// the given angle and returns its variance.
func projectionVariance(m *domain.Mask, degrees float64) float64 {
	tan := math.Tan(degrees * math.Pi / 180)
	counts := make([]float64, m.H)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.Pix[y*m.W+x] == 0 {
				continue
			}
			ry := y + int(float64(x)*tan)
			if ry >= 0 && ry < m.H {
				counts[ry]++
			}
		}
	}
	mean := 0.0
	for _, c := range counts {
		mean += c
	}
	mean /= float64(len(counts))
	v := 0.0
	for _, c := range counts {
		d := c - mean
		v += d * d
	}
	return v / float64(len(counts))
}

// correctIllumination divides the page by a heavily blurred copy of itself,
// flattening gradients from uneven lighting.
func correctIllumination(gray *image.Gray) *image.Gray {
	sigma := float64(max(gray.Bounds().Dx(), gray.Bounds().Dy())) / 30
	if sigma < 8 {
		sigma = 8
	}
	background := toGray(imaging.Blur(gray, sigma))

	b := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			pix := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			bg := float64(background.GrayAt(x, y).Y)
			v := pix / (bg + 1e-6) * 255
			if v > 255 {
				v = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return out
}

// toGray converts any image to *image.Gray with a zero-origin bounds.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
