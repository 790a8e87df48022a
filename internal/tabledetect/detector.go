// Package tabledetect locates rectangular table structures on a page via
// rule-line morphology: long horizontal and vertical strokes are isolated,
// merged, and grouped into connected regions.
package tabledetect

import (
	"image"
	"sort"

	"billscan/internal/domain"
	"billscan/internal/raster"
)

// Config holds detector tunables.
type Config struct {
	// MinTableArea is the minimum bounding-box area in px² for a region.
	MinTableArea int
	// RuleKernel is the opening kernel length isolating rule lines.
	RuleKernel int
	// OpenIterations controls how aggressively text is eroded away.
	OpenIterations int
	// CloseKernel / CloseIterations bridge small gaps in broken rules.
	CloseKernel     int
	CloseIterations int
	// DilateKernel / DilateIterations connect nearby structure fragments.
	DilateKernel     int
	DilateIterations int
	// ThresholdWindow / ThresholdC parameterize adaptive binarization.
	ThresholdWindow int
	ThresholdC      int
	// OverlapIoU is the intersection-over-union above which two regions
	// collapse into the larger one.
	OverlapIoU float64
}

// DefaultConfig returns detector defaults tuned for 300 DPI pages.
func DefaultConfig() Config {
	return Config{
		MinTableArea:     3000,
		RuleKernel:       25,
		OpenIterations:   2,
		CloseKernel:      5,
		CloseIterations:  5,
		DilateKernel:     10,
		DilateIterations: 2,
		ThresholdWindow:  11,
		ThresholdC:       3,
		OverlapIoU:       0.5,
	}
}

// Detector finds table regions on preprocessed pages.
type Detector struct {
	cfg Config
}

// New creates a Detector.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect returns the table regions of one page, ordered top-to-bottom then
// left-to-right. An empty result is a normal outcome, never an error.
func (d *Detector) Detect(gray *image.Gray, page int) []domain.Region {
	bin := raster.AdaptiveThresholdInv(gray, d.cfg.ThresholdWindow, d.cfg.ThresholdC)

	horizontal := raster.OpenHorizontal(bin, d.cfg.RuleKernel, d.cfg.OpenIterations)
	vertical := raster.OpenVertical(bin, d.cfg.RuleKernel, d.cfg.OpenIterations)

	structure := raster.Union(horizontal, vertical)
	structure = raster.CloseRect(structure, d.cfg.CloseKernel, d.cfg.CloseIterations)
	// Dilation only groups fragments into components; the stored mask is
	// the undilated structure so rule lines keep their true thickness for
	// grid projection.
	grouped := raster.DilateRect(structure, d.cfg.DilateKernel, d.cfg.DilateIterations)

	var regions []domain.Region
	for _, comp := range raster.Components(grouped) {
		if comp.Bounds.Dx()*comp.Bounds.Dy() < d.cfg.MinTableArea {
			continue
		}
		regions = append(regions, domain.Region{
			Page:   page,
			Bounds: comp.Bounds,
			Mask:   cropMask(structure, comp.Bounds),
		})
	}

	regions = collapseOverlaps(regions, d.cfg.OverlapIoU)

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Bounds.Min.Y != regions[j].Bounds.Min.Y {
			return regions[i].Bounds.Min.Y < regions[j].Bounds.Min.Y
		}
		return regions[i].Bounds.Min.X < regions[j].Bounds.Min.X
	})
	return regions
}

// collapseOverlaps drops the smaller of any pair of regions whose IoU
// exceeds the threshold.
func collapseOverlaps(regions []domain.Region, threshold float64) []domain.Region {
	dropped := make([]bool, len(regions))
	for i := 0; i < len(regions); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(regions); j++ {
			if dropped[j] {
				continue
			}
			if iou(regions[i].Bounds, regions[j].Bounds) < threshold {
				continue
			}
			if area(regions[i].Bounds) >= area(regions[j].Bounds) {
				dropped[j] = true
			} else {
				dropped[i] = true
				break
			}
		}
	}
	kept := regions[:0]
	for i, r := range regions {
		if !dropped[i] {
			kept = append(kept, r)
		}
	}
	return kept
}

// cropMask copies the window r out of m.
func cropMask(m *domain.Mask, r image.Rectangle) *domain.Mask {
	out := domain.NewMask(r.Dx(), r.Dy())
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			if m.At(r.Min.X+x, r.Min.Y+y) {
				out.Set(x, y)
			}
		}
	}
	return out
}

func area(r image.Rectangle) int { return r.Dx() * r.Dy() }

func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	union := area(a) + area(b) - area(inter)
	return float64(area(inter)) / float64(union)
}
