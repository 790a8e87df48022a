// Package grid derives row and column bands inside a table region from the
// density projections of its structure mask. Bands are the content strips
// between rule lines, never the rules themselves.
package grid

import (
	"billscan/internal/domain"
	"billscan/internal/raster"
)

// Config holds segmentation tunables.
type Config struct {
	// MinRowHeight / MinColWidth drop noise bands below these sizes.
	MinRowHeight int
	MinColWidth  int
	// RuleThresholdFrac is the fraction of the peak projection above which
	// a run counts as a rule line.
	RuleThresholdFrac float64
}

// DefaultConfig returns segmentation defaults tuned for 300 DPI tables.
func DefaultConfig() Config {
	return Config{
		MinRowHeight:      12,
		MinColWidth:       10,
		RuleThresholdFrac: 0.05,
	}
}

// Segmenter splits regions into row and column bands.
type Segmenter struct {
	cfg Config
}

// New creates a Segmenter.
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Segment returns the ordered row and column bands of a region, in region
// coordinates. A region with no interior rules yields exactly one band per
// axis spanning the whole region.
func (s *Segmenter) Segment(region *domain.Region) (rows, cols []domain.Band) {
	rows = bandsFromProjection(raster.ProjectRows(region.Mask), s.cfg.RuleThresholdFrac, s.cfg.MinRowHeight)
	cols = bandsFromProjection(raster.ProjectCols(region.Mask), s.cfg.RuleThresholdFrac, s.cfg.MinColWidth)

	if len(rows) == 0 {
		rows = []domain.Band{{Start: 0, End: region.Mask.H}}
	}
	if len(cols) == 0 {
		cols = []domain.Band{{Start: 0, End: region.Mask.W}}
	}
	return rows, cols
}

// bandsFromProjection locates rule runs (projection above threshold) and
// returns the gaps between consecutive runs, including the strips before
// the first rule and after the last. Gaps narrower than minSize are noise.
func bandsFromProjection(proj []int, thresholdFrac float64, minSize int) []domain.Band {
	if len(proj) == 0 {
		return nil
	}
	peak := 0
	for _, v := range proj {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return nil
	}
	threshold := float64(peak) * thresholdFrac

	rules := runsAbove(proj, threshold)
	if len(rules) == 0 {
		return nil
	}

	var bands []domain.Band
	cursor := 0
	for _, rule := range rules {
		if rule.Start-cursor >= minSize {
			bands = append(bands, domain.Band{Start: cursor, End: rule.Start})
		}
		cursor = rule.End
	}
	if len(proj)-cursor >= minSize {
		bands = append(bands, domain.Band{Start: cursor, End: len(proj)})
	}
	return bands
}

// runsAbove returns the contiguous runs of proj strictly above threshold.
func runsAbove(proj []int, threshold float64) []domain.Band {
	var runs []domain.Band
	inRun := false
	start := 0
	for i, v := range proj {
		above := float64(v) > threshold
		switch {
		case above && !inRun:
			start, inRun = i, true
		case !above && inRun:
			runs = append(runs, domain.Band{Start: start, End: i})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, domain.Band{Start: start, End: len(proj)})
	}
	return runs
}
