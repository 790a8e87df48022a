// Package assemble turns the OCR'd cells of a table region into candidate
// line items: one per row, with the amount taken from the rightmost
// numeric-looking column and the description from the rest, followed by a
// continuation-row merge for wrapped descriptions.
package assemble

import (
	"image"
	"strings"

	"billscan/internal/domain"
)

// Config holds assembly tunables.
type Config struct {
	// MinDescriptionLen is the shortest description that can form a
	// continuation row.
	MinDescriptionLen int
	// MergeAlignTolerancePx is the maximum left-edge offset between a
	// continuation row and its predecessor.
	MergeAlignTolerancePx int
	// MergeMaxGapPx is the maximum vertical gap below the predecessor.
	MergeMaxGapPx int
	// MergeMinGapPx allows slight bounding-box overlap.
	MergeMinGapPx int
}

// DefaultConfig returns assembly defaults tuned for 300 DPI tables.
func DefaultConfig() Config {
	return Config{
		MinDescriptionLen:     3,
		MergeAlignTolerancePx: 20,
		MergeMaxGapPx:         10,
		MergeMinGapPx:         -5,
	}
}

// Assembler builds candidates from cells.
type Assembler struct {
	cfg    Config
	nextID int
}

// New creates an Assembler. Candidate ids are assigned sequentially from 1
// in row-major encounter order, which makes tie-breaking reproducible.
func New(cfg Config) *Assembler {
	return &Assembler{cfg: cfg, nextID: 1}
}

// FromCells assembles raw candidates from the row-major cells of one
// region. nRows and nCols describe the grid shape; cells missing tokens
// contribute nothing. Rows with neither description nor amount are skipped.
func (a *Assembler) FromCells(cells []domain.Cell, nRows, nCols, page int) []domain.Candidate {
	byRow := make([][]domain.Cell, nRows)
	for _, c := range cells {
		if c.Row >= 0 && c.Row < nRows {
			byRow[c.Row] = append(byRow[c.Row], c)
		}
	}

	var candidates []domain.Candidate
	for _, rowCells := range byRow {
		cand, ok := a.assembleRow(rowCells, page)
		if ok {
			candidates = append(candidates, cand)
		}
	}
	return candidates
}

// assembleRow maps one row's cells to a candidate. The amount is the first
// parsable monetary value scanning columns right-to-left; the description
// concatenates the tokens of every other column.
func (a *Assembler) assembleRow(rowCells []domain.Cell, page int) (domain.Candidate, bool) {
	if len(rowCells) == 0 {
		return domain.Candidate{}, false
	}

	amountCol := -1
	var amount float64
	for i := len(rowCells) - 1; i >= 0; i-- {
		if v, ok := ParseAmount(rowCells[i].Text()); ok {
			amountCol = rowCells[i].Col
			amount = v
			break
		}
	}

	var descParts []string
	var confSum float64
	var tokenCount int
	box := image.Rectangle{}
	for _, cell := range rowCells {
		for _, t := range cell.Tokens {
			confSum += t.Confidence
			tokenCount++
		}
		if box.Empty() {
			box = cell.Bounds
		} else {
			box = box.Union(cell.Bounds)
		}
		if cell.Col == amountCol {
			continue
		}
		if text := cell.Text(); text != "" {
			descParts = append(descParts, text)
		}
	}

	cand := domain.Candidate{
		Page:        page,
		Description: strings.TrimSpace(strings.Join(descParts, " ")),
		Box:         box,
	}
	if amountCol >= 0 {
		cand.Amount = &amount
	}
	if tokenCount > 0 {
		cand.Confidence = confSum / float64(tokenCount)
	}

	if cand.Description == "" && cand.Amount == nil {
		return domain.Candidate{}, false
	}
	cand.ID = a.nextID
	a.nextID++
	return cand, true
}

// MergeContinuations folds wrapped description rows into their
// predecessors. A candidate with no parsable amount merges into the
// preceding candidate when its left edge aligns within the tolerance and
// the vertical gap is within bounds. The merged item keeps the
// predecessor's id, amount, and page, concatenates descriptions, keeps the
// higher non-nil confidence, and extends the bounding box. Running the
// merge again on its own output changes nothing.
func (a *Assembler) MergeContinuations(candidates []domain.Candidate) []domain.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	merged := make([]domain.Candidate, 0, len(candidates))
	merged = append(merged, candidates[0])
	for _, next := range candidates[1:] {
		prev := &merged[len(merged)-1]
		if a.isContinuation(prev, &next) {
			mergeInto(prev, &next)
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

func (a *Assembler) isContinuation(prev, next *domain.Candidate) bool {
	if next.Amount != nil {
		return false
	}
	if len(next.Description) < a.cfg.MinDescriptionLen {
		return false
	}
	if prev.Page != next.Page {
		return false
	}

	gap := next.Box.Min.Y - prev.Box.Max.Y
	if gap < a.cfg.MergeMinGapPx || gap > a.cfg.MergeMaxGapPx {
		return false
	}

	offset := next.Box.Min.X - prev.Box.Min.X
	if offset < 0 {
		offset = -offset
	}
	return offset <= a.cfg.MergeAlignTolerancePx
}

func mergeInto(prev, next *domain.Candidate) {
	if next.Description != "" {
		if prev.Description != "" {
			prev.Description += " " + next.Description
		} else {
			prev.Description = next.Description
		}
	}
	if next.Confidence > prev.Confidence {
		prev.Confidence = next.Confidence
	}
	prev.Box = prev.Box.Union(next.Box)
}
