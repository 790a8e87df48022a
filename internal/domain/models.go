package domain

import "image"

// Token is a single OCR word with its confidence and position.
// Confidence is on the engine's 0-100 scale and treated as opaque.
type Token struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"-"`
}

// Region is a detected table structure on one page. Bounds are in page
// coordinates; Mask covers Bounds and holds the rule structure only.
type Region struct {
	Page   int
	Bounds image.Rectangle
	Mask   *Mask
}

// Mask is a binary raster (0 or 255 per pixel), row-major.
type Mask struct {
	W, H int
	Pix  []uint8
}

// NewMask allocates a zeroed w×h mask.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Pix: make([]uint8, w*h)}
}

// At reports whether the pixel at (x, y) is set. Out-of-bounds reads are zero.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Pix[y*m.W+x] != 0
}

// Set marks the pixel at (x, y). Out-of-bounds writes are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.Pix[y*m.W+x] = 255
}

// Band is a contiguous half-open pixel interval [Start, End) along one axis,
// representing a table row or column content strip.
type Band struct {
	Start, End int
}

// Width returns the band extent in pixels.
func (b Band) Width() int { return b.End - b.Start }

// Center returns the band midpoint.
func (b Band) Center() float64 { return float64(b.Start+b.End) / 2 }

// Cell is the intersection of one row band and one column band, with the
// OCR tokens recognized inside it.
type Cell struct {
	Row, Col int
	Bounds   image.Rectangle // page coordinates
	Tokens   []Token
}

// Text joins the cell's token texts with single spaces.
func (c *Cell) Text() string {
	s := ""
	for i, t := range c.Tokens {
		if i > 0 {
			s += " "
		}
		s += t.Text
	}
	return s
}

// Candidate is one potential invoice line item. Description and Amount are
// combined during continuation-row merging; Boilerplate and Group are
// annotations added later and never change the assembled fields. Candidates
// are immutable once the reconciliation solver has run.
type Candidate struct {
	ID          int             `json:"id"`
	Page        int             `json:"page"`
	Description string          `json:"description"`
	Amount      *float64        `json:"amount"`
	Confidence  float64         `json:"confidence"`
	Box         image.Rectangle `json:"-"`

	// Boilerplate marks membership in a repeated header/footer band.
	Boilerplate bool `json:"-"`
	// Group is the duplicate-group label (smallest member id). At most one
	// member of a group may ever be selected.
	Group int `json:"duplicate_group"`
}

// ReconcileStatus reports the outcome of a reconciliation solve.
type ReconcileStatus string

const (
	ReconcileOK         ReconcileStatus = "ok"
	ReconcileInfeasible ReconcileStatus = "infeasible"
)

// ReconcileResult is the outcome of selecting a candidate subset against a
// target total. Deviation is signed: selected total minus target.
type ReconcileResult struct {
	Status        ReconcileStatus `json:"status"`
	SelectedIDs   []int           `json:"selected_ids"`
	SelectedTotal float64         `json:"selected_total"`
	Deviation     float64         `json:"deviation"`
}

// LineItem is one selected line item in the response payload.
type LineItem struct {
	ID          int      `json:"id"`
	Description string   `json:"item_name"`
	Amount      *float64 `json:"item_amount"`
	Confidence  float64  `json:"confidence"`
}

// PageItems groups selected line items by page.
type PageItems struct {
	PageNo    int        `json:"page_no"`
	BillItems []LineItem `json:"bill_items"`
}

// ExtractionResult is the full per-document output.
type ExtractionResult struct {
	PagewiseLineItems []PageItems     `json:"pagewise_line_items"`
	TotalItemCount    int             `json:"total_item_count"`
	ReconciledAmount  float64         `json:"reconciled_amount"`
	ReportedTotal     *float64        `json:"reported_total,omitempty"`
	Reconciliation    ReconcileResult `json:"reconciliation"`
	Warnings          []Warning       `json:"warnings,omitempty"`
}
