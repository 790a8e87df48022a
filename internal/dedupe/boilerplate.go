package dedupe

import (
	"image"

	"github.com/disintegration/imaging"

	"billscan/internal/domain"
	"billscan/internal/raster"
)

// stripKind selects the top or bottom sample band of a page.
type stripKind int

const (
	stripTop stripKind = iota
	stripBottom
)

// FlagBoilerplate marks candidates that sit inside page strips repeated
// across the document, such as headers and footers. The top and bottom
// StripFraction of each page is correlated against the first page's
// strips; a strip repeated on at least MinRepeatPages pages with
// correlation above the threshold is boilerplate on every page where it
// matches. Returns the number of candidates flagged. Single-page documents
// are never flagged.
func (d *Deduper) FlagBoilerplate(pages []*image.Gray, candidates []domain.Candidate) int {
	if len(pages) < d.cfg.MinRepeatPages {
		return 0
	}

	topMatch := d.matchedPages(pages, stripTop)
	bottomMatch := d.matchedPages(pages, stripBottom)

	flagged := 0
	for i := range candidates {
		page := candidates[i].Page
		if page < 0 || page >= len(pages) {
			continue
		}
		h := pages[page].Bounds().Dy()
		stripH := int(float64(h) * d.cfg.StripFraction)
		cy := (candidates[i].Box.Min.Y + candidates[i].Box.Max.Y) / 2
		inTop := topMatch[page] && cy < stripH
		inBottom := bottomMatch[page] && cy >= h-stripH
		if inTop || inBottom {
			candidates[i].Boilerplate = true
			flagged++
		}
	}
	return flagged
}

// matchedPages reports, per page, whether its strip correlates with the
// reference strip from page 0, provided enough pages match overall.
func (d *Deduper) matchedPages(pages []*image.Gray, kind stripKind) []bool {
	match := make([]bool, len(pages))
	ref := d.strip(pages[0], kind)
	if ref == nil {
		return match
	}
	match[0] = true
	count := 1
	for i := 1; i < len(pages); i++ {
		s := d.strip(pages[i], kind)
		if s == nil {
			continue
		}
		s = resizeToRef(s, ref)
		if raster.NCC(ref, s) > d.cfg.CorrelationThreshold {
			match[i] = true
			count++
		}
	}
	if count < d.cfg.MinRepeatPages {
		for i := range match {
			match[i] = false
		}
	}
	return match
}

func (d *Deduper) strip(page *image.Gray, kind stripKind) *image.Gray {
	b := page.Bounds()
	stripH := int(float64(b.Dy()) * d.cfg.StripFraction)
	if stripH < 1 {
		return nil
	}
	var r image.Rectangle
	if kind == stripTop {
		r = image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+stripH)
	} else {
		r = image.Rect(b.Min.X, b.Max.Y-stripH, b.Max.X, b.Max.Y)
	}
	sub := page.SubImage(r).(*image.Gray)
	// Re-anchor at the origin so strips from different pages compare
	// coordinate-free.
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			out.SetGray(x, y, sub.GrayAt(r.Min.X+x, r.Min.Y+y))
		}
	}
	return out
}

func resizeToRef(s, ref *image.Gray) *image.Gray {
	if s.Bounds().Dx() == ref.Bounds().Dx() && s.Bounds().Dy() == ref.Bounds().Dy() {
		return s
	}
	resized := imaging.Resize(s, ref.Bounds().Dx(), ref.Bounds().Dy(), imaging.Linear)
	out := image.NewGray(resized.Bounds())
	for y := 0; y < resized.Bounds().Dy(); y++ {
		for x := 0; x < resized.Bounds().Dx(); x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			out.Pix[y*out.Stride+x] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
		}
	}
	return out
}
