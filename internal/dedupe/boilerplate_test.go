package dedupe

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"billscan/internal/domain"
)

// testPage builds a white 200x100 page. A page is 100 rows, so the default
// 15% strip covers rows 0-14 at the top and 85-99 at the bottom. The header
// pattern, when drawn, is a black bar inside the top strip.
func testPage(withHeader bool) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	if withHeader {
		for y := 3; y < 10; y++ {
			for x := 20; x < 120; x++ {
				g.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return g
}

func headerCandidate(id, page int) domain.Candidate {
	return domain.Candidate{ID: id, Page: page, Description: "Acme Corp Invoice", Box: image.Rect(20, 3, 120, 10)}
}

func bodyCandidate(id, page int) domain.Candidate {
	return domain.Candidate{ID: id, Page: page, Description: "Steel Bolts M8", Box: image.Rect(20, 45, 120, 55)}
}

func TestFlagBoilerplate(t *testing.T) {
	d := New(DefaultConfig())

	t.Run("header repeated on every page flags header candidates only", func(t *testing.T) {
		pages := []*image.Gray{testPage(true), testPage(true), testPage(true)}
		cands := []domain.Candidate{
			headerCandidate(1, 0),
			headerCandidate(2, 1),
			headerCandidate(3, 2),
			bodyCandidate(4, 1),
		}
		flagged := d.FlagBoilerplate(pages, cands)
		assert.Equal(t, 3, flagged)
		assert.True(t, cands[0].Boilerplate)
		assert.True(t, cands[1].Boilerplate)
		assert.True(t, cands[2].Boilerplate)
		assert.False(t, cands[3].Boilerplate)
	})

	t.Run("header on a single page is not boilerplate", func(t *testing.T) {
		pages := []*image.Gray{testPage(true), testPage(false), testPage(false)}
		cands := []domain.Candidate{headerCandidate(1, 0)}
		flagged := d.FlagBoilerplate(pages, cands)
		assert.Zero(t, flagged)
		assert.False(t, cands[0].Boilerplate)
	})

	t.Run("single-page documents never flag", func(t *testing.T) {
		pages := []*image.Gray{testPage(true)}
		cands := []domain.Candidate{headerCandidate(1, 0)}
		flagged := d.FlagBoilerplate(pages, cands)
		assert.Zero(t, flagged)
		assert.False(t, cands[0].Boilerplate)
	})
}
