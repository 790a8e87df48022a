package grid

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billscan/internal/domain"
)

// ruledRegion builds a 200x150 structure mask with full-length rules at the
// given row and column offsets.
func ruledRegion(hRules, vRules []int) *domain.Region {
	const w, h = 200, 150
	m := domain.NewMask(w, h)
	for _, y := range hRules {
		for x := 0; x < w; x++ {
			m.Set(x, y)
		}
	}
	for _, x := range vRules {
		for y := 0; y < h; y++ {
			m.Set(x, y)
		}
	}
	return &domain.Region{Page: 0, Bounds: image.Rect(0, 0, w, h), Mask: m}
}

func TestSegment(t *testing.T) {
	s := New(DefaultConfig())

	t.Run("bands are the strips between rules", func(t *testing.T) {
		region := ruledRegion([]int{0, 50, 100, 149}, []int{0, 100, 199})
		rows, cols := s.Segment(region)

		require.Len(t, rows, 3)
		assert.Equal(t, domain.Band{Start: 1, End: 50}, rows[0])
		assert.Equal(t, domain.Band{Start: 51, End: 100}, rows[1])
		assert.Equal(t, domain.Band{Start: 101, End: 149}, rows[2])

		require.Len(t, cols, 2)
		assert.Equal(t, domain.Band{Start: 1, End: 100}, cols[0])
		assert.Equal(t, domain.Band{Start: 101, End: 199}, cols[1])
	})

	t.Run("leading and trailing strips count as bands", func(t *testing.T) {
		region := ruledRegion([]int{75}, []int{100})
		rows, cols := s.Segment(region)

		require.Len(t, rows, 2)
		assert.Equal(t, domain.Band{Start: 0, End: 75}, rows[0])
		assert.Equal(t, domain.Band{Start: 76, End: 150}, rows[1])

		require.Len(t, cols, 2)
		assert.Equal(t, domain.Band{Start: 0, End: 100}, cols[0])
		assert.Equal(t, domain.Band{Start: 101, End: 200}, cols[1])
	})

	t.Run("narrow gaps are dropped as noise", func(t *testing.T) {
		// Rules 8 px apart leave a 7 px gap, below the 12 px row minimum.
		region := ruledRegion([]int{0, 8, 80, 149}, []int{0, 199})
		rows, _ := s.Segment(region)

		require.Len(t, rows, 2)
		assert.Equal(t, domain.Band{Start: 9, End: 80}, rows[0])
		assert.Equal(t, domain.Band{Start: 81, End: 149}, rows[1])
	})

	t.Run("no interior rules yields one full-span band per axis", func(t *testing.T) {
		region := &domain.Region{
			Page:   0,
			Bounds: image.Rect(0, 0, 200, 150),
			Mask:   domain.NewMask(200, 150),
		}
		rows, cols := s.Segment(region)

		require.Len(t, rows, 1)
		assert.Equal(t, domain.Band{Start: 0, End: 150}, rows[0])
		require.Len(t, cols, 1)
		assert.Equal(t, domain.Band{Start: 0, End: 200}, cols[0])
	})
}
