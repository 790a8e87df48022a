package port

import (
	"context"
	"image"

	"billscan/internal/domain"
)

// OCREngine recognizes text in an image. Token granularity and the
// confidence scale are engine-defined; the core treats both as opaque.
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image) ([]domain.Token, error)
}
