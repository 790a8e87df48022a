package port

import (
	"context"
	"image"
)

// Renderer rasterizes document bytes into ordered page images.
// Implementations must return domain.ErrRendererUnavailable when the
// rendering backend is missing and domain.ErrInvalidDocument when the
// bytes cannot be rendered.
type Renderer interface {
	Render(ctx context.Context, doc []byte, dpi int) ([]image.Image, error)
}
