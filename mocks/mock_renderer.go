package mocks

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"
)

// MockRenderer is a mock implementation of port.Renderer.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, doc []byte, dpi int) ([]image.Image, error) {
	args := m.Called(ctx, doc, dpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]image.Image), args.Error(1)
}
