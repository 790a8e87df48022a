package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"billscan/internal/port"
)

// MockSolver is a mock implementation of port.Solver.
type MockSolver struct {
	mock.Mock
}

func (m *MockSolver) Solve(ctx context.Context, model *port.Model) (*port.Solution, error) {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Solution), args.Error(1)
}
