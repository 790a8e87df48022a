package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"billscan/internal/domain"
	"billscan/internal/port"
	"billscan/mocks"
)

func fp(v float64) *float64 { return &v }

func cand(id, group int, amount *float64, conf float64) domain.Candidate {
	return domain.Candidate{ID: id, Group: group, Amount: amount, Confidence: conf}
}

// fourCandidates is the running example: two copies of a 450 item (group 1),
// one 50 item, one amountless note.
func fourCandidates() []domain.Candidate {
	return []domain.Candidate{
		cand(1, 1, fp(450), 80),
		cand(2, 1, fp(450), 95),
		cand(3, 3, fp(50), 90),
		cand(4, 4, nil, 99),
	}
}

func TestReconcileNoTarget(t *testing.T) {
	r := New(DefaultConfig(), nil)

	res, warnings := r.Reconcile(context.Background(), fourCandidates(), nil)
	assert.Empty(t, warnings)
	assert.Equal(t, domain.ReconcileOK, res.Status)
	// Highest-confidence member per group; amountless candidates are not
	// selectable.
	assert.Equal(t, []int{2, 3}, res.SelectedIDs)
	assert.InDelta(t, 500.0, res.SelectedTotal, 1e-9)
	assert.Zero(t, res.Deviation)
}

func TestReconcileNoTargetTiesGoToLowestID(t *testing.T) {
	r := New(DefaultConfig(), nil)
	cands := []domain.Candidate{
		cand(5, 1, fp(100), 90),
		cand(2, 1, fp(100), 90),
	}
	res, _ := r.Reconcile(context.Background(), cands, nil)
	assert.Equal(t, []int{2}, res.SelectedIDs)
}

func TestReconcileWithSolver(t *testing.T) {
	solver := new(mocks.MockSolver)
	solver.On("Solve", mock.Anything, mock.Anything).Return(&port.Solution{
		Status:    port.SolutionOptimal,
		Objective: 185,
		Values:    map[string]float64{"x_2": 1, "x_3": 1, "dev_pos": 20, "dev_neg": 0},
	}, nil)

	r := New(DefaultConfig(), solver)
	res, warnings := r.Reconcile(context.Background(), fourCandidates(), fp(480))
	assert.Empty(t, warnings)
	assert.Equal(t, domain.ReconcileOK, res.Status)
	assert.Equal(t, []int{2, 3}, res.SelectedIDs)
	assert.InDelta(t, 500.0, res.SelectedTotal, 1e-9)
	assert.InDelta(t, 20.0, res.Deviation, 1e-9)
	solver.AssertExpectations(t)
}

func TestReconcileSolverUnavailableFallsBack(t *testing.T) {
	solver := new(mocks.MockSolver)
	solver.On("Solve", mock.Anything, mock.Anything).Return(nil, domain.ErrSolverUnavailable)

	r := New(DefaultConfig(), solver)
	res, warnings := r.Reconcile(context.Background(), fourCandidates(), fp(480))
	assert.Equal(t, domain.ReconcileOK, res.Status)
	assert.Equal(t, []int{2, 3}, res.SelectedIDs)
	assert.InDelta(t, 20.0, res.Deviation, 1e-9)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnSolverUnavailable, warnings[0].Category)
}

func TestReconcileSolverTimeoutIsInfeasible(t *testing.T) {
	solver := new(mocks.MockSolver)
	solver.On("Solve", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	r := New(DefaultConfig(), solver)
	res, warnings := r.Reconcile(context.Background(), fourCandidates(), fp(480))
	assert.Equal(t, domain.ReconcileInfeasible, res.Status)
	assert.Equal(t, []int{2, 3}, res.SelectedIDs)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnSolverInfeasible, warnings[0].Category)
}

func TestReconcileSolverFailureMessageIsSanitized(t *testing.T) {
	solver := new(mocks.MockSolver)
	solver.On("Solve", mock.Anything, mock.Anything).Return(nil, errors.New("cbc: exit status 1: free(): invalid pointer"))

	r := New(DefaultConfig(), solver)
	res, warnings := r.Reconcile(context.Background(), fourCandidates(), fp(480))
	assert.Equal(t, domain.ReconcileOK, res.Status)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnSolverUnavailable, warnings[0].Category)
	assert.NotContains(t, warnings[0].Message, "exit status")
	assert.NotContains(t, warnings[0].Message, "invalid pointer")
}

func TestReconcileInfeasibleFallsBack(t *testing.T) {
	solver := new(mocks.MockSolver)
	solver.On("Solve", mock.Anything, mock.Anything).Return(&port.Solution{
		Status: port.SolutionInfeasible,
	}, nil)

	r := New(DefaultConfig(), solver)
	res, warnings := r.Reconcile(context.Background(), fourCandidates(), fp(480))
	assert.Equal(t, domain.ReconcileInfeasible, res.Status)
	assert.Equal(t, []int{2, 3}, res.SelectedIDs)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnSolverInfeasible, warnings[0].Category)
}

func TestReconcileExcludesBoilerplate(t *testing.T) {
	r := New(DefaultConfig(), nil)
	cands := fourCandidates()
	cands[1].Boilerplate = true

	res, _ := r.Reconcile(context.Background(), cands, nil)
	assert.Equal(t, []int{1, 3}, res.SelectedIDs)
}

func TestBuildModel(t *testing.T) {
	m := buildModel(fourCandidates(), 480, 10)

	t.Run("only amount-bearing candidates become binaries", func(t *testing.T) {
		var binaries []string
		for _, v := range m.Variables {
			if v.Binary {
				binaries = append(binaries, v.Name)
			}
		}
		assert.ElementsMatch(t, []string{"x_1", "x_2", "x_3"}, binaries)
	})

	t.Run("deviation variables are penalized continuous", func(t *testing.T) {
		var penalties []float64
		for _, term := range m.Objective {
			if term.Var == "dev_pos" || term.Var == "dev_neg" {
				penalties = append(penalties, term.Coeff)
			}
		}
		assert.Equal(t, []float64{-10, -10}, penalties)
	})

	t.Run("balance constraint carries amounts and target", func(t *testing.T) {
		require.NotEmpty(t, m.Constraints)
		balance := m.Constraints[0]
		assert.Equal(t, "balance", balance.Name)
		assert.Equal(t, port.SenseEQ, balance.Sense)
		assert.InDelta(t, 480.0, balance.RHS, 1e-9)
	})

	t.Run("multi-member duplicate groups get at-most-one constraints", func(t *testing.T) {
		var group *port.Constraint
		for i := range m.Constraints {
			if m.Constraints[i].Name == "group_1" {
				group = &m.Constraints[i]
			}
		}
		require.NotNil(t, group)
		assert.Equal(t, port.SenseLE, group.Sense)
		assert.InDelta(t, 1.0, group.RHS, 1e-9)
		assert.Len(t, group.Terms, 2)
	})

	t.Run("singleton groups get no constraint", func(t *testing.T) {
		for _, c := range m.Constraints {
			assert.NotEqual(t, "group_3", c.Name)
		}
	})
}
