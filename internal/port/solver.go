package port

import "context"

// ConstraintSense is the relation between a constraint expression and its RHS.
type ConstraintSense string

const (
	SenseLE ConstraintSense = "<="
	SenseGE ConstraintSense = ">="
	SenseEQ ConstraintSense = "="
)

// Term is one coefficient·variable pair in a linear expression.
type Term struct {
	Var   string
	Coeff float64
}

// Variable declares one decision variable of the model.
type Variable struct {
	Name   string
	Binary bool
	// Lower bound for continuous variables; binaries are always [0, 1].
	Lower float64
}

// Constraint is a named linear constraint.
type Constraint struct {
	Name  string
	Terms []Term
	Sense ConstraintSense
	RHS   float64
}

// Model is a mixed-integer linear program to be maximized.
type Model struct {
	Name        string
	Objective   []Term
	Variables   []Variable
	Constraints []Constraint
}

// SolutionStatus reports the solver's verdict.
type SolutionStatus string

const (
	SolutionOptimal    SolutionStatus = "optimal"
	SolutionInfeasible SolutionStatus = "infeasible"
)

// Solution is a variable assignment with its objective value.
type Solution struct {
	Status    SolutionStatus
	Objective float64
	Values    map[string]float64
}

// Solver solves a Model. Implementations must return
// domain.ErrSolverUnavailable when the solver backend is missing, as
// distinct from returning a Solution with SolutionInfeasible.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}
