package reconcile

import (
	"fmt"
	"sort"

	"billscan/internal/domain"
	"billscan/internal/port"
)

// buildModel translates candidate selection with a target total into a
// mixed-integer program:
//
//	maximize   Σ conf_i·x_i − penalty·(devPos + devNeg)
//	subject to Σ amount_i·x_i − target = devPos − devNeg
//	           Σ_{i ∈ group} x_i ≤ 1        for every duplicate group
//	           x_i ∈ {0,1}, devPos, devNeg ≥ 0
//
// Only candidates with a parsed amount and no boilerplate flag become
// variables. Deviation is penalized, never bounded: a selection that
// misses the target remains feasible and simply scores worse.
func buildModel(candidates []domain.Candidate, target, penalty float64) *port.Model {
	m := &port.Model{Name: "reconcile"}

	balance := port.Constraint{
		Name:  "balance",
		Sense: port.SenseEQ,
		RHS:   target,
	}
	groups := make(map[int][]port.Term)

	for _, c := range candidates {
		if c.Amount == nil || c.Boilerplate {
			continue
		}
		name := fmt.Sprintf("x_%d", c.ID)
		m.Variables = append(m.Variables, port.Variable{Name: name, Binary: true})
		m.Objective = append(m.Objective, port.Term{Var: name, Coeff: c.Confidence})
		balance.Terms = append(balance.Terms, port.Term{Var: name, Coeff: *c.Amount})
		groups[c.Group] = append(groups[c.Group], port.Term{Var: name, Coeff: 1})
	}

	m.Variables = append(m.Variables,
		port.Variable{Name: "dev_pos", Binary: false, Lower: 0},
		port.Variable{Name: "dev_neg", Binary: false, Lower: 0},
	)
	m.Objective = append(m.Objective,
		port.Term{Var: "dev_pos", Coeff: -penalty},
		port.Term{Var: "dev_neg", Coeff: -penalty},
	)
	balance.Terms = append(balance.Terms,
		port.Term{Var: "dev_pos", Coeff: -1},
		port.Term{Var: "dev_neg", Coeff: 1},
	)
	m.Constraints = append(m.Constraints, balance)

	gids := make([]int, 0, len(groups))
	for gid := range groups {
		gids = append(gids, gid)
	}
	sort.Ints(gids)
	for _, gid := range gids {
		terms := groups[gid]
		if len(terms) < 2 {
			continue
		}
		m.Constraints = append(m.Constraints, port.Constraint{
			Name:  fmt.Sprintf("group_%d", gid),
			Terms: terms,
			Sense: port.SenseLE,
			RHS:   1,
		})
	}
	return m
}
