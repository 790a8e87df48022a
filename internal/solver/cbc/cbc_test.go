package cbc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billscan/internal/port"
)

func testModel() *port.Model {
	return &port.Model{
		Name: "reconcile",
		Objective: []port.Term{
			{Var: "x_1", Coeff: 80},
			{Var: "dev_pos", Coeff: -10},
		},
		Variables: []port.Variable{
			{Name: "x_1", Binary: true},
			{Name: "dev_pos", Lower: 0},
		},
		Constraints: []port.Constraint{
			{
				Name:  "balance",
				Terms: []port.Term{{Var: "x_1", Coeff: 450}, {Var: "dev_pos", Coeff: -1}},
				Sense: port.SenseEQ,
				RHS:   480,
			},
		},
	}
}

func TestWriteLP(t *testing.T) {
	lp := writeLP(testModel())

	assert.Contains(t, lp, "Maximize")
	assert.Contains(t, lp, "obj: +80 x_1 -10 dev_pos")
	assert.Contains(t, lp, "Subject To")
	assert.Contains(t, lp, "balance: +450 x_1 -1 dev_pos = 480")
	assert.Contains(t, lp, "Bounds\ndev_pos >= 0")
	assert.Contains(t, lp, "Binaries\nx_1")
	assert.Contains(t, lp, "End")
}

func writeTempSolution(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.sol")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseSolution(t *testing.T) {
	t.Run("optimal", func(t *testing.T) {
		path := writeTempSolution(t, "Optimal - objective value 50\n"+
			"      0 x_1                 1                 80\n"+
			"      1 dev_pos            30                -10\n")
		sol, err := parseSolution(path)
		require.NoError(t, err)
		assert.Equal(t, port.SolutionOptimal, sol.Status)
		assert.InDelta(t, 50.0, sol.Objective, 1e-9)
		assert.InDelta(t, 1.0, sol.Values["x_1"], 1e-9)
		assert.InDelta(t, 30.0, sol.Values["dev_pos"], 1e-9)
	})

	t.Run("infeasible", func(t *testing.T) {
		path := writeTempSolution(t, "Infeasible - objective value 0\n")
		sol, err := parseSolution(path)
		require.NoError(t, err)
		assert.Equal(t, port.SolutionInfeasible, sol.Status)
	})

	t.Run("unexpected verdict", func(t *testing.T) {
		path := writeTempSolution(t, "Stopped on time limit\n")
		_, err := parseSolution(path)
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTempSolution(t, "")
		_, err := parseSolution(path)
		assert.Error(t, err)
	})
}
