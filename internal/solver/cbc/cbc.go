// Package cbc runs the COIN-OR CBC command-line solver over a CPLEX-LP
// model file written to a temp directory, then parses the solution file it
// leaves behind.
package cbc

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"billscan/internal/domain"
	"billscan/internal/port"
)

// Solver invokes the cbc binary.
type Solver struct {
	// Binary is the executable name or path; defaults to "cbc".
	Binary string
}

// New returns a Solver using the given binary, or "cbc" when empty.
func New(binary string) *Solver {
	if binary == "" {
		binary = "cbc"
	}
	return &Solver{Binary: binary}
}

// Available reports whether the solver binary can be found on PATH.
func (s *Solver) Available() bool {
	_, err := exec.LookPath(s.Binary)
	return err == nil
}

// Solve writes the model in LP format, runs cbc, and parses the solution.
// Returns domain.ErrSolverUnavailable when the binary is missing; other
// failures wrap the underlying cause.
func (s *Solver) Solve(ctx context.Context, m *port.Model) (*port.Solution, error) {
	if _, err := exec.LookPath(s.Binary); err != nil {
		return nil, domain.ErrSolverUnavailable
	}

	dir, err := os.MkdirTemp("", "cbc-*")
	if err != nil {
		return nil, fmt.Errorf("solver workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	if err := os.WriteFile(lpPath, []byte(writeLP(m)), 0o600); err != nil {
		return nil, fmt.Errorf("write model: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.Binary, lpPath, "max", "branch", "printingOptions", "all", "solution", solPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("cbc: %w: %s", err, firstLine(out))
	}

	return parseSolution(solPath)
}

// writeLP renders the model in CPLEX-LP format. Objective sense is always
// maximize; the cbc invocation passes "max" to match.
func writeLP(m *port.Model) string {
	var b strings.Builder
	b.WriteString("\\Problem name: ")
	b.WriteString(m.Name)
	b.WriteString("\nMaximize\nobj:")
	writeTerms(&b, m.Objective)
	b.WriteString("\nSubject To\n")
	for _, c := range m.Constraints {
		b.WriteString(c.Name)
		b.WriteString(":")
		writeTerms(&b, c.Terms)
		b.WriteString(" ")
		b.WriteString(string(c.Sense))
		b.WriteString(" ")
		b.WriteString(formatFloat(c.RHS))
		b.WriteString("\n")
	}

	var binaries, continuous []port.Variable
	for _, v := range m.Variables {
		if v.Binary {
			binaries = append(binaries, v)
		} else {
			continuous = append(continuous, v)
		}
	}
	if len(continuous) > 0 {
		b.WriteString("Bounds\n")
		for _, v := range continuous {
			fmt.Fprintf(&b, "%s >= %s\n", v.Name, formatFloat(v.Lower))
		}
	}
	if len(binaries) > 0 {
		b.WriteString("Binaries\n")
		for _, v := range binaries {
			b.WriteString(v.Name)
			b.WriteString("\n")
		}
	}
	b.WriteString("End\n")
	return b.String()
}

func writeTerms(b *strings.Builder, terms []port.Term) {
	for _, t := range terms {
		if t.Coeff >= 0 {
			b.WriteString(" +")
		} else {
			b.WriteString(" -")
		}
		b.WriteString(formatFloat(abs(t.Coeff)))
		b.WriteString(" ")
		b.WriteString(t.Var)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// parseSolution reads cbc's solution file. The header line carries the
// verdict ("Optimal - objective value N" or "Infeasible - ..."), followed
// by one line per nonzero variable: index, name, value, reduced cost.
func parseSolution(path string) (*port.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, fmt.Errorf("read solution: empty file")
	}
	header := sc.Text()
	sol := &port.Solution{Values: make(map[string]float64)}

	switch {
	case strings.HasPrefix(header, "Optimal"):
		sol.Status = port.SolutionOptimal
		if i := strings.LastIndexByte(header, ' '); i >= 0 {
			sol.Objective, _ = strconv.ParseFloat(header[i+1:], 64)
		}
	case strings.HasPrefix(header, "Infeasible"):
		sol.Status = port.SolutionInfeasible
		return sol, nil
	default:
		return nil, fmt.Errorf("cbc: unexpected verdict %q", header)
	}

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		sol.Values[fields[1]] = v
	}
	return sol, sc.Err()
}
