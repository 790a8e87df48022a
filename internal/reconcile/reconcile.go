// Package reconcile selects the candidate subset that best explains a
// reported grand total: at most one member per duplicate group, maximizing
// total confidence minus a penalty on the gap between the selected sum and
// the target.
package reconcile

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"billscan/internal/domain"
	"billscan/internal/port"
)

// Config holds reconciliation tunables.
type Config struct {
	// DeviationPenalty is the objective cost per currency unit of gap
	// between the selected sum and the target.
	DeviationPenalty float64
	// SolveTimeout bounds a single solver invocation.
	SolveTimeout time.Duration
}

// DefaultConfig returns reconciliation defaults.
func DefaultConfig() Config {
	return Config{
		DeviationPenalty: 10,
		SolveTimeout:     20 * time.Second,
	}
}

// Reconciler runs candidate selection, with or without a target total.
type Reconciler struct {
	cfg    Config
	solver port.Solver
}

// New creates a Reconciler. The solver may be nil, in which case target
// reconciliation falls back to best-per-group selection.
func New(cfg Config, solver port.Solver) *Reconciler {
	return &Reconciler{cfg: cfg, solver: solver}
}

// Reconcile picks candidates against the target. With no target it selects
// the highest-confidence member of every duplicate group directly. With a
// target it builds the MIP and runs the solver. Every solver failure falls
// back to best-per-group selection: an infeasible model or a timeout
// reports status infeasible, a missing or failing solver reports an
// unavailable warning.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []domain.Candidate, target *float64) (domain.ReconcileResult, []domain.Warning) {
	eligible := eligibleCandidates(candidates)

	if target == nil {
		return r.selectBestPerGroup(eligible, 0, false), nil
	}

	if r.solver == nil {
		res := r.selectBestPerGroup(eligible, *target, true)
		return res, []domain.Warning{{
			Category: domain.WarnSolverUnavailable,
			Message:  "no solver configured, selected best candidate per group",
		}}
	}

	solveCtx, cancel := context.WithTimeout(ctx, r.cfg.SolveTimeout)
	defer cancel()

	model := buildModel(eligible, *target, r.cfg.DeviationPenalty)
	sol, err := r.solver.Solve(solveCtx, model)
	switch {
	case err == nil && sol.Status == port.SolutionOptimal:
		return resultFromSolution(eligible, sol, *target), nil
	case err == nil || errors.Is(err, domain.ErrSolverInfeasible):
		res := r.selectBestPerGroup(eligible, *target, true)
		res.Status = domain.ReconcileInfeasible
		return res, []domain.Warning{{
			Category: domain.WarnSolverInfeasible,
			Message:  "reconciliation model infeasible, selected best candidate per group",
		}}
	case errors.Is(err, context.DeadlineExceeded):
		res := r.selectBestPerGroup(eligible, *target, true)
		res.Status = domain.ReconcileInfeasible
		return res, []domain.Warning{{
			Category: domain.WarnSolverInfeasible,
			Message:  "solver timed out, selected best candidate per group",
		}}
	default:
		log.Printf("reconcile: solver failed: %v", err)
		res := r.selectBestPerGroup(eligible, *target, true)
		return res, []domain.Warning{{
			Category: domain.WarnSolverUnavailable,
			Message:  "solver unavailable, selected best candidate per group",
		}}
	}
}

func eligibleCandidates(candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Amount != nil && !c.Boilerplate {
			out = append(out, c)
		}
	}
	return out
}

// selectBestPerGroup picks the highest-confidence member of each duplicate
// group; ties go to the lowest id. This is optimal whenever no target is in
// play, since every selected candidate adds non-negative confidence.
func (r *Reconciler) selectBestPerGroup(eligible []domain.Candidate, target float64, haveTarget bool) domain.ReconcileResult {
	best := make(map[int]domain.Candidate)
	for _, c := range eligible {
		cur, ok := best[c.Group]
		if !ok || c.Confidence > cur.Confidence || (c.Confidence == cur.Confidence && c.ID < cur.ID) {
			best[c.Group] = c
		}
	}

	res := domain.ReconcileResult{Status: domain.ReconcileOK}
	for _, c := range best {
		res.SelectedIDs = append(res.SelectedIDs, c.ID)
		res.SelectedTotal += *c.Amount
	}
	sort.Ints(res.SelectedIDs)
	res.SelectedTotal = round2(res.SelectedTotal)
	if haveTarget {
		res.Deviation = round2(res.SelectedTotal - target)
	}
	return res
}

func resultFromSolution(eligible []domain.Candidate, sol *port.Solution, target float64) domain.ReconcileResult {
	res := domain.ReconcileResult{Status: domain.ReconcileOK}
	for _, c := range eligible {
		name := "x_" + strconv.Itoa(c.ID)
		if sol.Values[name] > 0.5 {
			res.SelectedIDs = append(res.SelectedIDs, c.ID)
			res.SelectedTotal += *c.Amount
		}
	}
	sort.Ints(res.SelectedIDs)
	res.SelectedTotal = round2(res.SelectedTotal)
	res.Deviation = round2(res.SelectedTotal - target)
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// totalRe recognizes grand-total lines in OCR text: a total keyword
// followed by a monetary value on the same line.
var totalKeywords = []string{
	"grand total", "total amount", "amount payable", "net payable",
	"net amount", "balance due", "amount due", "total due", "total",
}

// FindReportedTotal scans page text for a grand-total declaration,
// preferring later pages and lower lines. tokensByPage carries the OCR
// tokens page by page; parse is the monetary parser. Returns nil when no
// total line is found.
func FindReportedTotal(tokensByPage [][]domain.Token, pageHeights []int, parse func(string) (float64, bool)) *float64 {
	for p := len(tokensByPage) - 1; p >= 0; p-- {
		lines := lowerLines(tokensByPage[p], pageHeights[p])
		for i := len(lines) - 1; i >= 0; i-- {
			line := strings.ToLower(lines[i])
			for _, kw := range totalKeywords {
				idx := strings.Index(line, kw)
				if idx < 0 {
					continue
				}
				// "subtotal", "sub total" and "category total" are
				// partial totals, not the grand total.
				if idx > 0 && isWordByte(line[idx-1]) {
					continue
				}
				if qualifiedTotal(line[:idx]) {
					continue
				}
				if v, ok := parse(lines[i][idx+len(kw):]); ok && v > 0 {
					return &v
				}
			}
		}
	}
	return nil
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// qualifiedTotal reports whether the text ahead of a total keyword ends in
// a word marking a partial total.
func qualifiedTotal(prefix string) bool {
	words := strings.Fields(prefix)
	if len(words) == 0 {
		return false
	}
	switch words[len(words)-1] {
	case "sub", "category":
		return true
	}
	return false
}

// lowerLines reconstructs text lines from the bottom 40% of a page by
// bucketing tokens on their vertical center and ordering left to right.
func lowerLines(tokens []domain.Token, pageHeight int) []string {
	cutoff := int(float64(pageHeight) * 0.6)
	type positioned struct {
		y, x int
		text string
	}
	var kept []positioned
	for _, t := range tokens {
		cy := (t.Box.Min.Y + t.Box.Max.Y) / 2
		if cy >= cutoff {
			kept = append(kept, positioned{y: cy, x: t.Box.Min.X, text: t.Text})
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].y != kept[j].y {
			return kept[i].y < kept[j].y
		}
		return kept[i].x < kept[j].x
	})

	const lineTolerance = 8
	var lines []string
	var current []positioned
	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.Slice(current, func(i, j int) bool { return current[i].x < current[j].x })
		parts := make([]string, len(current))
		for i, t := range current {
			parts[i] = t.text
		}
		lines = append(lines, strings.Join(parts, " "))
		current = nil
	}
	for _, t := range kept {
		if len(current) > 0 && t.y-current[len(current)-1].y > lineTolerance {
			flush()
		}
		current = append(current, t)
	}
	flush()
	return lines
}
