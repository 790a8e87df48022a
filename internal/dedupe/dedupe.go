// Package dedupe groups duplicate candidates and flags per-page
// boilerplate so that reconciliation selects at most one copy of each
// real line item.
package dedupe

import (
	"math"

	"billscan/internal/domain"
)

// Config holds dedupe tunables.
type Config struct {
	// SimilarityThreshold is the minimum token-set score for two
	// candidates to be considered the same item.
	SimilarityThreshold int
	// StripFraction is the share of page height sampled at the top and
	// bottom for boilerplate comparison.
	StripFraction float64
	// CorrelationThreshold is the minimum cross-page correlation for a
	// strip to count as repeated.
	CorrelationThreshold float64
	// MinRepeatPages is how many pages must carry a matching strip.
	MinRepeatPages int
}

// DefaultConfig returns grouping defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:  88,
		StripFraction:        0.15,
		CorrelationThreshold: 0.75,
		MinRepeatPages:       2,
	}
}

// Deduper assigns duplicate groups.
type Deduper struct {
	cfg Config
}

func New(cfg Config) *Deduper {
	return &Deduper{cfg: cfg}
}

// AssignGroups labels each candidate with a duplicate group. Two
// candidates match when their canonicalized descriptions score at or above
// the similarity threshold and their amounts agree to two decimal places;
// matching is transitive. The group label is the smallest candidate id in
// the equivalence class. Candidates are mutated in place.
func (d *Deduper) AssignGroups(candidates []domain.Candidate) {
	n := len(candidates)
	canon := make([]string, n)
	for i := range candidates {
		canon[i] = Canonicalize(candidates[i].Description)
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !amountsEqual(candidates[i].Amount, candidates[j].Amount) {
				continue
			}
			if TokenSetRatio(canon[i], canon[j]) >= d.cfg.SimilarityThreshold {
				uf.union(i, j)
			}
		}
	}

	// Group label is the minimum candidate id within the class.
	groupID := make(map[int]int)
	for i := range candidates {
		root := uf.find(i)
		id := candidates[i].ID
		if cur, ok := groupID[root]; !ok || id < cur {
			groupID[root] = id
		}
	}
	for i := range candidates {
		candidates[i].Group = groupID[uf.find(i)]
	}
}

func amountsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return round2(*a) == round2(*b)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
