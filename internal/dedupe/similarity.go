package dedupe

import (
	"sort"
	"strings"
)

// TokenSetRatio scores two strings in [0, 100] by comparing the sorted
// intersection and differences of their token sets. Word order and repeated
// tokens do not matter; a string whose tokens are a subset of the other's
// scores 100. The score is symmetric.
func TokenSetRatio(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 100
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, diffA, diffB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			diffA = append(diffA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			diffB = append(diffB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	sectStr := strings.Join(inter, " ")
	combA := joinNonEmpty(sectStr, strings.Join(diffA, " "))
	combB := joinNonEmpty(sectStr, strings.Join(diffB, " "))

	best := ratio(combA, combB)
	if sectStr != "" {
		if r := ratio(sectStr, combA); r > best {
			best = r
		}
		if r := ratio(sectStr, combB); r > best {
			best = r
		}
	}
	return best
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(s) {
		set[f] = struct{}{}
	}
	return set
}

// ratio converts indel edit distance to a 0..100 similarity score.
func ratio(a, b string) int {
	la, lb := len(a), len(b)
	if la+lb == 0 {
		return 100
	}
	d := indelDistance(a, b)
	return int(100*float64(la+lb-d)/float64(la+lb) + 0.5)
}

// indelDistance is the edit distance with insertions and deletions only
// (no substitutions), equal to len(a)+len(b)-2*LCS(a,b).
func indelDistance(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		curr[0] = 0
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] > curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(b)]
	return len(a) + len(b) - 2*lcs
}
