package dedupe

import (
	"strings"
	"unicode"
)

// stopwords are filler terms common in invoice descriptions that carry no
// identity: quantity markers, units, and column headers leaking into rows.
var stopwords = map[string]struct{}{
	"qty": {}, "nos": {}, "no": {}, "pcs": {}, "pc": {}, "each": {},
	"pack": {}, "pkt": {}, "box": {}, "unit": {}, "units": {},
	"item": {}, "items": {}, "ea": {}, "per": {}, "total": {},
	"amt": {}, "amount": {}, "rate": {}, "price": {}, "value": {},
	"description": {}, "desc": {},
}

// Canonicalize normalizes a description for comparison: lowercase, strip
// punctuation, collapse whitespace, drop stopwords.
func Canonicalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
