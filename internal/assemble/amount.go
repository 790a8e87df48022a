package assemble

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	debitRe  = regexp.MustCompile(`(?i)\bDr\b`)
	creditRe = regexp.MustCompile(`(?i)\bCr\b`)
	parensRe = regexp.MustCompile(`\(([0-9,.]+)\)`)
	// Accepts plain digit runs, Western thousands grouping, and Indian
	// lakh-crore grouping (2,50,000.00).
	numberRe   = regexp.MustCompile(`-?[0-9]{1,3}(?:,[0-9]{2,3})*(?:\.[0-9]+)?|-?[0-9]+(?:\.[0-9]+)?`)
	currencyRe = regexp.MustCompile(`(?i)₹|\$|€|£|¥|\bINR\b|\bUSD\b|\bEUR\b|\bGBP\b|\bJPY\b|\bRs\.?`)
)

// ParseAmount extracts a signed monetary value from cell text. It handles
// currency symbols and codes, thousands and lakh-crore separators,
// parenthesized negatives, and trailing Dr/Cr notation (debit negative,
// credit positive). The second return is false when no amount is present;
// unparsable text never yields zero.
func ParseAmount(text string) (float64, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}

	isDebit := debitRe.MatchString(text)
	isCredit := creditRe.MatchString(text)

	cleaned := currencyRe.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(cleaned)

	negative := false
	if m := parensRe.FindStringSubmatch(cleaned); m != nil {
		negative = true
		cleaned = m[1]
	}

	matches := numberRe.FindAllString(cleaned, -1)
	if len(matches) == 0 {
		return 0, false
	}

	// The rightmost number is the amount; earlier ones are quantities,
	// rates, or serial numbers.
	raw := strings.ReplaceAll(matches[len(matches)-1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	if negative {
		if value > 0 {
			value = -value
		}
	}
	if isDebit && value > 0 {
		value = -value
	}
	if isCredit && !negative && value < 0 {
		value = -value
	}
	return value, true
}
