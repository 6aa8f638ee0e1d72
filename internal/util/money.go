package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var reAmount = regexp.MustCompile(`-?\d{1,3}(?:,\d{3})*(?:\.\d+)?|-?\d+(?:\.\d+)?`)

// Round2 rounds to cents. All monetary invariants are checked after rounding.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MoneyEquals compares two amounts within the 0.01 tolerance the interchange
// contract allows.
func MoneyEquals(a, b float64) bool {
	return math.Abs(a-b) <= 0.01
}

// ParseAmount extracts a numeric amount from text like "$1,234.56" or
// "USD 1 234.50". Returns false when no number is present.
func ParseAmount(input string) (float64, bool) {
	cleaned := strings.ReplaceAll(input, "\u00a0", " ")
	m := reAmount.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	m = strings.ReplaceAll(m, ",", "")
	parsed, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
