package core

// normalize.go decides when two field values count as equal in Compare.
//
// Exact string equality is the default. Options relax it:
//   - TrimSpaces ignores leading and trailing whitespace
//   - CaseInsensitive folds case (Unicode simple folding)
//   - Numeric compares values that both parse as numbers by decimal value, so
//     "$1,200.50" equals "1200.5" and "(3)" equals "-3"

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numericRegex validates a cleaned numeric string: integers, decimals and
// scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumeric parses s as a decimal after removing currency symbols and
// thousands separators. Accounting negatives "(123.45)" are accepted.
func ParseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Equal reports whether a and b match under the options.
func (o CompareOptions) Equal(a, b string) bool {
	if a == b {
		return true
	}
	if o.TrimSpaces {
		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if a == b {
			return true
		}
	}
	if o.CaseInsensitive && strings.EqualFold(a, b) {
		return true
	}
	if o.Numeric {
		da, okA := ParseNumeric(a)
		db, okB := ParseNumeric(b)
		if okA && okB {
			return da.Equal(db)
		}
	}
	return false
}

// Exact reports whether the options leave plain string equality in place.
func (o CompareOptions) Exact() bool {
	return !o.TrimSpaces && !o.CaseInsensitive && !o.Numeric
}
