// Package amount converts the accounting-formatted figures printed on lending
// pages ("£1,234.56", "(12.34)", "10.00%") into exact decimals.
package amount

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// decorative is trimmed from both ends before anything else happens.
const decorative = "£$€ \t\n\r"

var (
	disallowed = regexp.MustCompile(`[^\d\-.()]`)
	literal    = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)$`)
)

// ParseError is returned when text does not reduce to a decimal literal.
type ParseError struct {
	Input   string
	Cleaned string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("amount: cannot parse %q (cleaned to %q)", e.Input, e.Cleaned)
}

func clean(text string) string {
	cleaned := strings.Trim(text, decorative)
	cleaned = disallowed.ReplaceAllString(cleaned, "")
	if len(cleaned) >= 2 && cleaned[0] == '(' && cleaned[len(cleaned)-1] == ')' {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}
	return cleaned
}

// Parse returns the exact value of text. It performs no scaling, a percentage
// comes back as the number printed in front of the percent sign.
func Parse(text string) (decimal.Decimal, error) {
	cleaned := clean(text)
	if !literal.MatchString(cleaned) {
		return decimal.Zero, &ParseError{Input: text, Cleaned: cleaned}
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ParseError{Input: text, Cleaned: cleaned}
	}
	return value, nil
}

// ParsePercent parses a displayed percentage and returns it as a fraction,
// "10.00%" becomes 0.1.
func ParsePercent(text string) (decimal.Decimal, error) {
	value, err := Parse(text)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Shift(-2), nil
}

// noRate reports whether a cell shows a dash in place of a rate.
func noRate(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '-', '\u2010', '\u2011', '\u2012', '\u2013', '\u2014', '\u2015', '\u2212':
		default:
			return false
		}
	}
	return true
}

// ParseOptionalPercent is ParsePercent except that a cell showing a dash
// instead of a rate is exactly zero. Any other text, an empty cell included,
// must parse as a percentage.
func ParseOptionalPercent(text string) (decimal.Decimal, error) {
	if noRate(text) {
		return decimal.Zero, nil
	}
	return ParsePercent(text)
}
