// Package core holds the expense domain model.
//
// This file contains helpers for parsing and formatting expense sums.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseSum converts user input to a decimal sum.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is a
// valid sum; negative values return ErrNegativeSum and anything unparseable
// returns ErrInvalidSum.
//
// Examples:
//
//	ParseSum("12.34") -> 12.34, nil
//	ParseSum("12,5")  -> 12.5, nil
//	ParseSum("-1")    -> 0, ErrNegativeSum
func ParseSum(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidSum
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidSum
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeSum
	}
	return d, nil
}

// FormatSum renders a sum with two decimal places for display.
func FormatSum(d decimal.Decimal) string {
	return d.StringFixed(2)
}
