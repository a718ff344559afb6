// Package core holds the budget domain: categories, money, expenses,
// allocations and monthly reports.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between agorot and shekel representations.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in agorot (1/100 shekel). Negative values are valid and
// represent overspent balances.
type Money struct {
	Agorot int64
}

// FromShekels builds a Money from a whole-shekel amount.
func FromShekels(s int64) Money {
	return Money{Agorot: s * 100}
}

// Shekels returns the shekel value as a float64 for display purposes.
// Use agorot for calculations to avoid floating-point precision issues.
func (m Money) Shekels() float64 {
	return float64(m.Agorot) / 100.0
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Agorot: m.Agorot + other.Agorot}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Agorot: m.Agorot - other.Agorot}
}

// IsNegative reports whether the amount is below zero (overspent balance).
func (m Money) IsNegative() bool {
	return m.Agorot < 0
}

// Validate rejects zero and negative amounts. Used for expense amounts;
// balances may legitimately go negative and are never validated with this.
func (m Money) Validate() error {
	if m.Agorot <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String formats the amount as a shekel string, e.g. "₪12.34" or "-₪12.34".
func (m Money) String() string {
	a := m.Agorot
	neg := a < 0
	if neg {
		a = -a
	}
	s := fmt.Sprintf("₪%d.%02d", a/100, a%100)
	if neg {
		return "-" + s
	}
	return s
}

// ParseDecimalToAgorot converts a decimal string to agorot with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToAgorot("12.34") -> 1234, nil
//	ParseDecimalToAgorot("12,34") -> 1234, nil
//	ParseDecimalToAgorot("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToAgorot("12.346") -> 1235, nil (rounds up)
func ParseDecimalToAgorot(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	// Split into integer and fractional part
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	// Convert integer part - check for overflow
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracAgorot int64 = 0
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracAgorot = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracAgorot += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracAgorot++
				}
			}
		}
	}
	agorot := iv*100 + fracAgorot
	if agorot <= 0 {
		return 0, ErrInvalidAmount
	}
	return agorot, nil
}
