// Package core provides the ledger's value types and domain records.
//
// This file contains money parsing and arithmetic. Amounts are always kept
// as integer cents; decimal conversion only happens at the edges (parsing
// user input, formatting, JSON).
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units.
type Money struct {
	Cents int64
}

var maxMoney = decimal.New(math.MaxInt64/100, 0)

// Cents builds a Money from a cent count.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// MoneyFromDecimal converts a decimal amount to Money, rounding half away
// from zero on the third decimal place.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// ParseMoney parses a decimal string that may be zero or negative
// (opening balances). Both dot and comma separators are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Abs().GreaterThan(maxMoney) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	// Only unsigned values allowed
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	m, err := ParseMoney(s)
	if err != nil {
		return 0, err
	}
	if m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) IsNegative() bool { return m.Cents < 0 }

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "1200.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a decimal string to keep cents exact
// for clients that parse numbers as floats.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both JSON numbers and decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds up all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
