// Package money handles monetary amounts as fixed-point cents.
//
// All engine arithmetic happens on int64 cents so that splitting and
// summing amounts never accumulates floating-point drift. Floats only
// appear at the JSON boundary.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount indicates a monetary string or value that cannot be
// represented as positive cents.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// Cents is a monetary amount in hundredths of the currency unit.
// Signed: purchases and payments are stored negative, credits positive.
type Cents int64

// FromFloat converts a float amount (e.g. from a JSON body) to cents,
// rounding half away from zero on the third decimal.
func FromFloat(v float64) Cents {
	return Cents(math.Round(v * 100))
}

// Float returns the amount as a float64 for display and JSON responses.
// Use Cents for calculations.
func (c Cents) Float() float64 {
	return float64(c) / 100.0
}

// Abs returns the absolute value.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// String formats the amount with two decimals, e.g. "1234.56" or "-0.07".
func (c Cents) String() string {
	sign := ""
	v := c
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// DivideRound divides the amount by n with half-up rounding on the cent.
// n must be positive.
func (c Cents) DivideRound(n int) Cents {
	if n <= 0 {
		return c
	}
	neg := c < 0
	v := int64(c)
	if neg {
		v = -v
	}
	q := (v + int64(n)/2) / int64(n)
	if neg {
		q = -q
	}
	return Cents(q)
}

// ParseDecimal converts a decimal string to positive cents with half-up
// rounding on the third decimal place. Both "12.34" and "12,34" are
// accepted. Negative, zero and malformed inputs are rejected; callers
// apply the sign themselves.
func ParseDecimal(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
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
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return Cents(cents), nil
}
