package money

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOverflow      = errors.New("amount out of range")
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// Amount is a monetary value in minor units (cents).
type Amount int64

// Parse reads a plain decimal string such as "40", "40.5" or "0.01".
// More than two fractional digits is an error rather than a silent rounding.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return FromDecimal(d)
}

// FromDecimal converts a decimal value to cents.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, d)
	}

	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, ErrOverflow
	}

	return Amount(cents.IntPart()), nil
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

func (a Amount) IsPositive() bool { return a > 0 }
func (a Amount) IsNegative() bool { return a < 0 }

// Add returns a+b, failing instead of wrapping around on overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}

	return a + b, nil
}

// Sub returns a-b, failing instead of wrapping around on overflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, ErrOverflow
	}

	return a - b, nil
}

// Sum adds all amounts, stopping at the first overflow.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount

	for _, a := range amounts {
		var err error

		total, err = total.Add(a)
		if err != nil {
			return 0, err
		}
	}

	return total, nil
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	parsed, err := Parse(string(bytes.Trim(data, `"`)))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
