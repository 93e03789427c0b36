// Package money provides the fixed-point monetary value used by every billing and
// ledger component. Amounts carry exactly three fractional digits (fils for OMR) and
// are rounded half-up at the point of computation.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every Amount carries.
const Scale int32 = 3

var hundred = decimal.NewFromInt(100)

// Amount is an immutable 3-digit fixed-point value. The zero value is 0.000.
type Amount struct {
	d decimal.Decimal
}

// Zero is 0.000.
var Zero = Amount{}

// New normalizes d to three digits.
func New(d decimal.Decimal) Amount {
	return Amount{d: d.Round(Scale)}
}

// FromInt returns a whole-unit amount.
func FromInt(units int64) Amount {
	return Amount{d: decimal.NewFromInt(units)}
}

// FromFloat normalizes a raw float input. Prefer Parse for values that originate as text.
func FromFloat(f float64) Amount {
	return New(decimal.NewFromFloat(f))
}

// Parse reads a decimal string such as "100.1234" and normalizes it to "100.123".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return New(d), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Add(b Amount) Amount { return New(a.d.Add(b.d)) }
func (a Amount) Sub(b Amount) Amount { return New(a.d.Sub(b.d)) }
func (a Amount) Neg() Amount         { return New(a.d.Neg()) }

// Mul multiplies by an integral quantity (e.g. session count).
func (a Amount) Mul(qty int64) Amount {
	return New(a.d.Mul(decimal.NewFromInt(qty)))
}

// MulRate applies a percentage: 100.000 MulRate(5) == 5.000.
func (a Amount) MulRate(percent decimal.Decimal) Amount {
	return New(a.d.Mul(percent).Div(hundred))
}

// Div splits the amount into n parts, each rounded half-up to three digits.
// The caller owns the rounding remainder.
func (a Amount) Div(n int64) Amount {
	if n == 0 {
		panic("money: division by zero")
	}
	return Amount{d: a.d.DivRound(decimal.NewFromInt(n), Scale)}
}

func (a Amount) Cmp(b Amount) int             { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool          { return a.d.Equal(b.d) }
func (a Amount) LessThan(b Amount) bool       { return a.d.LessThan(b.d) }
func (a Amount) LessOrEqual(b Amount) bool    { return a.d.LessThanOrEqual(b.d) }
func (a Amount) GreaterThan(b Amount) bool    { return a.d.GreaterThan(b.d) }
func (a Amount) GreaterOrEqual(b Amount) bool { return a.d.GreaterThanOrEqual(b.d) }
func (a Amount) IsZero() bool                 { return a.d.IsZero() }
func (a Amount) IsPositive() bool             { return a.d.IsPositive() }
func (a Amount) IsNegative() bool             { return a.d.IsNegative() }

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// ClampZero returns max(0, a).
func (a Amount) ClampZero() Amount { return a.Max(Zero) }

// String always renders three fractional digits.
func (a Amount) String() string { return a.d.StringFixed(Scale) }

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MarshalJSON encodes the amount as a fixed 3-digit string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both "12.5" and 12.5 and normalizes to three digits.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*a = New(d)
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*a = New(d)
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}
