// Package money provides an exact decimal money type for cash balances and
// per-share prices. All monetary arithmetic in this repo goes through Money;
// float64 money is a bug.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

type Money struct {
	value decimal.Decimal
}

// FromString parses a decimal string like "9740.00". It rejects anything the
// decimal parser rejects (empty strings included).
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{value: d}, nil
}

// MustFromString is FromString for constants and tests.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func FromFloat(f float64) Money {
	return Money{value: decimal.NewFromFloat(f)}
}

func FromInt(n int64) Money {
	return Money{value: decimal.NewFromInt(n)}
}

func Zero() Money { return Money{} }

func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value)} }

// MulInt64 scales a per-share price by a share count.
func (m Money) MulInt64(n int64) Money {
	return Money{value: m.value.Mul(decimal.NewFromInt(n))}
}

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }

// String returns the exact value with no rounding.
func (m Money) String() string { return m.value.String() }

// Display returns the value rounded to cents, for user-facing output.
func (m Money) Display() string { return m.value.StringFixed(2) }

// Value persists the exact decimal string. Money columns are TEXT so repeated
// buy/sell cycles never accumulate binary rounding error.
func (m Money) Value() (driver.Value, error) {
	return m.value.String(), nil
}

func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scan money %q: %w", v, err)
		}
		m.value = d
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("scan money %q: %w", v, err)
		}
		m.value = d
	case int64:
		m.value = decimal.NewFromInt(v)
	case float64:
		// Legacy REAL columns; still parsed, but writes always go out as TEXT.
		m.value = decimal.NewFromFloat(v)
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.value.StringFixed(2) + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("unmarshal money %q: %w", b, err)
	}
	m.value = d
	return nil
}
