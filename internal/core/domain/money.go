package domain

import (
	"fmt"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/shopspring/decimal"
)

// MoneyPrecision is the number of fractional digits Money carries at
// settlement boundaries (share counts, final distribution amounts).
// Intermediate arithmetic keeps full decimal precision.
const MoneyPrecision = 6

// Money is a signed fixed-point decimal amount. All monetary values in the
// engine use Money; float conversion is never performed. Rounding (banker's)
// happens only via Settle, at defined settlement boundaries.
type Money struct {
	dec decimal.Decimal
}

// ZeroMoney is the zero amount.
var ZeroMoney = Money{}

// NewMoneyFromDecimal wraps an existing decimal value as Money.
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{dec: d}
}

// NewMoneyFromInt returns a Money holding the given whole amount.
func NewMoneyFromInt(i int64) Money {
	return Money{dec: decimal.NewFromInt(i)}
}

// NewMoneyFromString parses a wire-format decimal string into Money.
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney, fmt.Errorf("%w: malformed money amount %q", apperrors.ErrInvalidInput, s)
	}
	return Money{dec: d}, nil
}

// MustMoney parses a decimal string and panics on failure. Intended for
// configuration defaults and tests only.
func MustMoney(s string) Money {
	m, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.dec }

func (m Money) Add(o Money) Money { return Money{dec: m.dec.Add(o.dec)} }
func (m Money) Sub(o Money) Money { return Money{dec: m.dec.Sub(o.dec)} }

// Mul multiplies the amount by a dimensionless decimal factor (a rate,
// multiple or ratio).
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{dec: m.dec.Mul(factor)}
}

// MulInt multiplies the amount by an integer count (e.g. shares).
func (m Money) MulInt(n int64) Money {
	return Money{dec: m.dec.Mul(decimal.NewFromInt(n))}
}

// Div divides by a dimensionless decimal factor at full working precision.
func (m Money) Div(factor decimal.Decimal) Money {
	return Money{dec: m.dec.Div(factor)}
}

// Ratio returns m/o as a dimensionless decimal (e.g. a valuation ratio).
func (m Money) Ratio(o Money) decimal.Decimal {
	return m.dec.Div(o.dec)
}

// FloorQuotient returns floor(m/o) as a whole number, truncating any
// fractional remainder. Used for share issuance, where the residual
// fractional-share value is forfeited rather than rounded up.
func (m Money) FloorQuotient(o Money) int64 {
	q, _ := m.dec.QuoRem(o.dec, 0)
	return q.IntPart()
}

// Settle rounds to MoneyPrecision fractional digits using banker's rounding.
// Call only at settlement boundaries, never mid-computation.
func (m Money) Settle() Money {
	return Money{dec: m.dec.RoundBank(MoneyPrecision)}
}

func (m Money) Cmp(o Money) int              { return m.dec.Cmp(o.dec) }
func (m Money) Equal(o Money) bool           { return m.dec.Equal(o.dec) }
func (m Money) LessThan(o Money) bool        { return m.dec.LessThan(o.dec) }
func (m Money) LessThanOrEqual(o Money) bool { return m.dec.LessThanOrEqual(o.dec) }
func (m Money) GreaterThan(o Money) bool     { return m.dec.GreaterThan(o.dec) }
func (m Money) IsZero() bool                 { return m.dec.IsZero() }
func (m Money) IsNegative() bool             { return m.dec.IsNegative() }
func (m Money) IsPositive() bool             { return m.dec.IsPositive() }

// Min returns the smaller of m and o.
func (m Money) Min(o Money) Money {
	if m.dec.LessThan(o.dec) {
		return m
	}
	return o
}

func (m Money) String() string { return m.dec.String() }

// MarshalJSON encodes the amount as a quoted decimal string, matching the
// wire format callers exchange at the API boundary.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.dec.MarshalJSON()
}

// UnmarshalJSON decodes a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.dec.UnmarshalJSON(data)
}
