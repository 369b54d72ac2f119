package models

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// moneyScale is the number of fractional digits every Money value carries.
const moneyScale = 2

// Money represents a monetary amount with a fixed scale of two fractional
// digits. Every arithmetic result is re-normalized with banker's rounding
// (round half to even), so two Money values compare equal whenever their
// numeric values are equal.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney is the zero amount.
var ZeroMoney = Money{amount: decimal.Zero}

// NewMoney creates a Money value from whole currency units.
func NewMoney(units int64) Money {
	return Money{amount: decimal.NewFromInt(units).RoundBank(moneyScale)}
}

// NewMoneyFromCents creates a Money value from a number of cents.
func NewMoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -moneyScale)}
}

// NewMoneyFromString parses a decimal string such as "19.99".
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errors.Wrap(err, "invalid money amount")
	}
	return Money{amount: d.RoundBank(moneyScale)}, nil
}

// MustMoney parses a decimal string and panics on failure. Intended for
// constants and tests.
func MustMoney(s string) Money {
	m, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns the normalized sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount).RoundBank(moneyScale)}
}

// Subtract returns the normalized difference of two amounts.
func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount).RoundBank(moneyScale)}
}

// Multiply returns the normalized product of the amount and a quantity.
func (m Money) Multiply(qty int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty))).RoundBank(moneyScale)}
}

// IsGreaterThanZero reports whether the amount is strictly positive.
func (m Money) IsGreaterThanZero() bool {
	return m.amount.IsPositive()
}

// IsGreaterThan reports whether the amount exceeds the other amount.
func (m Money) IsGreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// Equals compares two amounts by numeric value.
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String renders the amount with its fixed scale, e.g. "30.00".
func (m Money) String() string {
	return m.amount.StringFixedBank(moneyScale)
}

// MarshalJSON encodes the amount as a JSON string to avoid float drift.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes either a JSON string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewMoneyFromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
