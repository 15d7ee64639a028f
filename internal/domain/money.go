package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the single settlement currency of the platform.
const Currency = "CNY"

// Money represents a monetary value in minor currency units (fen/cents).
// Amounts are stored as int64 to avoid floating point errors; decimal
// conversion exists only for display and rate arithmetic.
type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// ToDecimal converts minor units to a major-unit decimal (2 fraction digits).
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(100))
}

// FromDecimal converts a major-unit decimal to minor units, truncating.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).IntPart()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(2), m.Currency)
}
