package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in decimal major units of a fixed currency. Conversion to
// a processor's minor-unit representation happens only at the gateway boundary.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	res := m.Amount.Sub(other.Amount)
	if res.IsNegative() {
		return Money{}, fmt.Errorf("amount would go negative: %s - %s", m.Amount, other.Amount)
	}
	return Money{Amount: res, Currency: m.Currency}, nil
}

func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// RoundBank rounds to the currency's minor unit using round-half-to-even.
func (m Money) RoundBank() Money {
	return Money{Amount: m.Amount.RoundBank(2), Currency: m.Currency}
}

// MinorUnits converts to integer minor units (cents) for the gateway wire.
func (m Money) MinorUnits() int64 {
	return m.Amount.Mul(decimal.NewFromInt(100)).RoundBank(0).IntPart()
}

func MoneyFromMinorUnits(units int64, currency string) Money {
	return Money{Amount: decimal.NewFromInt(units).Div(decimal.NewFromInt(100)), Currency: currency}
}

func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsZero() bool     { return m.Amount.IsZero() }

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) LessThan(other Money) bool {
	return m.Amount.LessThan(other.Amount)
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
