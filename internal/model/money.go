package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of decimal places persisted for every monetary column.
const moneyScale = 2

var ErrInvalidMoney = errors.New("invalid money amount")

// Money is a decimal amount in the shop's currency. The zero value is 0.
type Money struct {
	amount decimal.Decimal
}

func ZeroMoney() Money {
	return Money{}
}

func NewMoneyFromInt(v int64) Money {
	return Money{amount: decimal.NewFromInt(v)}
}

func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d}
}

// ParseMoney parses a plain decimal string such as "150" or "12.50".
// Amounts finer than a cent are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrInvalidMoney)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	if !hasMoneyScale(d) {
		return Money{}, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidMoney, s, moneyScale)
	}
	return Money{amount: d}, nil
}

// hasMoneyScale reports whether d is a whole number of cents. "1.500" passes.
func hasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyScale))
}

// MustMoney is ParseMoney for literals known to be valid.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Add(o Money) Money { return Money{amount: m.amount.Add(o.amount)} }

func (m Money) Sub(o Money) Money { return Money{amount: m.amount.Sub(o.amount)} }

func (m Money) MulQty(q Quantity) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(q)))}
}

// MulRate multiplies by a fractional rate and rounds to the persisted scale.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(rate).Round(moneyScale)}
}

// IsCents reports whether m can be stored without rounding. Amounts built
// with NewMoneyFromDecimal are not validated.
func (m Money) IsCents() bool { return hasMoneyScale(m.amount) }

func (m Money) IsZero() bool { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) Cmp(o Money) int { return m.amount.Cmp(o.amount) }
func (m Money) Equal(o Money) bool { return m.amount.Equal(o.amount) }
func (m Money) LessThan(o Money) bool { return m.amount.LessThan(o.amount) }
func (m Money) GreaterThan(o Money) bool { return m.amount.GreaterThan(o.amount) }

// MinMoney returns the smallest of the given amounts.
func MinMoney(first Money, rest ...Money) Money {
	min := first
	for _, m := range rest {
		if m.LessThan(min) {
			min = m
		}
	}
	return min
}

// MaxMoney returns the largest of the given amounts.
func MaxMoney(first Money, rest ...Money) Money {
	max := first
	for _, m := range rest {
		if m.GreaterThan(max) {
			max = m
		}
	}
	return max
}

func (m Money) String() string {
	return m.amount.StringFixed(moneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMoney, err)
	}
	if !hasMoneyScale(d) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidMoney, d, moneyScale)
	}
	m.amount = d
	return nil
}

// Value implements driver.Valuer so Money can be stored in a decimal column.
func (m Money) Value() (driver.Value, error) {
	return m.amount.Round(moneyScale).Value()
}

// Scan implements sql.Scanner.
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.amount = d
	return nil
}
