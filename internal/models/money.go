package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every stored amount keeps.
const MoneyScale = 4

// MaxMoney bounds the magnitude of any amount or balance a client may set.
// It leaves enough headroom in int64 for balances to accumulate.
var MaxMoney = decimal.New(1, 12)

var (
	ErrMoneyPrecision = fmt.Errorf("money supports at most %d decimal places", MoneyScale)
	ErrMoneyRange     = fmt.Errorf("money must be less than %s in magnitude", MaxMoney)
)

// Money is an exact amount in ten-thousandths of a currency unit. It is
// stored as a bigint so that in-place increments stay exact on every driver,
// and it is serialized as a decimal string.
type Money int64

// NewMoney converts d to Money. It fails when d carries more than
// MoneyScale decimal places or exceeds MaxMoney.
func NewMoney(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(MoneyScale)) {
		return 0, ErrMoneyPrecision
	}
	if d.Abs().GreaterThanOrEqual(MaxMoney) {
		return 0, ErrMoneyRange
	}
	return Money(d.Shift(MoneyScale).IntPart()), nil
}

// ParseMoney parses a decimal literal such as "150.25".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return NewMoney(d)
}

// MustMoney is ParseMoney for constants; it panics on bad input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(fmt.Sprintf("models: invalid money %q: %v", s, err))
	}
	return m
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -MoneyScale)
}

func (m Money) String() string {
	return m.Decimal().String()
}

// Neg returns -m.
func (m Money) Neg() Money {
	return -m
}

// MarshalJSON writes the amount as a quoted decimal, e.g. "150.25".
func (m Money) MarshalJSON() ([]byte, error) {
	return m.Decimal().MarshalJSON()
}

// UnmarshalJSON accepts a quoted or bare decimal.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value stores the amount as its integer minor units.
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan reads integer minor units. Postgres returns SUM(bigint) as numeric
// text, which is accepted as long as it is integral.
func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = 0
	case int64:
		*m = Money(v)
	case []byte:
		return m.scanText(string(v))
	case string:
		return m.scanText(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Money", value)
	}
	return nil
}

func (m *Money) scanText(s string) error {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = Money(n)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("models: cannot scan %q into Money: %w", s, err)
	}
	if !d.IsInteger() {
		return errors.New("models: stored money is not in integer minor units")
	}
	*m = Money(d.IntPart())
	return nil
}
