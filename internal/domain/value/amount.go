package value

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrFractionalAmount = errors.New("amount must be an integer")
)

// ParseAmount parses a base-unit token amount. Amounts are arbitrary
// precision non-negative integers.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimal.NewFromString: %w", err)
	}

	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}

	return d, nil
}

func CheckAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeAmount
	}

	if !d.IsInteger() {
		return ErrFractionalAmount
	}

	return nil
}

// AmountOrZero parses an optional amount, absent meaning zero.
func AmountOrZero(s *string) (decimal.Decimal, error) {
	if s == nil || *s == "" {
		return decimal.Zero, nil
	}

	return ParseAmount(*s)
}
