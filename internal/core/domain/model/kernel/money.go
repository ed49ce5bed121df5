package kernel

import (
	"fmt"

	"coordinator/internal/pkg/errs"
)

// Money is an immutable monetary amount in the smallest currency unit
// (cents). All operations return new instances. Negative amounts are
// rejected at construction: every monetary field of an order is non-negative
// by invariant, and subtraction that would go below zero is an error.
type Money struct {
	amount   int64
	currency string
}

// NewMoney creates a Money value. The amount must be non-negative and the
// currency a 3-letter ISO 4217 code.
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("amount",
			fmt.Errorf("%d is negative", amount))
	}
	if len(currency) != 3 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("currency",
			fmt.Errorf("%q is not a 3-letter ISO code", currency))
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustNewMoney is NewMoney that panics on error. Intended for tests and
// compile-time constants only.
func MustNewMoney(amount int64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the amount in minor units.
func (m Money) Amount() int64 { return m.amount }

// Currency returns the ISO 4217 currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// Add returns m + other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("currency",
			fmt.Errorf("cannot add %s and %s", m.currency, other.currency))
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Subtract returns m - other. Fails if the currencies differ or the result
// would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("currency",
			fmt.Errorf("cannot subtract %s from %s", other.currency, m.currency))
	}
	if other.amount > m.amount {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("amount",
			fmt.Errorf("subtracting %d from %d would be negative", other.amount, m.amount))
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// Multiply returns m scaled by a non-negative integer factor, such as an
// order item quantity.
func (m Money) Multiply(factor int64) (Money, error) {
	if factor < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("factor",
			fmt.Errorf("%d is negative", factor))
	}
	return Money{amount: m.amount * factor, currency: m.currency}, nil
}

// Equals reports value equality of amount and currency.
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

// Validate rejects the zero value, which carries no currency.
func (m Money) Validate() error {
	if m.currency == "" {
		return errs.NewValueIsRequiredError("money must be created via NewMoney")
	}
	return nil
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.amount, m.currency)
}
