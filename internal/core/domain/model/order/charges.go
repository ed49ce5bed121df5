package order

import (
	"errors"
	"fmt"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/guard"
)

// ErrChargesAreNotConstructed is returned when Charges bypassed NewCharges.
var ErrChargesAreNotConstructed = errors.New("Charges must be created via NewCharges constructor")

// Charges holds the monetary breakdown of an order. The total is computed at
// construction and always equals subtotal + tax + delivery fee + tip − discount.
type Charges struct {
	subtotal    kernel.Money
	tax         kernel.Money
	deliveryFee kernel.Money
	tip         kernel.Money
	discount    kernel.Money
	total       kernel.Money

	guard guard.ConstructorGuard
}

// NewCharges creates the monetary breakdown. All parts must share one
// currency and the discount may not exceed the sum of the other parts.
func NewCharges(subtotal, tax, deliveryFee, tip, discount kernel.Money) (Charges, error) {
	if err := errors.Join(
		subtotal.Validate(),
		tax.Validate(),
		deliveryFee.Validate(),
		tip.Validate(),
		discount.Validate(),
	); err != nil {
		return Charges{}, err
	}

	total := subtotal
	var err error
	for _, part := range []kernel.Money{tax, deliveryFee, tip} {
		if total, err = total.Add(part); err != nil {
			return Charges{}, err
		}
	}
	if total, err = total.Subtract(discount); err != nil {
		return Charges{}, errs.NewValueIsInvalidErrorWithCause("discount",
			fmt.Errorf("discount exceeds order value: %w", err))
	}

	return Charges{
		subtotal:    subtotal,
		tax:         tax,
		deliveryFee: deliveryFee,
		tip:         tip,
		discount:    discount,
		total:       total,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the charges were built through NewCharges.
func (c Charges) Validate() error {
	return c.guard.Validate(ErrChargesAreNotConstructed)
}

// Subtotal returns the sum of item subtotals.
func (c Charges) Subtotal() kernel.Money { return c.subtotal }

// Tax returns the tax amount.
func (c Charges) Tax() kernel.Money { return c.tax }

// DeliveryFee returns the delivery fee.
func (c Charges) DeliveryFee() kernel.Money { return c.deliveryFee }

// Tip returns the driver tip.
func (c Charges) Tip() kernel.Money { return c.tip }

// Discount returns the applied promotional discount.
func (c Charges) Discount() kernel.Money { return c.discount }

// Total returns subtotal + tax + delivery fee + tip − discount.
func (c Charges) Total() kernel.Money { return c.total }
