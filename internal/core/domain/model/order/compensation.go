package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
)

// CompensationKind names the stall that triggered a compensation. One
// compensation exists per order and kind; the repository enforces the
// uniqueness so overlapping sweeps cannot compensate twice.
type CompensationKind int

const (
	CompensationKindUnknown CompensationKind = iota
	CompensationKindPaymentTimeout
	CompensationKindAssignmentExhausted
	CompensationKindDeliveryTimeout
)

var compensationKindStrings = map[CompensationKind]string{
	CompensationKindPaymentTimeout:      "payment_timeout",
	CompensationKindAssignmentExhausted: "assignment_exhausted",
	CompensationKindDeliveryTimeout:     "delivery_timeout",
}

// CompensationKindFromString parses the wire name of a compensation kind.
func CompensationKindFromString(name string) (CompensationKind, error) {
	for kind, s := range compensationKindStrings {
		if s == name {
			return kind, nil
		}
	}
	return CompensationKindUnknown, errs.NewValueIsInvalidErrorWithCause("kind",
		fmt.Errorf("unknown compensation kind %q", name))
}

// String returns the wire name of the kind.
func (k CompensationKind) String() string {
	if name, ok := compensationKindStrings[k]; ok {
		return name
	}
	return "unknown"
}

// Validate checks that the kind is a known one.
func (k CompensationKind) Validate() error {
	if _, ok := compensationKindStrings[k]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("kind",
			fmt.Errorf("unknown compensation kind %d", int(k)))
	}
	return nil
}

// ErrCompensationIsNotConstructed is returned when a Compensation bypassed
// its constructors.
var ErrCompensationIsNotConstructed = errors.New("Compensation must be created via NewCompensation or RestoreCompensation")

// Compensation is the record of one forced recovery from a stalled order.
// Its token authorizes the late cancellation it issues.
type Compensation struct {
	id       kernel.UUID
	orderID  kernel.UUID
	kind     CompensationKind
	token    string
	reason   string
	issuedAt time.Time

	isConstructed bool
}

// NewCompensationToken mints an opaque token authorizing a compensating
// cancellation.
func NewCompensationToken() string {
	return "cmp-" + strings.ToUpper(uuid.NewString()[:8])
}

// NewCompensation records a compensation for a stalled order.
func NewCompensation(id kernel.UUID, orderID kernel.UUID, kind CompensationKind, token, reason string, now time.Time) (*Compensation, error) {
	c := &Compensation{
		issuedAt:      now,
		isConstructed: true,
	}

	if err := errors.Join(
		c.setID(id),
		c.setOrderID(orderID),
		c.setKind(kind),
		c.setToken(token),
	); err != nil {
		return nil, err
	}
	c.reason = reason

	return c, nil
}

// RestoreCompensation reconstructs a compensation from persistence.
func RestoreCompensation(id kernel.UUID, orderID kernel.UUID, kind CompensationKind, token, reason string, issuedAt time.Time) (*Compensation, error) {
	return NewCompensation(id, orderID, kind, token, reason, issuedAt)
}

// Validate ensures the compensation was built through a constructor.
func (c *Compensation) Validate() error {
	if c == nil || !c.isConstructed {
		return ErrCompensationIsNotConstructed
	}
	return nil
}

// ID returns the compensation identifier.
func (c *Compensation) ID() kernel.UUID { return c.id }

// OrderID returns the stalled order.
func (c *Compensation) OrderID() kernel.UUID { return c.orderID }

// Kind returns the stall kind.
func (c *Compensation) Kind() CompensationKind { return c.kind }

// Token returns the cancellation authorization token.
func (c *Compensation) Token() string { return c.token }

// Reason returns the human-readable stall description.
func (c *Compensation) Reason() string { return c.reason }

// IssuedAt returns when the compensation was recorded.
func (c *Compensation) IssuedAt() time.Time { return c.issuedAt }

func (c *Compensation) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Compensation) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *Compensation) setKind(kind CompensationKind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	c.kind = kind
	return nil
}

func (c *Compensation) setToken(token string) error {
	if token == "" {
		return errs.NewValueIsRequiredError("token")
	}
	c.token = token
	return nil
}
