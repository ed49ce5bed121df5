package order

import (
	"errors"
	"fmt"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

// ErrTransitionEventIsNotConstructed is returned when a TransitionEvent
// bypassed its constructors.
var ErrTransitionEventIsNotConstructed = errors.New(
	"TransitionEvent must be created via NewTransitionEvent or NewCompensatedCancellation")

// TransitionEvent is the input to Order.Apply: a request to move an order
// from an expected prior status to a target status, identified by the bus
// event id that carried it. The id is what makes re-delivery idempotent.
type TransitionEvent struct {
	eventID           kernel.UUID
	from              Status
	to                Status
	reason            string
	compensationToken string

	guard guard.ConstructorGuard
}

// NewTransitionEvent creates a transition request. from is the status the
// producing service observed; a mismatch at apply time means the event is
// stale.
func NewTransitionEvent(eventID kernel.UUID, from, to Status, reason string) (TransitionEvent, error) {
	ev := TransitionEvent{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		ev.setEventID(eventID),
		ev.setEdge(from, to),
	); err != nil {
		return TransitionEvent{}, err
	}

	return ev, nil
}

// NewCompensatedCancellation creates a cancellation carrying the
// supervisor's compensation token, which authorizes cancelling orders that
// are already out for delivery.
func NewCompensatedCancellation(eventID kernel.UUID, from Status, token, reason string) (TransitionEvent, error) {
	ev, err := NewTransitionEvent(eventID, from, Cancelled, reason)
	if err != nil {
		return TransitionEvent{}, err
	}
	if token == "" {
		return TransitionEvent{}, fmt.Errorf("%w: empty token", ErrCompensationTokenRequired)
	}
	ev.compensationToken = token
	return ev, nil
}

// Validate ensures the event was built through a constructor.
func (e TransitionEvent) Validate() error {
	return e.guard.Validate(ErrTransitionEventIsNotConstructed)
}

// EventID returns the bus event id behind this transition.
func (e TransitionEvent) EventID() kernel.UUID { return e.eventID }

// From returns the expected prior status.
func (e TransitionEvent) From() Status { return e.from }

// To returns the target status.
func (e TransitionEvent) To() Status { return e.to }

// Reason returns the human-readable reason, recorded on cancellation.
func (e TransitionEvent) Reason() string { return e.reason }

// CompensationToken returns the supervisor token, empty for ordinary events.
func (e TransitionEvent) CompensationToken() string { return e.compensationToken }

func (e *TransitionEvent) setEventID(eventID kernel.UUID) error {
	if err := eventID.Validate(); err != nil {
		return err
	}
	e.eventID = eventID
	return nil
}

func (e *TransitionEvent) setEdge(from, to Status) error {
	if err := errors.Join(from.Validate(), to.Validate()); err != nil {
		return err
	}
	e.from = from
	e.to = to
	return nil
}
