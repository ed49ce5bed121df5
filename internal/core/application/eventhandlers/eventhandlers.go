// Package eventhandlers subscribes the coordinator's use cases to the bus.
// Every handler tolerates at-least-once delivery: redelivered envelopes are
// absorbed by the aggregates' event-id sets, and errors that signal an
// already-superseded event are acknowledged instead of requeued, so one
// poisoned envelope never wedges a partition.
package eventhandlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/pkg/errs"
)

// staleRetries bounds how often a stale event is retried before it is
// dropped as superseded.
const staleRetries = 3

// retryStale re-runs op when it fails with order.ErrStaleEvent. A stale
// event usually means a sibling event for the same order is being applied
// concurrently; after the bounded retries it is treated as superseded.
func retryStale(ctx context.Context, logger *slog.Logger, op func() error) error {
	pause := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewConstantBackOff(50*time.Millisecond), staleRetries), ctx)

	err := backoff.Retry(func() error {
		err := op()
		if errors.Is(err, order.ErrStaleEvent) {
			return err
		}
		return backoff.Permanent(err)
	}, pause)

	if errors.Is(err, order.ErrStaleEvent) {
		logger.WarnContext(ctx, "event superseded after retries", "error", err)
		return nil
	}
	return err
}

// acknowledgeable reports whether an error is terminal for this envelope:
// requeueing would fail the same way forever.
func acknowledgeable(err error) bool {
	return errors.Is(err, order.ErrInvalidTransition) ||
		errors.Is(err, order.ErrInvalidPaymentTransition) ||
		errors.Is(err, order.ErrCompensationTokenRequired) ||
		errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrValueIsInvalid) ||
		errors.Is(err, errs.ErrValueIsRequired)
}

// decode unmarshals the envelope payload, classifying malformed data as
// unprocessable rather than retryable.
func decode(envelope events.Envelope, v any) error {
	if err := envelope.DecodeData(v); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("data", err)
	}
	return nil
}

// parseID parses a payload identifier, classifying garbage as unprocessable.
func parseID(field, s string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(s)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(field, err)
	}
	return id, nil
}

// absorb logs terminal errors and acknowledges them; everything else is
// returned for requeue.
func absorb(ctx context.Context, logger *slog.Logger, eventType string, err error) error {
	if err == nil {
		return nil
	}
	if acknowledgeable(err) {
		logger.ErrorContext(ctx, "dropping unprocessable event",
			"event_type", eventType, "error", err)
		return nil
	}
	return err
}
