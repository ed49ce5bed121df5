package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"coordinator/internal/core/domain/events"
	"coordinator/internal/core/domain/model/delivery"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/order"
	"coordinator/internal/core/domain/services"
	"coordinator/internal/core/ports"
	"coordinator/internal/pkg/errs"
	"coordinator/internal/pkg/keylock"
)

// ErrAssignmentExhausted is returned when no driver accepted the order
// within the configured rounds and window. The supervisor reacts with a
// compensation.
var ErrAssignmentExhausted = errors.New("driver assignment exhausted")

// AssignmentConfig bounds the driver search.
type AssignmentConfig struct {
	// SearchRadiusMeters limits candidates to drivers near the restaurant.
	SearchRadiusMeters float64
	// MaxRounds bounds how many times the candidate pool is rebuilt after
	// everyone declined.
	MaxRounds int
	// Window bounds the total wall-clock time of the search.
	Window time.Duration
	// OfferTimeout is how long a driver may sit on one offer.
	OfferTimeout time.Duration
}

// DefaultAssignmentConfig returns the stock search bounds.
func DefaultAssignmentConfig() AssignmentConfig {
	return AssignmentConfig{
		SearchRadiusMeters: 5000,
		MaxRounds:          3,
		Window:             300 * time.Second,
		OfferTimeout:       30 * time.Second,
	}
}

// AssignDriverCommandHandler runs the driver search: rank candidates near
// the restaurant, offer to them one at a time, and lock in the first
// acceptance. Offers to one driver are serialized so a driver never holds
// two outstanding offers; the order itself is only locked for the short
// acceptance commit, never across offers.
type AssignDriverCommandHandler struct {
	uowFactory  AssignmentUoWFactory
	geo         ports.GeoClient
	gateway     ports.DriverGateway
	matcher     services.DriverMatcher
	publisher   events.Publisher
	orderLocks  *keylock.KeyLock
	driverLocks *keylock.KeyLock
	config      AssignmentConfig
	logger      *slog.Logger
}

// NewAssignDriverCommandHandler creates a handler for driver assignment.
func NewAssignDriverCommandHandler(
	uowFactory AssignmentUoWFactory,
	geo ports.GeoClient,
	gateway ports.DriverGateway,
	publisher events.Publisher,
	orderLocks *keylock.KeyLock,
	driverLocks *keylock.KeyLock,
	config AssignmentConfig,
	logger *slog.Logger,
) AssignDriverCommandHandler {
	return AssignDriverCommandHandler{
		uowFactory:  uowFactory,
		geo:         geo,
		gateway:     gateway,
		matcher:     services.NewDriverMatcher(),
		publisher:   publisher,
		orderLocks:  orderLocks,
		driverLocks: driverLocks,
		config:      config,
		logger:      logger.With("component", "assignment"),
	}
}

// Handle searches for a driver. It is idempotent: an order that already has
// a delivery, or moved past ready_for_pickup, is success without any offer.
// Exhausting the rounds or the window returns ErrAssignmentExhausted.
func (h AssignDriverCommandHandler) Handle(ctx context.Context, cmd AssignDriverCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	pickup, proceed, err := h.prepare(ctx, cmd)
	if err != nil || !proceed {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Window)
	defer cancel()

	roundPause := backoff.NewExponentialBackOff()
	roundPause.InitialInterval = 2 * time.Second

	for round := 1; round <= h.config.MaxRounds; round++ {
		assigned, err := h.runRound(ctx, cmd, pickup, round)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return err
		}
		if assigned {
			return nil
		}

		h.logger.InfoContext(ctx, "assignment round found no acceptor",
			"order_id", cmd.OrderID().String(), "round", round)

		if round == h.config.MaxRounds {
			break
		}

		select {
		case <-ctx.Done():
			return ErrAssignmentExhausted
		case <-time.After(roundPause.NextBackOff()):
		}
	}

	return ErrAssignmentExhausted
}

// prepare resolves the pickup point and reports whether the search should
// run at all.
func (h AssignDriverCommandHandler) prepare(ctx context.Context, cmd AssignDriverCommand) (pickup kernel.GeoPoint, proceed bool, err error) {
	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return pickup, false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return pickup, false, err
	}
	if aggregate.Status() != order.ReadyForPickup {
		return pickup, false, nil
	}

	_, err = uow.DeliveryRepository().GetByOrderID(ctx, cmd.OrderID())
	if err == nil {
		return pickup, false, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return pickup, false, err
	}

	pickup, err = h.geo.GetLocation(ctx, aggregate.RestaurantID())
	if err != nil {
		return pickup, false, err
	}
	return pickup, true, nil
}

// runRound builds a fresh candidate pool and offers down the ranking.
func (h AssignDriverCommandHandler) runRound(ctx context.Context, cmd AssignDriverCommand, pickup kernel.GeoPoint, round int) (bool, error) {
	candidates, err := h.rankedCandidates(ctx, pickup)
	if errors.Is(err, services.ErrNoCandidates) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, candidate := range candidates {
		outcome, err := h.offer(ctx, candidate.Driver.ID(), cmd.OrderID())
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return false, err
			}
			h.logger.ErrorContext(ctx, "offer failed",
				"order_id", cmd.OrderID().String(),
				"driver_id", candidate.Driver.ID().String(),
				"error", err)
			continue
		}
		if outcome != ports.OfferAccepted {
			continue
		}

		committed, orderDone, err := h.commitAcceptance(ctx, cmd, candidate.Driver.ID(), round)
		if err != nil {
			return false, err
		}
		if committed {
			return true, h.announce(ctx, cmd, candidate.Driver.ID())
		}
		if orderDone {
			// The order moved on while we were offering; the search is over.
			return true, nil
		}
		// The driver filled up between ranking and acceptance; keep going
		// down the ranking.
	}

	return false, nil
}

func (h AssignDriverCommandHandler) rankedCandidates(ctx context.Context, pickup kernel.GeoPoint) ([]services.Candidate, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	drivers, err := uow.DriverRepository().GetAllAvailable(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]services.Candidate, 0, len(drivers))
	for _, d := range drivers {
		eta, err := h.geo.EstimateTravelTime(ctx, d.Location(), pickup)
		if err != nil {
			h.logger.ErrorContext(ctx, "travel time estimate failed",
				"driver_id", d.ID().String(), "error", err)
			continue
		}
		candidates = append(candidates, services.Candidate{Driver: d, TravelTime: eta})
	}

	return h.matcher.Rank(pickup, candidates, h.config.SearchRadiusMeters)
}

// offer serializes on the driver id so one driver never holds two
// outstanding offers.
func (h AssignDriverCommandHandler) offer(ctx context.Context, driverID, orderID kernel.UUID) (ports.OfferOutcome, error) {
	var outcome ports.OfferOutcome
	err := h.driverLocks.Do(driverID.String(), func() error {
		var offerErr error
		outcome, offerErr = h.gateway.Offer(ctx, driverID, orderID, uuid.NewString(), h.config.OfferTimeout)
		return offerErr
	})
	return outcome, err
}

// commitAcceptance locks the order, re-checks it is still assignable, and
// persists the driver slot, the order's driver and the new delivery in one
// transaction.
func (h AssignDriverCommandHandler) commitAcceptance(ctx context.Context, cmd AssignDriverCommand, driverID kernel.UUID, round int) (committed, orderDone bool, err error) {
	err = h.orderLocks.Do(cmd.OrderID().String(), func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer func() {
			_ = uow.Rollback(ctx)
		}()

		aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}
		if aggregate.Status() != order.ReadyForPickup || aggregate.DriverID() != nil {
			orderDone = true
			return nil
		}

		d, err := uow.DriverRepository().Get(ctx, driverID)
		if err != nil {
			return err
		}
		if err = d.TakeDelivery(); err != nil {
			// Capacity filled between ranking and acceptance; try the
			// next candidate round.
			return nil
		}

		if err = aggregate.AssignDriver(driverID, time.Now()); err != nil {
			return err
		}

		del, err := delivery.NewDelivery(cmd.OrderID(), driverID, round-1, time.Now())
		if err != nil {
			return err
		}

		if err = uow.DriverRepository().Update(ctx, d); err != nil {
			return err
		}
		if err = uow.OrderRepository().Update(ctx, aggregate); err != nil {
			return err
		}
		if err = uow.DeliveryRepository().Add(ctx, del); err != nil {
			return err
		}
		if err = uow.Commit(ctx); err != nil {
			return err
		}

		committed = true
		return nil
	})
	return committed, orderDone, err
}

func (h AssignDriverCommandHandler) announce(ctx context.Context, cmd AssignDriverCommand, driverID kernel.UUID) error {
	envelope, err := events.NewEnvelope(events.TypeDriverAssigned, events.ServiceDriver,
		events.DriverAssignedData{
			OrderID:  cmd.OrderID().String(),
			DriverID: driverID.String(),
		})
	if err != nil {
		return err
	}

	return h.publisher.Publish(ctx, events.TopicDriverEvents, cmd.OrderID().String(), envelope)
}
