// Package services provides domain services that coordinate business rules
// across multiple aggregates. The package contains the DriverMatcher, which
// ranks candidate drivers for an order ready for pickup.
package services

import (
	"errors"
	"sort"
	"time"

	"coordinator/internal/core/domain/model/driver"
	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/errs"
)

// ErrNoCandidates is returned when no driver within the search radius can
// take another delivery. The caller decides whether to retry the round or
// give up; it is an expected outcome, not a failure.
var ErrNoCandidates = errors.New("no candidate drivers")

// Candidate pairs a driver with the estimated travel time from the driver's
// position to the pickup point.
type Candidate struct {
	Driver     *driver.Driver
	TravelTime time.Duration
}

// DriverMatcher ranks drivers for an order's pickup point.
//
// Selection rules:
//   - drivers outside the search radius are skipped
//   - drivers that are unavailable or at their active-delivery cap are skipped
//   - remaining candidates are ordered by estimated travel time ascending,
//     ties broken by straight-line distance
type DriverMatcher struct{}

// NewDriverMatcher creates a DriverMatcher.
func NewDriverMatcher() DriverMatcher {
	return DriverMatcher{}
}

// Rank filters and orders the candidates for a pickup point. It returns
// ErrNoCandidates when nothing within radiusMeters can take the order.
func (m DriverMatcher) Rank(pickup kernel.GeoPoint, candidates []Candidate, radiusMeters float64) ([]Candidate, error) {
	if err := pickup.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("radiusMeters", radiusMeters, 1, 100000)
	}

	type scored struct {
		candidate Candidate
		distance  float64
	}

	eligible := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		if err := candidate.Driver.Validate(); err != nil {
			return nil, err
		}
		if !candidate.Driver.CanAcceptDelivery() {
			continue
		}
		distance, err := candidate.Driver.DistanceTo(pickup)
		if err != nil {
			return nil, err
		}
		if distance > radiusMeters {
			continue
		}
		eligible = append(eligible, scored{candidate: candidate, distance: distance})
	}

	if len(eligible) == 0 {
		return nil, ErrNoCandidates
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].candidate.TravelTime != eligible[j].candidate.TravelTime {
			return eligible[i].candidate.TravelTime < eligible[j].candidate.TravelTime
		}
		return eligible[i].distance < eligible[j].distance
	})

	ranked := make([]Candidate, len(eligible))
	for i, s := range eligible {
		ranked[i] = s.candidate
	}
	return ranked, nil
}
