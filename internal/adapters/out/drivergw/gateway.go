// Package drivergw delivers assignment offers to the driver app through
// its HTTP API. The offer call blocks until the driver answers or the
// timeout lapses; no answer is an outcome, not an error.
package drivergw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/ports"
)

// Gateway implements ports.DriverGateway over HTTP.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGateway creates a driver app gateway.
func NewGateway(baseURL string, logger *slog.Logger) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		// The per-request deadline comes from the offer timeout, not the
		// client.
		httpClient: &http.Client{},
		logger:     logger.With("component", "driver-gateway"),
	}
}

type offerRequest struct {
	OrderID        string `json:"order_id"`
	AttemptID      string `json:"attempt_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type offerResponse struct {
	Outcome string `json:"outcome"`
}

// Offer proposes an order to a driver and waits up to timeout for the
// answer. The attempt id travels with the offer so a late answer is dropped
// by the driver service rather than applied to a newer round.
func (g *Gateway) Offer(
	ctx context.Context,
	driverID kernel.UUID,
	orderID kernel.UUID,
	attemptID string,
	timeout time.Duration,
) (ports.OfferOutcome, error) {
	body, err := json.Marshal(offerRequest{
		OrderID:        orderID.String(),
		AttemptID:      attemptID,
		TimeoutSeconds: int(timeout.Seconds()),
	})
	if err != nil {
		return ports.OfferOutcomeUnknown, err
	}

	// Leave the driver service a moment to answer "timed out" itself
	// before the transport gives up.
	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	url := g.baseURL + "/drivers/" + driverID.String() + "/offers"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ports.OfferOutcomeUnknown, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil && ctx.Err() == nil {
			g.logger.InfoContext(ctx, "offer transport deadline lapsed",
				"driver_id", driverID.String(), "order_id", orderID.String())
			return ports.OfferTimedOut, nil
		}
		return ports.OfferOutcomeUnknown, fmt.Errorf("%w: offer to driver %s: %s",
			ports.ErrExternalServiceUnavailable, driverID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.OfferOutcomeUnknown, fmt.Errorf("%w: driver service returned %d",
			ports.ErrExternalServiceUnavailable, resp.StatusCode)
	}

	var decoded offerResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.OfferOutcomeUnknown, err
	}

	switch decoded.Outcome {
	case "accepted":
		return ports.OfferAccepted, nil
	case "declined":
		return ports.OfferDeclined, nil
	case "timed_out":
		return ports.OfferTimedOut, nil
	default:
		return ports.OfferOutcomeUnknown, fmt.Errorf("unknown offer outcome %q", decoded.Outcome)
	}
}
