// Package geo talks to the geo service's HTTP API for restaurant locations
// and travel-time estimates. Failures retry with exponential backoff up to
// a small budget; past it the caller gets ports.ErrExternalServiceUnavailable.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/ports"
)

const maxRetries = 3

// Client implements ports.GeoClient over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a geo service client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger.With("component", "geo-client"),
	}
}

type locationResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type travelTimeResponse struct {
	Seconds int64 `json:"seconds"`
}

// GetLocation resolves the coordinates of a restaurant.
func (c *Client) GetLocation(ctx context.Context, restaurantID kernel.UUID) (kernel.GeoPoint, error) {
	var resp locationResponse
	path := "/restaurants/" + restaurantID.String() + "/location"
	if err := c.get(ctx, path, &resp); err != nil {
		return kernel.GeoPoint{}, err
	}

	return kernel.NewGeoPoint(resp.Lat, resp.Lon)
}

// EstimateTravelTime estimates a driver's travel time between two points.
func (c *Client) EstimateTravelTime(ctx context.Context, from, to kernel.GeoPoint) (time.Duration, error) {
	var resp travelTimeResponse
	path := fmt.Sprintf("/travel-time?from=%f,%f&to=%f,%f",
		from.Lat(), from.Lon(), to.Lat(), to.Lon())
	if err := c.get(ctx, path, &resp); err != nil {
		return 0, err
	}

	return time.Duration(resp.Seconds) * time.Second, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	var permanent bool
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			permanent = true
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("geo service returned %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			permanent = true
			return backoff.Permanent(fmt.Errorf("geo service rejected %s: %d", path, resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			permanent = true
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)

	err := backoff.Retry(operation, policy)
	if err == nil {
		return nil
	}
	if permanent {
		return err
	}

	c.logger.WarnContext(ctx, "geo service unreachable after retries",
		"path", path, "error", err)
	return fmt.Errorf("%w: GET %s: %s", ports.ErrExternalServiceUnavailable, path, err)
}
