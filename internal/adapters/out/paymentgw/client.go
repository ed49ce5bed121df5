// Package paymentgw talks to the payment provider's HTTP API. Transient
// failures (connection errors, 5xx) are retried with exponential backoff; a
// spent retry budget surfaces as ports.ErrExternalServiceUnavailable so
// callers escalate instead of blocking a consumer loop.
package paymentgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/payment"
	"coordinator/internal/core/ports"
)

const maxRetries = 4

// Client implements ports.PaymentProvider over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client. The base URL points at the provider
// API root, e.g. "https://payments.internal/v1".
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "payment-provider"),
	}
}

type intentRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type intentResponse struct {
	ProviderRef string `json:"provider_ref"`
	Status      string `json:"status"`
}

type refundRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateIntent opens an intent at the provider, keyed on the order id so
// repeats return the same provider intent.
func (c *Client) CreateIntent(ctx context.Context, orderID kernel.UUID, amount kernel.Money) (ports.ProviderIntent, error) {
	body := intentRequest{
		IdempotencyKey: orderID.String(),
		Amount:         amount.Amount(),
		Currency:       amount.Currency(),
	}

	var resp intentResponse
	err := c.do(ctx, http.MethodPost, "/intents", body, &resp)
	if err != nil {
		return ports.ProviderIntent{}, err
	}

	return toProviderIntent(resp)
}

// GetIntent fetches the provider's current view of an intent.
func (c *Client) GetIntent(ctx context.Context, providerRef string) (ports.ProviderIntent, error) {
	var resp intentResponse
	err := c.do(ctx, http.MethodGet, "/intents/"+providerRef, nil, &resp)
	if err != nil {
		return ports.ProviderIntent{}, err
	}

	return toProviderIntent(resp)
}

// RequestRefund asks the provider to refund a settled intent.
func (c *Client) RequestRefund(ctx context.Context, providerRef string, amount kernel.Money) error {
	body := refundRequest{Amount: amount.Amount(), Currency: amount.Currency()}
	return c.do(ctx, http.MethodPost, "/intents/"+providerRef+"/refunds", body, nil)
}

func toProviderIntent(resp intentResponse) (ports.ProviderIntent, error) {
	status, err := payment.IntentStatusFromString(resp.Status)
	if err != nil {
		return ports.ProviderIntent{}, err
	}
	return ports.ProviderIntent{ProviderRef: resp.ProviderRef, Status: status}, nil
}

// do sends one request with bounded retry. Only connection failures and
// 5xx responses retry; 4xx responses are permanent.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payloadBytes []byte
	if body != nil {
		var err error
		payloadBytes, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	// backoff.Retry unwraps Permanent errors before returning them, so
	// permanence is tracked on the side to skip the unavailability wrap.
	var permanent bool
	operation := func() error {
		var reader io.Reader
		if payloadBytes != nil {
			reader = bytes.NewReader(payloadBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			permanent = true
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("provider returned %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			permanent = true
			return backoff.Permanent(fmt.Errorf("provider rejected %s %s: %d", method, path, resp.StatusCode))
		}

		if out == nil {
			return nil
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

	c.logger.WarnContext(ctx, "provider unreachable after retries",
		"method", method, "path", path, "error", err)
	return fmt.Errorf("%w: %s %s: %s", ports.ErrExternalServiceUnavailable, method, path, err)
}
