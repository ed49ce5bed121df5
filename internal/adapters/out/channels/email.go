// Package channels implements the notification channel senders. Email goes
// through the mail relay's HTTP API; sms and push are log-only stubs that
// honor the contract until those providers are wired up.
package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"coordinator/internal/core/domain/model/notification"
	"coordinator/internal/core/ports"
)

const emailMaxRetries = 3

// EmailSender delivers notifications through the mail relay.
type EmailSender struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewEmailSender creates a sender for the email channel.
func NewEmailSender(baseURL string, logger *slog.Logger) *EmailSender {
	return &EmailSender{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "email-sender"),
	}
}

// Channel reports the medium this sender serves.
func (s *EmailSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

type emailRequest struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// Send delivers one notification, retrying transient relay failures.
func (s *EmailSender) Send(ctx context.Context, n *notification.Notification) error {
	body, err := json.Marshal(emailRequest{
		RecipientID: n.RecipientID().String(),
		Subject:     n.Title(),
		Body:        n.Body(),
	})
	if err != nil {
		return err
	}

	operation := func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			s.baseURL+"/send", bytes.NewReader(body))
		if reqErr != nil {
			return backoff.Permanent(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := s.httpClient.Do(req)
		if doErr != nil {
			return doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("mail relay returned %d", resp.StatusCode)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), emailMaxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("%w: email to %s: %s",
			ports.ErrExternalServiceUnavailable, n.RecipientID(), err)
	}
	return nil
}
