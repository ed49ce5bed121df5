package channels

import (
	"context"
	"log/slog"

	"coordinator/internal/core/domain/model/notification"
)

// LogSender records the send instead of delivering it. It stands in for
// channels whose provider is not wired up yet.
type LogSender struct {
	channel notification.Channel
	logger  *slog.Logger
}

// NewSMSSender creates the log-only sms sender.
func NewSMSSender(logger *slog.Logger) *LogSender {
	return &LogSender{
		channel: notification.ChannelSMS,
		logger:  logger.With("component", "sms-sender"),
	}
}

// NewPushSender creates the log-only push sender.
func NewPushSender(logger *slog.Logger) *LogSender {
	return &LogSender{
		channel: notification.ChannelPush,
		logger:  logger.With("component", "push-sender"),
	}
}

// Channel reports the medium this sender serves.
func (s *LogSender) Channel() notification.Channel {
	return s.channel
}

// Send logs the notification and succeeds.
func (s *LogSender) Send(ctx context.Context, n *notification.Notification) error {
	s.logger.InfoContext(ctx, "notification delivered",
		"channel", s.channel.String(),
		"recipient_id", n.RecipientID().String(),
		"title", n.Title())
	return nil
}
