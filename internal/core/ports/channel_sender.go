package ports

import (
	"context"

	"coordinator/internal/core/domain/model/notification"
)

// ChannelSender delivers one notification over one medium. Delivery is
// best-effort: implementations retry transient failures a bounded number of
// times and return the last error, which the fan-out logs without blocking
// order progress.
type ChannelSender interface {
	// Channel reports which medium this sender serves.
	Channel() notification.Channel

	// Send delivers the notification.
	Send(ctx context.Context, n *notification.Notification) error
}
