package ports

import (
	"context"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/notification"
)

// NotificationRepository defines the persistence contract for notifications
// and the fan-out deduplication check.
type NotificationRepository interface {
	// Add persists a new notification.
	Add(ctx context.Context, aggregate *notification.Notification) error

	// Update persists changes to an existing notification.
	Update(ctx context.Context, aggregate *notification.Notification) error

	// Get retrieves a notification by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error)

	// GetAllForRecipient retrieves a user's notifications, newest first.
	GetAllForRecipient(ctx context.Context, recipientID kernel.UUID) ([]*notification.Notification, error)

	// GetAllUnreadForRecipient retrieves a user's unread notifications.
	GetAllUnreadForRecipient(ctx context.Context, recipientID kernel.UUID) ([]*notification.Notification, error)

	// Exists reports whether a notification with the dedup key was already
	// produced.
	Exists(ctx context.Context, dedupKey string) (bool, error)
}
