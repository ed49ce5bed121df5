package queries

import (
	"errors"
	"time"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/pkg/guard"
)

// ErrGetNotificationsQueryIsNotConstructed is returned when the query
// bypassed its constructor.
var ErrGetNotificationsQueryIsNotConstructed = errors.New(
	"GetNotificationsQuery must be created via NewGetNotificationsQuery constructor",
)

// GetNotificationsQuery retrieves a user's notifications, optionally only
// the unread ones.
type GetNotificationsQuery struct {
	recipientID kernel.UUID
	unreadOnly  bool

	guard guard.ConstructorGuard
}

// NewGetNotificationsQuery creates a query for one recipient's
// notifications.
func NewGetNotificationsQuery(recipientID kernel.UUID, unreadOnly bool) (GetNotificationsQuery, error) {
	if err := recipientID.Validate(); err != nil {
		return GetNotificationsQuery{}, err
	}

	return GetNotificationsQuery{
		recipientID: recipientID,
		unreadOnly:  unreadOnly,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetNotificationsQuery) Validate() error {
	return q.guard.Validate(ErrGetNotificationsQueryIsNotConstructed)
}

// RecipientID returns the user whose notifications are requested.
func (q GetNotificationsQuery) RecipientID() kernel.UUID { return q.recipientID }

// UnreadOnly reports whether read notifications are filtered out.
func (q GetNotificationsQuery) UnreadOnly() bool { return q.unreadOnly }

// GetNotificationsQueryResponse is one notification.
type GetNotificationsQueryResponse struct {
	ID        kernel.UUID
	Channel   string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}
