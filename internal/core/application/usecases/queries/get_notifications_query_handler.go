package queries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coordinator/internal/core/domain/model/kernel"
)

// GetNotificationsQueryHandler reads a user's notifications from the
// database.
type GetNotificationsQueryHandler struct {
	db *gorm.DB
}

// NewGetNotificationsQueryHandler creates a handler over a GORM connection.
func NewGetNotificationsQueryHandler(db *gorm.DB) GetNotificationsQueryHandler {
	return GetNotificationsQueryHandler{db: db}
}

// Handle returns the recipient's notifications, newest first.
func (h GetNotificationsQueryHandler) Handle(
	ctx context.Context,
	query GetNotificationsQuery,
) ([]GetNotificationsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sql := `
		SELECT id, channel, title, body, read, created_at
		FROM notifications
		WHERE recipient_id = ?
	`
	args := []any{query.RecipientID().Bytes()}
	if query.UnreadOnly() {
		sql += " AND read = false"
	}
	sql += " ORDER BY created_at DESC"

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]GetNotificationsQueryResponse, 0)
	for rows.Next() {
		var (
			resp GetNotificationsQueryResponse
			id   uuid.UUID
		)

		err = rows.Scan(&id, &resp.Channel, &resp.Title, &resp.Body, &resp.Read, &resp.CreatedAt)
		if err != nil {
			return nil, err
		}

		notificationID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = notificationID
		notifications = append(notifications, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}
