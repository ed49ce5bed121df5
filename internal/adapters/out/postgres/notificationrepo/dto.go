// Package notificationrepo maps the notification aggregate to its
// relational shape. The dedup key column carries a unique index, so the
// fan-out's exactly-once guarantee holds even across concurrent consumers.
package notificationrepo

import (
	"time"

	"github.com/google/uuid"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/notification"
)

// NotificationDTO is the database row for a notification.
type NotificationDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID `gorm:"type:uuid;index"`
	EventID     string
	Channel     string
	Title       string
	Body        string
	Read        bool   `gorm:"index"`
	DedupKey    string `gorm:"uniqueIndex"`
	CreatedAt   time.Time
}

// TableName overrides GORM's default naming to use "notifications".
func (NotificationDTO) TableName() string {
	return "notifications"
}

func fromDomain(aggregate *notification.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          aggregate.ID().Bytes(),
		RecipientID: aggregate.RecipientID().Bytes(),
		EventID:     aggregate.EventID(),
		Channel:     aggregate.Channel().String(),
		Title:       aggregate.Title(),
		Body:        aggregate.Body(),
		Read:        aggregate.IsRead(),
		DedupKey:    aggregate.DedupKey(),
		CreatedAt:   aggregate.CreatedAt(),
	}
}

func toDomain(dto NotificationDTO) (*notification.Notification, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	recipientID, err := kernel.UUIDFromBytes(dto.RecipientID[:])
	if err != nil {
		return nil, err
	}
	channel, err := notification.ChannelFromString(dto.Channel)
	if err != nil {
		return nil, err
	}

	return notification.RestoreNotification(id, recipientID, dto.EventID, channel,
		dto.Title, dto.Body, dto.Read, dto.CreatedAt)
}
