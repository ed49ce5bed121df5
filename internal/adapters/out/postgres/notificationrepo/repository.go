package notificationrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"coordinator/internal/core/domain/model/kernel"
	"coordinator/internal/core/domain/model/notification"
	"coordinator/internal/pkg/errs"
)

// GormNotificationRepository implements ports.NotificationRepository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a repository on the given connection.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Add saves a new notification.
func (r *GormNotificationRepository) Add(ctx context.Context, aggregate *notification.Notification) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update saves an existing notification.
func (r *GormNotificationRepository) Update(ctx context.Context, aggregate *notification.Notification) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Where("id = ?", dto.ID).Save(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("notification", aggregate.ID())
	}
	return nil
}

// Get retrieves a notification by id.
func (r *GormNotificationRepository) Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto NotificationDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("notification", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllForRecipient retrieves a user's notifications, newest first.
func (r *GormNotificationRepository) GetAllForRecipient(
	ctx context.Context,
	recipientID kernel.UUID,
) ([]*notification.Notification, error) {
	return r.findForRecipient(ctx, recipientID, false)
}

// GetAllUnreadForRecipient retrieves a user's unread notifications, newest
// first.
func (r *GormNotificationRepository) GetAllUnreadForRecipient(
	ctx context.Context,
	recipientID kernel.UUID,
) ([]*notification.Notification, error) {
	return r.findForRecipient(ctx, recipientID, true)
}

// Exists reports whether a notification with the dedup key was already
// stored.
func (r *GormNotificationRepository) Exists(ctx context.Context, dedupKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&NotificationDTO{}).
		Where("dedup_key = ?", dedupKey).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormNotificationRepository) findForRecipient(
	ctx context.Context,
	recipientID kernel.UUID,
	unreadOnly bool,
) ([]*notification.Notification, error) {
	if err := recipientID.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID.Bytes())
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var dtos []NotificationDTO
	if err := query.Order("created_at DESC").Find(&dtos).Error; err != nil {
		return nil, err
	}

	notifications := make([]*notification.Notification, 0, len(dtos))
	for _, dto := range dtos {
		aggregate, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, aggregate)
	}
	return notifications, nil
}
