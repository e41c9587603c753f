package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/concert-buddy/internal/db"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// CreateBatch writes all notifications in a single INSERT, so either every
// recipient gets one or none does.
func (r *NotificationRepository) CreateBatch(ctx context.Context, items []db.Notification) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// ListForUser returns the newest notifications for a recipient.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]db.Notification, error) {
	var rows []db.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkAllRead flags every unread notification of userID as read and returns how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("recipient_user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
