package repository

import (
	"context"

	"chirp/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository persists notification records in Postgres.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, toUser string, limit int) ([]models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) (err error) {
	ctx, done := startOp(ctx, "postgresql", "Create", "notifications")
	defer func() { done(err) }()

	if err = r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, toUser string, limit int) (_ []models.Notification, err error) {
	ctx, done := startOp(ctx, "postgresql", "ListForUser", "notifications")
	defer func() { done(err) }()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.Notification
	err = r.db.WithContext(ctx).
		Where("to_user = ?", toUser).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
