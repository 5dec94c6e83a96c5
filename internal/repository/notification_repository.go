package repository

import (
	"context"

	"gorm.io/gorm"

	"campus_cruiser/internal/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// List returns notifications newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	if err := r.db.WithContext(ctx).Order("timestamp DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
