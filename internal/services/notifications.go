package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/models"
)

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context) ([]models.Notification, error)
}

// Publisher pushes a notification to connected clients.
type Publisher interface {
	Publish(n models.Notification)
}

type NotificationService struct {
	store     NotificationStore
	publisher Publisher
	now       func() time.Time
}

func NewNotificationService(store NotificationStore, publisher Publisher) *NotificationService {
	return &NotificationService{store: store, publisher: publisher, now: time.Now}
}

// Send stores a broadcast message and publishes it to live subscribers.
func (s *NotificationService) Send(ctx context.Context, message string) (*models.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, newValidationError("message", "Notification message cannot be empty")
	}
	n := &models.Notification{Message: message, Timestamp: s.now().UTC()}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.Publish(*n)
	}
	logrus.WithField("notification_id", n.ID).Info("Notification sent")
	return n, nil
}

// List returns all notifications, newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	return s.store.List(ctx)
}
