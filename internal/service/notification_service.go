package service

import (
	"context"
	"errors"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
)

// ============================================
// Notification Service (for handlers)
// ============================================

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*repository.Notification, error)
	Count(ctx context.Context, userID string) (total int, unread int, err error)
	MarkAsRead(ctx context.Context, userID, id string) error
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*repository.Notification, error) {
	notifications, err := s.notificationRepo.FindByUserID(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, backend(err)
	}
	return notifications, nil
}

func (s *notificationService) Count(ctx context.Context, userID string) (int, int, error) {
	total, unread, err := s.notificationRepo.CountByUserID(ctx, userID)
	if err != nil {
		return 0, 0, backend(err)
	}
	return total, unread, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	return s.mapNotFound(s.notificationRepo.MarkAsRead(ctx, userID, id))
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	count, err := s.notificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, backend(err)
	}
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id string) error {
	return s.mapNotFound(s.notificationRepo.Delete(ctx, userID, id))
}

func (s *notificationService) mapNotFound(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNoRows):
		return ErrNotificationNotFound
	default:
		return backend(err)
	}
}
