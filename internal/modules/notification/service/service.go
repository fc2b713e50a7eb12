package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/contentscore/internal/entity"
	notifRepo "anoa.com/contentscore/internal/modules/notification/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID int64, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID int64, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// Channel is the Redis pub/sub channel a user's live notifications go to.
func Channel(userID int64) string {
	return fmt.Sprintf("user_notifications:%d", userID)
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	// 1. Save to DB
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	// 2. Publish to Redis if Redis is available
	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err != nil {
			return nil
		}
		if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
			log.WithError(err).WithField("user_id", notification.UserID).Warn("failed to publish notification")
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int64, limit, offset int) ([]entity.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID int64, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
