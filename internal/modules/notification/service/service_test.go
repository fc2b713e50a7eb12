package service

import (
	"context"
	"testing"

	"anoa.com/contentscore/internal/entity"
	notifRepo "anoa.com/contentscore/internal/modules/notification/repository"
	"anoa.com/contentscore/internal/testutil"
	"anoa.com/contentscore/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	ctx := context.Background()

	first := &entity.Notification{UserID: 1, Type: entity.NotificationAchievementUnlocked, EntityKey: "FIRST_POST", Message: "First Post"}
	require.NoError(t, svc.CreateNotification(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	require.NoError(t, svc.CreateNotification(ctx, &entity.Notification{UserID: 1, Type: entity.NotificationTierUp, EntityKey: "Regular"}))
	require.NoError(t, svc.CreateNotification(ctx, &entity.Notification{UserID: 2, Type: entity.NotificationTierUp, EntityKey: "Regular"}))

	list, err := svc.GetNotifications(ctx, 1, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Another user's notification cannot be marked.
	err = svc.MarkAsRead(ctx, 2, first.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.MarkAsRead(ctx, 1, first.ID))
	count, err = svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAllAsRead(ctx, 1))
	count, err = svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = svc.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "user_notifications:42", Channel(42))
}
