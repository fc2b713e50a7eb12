package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"anoa.com/contentscore/internal/entity"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var postSeq int64

// Day returns midnight UTC of the given date plus an hour offset, which keeps
// fixtures readable: Day(2026, 3, 1, 9) is 2026-03-01 09:00 UTC.
func Day(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func CreateUser(t *testing.T, db *gorm.DB, id int64) *entity.User {
	t.Helper()

	user := &entity.User{
		ID:       id,
		Username: fmt.Sprintf("user%d", id),
		Role:     entity.RoleMember,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateAdmin(t *testing.T, db *gorm.DB, id int64) *entity.User {
	t.Helper()

	user := &entity.User{
		ID:       id,
		Username: fmt.Sprintf("admin%d", id),
		Role:     entity.RoleAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// PublishPost stores a published post for userID at the given instant.
func PublishPost(t *testing.T, db *gorm.DB, userID int64, at time.Time) *entity.Post {
	t.Helper()

	publishedAt := at.UTC()
	post := &entity.Post{
		ID:          atomic.AddInt64(&postSeq, 1),
		UserID:      userID,
		Title:       fmt.Sprintf("post by %d at %s", userID, publishedAt.Format(time.RFC3339)),
		Status:      entity.PostStatusPublished,
		PublishedAt: &publishedAt,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// DraftPost stores an unpublished post, which is not a publish event.
func DraftPost(t *testing.T, db *gorm.DB, userID int64) *entity.Post {
	t.Helper()

	post := &entity.Post{
		ID:     atomic.AddInt64(&postSeq, 1),
		UserID: userID,
		Title:  "draft",
		Status: entity.PostStatusDraft,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
