package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/contentscore/internal/entity"
	"anoa.com/contentscore/pkg/apperror"
	"gorm.io/gorm"
)

// PostRepository reads the publish history owned by the posting subsystem.
type PostRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Post, error)
	// PublishTimes returns publish instants of userID's posts in [from, to].
	PublishTimes(ctx context.Context, userID int64, from, to time.Time) ([]time.Time, error)
	CountPublished(ctx context.Context, userID int64, from, to time.Time) (int64, error)
	PostCounts(ctx context.Context, userIDs []int64) (map[int64]int64, error)
	WithTx(tx *gorm.DB) PostRepository
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx}
}

func (r *postRepository) published(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entity.Post{}).
		Where("status = ? AND published_at IS NOT NULL", entity.PostStatusPublished)
}

func (r *postRepository) FindByID(ctx context.Context, id int64) (*entity.Post, error) {
	var post entity.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(fmt.Sprintf("post %d not found", id))
		}
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	return &post, nil
}

func (r *postRepository) PublishTimes(ctx context.Context, userID int64, from, to time.Time) ([]time.Time, error) {
	var posts []entity.Post
	err := r.published(ctx).
		Select("published_at").
		Where("user_id = ? AND published_at >= ? AND published_at <= ?", userID, from.UTC(), to.UTC()).
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load publish history for user %d: %w", userID, err)
	}

	times := make([]time.Time, 0, len(posts))
	for _, p := range posts {
		if p.PublishedAt != nil {
			times = append(times, *p.PublishedAt)
		}
	}
	return times, nil
}

func (r *postRepository) CountPublished(ctx context.Context, userID int64, from, to time.Time) (int64, error) {
	var count int64
	err := r.published(ctx).
		Where("user_id = ? AND published_at >= ? AND published_at <= ?", userID, from.UTC(), to.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count posts for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *postRepository) PostCounts(ctx context.Context, userIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	type result struct {
		UserID int64
		Count  int64
	}
	var results []result
	err := r.published(ctx).
		Select("user_id, COUNT(*) as count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	for _, res := range results {
		counts[res.UserID] = res.Count
	}
	return counts, nil
}
