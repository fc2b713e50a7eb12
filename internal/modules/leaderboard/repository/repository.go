package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/contentscore/internal/entity"
	"anoa.com/contentscore/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxRefreshAttempts = 3

// ErrStaleSnapshot is returned when a concurrent writer bumped the snapshot
// version between read and write more often than the retry budget allows.
var ErrStaleSnapshot = errors.New("user score snapshot changed concurrently")

// SnapshotRepository stores the per-user score snapshot the leaderboard reads.
type SnapshotRepository interface {
	Get(ctx context.Context, userID int64) (*entity.UserScore, error)
	// Refresh loads the snapshot (or a zero one), lets apply overwrite the
	// derived fields and writes it back with a version compare-and-swap.
	Refresh(ctx context.Context, userID int64, apply func(*entity.UserScore)) (*entity.UserScore, error)
	RankOf(ctx context.Context, totalPoints int64) (int64, error)
	Top(ctx context.Context, limit int) ([]entity.UserScore, error)
	CountUsers(ctx context.Context) (int64, error)
	AllUserIDs(ctx context.Context) ([]int64, error)
	WithTx(tx *gorm.DB) SnapshotRepository
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) WithTx(tx *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: tx}
}

func (r *snapshotRepository) Get(ctx context.Context, userID int64) (*entity.UserScore, error) {
	var score entity.UserScore
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&score).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(fmt.Sprintf("no score for user %d", userID))
		}
		return nil, fmt.Errorf("failed to load score for user %d: %w", userID, err)
	}
	return &score, nil
}

func (r *snapshotRepository) Refresh(ctx context.Context, userID int64, apply func(*entity.UserScore)) (*entity.UserScore, error) {
	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		var saved *entity.UserScore
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			saved, err = r.casWrite(tx, userID, apply)
			return err
		})
		if errors.Is(err, ErrStaleSnapshot) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return saved, nil
	}
	return nil, ErrStaleSnapshot
}

func (r *snapshotRepository) casWrite(tx *gorm.DB, userID int64, apply func(*entity.UserScore)) (*entity.UserScore, error) {
	query := tx.Where("user_id = ?", userID)
	// SQLite has no row locks; the version check alone guards it.
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var current entity.UserScore
	err := query.First(&current).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		next := entity.UserScore{UserID: userID}
		apply(&next)
		next.UserID = userID
		next.Version = 1
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&next)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to create score for user %d: %w", userID, result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrStaleSnapshot
		}
		return &next, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load score for user %d: %w", userID, err)
	}

	expected := current.Version
	next := current
	apply(&next)
	next.UserID = userID
	next.Version = expected + 1

	result := tx.Model(&entity.UserScore{}).
		Where("user_id = ? AND version = ?", userID, expected).
		Updates(map[string]interface{}{
			"total_points":   next.TotalPoints,
			"current_streak": next.CurrentStreak,
			"best_streak":    next.BestStreak,
			"last_post_date": next.LastPostDate,
			"version":        next.Version,
			"updated_at":     tx.NowFunc(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update score for user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrStaleSnapshot
	}
	return &next, nil
}

func (r *snapshotRepository) RankOf(ctx context.Context, totalPoints int64) (int64, error) {
	var ahead int64
	err := r.db.WithContext(ctx).Model(&entity.UserScore{}).
		Where("total_points > ?", totalPoints).
		Count(&ahead).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	return ahead + 1, nil
}

func (r *snapshotRepository) Top(ctx context.Context, limit int) ([]entity.UserScore, error) {
	var scores []entity.UserScore
	err := r.db.WithContext(ctx).
		Order("total_points DESC").
		Order("user_id ASC").
		Limit(limit).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return scores, nil
}

func (r *snapshotRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.UserScore{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count scored users: %w", err)
	}
	return count, nil
}

func (r *snapshotRepository) AllUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&entity.UserScore{}).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scored users: %w", err)
	}
	return ids, nil
}
