package repository

import (
	"context"
	"fmt"

	"anoa.com/contentscore/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	EarnedTypes(ctx context.Context, userID int64) (map[string]bool, error)
	// Create reports inserted=false when the user already holds that type.
	Create(ctx context.Context, a *entity.UserAchievement) (inserted bool, err error)
	ListByUser(ctx context.Context, userID int64) ([]entity.UserAchievement, error)
	WithTx(tx *gorm.DB) AchievementRepository
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) WithTx(tx *gorm.DB) AchievementRepository {
	return &achievementRepository{db: tx}
}

func (r *achievementRepository) EarnedTypes(ctx context.Context, userID int64) (map[string]bool, error) {
	var types []string
	err := r.db.WithContext(ctx).Model(&entity.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("type", &types).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements for user %d: %w", userID, err)
	}

	earned := make(map[string]bool, len(types))
	for _, t := range types {
		earned[t] = true
	}
	return earned, nil
}

func (r *achievementRepository) Create(ctx context.Context, a *entity.UserAchievement) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(a)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record achievement %s for user %d: %w", a.Type, a.UserID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *achievementRepository) ListByUser(ctx context.Context, userID int64) ([]entity.UserAchievement, error) {
	var achievements []entity.UserAchievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Order("id DESC").
		Find(&achievements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements for user %d: %w", userID, err)
	}
	return achievements, nil
}
