package repository

import (
	"context"
	"fmt"
	"time"

	"anoa.com/contentscore/internal/entity"
	"gorm.io/gorm"
)

// LedgerRepository is the append-only point ledger. It exposes no
// update or delete; corrections are new rows with entity.ReasonCorrection.
type LedgerRepository interface {
	Award(ctx context.Context, userID int64, points int, reason string, postID *int64) (uint, error)
	// Correct appends a signed manual adjustment.
	Correct(ctx context.Context, userID int64, points int, note string) (uint, error)
	TotalFor(ctx context.Context, userID int64) (int64, error)
	CountByReason(ctx context.Context, userID int64, reason string) (int64, error)
	HasPostAward(ctx context.Context, userID, postID int64) (bool, error)
	History(ctx context.Context, userID int64, limit int) ([]entity.PointTransaction, error)
	WeeklyTotals(ctx context.Context, userIDs []int64, since time.Time) (map[int64]int64, error)
	UserIDs(ctx context.Context) ([]int64, error)
	WithTx(tx *gorm.DB) LedgerRepository
}

type ledgerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLedgerRepository(db *gorm.DB, now func() time.Time) LedgerRepository {
	if now == nil {
		now = time.Now
	}
	return &ledgerRepository{db: db, now: now}
}

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: tx, now: r.now}
}

func (r *ledgerRepository) Award(ctx context.Context, userID int64, points int, reason string, postID *int64) (uint, error) {
	tx := &entity.PointTransaction{
		UserID:    userID,
		Points:    points,
		Reason:    reason,
		PostID:    postID,
		CreatedAt: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return 0, fmt.Errorf("failed to append %s transaction for user %d: %w", reason, userID, err)
	}
	return tx.ID, nil
}

func (r *ledgerRepository) Correct(ctx context.Context, userID int64, points int, note string) (uint, error) {
	tx := &entity.PointTransaction{
		UserID:    userID,
		Points:    points,
		Reason:    entity.ReasonCorrection,
		Note:      note,
		CreatedAt: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return 0, fmt.Errorf("failed to append correction for user %d: %w", userID, err)
	}
	return tx.ID, nil
}

func (r *ledgerRepository) TotalFor(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.PointTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum points for user %d: %w", userID, err)
	}
	return total, nil
}

func (r *ledgerRepository) CountByReason(ctx context.Context, userID int64, reason string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.PointTransaction{}).
		Where("user_id = ? AND reason = ?", userID, reason).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s transactions for user %d: %w", reason, userID, err)
	}
	return count, nil
}

func (r *ledgerRepository) HasPostAward(ctx context.Context, userID, postID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.PointTransaction{}).
		Where("user_id = ? AND post_id = ? AND reason = ?", userID, postID, entity.ReasonPost).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check award for post %d: %w", postID, err)
	}
	return count > 0, nil
}

func (r *ledgerRepository) History(ctx context.Context, userID int64, limit int) ([]entity.PointTransaction, error) {
	var txs []entity.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load point history for user %d: %w", userID, err)
	}
	return txs, nil
}

func (r *ledgerRepository) WeeklyTotals(ctx context.Context, userIDs []int64, since time.Time) (map[int64]int64, error) {
	totals := make(map[int64]int64, len(userIDs))
	if len(userIDs) == 0 {
		return totals, nil
	}

	type result struct {
		UserID int64
		Score  int64
	}
	var results []result
	err := r.db.WithContext(ctx).Model(&entity.PointTransaction{}).
		Select("user_id, SUM(points) as score").
		Where("user_id IN ? AND created_at >= ?", userIDs, since.UTC()).
		Group("user_id").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum weekly points: %w", err)
	}

	for _, res := range results {
		totals[res.UserID] = res.Score
	}
	return totals, nil
}

func (r *ledgerRepository) UserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&entity.PointTransaction{}).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger users: %w", err)
	}
	return ids, nil
}
