package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/contentscore/internal/entity"
	"anoa.com/contentscore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLedgerRepository_AwardAndTotal(t *testing.T) {
	db := testutil.NewDB(t)
	clock := &fakeClock{t: testutil.Day(2026, 3, 1, 9)}
	repo := NewLedgerRepository(db, clock.Now)
	ctx := context.Background()

	postID := int64(7)
	id, err := repo.Award(ctx, 1, 10, entity.ReasonPost, &postID)
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = repo.Award(ctx, 1, 25, entity.ReasonFirstPostBonus, &postID)
	require.NoError(t, err)
	_, err = repo.Correct(ctx, 1, -5, "duplicate post removed")
	require.NoError(t, err)
	_, err = repo.Award(ctx, 2, 10, entity.ReasonPost, nil)
	require.NoError(t, err)

	total, err := repo.TotalFor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), total)

	total, err = repo.TotalFor(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLedgerRepository_CountAndPostAward(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db, nil)
	ctx := context.Background()

	p1, p2 := int64(1), int64(2)
	_, err := repo.Award(ctx, 1, 10, entity.ReasonPost, &p1)
	require.NoError(t, err)
	_, err = repo.Award(ctx, 1, 25, entity.ReasonFirstPostBonus, &p1)
	require.NoError(t, err)
	_, err = repo.Award(ctx, 1, 10, entity.ReasonPost, &p2)
	require.NoError(t, err)

	count, err := repo.CountByReason(ctx, 1, entity.ReasonPost)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	has, err := repo.HasPostAward(ctx, 1, p2)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasPostAward(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, has)

	has, err = repo.HasPostAward(ctx, 2, p1)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLedgerRepository_HistoryNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	clock := &fakeClock{t: testutil.Day(2026, 3, 1, 9)}
	repo := NewLedgerRepository(db, clock.Now)
	ctx := context.Background()

	for _, reason := range []string{entity.ReasonPost, entity.ReasonFirstPostBonus, entity.ReasonStreakBonus} {
		_, err := repo.Award(ctx, 1, 1, reason, nil)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	history, err := repo.History(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.ReasonStreakBonus, history[0].Reason)
	assert.Equal(t, entity.ReasonFirstPostBonus, history[1].Reason)
}

func TestLedgerRepository_WeeklyTotals(t *testing.T) {
	db := testutil.NewDB(t)
	clock := &fakeClock{t: testutil.Day(2026, 3, 1, 9)}
	repo := NewLedgerRepository(db, clock.Now)
	ctx := context.Background()

	_, err := repo.Award(ctx, 1, 100, entity.ReasonPost, nil)
	require.NoError(t, err)

	clock.Advance(10 * 24 * time.Hour)
	_, err = repo.Award(ctx, 1, 10, entity.ReasonPost, nil)
	require.NoError(t, err)
	_, err = repo.Award(ctx, 2, 40, entity.ReasonPost, nil)
	require.NoError(t, err)

	totals, err := repo.WeeklyTotals(ctx, []int64{1, 2, 3}, clock.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(10), totals[1])
	assert.Equal(t, int64(40), totals[2])
	assert.Zero(t, totals[3])

	empty, err := repo.WeeklyTotals(ctx, nil, clock.Now())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedgerRepository_UserIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db, nil)
	ctx := context.Background()

	for _, userID := range []int64{3, 1, 3, 2} {
		_, err := repo.Award(ctx, userID, 1, entity.ReasonPost, nil)
		require.NoError(t, err)
	}

	ids, err := repo.UserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestLedgerRepository_WithTxRollback(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db, nil)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repo.WithTx(tx).Award(ctx, 1, 10, entity.ReasonPost, nil); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	total, err := repo.TotalFor(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLedgerRepository_CorrectKeepsNote(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLedgerRepository(db, nil)
	ctx := context.Background()

	_, err := repo.Correct(ctx, 1, 15, "migrated from old forum")
	require.NoError(t, err)

	history, err := repo.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.ReasonCorrection, history[0].Reason)
	assert.Equal(t, "migrated from old forum", history[0].Note)
	assert.Nil(t, history[0].PostID)
}
