package repository

import (
	"context"
	"testing"

	"anoa.com/contentscore/internal/entity"
	"anoa.com/contentscore/internal/testutil"
	"anoa.com/contentscore/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTotal(total int64) func(*entity.UserScore) {
	return func(s *entity.UserScore) { s.TotalPoints = total }
}

func TestSnapshotRepository_RefreshBumpsVersion(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	lastPost := testutil.Day(2026, 3, 1, 9)
	saved, err := repo.Refresh(ctx, 1, func(s *entity.UserScore) {
		s.TotalPoints = 35
		s.CurrentStreak = 1
		s.BestStreak = 1
		s.LastPostDate = &lastPost
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	saved, err = repo.Refresh(ctx, 1, func(s *entity.UserScore) {
		assert.Equal(t, int64(35), s.TotalPoints)
		s.TotalPoints = 47
		s.CurrentStreak = 2
		s.BestStreak = 2
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	stored, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(47), stored.TotalPoints)
	assert.Equal(t, 2, stored.CurrentStreak)
	assert.Equal(t, int64(2), stored.Version)
	require.NotNil(t, stored.LastPostDate)
	assert.True(t, stored.LastPostDate.Equal(lastPost))
}

func TestSnapshotRepository_RankAndTop(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	for userID, total := range map[int64]int64{1: 100, 2: 300, 3: 100, 4: 50} {
		_, err := repo.Refresh(ctx, userID, setTotal(total))
		require.NoError(t, err)
	}

	rank, err := repo.RankOf(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = repo.RankOf(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = repo.RankOf(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rank)

	rank, err = repo.RankOf(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rank)

	top, err := repo.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{top[0].UserID, top[1].UserID, top[2].UserID})

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	ids, err := repo.AllUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
}
